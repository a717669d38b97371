package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/store"
	"github.com/wonny/twstock/pkg/config"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store connection and coverage",
	Long: `Check the store connection and show what is stored.

이 명령어는:
- config에서 store 위치 로드
- Ping / Health Check
- Connection Pool 통계 (postgres)
- 종목 수, 최신 일자, TAIEX 범위, 선물 매핑 수

Example:
  go run ./cmd/twstock status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openStore(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer a.close()

	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", a.cfg.Env))
	PrintKeyValue("driver", a.db.Driver, 10)
	PrintKeyValue("location", storeLocation(a.cfg), 10)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	status, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("Health check failed: %v", err))
		return err
	}
	PrintSuccess(fmt.Sprintf("Store healthy (%v)", status.ResponseTime))

	if status.Stats != nil {
		fmt.Println("\n📊 Connection Pool Statistics:")
		PrintKeyValue("max", fmt.Sprint(status.Stats.MaxConns), 10)
		PrintKeyValue("total", fmt.Sprint(status.Stats.TotalConns), 10)
		PrintKeyValue("acquired", fmt.Sprint(status.Stats.AcquiredConns), 10)
		PrintKeyValue("idle", fmt.Sprint(status.Stats.IdleConns), 10)
	}

	stocks, err := a.store.CountStocks(ctx, store.StockFilter{})
	if err != nil {
		return fmt.Errorf("count stocks: %w", err)
	}
	maxDate, ok, err := a.store.MaxDate(ctx)
	if err != nil {
		return err
	}
	index, err := a.store.IndexWatermark(ctx)
	if err != nil {
		return err
	}
	mappings, err := a.store.FuturesMappings(ctx)
	if err != nil {
		return err
	}

	latest := "-"
	if ok {
		latest = maxDate.Format("2006-01-02")
	}

	fmt.Println("\n📈 Coverage:")
	PrintKeyValue("stocks", fmt.Sprint(stocks), 10)
	PrintKeyValue("latest", latest, 10)
	PrintKeyValue("taiex", index.String(), 10)
	PrintKeyValue("futures", fmt.Sprint(len(mappings)), 10)

	return nil
}

// storeLocation renders the store location without credentials
func storeLocation(cfg *config.Config) string {
	if cfg.Store.Driver != config.DriverPostgres {
		return cfg.Store.Path
	}
	u, err := url.Parse(cfg.Store.URL)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
