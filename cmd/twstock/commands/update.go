package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/syncer"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update everything (registry, quotes, index, futures)",
	Long: `Bring the whole store up to the horizon.

Stages run in order:
  REGISTRY → QUOTES    symbol discovery, then per-symbol daily quotes
  INDEX                TAIEX daily history
  FUTURES              TAIFEX stock futures mapping

A registry failure blocks quotes only. Index and futures still run.

Example:
  go run ./cmd/twstock update
  go run ./cmd/twstock update --today 2024-01-05`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd, "Full update", (*syncer.Orchestrator).UpdateAll)
	},
}

var (
	quotesCmd = &cobra.Command{
		Use:   "quotes",
		Short: "Daily quotes",
	}

	quotesUpdateCmd = &cobra.Command{
		Use:   "update",
		Short: "Discover symbols and update their daily quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, "Quote update", (*syncer.Orchestrator).UpdateQuotes)
		},
	}

	twseCmd = &cobra.Command{
		Use:   "twse",
		Short: "TAIEX index",
	}

	twseUpdateCmd = &cobra.Command{
		Use:   "update",
		Short: "Update the TAIEX daily history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, "TAIEX update", (*syncer.Orchestrator).UpdateIndex)
		},
	}

	futureCmd = &cobra.Command{
		Use:   "future",
		Short: "Stock futures",
	}

	futureCodesCmd = &cobra.Command{
		Use:   "codes",
		Short: "Replace the stock futures mapping table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, "Futures codes", (*syncer.Orchestrator).UpdateFutures)
		},
	}
)

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(quotesCmd)
	rootCmd.AddCommand(twseCmd)
	rootCmd.AddCommand(futureCmd)

	quotesCmd.AddCommand(quotesUpdateCmd)
	twseCmd.AddCommand(twseUpdateCmd)
	futureCmd.AddCommand(futureCodesCmd)
}

type updateFunc func(o *syncer.Orchestrator, ctx context.Context, today time.Time) *syncer.RunReport

func runUpdate(cmd *cobra.Command, title string, update updateFunc) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	today, _, err := parseToday()
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if today, err = a.horizon(); err != nil {
		return err
	}

	PrintRunHeader(title, today)

	report := update(a.orchestrator, ctx, today)
	PrintRunReport(report)

	if report.Failed() {
		return fmt.Errorf("update failed: %w", report.Err())
	}
	return nil
}
