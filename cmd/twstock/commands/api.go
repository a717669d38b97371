package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/api"
	"github.com/wonny/twstock/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the read-only API server",
	Long: `Serve the stored data over HTTP.

Endpoints:
  GET  /health                  - store status and latest stored date
  GET  /api/stocks              - symbols (?market=&begin=&end=&limit=)
  GET  /api/stocks/{id}         - one symbol with its futures contracts
  GET  /api/stocks/{id}/quotes  - daily quotes (?from=&to=&limit=&order=desc)

Example:
  go run ./cmd/twstock api
  go run ./cmd/twstock api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(
		handlers.NewStockHandler(a.store, a.log),
		handlers.NewHealthHandler(a.db, a.store, a.log),
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
