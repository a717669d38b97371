package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	todayFlag string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "twstock",
	Short: "Taiwan stock market data synchronizer",
	Long: `twstock keeps a local store of TWSE/TPEx daily quotes,
the TAIEX index and the TAIFEX stock futures list up to date.

Each run only fetches the trading days missing since the last stored date.

Usage:
  go run ./cmd/twstock [command]

Examples:
  go run ./cmd/twstock update
  go run ./cmd/twstock quotes update
  go run ./cmd/twstock twse update
  go run ./cmd/twstock future codes
  go run ./cmd/twstock stocks list --market OTC`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&todayFlag, "today", "", "sync horizon YYYY-MM-DD (default: derived from the market close cutoff)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// parseToday returns the --today flag as a date, or false when unset
func parseToday() (time.Time, bool, error) {
	if todayFlag == "" {
		return time.Time{}, false, nil
	}
	d, err := time.Parse("2006-01-02", todayFlag)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
	}
	return d, true, nil
}
