package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/store"
)

var (
	quotesFrom  string
	quotesTo    string
	quotesLimit int
	quotesDesc  bool

	quotesShowCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Show stored daily quotes of one symbol",
		Long: `Show stored daily quotes of one symbol.

Example:
  go run ./cmd/twstock quotes show 2330 --limit 5 --desc
  go run ./cmd/twstock quotes show 6488 --from 2024-01-01 --to 2024-01-31`,
		Args: cobra.ExactArgs(1),
		RunE: showQuotes,
	}
)

func init() {
	quotesCmd.AddCommand(quotesShowCmd)

	quotesShowCmd.Flags().StringVar(&quotesFrom, "from", "", "first date YYYY-MM-DD")
	quotesShowCmd.Flags().StringVar(&quotesTo, "to", "", "last date YYYY-MM-DD")
	quotesShowCmd.Flags().IntVar(&quotesLimit, "limit", 0, "max rows (0 = all)")
	quotesShowCmd.Flags().BoolVar(&quotesDesc, "desc", false, "latest first")
}

func showQuotes(cmd *cobra.Command, args []string) error {
	q := store.QuoteQuery{Limit: quotesLimit, Descending: quotesDesc}

	var err error
	if q.From, err = optionalDate("--from", quotesFrom); err != nil {
		return err
	}
	if q.To, err = optionalDate("--to", quotesTo); err != nil {
		return err
	}

	a, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()

	info, err := a.store.StockInfo(ctx, args[0])
	if err != nil {
		return err
	}

	quotes, err := a.store.FetchQuotes(ctx, info.ID, q)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	fmt.Println(info.Title())
	widths := []int{10, 9, 9, 9, 9, 8, 12, 7}
	PrintTableHeader([]string{"Date", "Open", "High", "Low", "Close", "Delta", "Volume", "Ticks"}, widths)
	for _, qt := range quotes {
		delta := "X"
		if qt.Delta.Valid {
			delta = qt.Delta.Decimal.String()
		}
		PrintTableRow([]string{
			qt.Date.Format("2006-01-02"),
			qt.Open.String(),
			qt.High.String(),
			qt.Low.String(),
			qt.Close.String(),
			delta,
			fmt.Sprint(qt.Volume),
			fmt.Sprint(qt.TickCount),
		}, widths)
	}
	fmt.Printf("\n%d quotes\n", len(quotes))

	return nil
}
