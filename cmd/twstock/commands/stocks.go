package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twstock/internal/store"
)

// stocksCmd represents the stocks command
var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "Query tracked symbols",
	Long: `Query the symbols in the store joined with their futures contracts.

Filters:
  --begin   symbols stored since at least this date (mindate <= begin)
  --end     symbols stored up to at least this date (maxdate >= end)
  --market  TWSE or OTC (TPEX accepted)

Example:
  go run ./cmd/twstock stocks list --market OTC --limit 20
  go run ./cmd/twstock stocks count --end 2024-06-28
  go run ./cmd/twstock stocks info 2330`,
}

var (
	stocksBegin  string
	stocksEnd    string
	stocksMarket string
	stocksLimit  int

	stocksListCmd = &cobra.Command{
		Use:   "list",
		Short: "List symbols",
		RunE:  listStocks,
	}

	stocksCountCmd = &cobra.Command{
		Use:   "count",
		Short: "Count symbols",
		RunE:  countStocks,
	}

	stocksInfoCmd = &cobra.Command{
		Use:   "info [id]",
		Short: "Show one symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  stockInfo,
	}
)

func init() {
	rootCmd.AddCommand(stocksCmd)
	stocksCmd.AddCommand(stocksListCmd)
	stocksCmd.AddCommand(stocksCountCmd)
	stocksCmd.AddCommand(stocksInfoCmd)

	for _, c := range []*cobra.Command{stocksListCmd, stocksCountCmd} {
		c.Flags().StringVar(&stocksBegin, "begin", "", "covered since YYYY-MM-DD")
		c.Flags().StringVar(&stocksEnd, "end", "", "covered up to YYYY-MM-DD")
		c.Flags().StringVar(&stocksMarket, "market", "", "TWSE or OTC")
	}
	stocksListCmd.Flags().IntVar(&stocksLimit, "limit", 0, "max rows (0 = all)")
}

func stockFilter() (store.StockFilter, error) {
	f := store.StockFilter{Market: stocksMarket, Limit: stocksLimit}

	var err error
	if f.Begin, err = optionalDate("--begin", stocksBegin); err != nil {
		return f, err
	}
	if f.End, err = optionalDate("--end", stocksEnd); err != nil {
		return f, err
	}
	return f, nil
}

func optionalDate(flag, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%s must be YYYY-MM-DD: %w", flag, err)
	}
	return &d, nil
}

func listStocks(cmd *cobra.Command, args []string) error {
	f, err := stockFilter()
	if err != nil {
		return err
	}

	a, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	stocks, err := a.store.ListStocks(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("list stocks: %w", err)
	}

	widths := []int{32, 6, 10, 10}
	PrintTableHeader([]string{"Stock", "Market", "From", "To"}, widths)
	for _, s := range stocks {
		from, to := formatWatermark(s.Watermark)
		PrintTableRow([]string{s.Title(), s.Market, from, to}, widths)
	}
	fmt.Printf("\n%d stocks\n", len(stocks))

	return nil
}

func countStocks(cmd *cobra.Command, args []string) error {
	f, err := stockFilter()
	if err != nil {
		return err
	}

	a, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.store.CountStocks(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("count stocks: %w", err)
	}

	fmt.Println(n)
	return nil
}

func stockInfo(cmd *cobra.Command, args []string) error {
	a, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	info, err := a.store.StockInfo(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	from, to := formatWatermark(info.Watermark)

	fmt.Println(info.Title())
	PrintSeparator()
	PrintKeyValue("market", info.Market, 11)
	PrintKeyValue("from", from, 11)
	PrintKeyValue("to", to, 11)
	PrintKeyValue("future", orDash(info.Future), 11)
	PrintKeyValue("mini future", orDash(info.MiniFuture), 11)

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
