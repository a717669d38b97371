package tpex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/external/csvutil"
	"github.com/wonny/twstock/pkg/httputil"
	"github.com/wonny/twstock/pkg/logger"
)

// Source tag on raw records
const Source = "tpex"

// Client reads the Taipei Exchange (OTC) daily quotes CSV
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a TPEx client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("tpex"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// DailyReport fetches the OTC daily quotes for date.
// A day without trading yields an empty slice.
func (c *Client) DailyReport(ctx context.Context, date time.Time) ([]contracts.RawQuote, error) {
	url := fmt.Sprintf("%s/www/zh-tw/afterTrading/dailyQuotes?date=%s&response=csv", c.baseURL, date.Format("2006/01/02"))

	body, err := c.httpClient.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("tpex daily quotes %s: %w", date.Format("2006-01-02"), err)
	}

	rows := parseDailyQuotes(csvutil.DecodeBig5(body), date)

	c.logger.WithFields(map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"count": len(rows),
	}).Debug("Fetched daily quotes")
	return rows, nil
}

// parseDailyQuotes extracts security rows.
// Columns: id, name, close, delta, open, high, low, avg, volume, turnover, tickcount, ...
func parseDailyQuotes(text string, date time.Time) []contracts.RawQuote {
	var out []contracts.RawQuote
	for _, row := range csvutil.Records(text) {
		if len(row) < 11 {
			continue
		}
		id := csvutil.Clean(row[0])
		if !csvutil.IsSecurityID(id) {
			continue
		}

		out = append(out, contracts.RawQuote{
			Source:    Source,
			Symbol:    id,
			Name:      strings.TrimSpace(row[1]),
			Date:      date,
			Close:     csvutil.Clean(row[2]),
			Delta:     csvutil.Clean(row[3]),
			Open:      csvutil.Clean(row[4]),
			High:      csvutil.Clean(row[5]),
			Low:       csvutil.Clean(row[6]),
			Volume:    csvutil.Clean(row[8]),
			Turnover:  csvutil.Clean(row[9]),
			TickCount: csvutil.Clean(row[10]),
		})
	}
	return out
}
