package twse

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
const Source = "twse"

// Client reads the Taiwan Stock Exchange CSV reports
// ⭐ SSOT: TWSE 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a TWSE client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("twse"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// DailyReport fetches the whole-market daily quotes (MI_INDEX) for date.
// A day without trading yields an empty slice.
func (c *Client) DailyReport(ctx context.Context, date time.Time) ([]contracts.RawQuote, error) {
	url := fmt.Sprintf("%s/exchangeReport/MI_INDEX?response=csv&date=%s&type=ALL", c.baseURL, date.Format("20060102"))

	body, err := c.httpClient.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("twse daily report %s: %w", date.Format("2006-01-02"), err)
	}

	rows := parseDailyReport(csvutil.DecodeBig5(body), date)

	c.logger.WithFields(map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"count": len(rows),
	}).Debug("Fetched daily report")
	return rows, nil
}

// IndexHistory fetches the TAIEX daily history (MI_5MINS_HIST) of one month
func (c *Client) IndexHistory(ctx context.Context, year int, month time.Month) ([]contracts.RawIndex, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	url := fmt.Sprintf("%s/indicesReport/MI_5MINS_HIST?response=csv&date=%s", c.baseURL, first.Format("20060102"))

	body, err := c.httpClient.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("twse index history %s: %w", first.Format("2006-01"), err)
	}

	rows := parseIndexHistory(csvutil.DecodeBig5(body))

	c.logger.WithFields(map[string]interface{}{
		"month": first.Format("2006-01"),
		"count": len(rows),
	}).Debug("Fetched index history")
	return rows, nil
}

// parseDailyReport extracts security rows.
// Columns: id, name, volume, tickcount, turnover, open, high, low, close, sign, delta, ...
func parseDailyReport(text string, date time.Time) []contracts.RawQuote {
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
			Volume:    csvutil.Clean(row[2]),
			TickCount: csvutil.Clean(row[3]),
			Turnover:  csvutil.Clean(row[4]),
			Open:      csvutil.Clean(row[5]),
			High:      csvutil.Clean(row[6]),
			Low:       csvutil.Clean(row[7]),
			Close:     csvutil.Clean(row[8]),
			Delta:     signedDelta(row[9], row[10]),
		})
	}
	return out
}

// signedDelta applies the sign column (often wrapped in HTML) to the unsigned delta.
// "X" marks a day with no comparable reference price.
func signedDelta(sign, value string) string {
	if strings.Contains(sign, "X") {
		return ""
	}
	v := csvutil.Clean(value)
	if v == "" {
		return ""
	}
	if strings.Contains(sign, "-") && !strings.HasPrefix(v, "-") {
		return "-" + v
	}
	return v
}

// parseIndexHistory extracts rows of date, open, high, low, close
func parseIndexHistory(text string) []contracts.RawIndex {
	var out []contracts.RawIndex
	for _, row := range csvutil.Records(text) {
		if len(row) < 5 {
			continue
		}
		d, err := csvutil.ParseROCDate(csvutil.Clean(row[0]))
		if err != nil {
			continue
		}

		out = append(out, contracts.RawIndex{
			Date:  d,
			Open:  csvutil.Clean(row[1]),
			High:  csvutil.Clean(row[2]),
			Low:   csvutil.Clean(row[3]),
			Close: csvutil.Clean(row[4]),
		})
	}
	return out
}
