package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// discoveryLookback bounds how far back Discover searches for a published report
const discoveryLookback = 10

// DailyReporter returns one market's full daily report.
// A day without trading (or not yet published) yields an empty report.
type DailyReporter interface {
	DailyReport(ctx context.Context, date time.Time) ([]contracts.RawQuote, error)
}

// QuoteAdapter serves per-symbol quotes out of whole-market daily reports
// ⭐ SSOT: 종목별 시세 조회와 상장 종목 탐색
type QuoteAdapter struct {
	cal     *calendar.Calendar
	markets map[string]DailyReporter
	cache   *ReportCache
	logger  *logger.Logger

	mu     sync.RWMutex
	listed map[string]map[string]bool // market -> ids of the latest report
}

// NewQuoteAdapter creates an adapter over the listed (TWSE) and OTC (TPEx) reports
func NewQuoteAdapter(cal *calendar.Calendar, listed, otc DailyReporter, cache *ReportCache, log *logger.Logger) *QuoteAdapter {
	return &QuoteAdapter{
		cal: cal,
		markets: map[string]DailyReporter{
			contracts.MarketTWSE: listed,
			contracts.MarketOTC:  otc,
		},
		cache:  cache,
		logger: log.WithComponent("quote_source"),
		listed: make(map[string]map[string]bool),
	}
}

// Discover returns the securities of the latest non-empty TWSE and TPEx reports
// on or before asOf, sorted by id.
func (a *QuoteAdapter) Discover(ctx context.Context, asOf time.Time) ([]contracts.Listing, error) {
	var listings []contracts.Listing
	seen := make(map[string]bool)

	for _, market := range []string{contracts.MarketTWSE, contracts.MarketOTC} {
		report, day, err := a.latestReport(ctx, market, asOf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", contracts.ErrDiscovery, market, err)
		}

		ids := make(map[string]bool, len(report))
		for _, row := range report {
			ids[row.Symbol] = true
			if seen[row.Symbol] {
				continue
			}
			seen[row.Symbol] = true
			listings = append(listings, contracts.Listing{ID: row.Symbol, Name: row.Name, Market: market})
		}

		a.mu.Lock()
		a.listed[market] = ids
		a.mu.Unlock()

		a.logger.WithFields(map[string]interface{}{
			"market": market,
			"date":   day.Format("2006-01-02"),
			"count":  len(ids),
		}).Info("Discovered listed securities")
	}

	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })
	return listings, nil
}

// FetchQuotes returns the symbol's rows for every trading day in r.
// A symbol with no rows that is absent from its market's latest report
// (as seen by the last Discover) is reported as ErrSymbolNotFound.
func (a *QuoteAdapter) FetchQuotes(ctx context.Context, symbol contracts.Symbol, r contracts.DateRange) ([]contracts.RawQuote, error) {
	reporter, ok := a.markets[symbol.Market]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported market %q", symbol.ID, symbol.Market)
	}

	var rows []contracts.RawQuote
	for _, day := range a.cal.TradingDaysBetween(r.From, r.To) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, found, err := a.cache.Row(ctx, symbol.Market, day, symbol.ID, loaderFor(reporter, day))
		if err != nil {
			return nil, fmt.Errorf("%s report %s: %w", symbol.Market, day.Format("2006-01-02"), err)
		}
		if found {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 && a.delisted(symbol) {
		return nil, fmt.Errorf("%s: %w", symbol.ID, contracts.ErrSymbolNotFound)
	}
	return rows, nil
}

func (a *QuoteAdapter) delisted(symbol contracts.Symbol) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids, ok := a.listed[symbol.Market]
	if !ok {
		return false
	}
	return !ids[symbol.ID]
}

// latestReport walks back from asOf to the first non-empty report
func (a *QuoteAdapter) latestReport(ctx context.Context, market string, asOf time.Time) ([]contracts.RawQuote, time.Time, error) {
	reporter, ok := a.markets[market]
	if !ok {
		return nil, time.Time{}, fmt.Errorf("unsupported market %q", market)
	}

	day := calendar.Day(asOf)
	if !a.cal.IsTradingDay(day) {
		day = a.cal.PrevTradingDay(day)
	}

	var lastErr error
	for i := 0; i < discoveryLookback; i++ {
		report, err := a.cache.Report(ctx, market, day, loaderFor(reporter, day))
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, time.Time{}, ctx.Err()
		case err != nil:
			lastErr = err
			a.logger.WithField("date", day.Format("2006-01-02")).WithError(err).Warn("Report unavailable")
		case len(report) > 0:
			return report, day, nil
		}
		day = a.cal.PrevTradingDay(day)
	}

	if lastErr != nil {
		return nil, time.Time{}, lastErr
	}
	return nil, time.Time{}, fmt.Errorf("no report within %d trading days of %s", discoveryLookback, calendar.Day(asOf).Format("2006-01-02"))
}

func loaderFor(reporter DailyReporter, day time.Time) Loader {
	return func(ctx context.Context) ([]contracts.RawQuote, error) {
		return reporter.DailyReport(ctx, day)
	}
}
