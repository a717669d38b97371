package merge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// Store is the write side the engine needs
type Store interface {
	ApplyQuotes(ctx context.Context, symbol string, quotes []contracts.Quote) (contracts.Watermark, error)
	ApplyIndexQuotes(ctx context.Context, quotes []contracts.IndexQuote) (contracts.Watermark, error)
}

// Result describes one merged batch.
// Watermark is only meaningful when Written is true.
type Result struct {
	Accepted  int
	Rejected  int
	Written   bool
	Watermark contracts.Watermark
}

// Engine validates raw records and upserts them, one transaction per batch.
// Writes are serialized so concurrent fetchers never interleave transactions.
// ⭐ SSOT: 정규화/검증/업서트는 여기서만
type Engine struct {
	store  Store
	cal    *calendar.Calendar
	logger *logger.Logger
	mu     sync.Mutex
}

// NewEngine creates a merge engine
func NewEngine(store Store, cal *calendar.Calendar, log *logger.Logger) *Engine {
	return &Engine{store: store, cal: cal, logger: log.WithComponent("merge")}
}

// MergeQuotes normalizes raws for symbol, drops invalid rows and upserts the rest.
// A batch with nothing valid writes nothing.
func (e *Engine) MergeQuotes(ctx context.Context, symbol string, raws []contracts.RawQuote) (Result, error) {
	byDate := make(map[int64]contracts.Quote, len(raws))
	result := Result{}

	for _, raw := range raws {
		q, err := NormalizeQuote(e.cal, symbol, raw)
		if err != nil {
			result.Rejected++
			e.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"date":   raw.Date.Format("2006-01-02"),
				"source": raw.Source,
			}).WithError(err).Debug("Quote rejected")
			continue
		}
		// Last row wins for a repeated date
		byDate[q.Date.Unix()] = q
	}

	if len(byDate) == 0 {
		return result, nil
	}

	quotes := make([]contracts.Quote, 0, len(byDate))
	for _, q := range byDate {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })

	e.mu.Lock()
	wm, err := e.store.ApplyQuotes(ctx, symbol, quotes)
	e.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("merge %s: %w", symbol, err)
	}

	result.Accepted = len(quotes)
	result.Written = true
	result.Watermark = wm
	return result, nil
}

// MergeIndex normalizes and upserts TAIEX rows
func (e *Engine) MergeIndex(ctx context.Context, raws []contracts.RawIndex) (Result, error) {
	byDate := make(map[int64]contracts.IndexQuote, len(raws))
	result := Result{}

	for _, raw := range raws {
		q, err := NormalizeIndex(e.cal, raw)
		if err != nil {
			result.Rejected++
			e.logger.WithField("date", raw.Date.Format("2006-01-02")).WithError(err).Debug("Index row rejected")
			continue
		}
		byDate[q.Date.Unix()] = q
	}

	if len(byDate) == 0 {
		return result, nil
	}

	quotes := make([]contracts.IndexQuote, 0, len(byDate))
	for _, q := range byDate {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })

	e.mu.Lock()
	wm, err := e.store.ApplyIndexQuotes(ctx, quotes)
	e.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("merge index: %w", err)
	}

	result.Accepted = len(quotes)
	result.Written = true
	result.Watermark = wm
	return result, nil
}
