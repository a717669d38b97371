package source

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// IndexHistorian returns one month of TAIEX history
type IndexHistorian interface {
	IndexHistory(ctx context.Context, year int, month time.Month) ([]contracts.RawIndex, error)
}

// IndexAdapter serves TAIEX ranges out of monthly history reports
type IndexAdapter struct {
	source IndexHistorian
	logger *logger.Logger
}

// NewIndexAdapter creates an index adapter
func NewIndexAdapter(src IndexHistorian, log *logger.Logger) *IndexAdapter {
	return &IndexAdapter{source: src, logger: log.WithComponent("index_source")}
}

// FetchIndex loads every month touched by r and keeps the rows inside it
func (a *IndexAdapter) FetchIndex(ctx context.Context, r contracts.DateRange) ([]contracts.RawIndex, error) {
	from, to := calendar.Day(r.From), calendar.Day(r.To)

	var rows []contracts.RawIndex
	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		month, err := a.source.IndexHistory(ctx, m.Year(), m.Month())
		if err != nil {
			return nil, fmt.Errorf("index history %s: %w", m.Format("2006-01"), err)
		}

		for _, row := range month {
			d := calendar.Day(row.Date)
			if d.Before(from) || d.After(to) {
				continue
			}
			rows = append(rows, row)
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"range": r.String(),
		"count": len(rows),
	}).Debug("Fetched index rows")
	return rows, nil
}
