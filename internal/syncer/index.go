package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/merge"
	"github.com/wonny/twstock/internal/planner"
	"github.com/wonny/twstock/pkg/logger"
)

// IndexSyncer brings the TAIEX series up to the horizon, one month per sub-range
type IndexSyncer struct {
	store   contracts.WatermarkReader
	fetcher contracts.IndexFetcher
	engine  *merge.Engine
	planner *planner.Planner
	logger  *logger.Logger
}

// NewIndexSyncer creates an index synchronizer
func NewIndexSyncer(store contracts.WatermarkReader, fetcher contracts.IndexFetcher, engine *merge.Engine, plan *planner.Planner, log *logger.Logger) *IndexSyncer {
	return &IndexSyncer{
		store:   store,
		fetcher: fetcher,
		engine:  engine,
		planner: plan,
		logger:  log.WithComponent("index"),
	}
}

// Sync merges the missing months in order and stops at the first failure
func (s *IndexSyncer) Sync(ctx context.Context, today time.Time) (*Summary, error) {
	summary := &Summary{Stage: contracts.StageIndex, Started: time.Now()}

	wm, err := s.store.IndexWatermark(ctx)
	if err != nil {
		return nil, err
	}

	reqs := s.planner.Plan(contracts.IndexID, wm, today)
	result := SeriesResult{
		Symbol:    contracts.IndexID,
		Status:    StatusCurrent,
		Requests:  len(reqs),
		Watermark: wm,
	}

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			result.Status, result.Err, result.Reason = StatusFailed, err, err.Error()
			break
		}

		raws, err := s.fetcher.FetchIndex(ctx, req.DateRange)
		if err != nil {
			err = fmt.Errorf("fetch %s: %w", req.String(), err)
			s.logger.WithError(err).Error("Failed to fetch index")
			result.Status, result.Err, result.Reason = StatusFailed, err, err.Error()
			break
		}

		res, err := s.engine.MergeIndex(ctx, raws)
		result.Rejected += res.Rejected
		if err != nil {
			s.logger.WithError(err).Error("Failed to merge index")
			result.Status, result.Err, result.Reason = StatusFailed, err, err.Error()
			break
		}

		result.Written += res.Accepted
		result.Status = StatusSynced
		if res.Written {
			result.Watermark = res.Watermark
		}
	}

	summary.Results = []SeriesResult{result}
	summary.Finished = time.Now()

	s.logger.WithFields(map[string]interface{}{
		"status":    result.Status,
		"requests":  result.Requests,
		"written":   result.Written,
		"watermark": result.Watermark.String(),
	}).Info("Index sync completed")

	return summary, nil
}
