package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/merge"
	"github.com/wonny/twstock/internal/planner"
	"github.com/wonny/twstock/pkg/logger"
)

// QuoteSyncer brings every symbol's quotes up to the horizon.
// Work runs in rounds: round k fetches the k-th sub-range of every symbol still
// behind, so symbols share each daily report while it is cached.
// A symbol stops at its first failed sub-range; others are unaffected.
// ⭐ SSOT: 종목 시세 동기화는 여기서만
type QuoteSyncer struct {
	store   contracts.WatermarkReader
	fetcher contracts.QuoteFetcher
	engine  *merge.Engine
	planner *planner.Planner
	workers int
	logger  *logger.Logger
}

// NewQuoteSyncer creates a quote synchronizer; workers < 1 means sequential
func NewQuoteSyncer(
	store contracts.WatermarkReader,
	fetcher contracts.QuoteFetcher,
	engine *merge.Engine,
	plan *planner.Planner,
	workers int,
	log *logger.Logger,
) *QuoteSyncer {
	if workers < 1 {
		workers = 1
	}
	return &QuoteSyncer{
		store:   store,
		fetcher: fetcher,
		engine:  engine,
		planner: plan,
		workers: workers,
		logger:  log.WithComponent("quotes"),
	}
}

type symbolState struct {
	symbol   contracts.Symbol
	requests []planner.Request
	result   SeriesResult
	stopped  bool
}

// Sync plans and merges every symbol in ascending id order.
// The error is non-nil only when the symbol list itself cannot be read.
func (s *QuoteSyncer) Sync(ctx context.Context, today time.Time) (*Summary, error) {
	summary := &Summary{Stage: contracts.StageQuotes, Started: time.Now()}

	symbols, err := s.store.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]*symbolState, 0, len(symbols))
	rounds := 0
	for _, sym := range symbols {
		reqs := s.planner.Plan(sym.ID, sym.Watermark, today)
		st := &symbolState{
			symbol:   sym,
			requests: reqs,
			result: SeriesResult{
				Symbol:    sym.ID,
				Status:    StatusCurrent,
				Requests:  len(reqs),
				Watermark: sym.Watermark,
			},
		}
		if len(reqs) > rounds {
			rounds = len(reqs)
		}
		states = append(states, st)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(states),
		"rounds":  rounds,
		"today":   today.Format("2006-01-02"),
		"workers": s.workers,
	}).Info("Starting quote sync")

	for round := 0; round < rounds; round++ {
		var active []*symbolState
		for _, st := range states {
			if !st.stopped && round < len(st.requests) {
				active = append(active, st)
			}
		}
		if len(active) == 0 {
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"round":   round + 1,
			"symbols": len(active),
			"range":   active[0].requests[round].String(),
		}).Debug("Quote round")

		s.runRound(ctx, round, active)
	}

	for _, st := range states {
		summary.Results = append(summary.Results, st.result)
	}
	summary.Finished = time.Now()

	s.logger.WithFields(map[string]interface{}{
		"synced":   summary.Count(StatusSynced),
		"current":  summary.Count(StatusCurrent),
		"skipped":  summary.Count(StatusSkipped),
		"failed":   summary.Count(StatusFailed),
		"written":  summary.Written(),
		"rejected": summary.Rejected(),
	}).Info("Quote sync completed")

	return summary, nil
}

// runRound processes one sub-range per active symbol with a bounded worker pool
func (s *QuoteSyncer) runRound(ctx context.Context, round int, active []*symbolState) {
	workers := s.workers
	if workers > len(active) {
		workers = len(active)
	}

	var wg sync.WaitGroup
	stateCh := make(chan *symbolState, len(active))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for st := range stateCh {
				s.step(ctx, workerID, st, st.requests[round])
			}
		}(i)
	}

	for _, st := range active {
		stateCh <- st
	}
	close(stateCh)
	wg.Wait()
}

// step fetches and merges one sub-range of one symbol
func (s *QuoteSyncer) step(ctx context.Context, workerID int, st *symbolState, req planner.Request) {
	if err := ctx.Err(); err != nil {
		s.fail(st, err)
		return
	}

	raws, err := s.fetcher.FetchQuotes(ctx, st.symbol, req.DateRange)
	if err != nil {
		if errors.Is(err, contracts.ErrSymbolNotFound) {
			st.stopped = true
			st.result.Status = StatusSkipped
			st.result.Reason = "not listed at source"
			s.logger.WithSymbol(st.symbol.ID).Info("Symbol not listed, skipped")
			return
		}
		s.logger.WithSymbol(st.symbol.ID).WithError(err).WithFields(map[string]interface{}{
			"worker": workerID,
			"range":  req.String(),
		}).Error("Failed to fetch quotes")
		s.fail(st, fmt.Errorf("fetch %s: %w", req.String(), err))
		return
	}

	res, err := s.engine.MergeQuotes(ctx, st.symbol.ID, raws)
	st.result.Rejected += res.Rejected
	if err != nil {
		s.logger.WithSymbol(st.symbol.ID).WithError(err).WithField("worker", workerID).Error("Failed to merge quotes")
		s.fail(st, err)
		return
	}

	st.result.Written += res.Accepted
	st.result.Status = StatusSynced
	if res.Written {
		st.result.Watermark = res.Watermark
	}

	s.logger.WithSymbol(st.symbol.ID).WithFields(map[string]interface{}{
		"worker":   workerID,
		"range":    req.String(),
		"accepted": res.Accepted,
		"rejected": res.Rejected,
	}).Debug("Merged quotes")
}

func (s *QuoteSyncer) fail(st *symbolState, err error) {
	st.stopped = true
	st.result.Status = StatusFailed
	st.result.Err = err
	st.result.Reason = err.Error()
}
