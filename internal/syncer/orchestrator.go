package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// ErrBlocked marks a stage that did not run because a stage it depends on failed
var ErrBlocked = errors.New("blocked by failed dependency")

// RunReport aggregates one orchestrated run.
// Only the stages that were requested are set.
type RunReport struct {
	RunID    string                     `json:"run_id"`
	Horizon  time.Time                  `json:"horizon"`
	Stages   []contracts.Stage          `json:"stages"`
	Registry *contracts.ReconcileResult `json:"registry,omitempty"`
	Quotes   *Summary                   `json:"quotes,omitempty"`
	Index    *Summary                   `json:"index,omitempty"`
	Futures  *FuturesResult             `json:"futures,omitempty"`
	Errors   map[contracts.Stage]error  `json:"-"`
	Started  time.Time                  `json:"started"`
	Finished time.Time                  `json:"finished"`
}

func newRunReport(today time.Time, stages ...contracts.Stage) *RunReport {
	return &RunReport{
		RunID:   uuid.New().String(),
		Horizon: today,
		Stages:  stages,
		Errors:  make(map[contracts.Stage]error),
		Started: time.Now(),
	}
}

// Err joins the stage errors in update order, nil when every stage completed
func (r *RunReport) Err() error {
	var errs []error
	for _, stage := range contracts.AllStages() {
		if err, ok := r.Errors[stage]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", stage, err))
		}
	}
	return errors.Join(errs...)
}

// Failed reports whether any stage failed outright.
// Per-symbol quote failures live in the quote summary and do not count.
func (r *RunReport) Failed() bool {
	return len(r.Errors) > 0
}

// Orchestrator sequences the synchronizers.
// Registry failure blocks quotes only; index and futures always run when requested.
// ⭐ SSOT: 업데이트 순서는 여기서만 결정
type Orchestrator struct {
	registry *RegistrySyncer
	quotes   *QuoteSyncer
	index    *IndexSyncer
	futures  *FuturesSyncer
	logger   *logger.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(registry *RegistrySyncer, quotes *QuoteSyncer, index *IndexSyncer, futures *FuturesSyncer, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		quotes:   quotes,
		index:    index,
		futures:  futures,
		logger:   log.WithComponent("orchestrator"),
	}
}

// UpdateAll runs registry, quotes, index and futures in order
func (o *Orchestrator) UpdateAll(ctx context.Context, today time.Time) *RunReport {
	report := newRunReport(today, contracts.AllStages()...)
	log := o.runLogger(report)
	log.Info("Update started")

	o.runQuotes(ctx, log, report)
	o.runIndex(ctx, log, report)
	o.runFutures(ctx, log, report)

	return o.finish(log, report)
}

// UpdateQuotes runs registry then quotes
func (o *Orchestrator) UpdateQuotes(ctx context.Context, today time.Time) *RunReport {
	report := newRunReport(today, contracts.StageRegistry, contracts.StageQuotes)
	log := o.runLogger(report)

	o.runQuotes(ctx, log, report)
	return o.finish(log, report)
}

// UpdateIndex runs the index stage alone
func (o *Orchestrator) UpdateIndex(ctx context.Context, today time.Time) *RunReport {
	report := newRunReport(today, contracts.StageIndex)
	log := o.runLogger(report)

	o.runIndex(ctx, log, report)
	return o.finish(log, report)
}

// UpdateFutures runs the futures mapping stage alone
func (o *Orchestrator) UpdateFutures(ctx context.Context, today time.Time) *RunReport {
	report := newRunReport(today, contracts.StageFutures)
	log := o.runLogger(report)

	o.runFutures(ctx, log, report)
	return o.finish(log, report)
}

func (o *Orchestrator) runLogger(report *RunReport) *logger.Logger {
	return o.logger.WithRun(report.RunID, report.Horizon)
}

func (o *Orchestrator) runQuotes(ctx context.Context, log *logger.Logger, report *RunReport) {
	reg, err := o.registry.Sync(ctx, report.Horizon)
	if err != nil {
		log.WithError(err).Error("Registry stage failed, quotes blocked")
		report.Errors[contracts.StageRegistry] = err
		report.Errors[contracts.StageQuotes] = fmt.Errorf("%w: %s", ErrBlocked, contracts.StageRegistry)
		return
	}
	report.Registry = &reg

	summary, err := o.quotes.Sync(ctx, report.Horizon)
	if err != nil {
		log.WithError(err).Error("Quote stage failed")
		report.Errors[contracts.StageQuotes] = err
		return
	}
	report.Quotes = summary
}

func (o *Orchestrator) runIndex(ctx context.Context, log *logger.Logger, report *RunReport) {
	summary, err := o.index.Sync(ctx, report.Horizon)
	if err != nil {
		log.WithError(err).Error("Index stage failed")
		report.Errors[contracts.StageIndex] = err
		return
	}
	report.Index = summary
	if err := summary.Err(); err != nil {
		report.Errors[contracts.StageIndex] = err
	}
}

func (o *Orchestrator) runFutures(ctx context.Context, log *logger.Logger, report *RunReport) {
	result, err := o.futures.Sync(ctx)
	if err != nil {
		log.WithError(err).Error("Futures stage failed, mapping table untouched")
		report.Errors[contracts.StageFutures] = err
		return
	}
	report.Futures = &result
}

func (o *Orchestrator) finish(log *logger.Logger, report *RunReport) *RunReport {
	report.Finished = time.Now()

	fields := map[string]interface{}{
		"stages":   len(report.Stages),
		"errors":   len(report.Errors),
		"duration": report.Finished.Sub(report.Started).String(),
	}
	if report.Quotes != nil {
		fields["quotes_failed"] = report.Quotes.Count(StatusFailed)
	}
	log.WithFields(fields).Info("Update finished")

	return report
}
