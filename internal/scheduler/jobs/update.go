package jobs

import (
	"context"
	"time"

	"github.com/wonny/twstock/internal/syncer"
	"github.com/wonny/twstock/pkg/logger"
)

// Updater runs orchestrated updates
type Updater interface {
	UpdateAll(ctx context.Context, today time.Time) *syncer.RunReport
	UpdateFutures(ctx context.Context, today time.Time) *syncer.RunReport
}

// HorizonFunc returns the date a run brings data up to
type HorizonFunc func() time.Time

// UpdateAllJob runs the full update after the market closes
// ⭐ SSOT: 장 마감 후 전체 업데이트 스케줄은 이 Job에서만
type UpdateAllJob struct {
	updater Updater
	horizon HorizonFunc
	logger  *logger.Logger
}

// NewUpdateAllJob creates a new full update job
func NewUpdateAllJob(updater Updater, horizon HorizonFunc, log *logger.Logger) *UpdateAllJob {
	return &UpdateAllJob{updater: updater, horizon: horizon, logger: log}
}

// Name returns the job name
func (j *UpdateAllJob) Name() string {
	return "update_all"
}

// Schedule returns the cron schedule (weekdays 15:30 market time)
func (j *UpdateAllJob) Schedule() string {
	return "0 30 15 * * MON-FRI"
}

// Run executes the full update; per-symbol failures are logged, stage failures returned
func (j *UpdateAllJob) Run(ctx context.Context) error {
	report := j.updater.UpdateAll(ctx, j.horizon())

	fields := map[string]interface{}{"run_id": report.RunID}
	if report.Quotes != nil {
		fields["quotes_written"] = report.Quotes.Written()
		fields["quotes_failed"] = report.Quotes.Count(syncer.StatusFailed)
	}
	j.logger.WithFields(fields).Info("Scheduled update finished")

	return report.Err()
}

// FutureCodesJob refreshes the stock futures mapping before the open
type FutureCodesJob struct {
	updater Updater
	horizon HorizonFunc
	logger  *logger.Logger
}

// NewFutureCodesJob creates a new futures mapping job
func NewFutureCodesJob(updater Updater, horizon HorizonFunc, log *logger.Logger) *FutureCodesJob {
	return &FutureCodesJob{updater: updater, horizon: horizon, logger: log}
}

// Name returns the job name
func (j *FutureCodesJob) Name() string {
	return "future_codes"
}

// Schedule returns the cron schedule (weekdays 08:30 market time)
func (j *FutureCodesJob) Schedule() string {
	return "0 30 8 * * MON-FRI"
}

// Run executes the futures mapping refresh
func (j *FutureCodesJob) Run(ctx context.Context) error {
	report := j.updater.UpdateFutures(ctx, j.horizon())
	if report.Futures != nil {
		j.logger.WithField("mappings", report.Futures.Mappings).Debug("Futures mappings refreshed")
	}
	return report.Err()
}
