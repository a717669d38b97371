package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/scheduler"
	"github.com/wonny/twstock/internal/syncer"
	"github.com/wonny/twstock/pkg/logger"
)

type fakeUpdater struct {
	days    []time.Time
	futErr  error
	allErr  error
	futures int
	all     int
}

func (f *fakeUpdater) UpdateAll(ctx context.Context, today time.Time) *syncer.RunReport {
	f.all++
	f.days = append(f.days, today)
	report := &syncer.RunReport{RunID: "run", Horizon: today, Errors: map[contracts.Stage]error{}}
	if f.allErr != nil {
		report.Errors[contracts.StageIndex] = f.allErr
	}
	return report
}

func (f *fakeUpdater) UpdateFutures(ctx context.Context, today time.Time) *syncer.RunReport {
	f.futures++
	report := &syncer.RunReport{RunID: "run", Horizon: today, Errors: map[contracts.Stage]error{}}
	if f.futErr != nil {
		report.Errors[contracts.StageFutures] = f.futErr
		return report
	}
	report.Futures = &syncer.FuturesResult{Fetched: 3, Mappings: 2}
	return report
}

func fixedHorizon() time.Time {
	return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
}

func TestUpdateAllJob(t *testing.T) {
	updater := &fakeUpdater{}
	job := NewUpdateAllJob(updater, fixedHorizon, logger.Nop())

	assert.Equal(t, "update_all", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []time.Time{fixedHorizon()}, updater.days)

	updater.allErr = errors.New("index down")
	assert.ErrorContains(t, job.Run(context.Background()), "index down")
}

func TestFutureCodesJob(t *testing.T) {
	updater := &fakeUpdater{futErr: contracts.ErrEmptyMappingSet}
	job := NewFutureCodesJob(updater, fixedHorizon, logger.Nop())

	assert.Equal(t, "future_codes", job.Name())
	assert.ErrorIs(t, job.Run(context.Background()), contracts.ErrEmptyMappingSet)

	updater.futErr = nil
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2, updater.futures)
}

func TestJobsRegisterWithScheduler(t *testing.T) {
	updater := &fakeUpdater{}
	sched := scheduler.New(logger.Nop(), scheduler.WithLocation(time.FixedZone("CST", 8*3600)))

	require.NoError(t, sched.AddJob(NewUpdateAllJob(updater, fixedHorizon, logger.Nop())))
	require.NoError(t, sched.AddJob(NewFutureCodesJob(updater, fixedHorizon, logger.Nop())))
	assert.Equal(t, []string{"future_codes", "update_all"}, sched.GetAllJobs())

	result, err := sched.RunJobNow(context.Background(), "update_all")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, updater.all)
}
