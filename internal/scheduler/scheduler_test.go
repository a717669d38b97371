package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twstock/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	failures int32 // attempts that fail before success
	runs     int32
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("source unavailable")
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&testJob{name: "update_all", schedule: "0 30 15 * * MON-FRI"}))
	assert.Error(t, s.AddJob(&testJob{name: "update_all", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&testJob{name: "broken", schedule: "not a schedule"}))

	assert.Equal(t, []string{"update_all"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&testJob{name: "future_codes", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("future_codes"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("future_codes"))
}

func TestRunJobNow_Retries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, time.Millisecond))
	job := &testJob{name: "update_all", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "update_all")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)

	history, err := s.GetJobHistory("update_all")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
}

func TestRunJobNow_ExhaustsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(1, time.Millisecond))
	require.NoError(t, s.AddJob(&testJob{name: "update_all", schedule: "@daily", failures: 10}))

	result, err := s.RunJobNow(context.Background(), "update_all")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "source unavailable", result.Error)

	stats := s.GetJobStats()["update_all"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobNow_CancelStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &testJob{name: "update_all", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJobNow(ctx, "update_all")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.runs))
}

func TestRunJobNow_Unknown(t *testing.T) {
	s := New(logger.Nop())
	_, err := s.RunJobNow(context.Background(), "missing")
	assert.Error(t, err)
}

func TestNextRun_UsesLocation(t *testing.T) {
	taipei := time.FixedZone("CST", 8*3600)
	s := New(logger.Nop(), WithLocation(taipei))
	require.NoError(t, s.AddJob(&testJob{name: "update_all", schedule: "0 30 15 * * MON-FRI"}))

	s.Start()
	defer s.Stop()

	next, err := s.NextRun("update_all")
	require.NoError(t, err)
	require.False(t, next.IsZero())

	local := next.In(taipei)
	assert.Equal(t, 15, local.Hour())
	assert.Equal(t, 30, local.Minute())
	assert.NotEqual(t, time.Saturday, local.Weekday())
	assert.NotEqual(t, time.Sunday, local.Weekday())
}

func TestJobHistory_Stats(t *testing.T) {
	var h JobHistory
	base := time.Date(2024, 1, 8, 15, 30, 0, 0, time.UTC)
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{JobName: "update_all", StartTime: base.AddDate(0, 0, i), Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)

	stats := h.Stats("update_all", "0 30 15 * * MON-FRI")
	assert.Equal(t, historyLimit, stats.TotalRuns)
	assert.Equal(t, historyLimit/2, stats.SuccessCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)

	// last index historyLimit+4 is even, so the latest run succeeded
	last := base.AddDate(0, 0, historyLimit+4)
	assert.Equal(t, last, *stats.LastRun)
	assert.Equal(t, last, *stats.LastSuccess)
	assert.Equal(t, last.AddDate(0, 0, -1), *stats.LastFailure)

	empty := (&JobHistory{}).Stats("future_codes", "@daily")
	assert.Zero(t, empty.TotalRuns)
	assert.Nil(t, empty.LastRun)
}
