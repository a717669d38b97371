package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPlanner(cfg Config) *Planner {
	return New(calendar.New(nil), cfg)
}

func TestPlan_FillsGapAfterMaxDate(t *testing.T) {
	p := newPlanner(Config{Epoch: date("2007-04-23"), MaxTradingDays: 20})
	wm := contracts.NewWatermark(date("2024-01-02"), date("2024-01-05"))

	reqs := p.Plan("2330", wm, date("2024-01-10"))

	require.Len(t, reqs, 1)
	assert.Equal(t, "2330", reqs[0].Symbol)
	assert.Equal(t, date("2024-01-08"), reqs[0].From)
	assert.Equal(t, date("2024-01-10"), reqs[0].To)
	assert.Equal(t, 3, reqs[0].TradingDays)
	assert.False(t, reqs[0].AllHistory)
}

func TestPlan_AbsentWatermarkStartsAtEpoch(t *testing.T) {
	p := newPlanner(Config{Epoch: date("2024-01-06")})

	reqs := p.Plan("9999", contracts.Watermark{}, date("2024-01-10"))

	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].AllHistory)
	assert.Equal(t, date("2024-01-08"), reqs[0].From, "first trading day on or after the epoch")
	assert.Equal(t, date("2024-01-10"), reqs[0].To)
}

func TestPlan_NothingToDo(t *testing.T) {
	p := newPlanner(Config{Epoch: date("2007-04-23")})

	tests := []struct {
		name  string
		wm    contracts.Watermark
		today time.Time
	}{
		{"up to date", contracts.NewWatermark(date("2024-01-02"), date("2024-01-10")), date("2024-01-10")},
		{"ahead of today", contracts.NewWatermark(date("2024-01-02"), date("2024-01-12")), date("2024-01-10")},
		{"weekend only gap", contracts.NewWatermark(date("2024-01-02"), date("2024-01-05")), date("2024-01-07")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, p.Plan("2330", tt.wm, tt.today))
		})
	}
}

func TestPlan_ChunksByTradingDays(t *testing.T) {
	p := newPlanner(Config{Epoch: date("2007-04-23"), MaxTradingDays: 2})
	wm := contracts.NewWatermark(date("2024-01-01"), date("2024-01-02"))

	// Jan 3..9 has 5 trading days: 3,4,5,8,9
	reqs := p.Plan("2330", wm, date("2024-01-09"))

	require.Len(t, reqs, 3)
	assert.Equal(t, date("2024-01-03"), reqs[0].From)
	assert.Equal(t, date("2024-01-04"), reqs[0].To)
	assert.Equal(t, date("2024-01-05"), reqs[1].From)
	assert.Equal(t, date("2024-01-08"), reqs[1].To)
	assert.Equal(t, date("2024-01-09"), reqs[2].From)
	assert.Equal(t, date("2024-01-09"), reqs[2].To)

	// Sub-ranges are contiguous in trading days and never overlap
	for i := 1; i < len(reqs); i++ {
		assert.True(t, reqs[i].From.After(reqs[i-1].To))
	}
}

func TestPlan_ChunksByMonth(t *testing.T) {
	p := newPlanner(Config{Epoch: date("1999-01-01"), Chunking: ByMonth})
	wm := contracts.NewWatermark(date("1999-01-05"), date("2024-01-30"))

	reqs := p.Plan(contracts.IndexID, wm, date("2024-03-05"))

	require.Len(t, reqs, 3)
	assert.Equal(t, date("2024-01-31"), reqs[0].From)
	assert.Equal(t, date("2024-01-31"), reqs[0].To)
	assert.Equal(t, date("2024-02-01"), reqs[1].From)
	assert.Equal(t, date("2024-02-29"), reqs[1].To)
	assert.Equal(t, date("2024-03-01"), reqs[2].From)
	assert.Equal(t, date("2024-03-05"), reqs[2].To)
}

func TestPlan_SkipsHolidays(t *testing.T) {
	cal := calendar.New(map[time.Time]string{date("2024-01-08"): "closed"})
	p := New(cal, Config{Epoch: date("2007-04-23")})

	reqs := p.Plan("2330", contracts.NewWatermark(date("2024-01-02"), date("2024-01-05")), date("2024-01-08"))
	assert.Empty(t, reqs)
}

func TestPlan_DefaultCalendarSkipsClosures(t *testing.T) {
	cal, err := calendar.Default()
	require.NoError(t, err)
	p := New(cal, Config{Epoch: date("2007-04-23"), MaxTradingDays: 20})

	wm := contracts.NewWatermark(date("2024-01-02"), date("2025-12-31"))
	assert.Empty(t, p.Plan("2330", wm, date("2026-01-01")))

	reqs := p.Plan("2330", wm, date("2026-01-05"))
	require.Len(t, reqs, 1)
	assert.Equal(t, date("2026-01-02"), reqs[0].From)
	assert.Equal(t, 2, reqs[0].TradingDays)
}
