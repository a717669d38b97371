package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTradingDaysBetween_SkipsWeekend(t *testing.T) {
	cal := New(nil)

	days := cal.TradingDaysBetween(date("2024-01-06"), date("2024-01-10"))
	require.Len(t, days, 3)
	assert.Equal(t, date("2024-01-08"), days[0])
	assert.Equal(t, date("2024-01-10"), days[2])
}

func TestTradingDaysBetween_Holidays(t *testing.T) {
	cal, err := Default()
	require.NoError(t, err)

	// Lunar new year 2024: Feb 6..14 closed
	days := cal.TradingDaysBetween(date("2024-02-05"), date("2024-02-16"))
	assert.Equal(t, []time.Time{date("2024-02-05"), date("2024-02-15"), date("2024-02-16")}, days)

	name, ok := cal.Holiday(date("2024-10-10"))
	assert.True(t, ok)
	assert.Equal(t, "National Day", name)
}

func TestTradingDaysBetween_EmptyRange(t *testing.T) {
	cal := New(nil)

	assert.Empty(t, cal.TradingDaysBetween(date("2024-01-10"), date("2024-01-09")))
	assert.Empty(t, cal.TradingDaysBetween(date("2024-01-06"), date("2024-01-07")))
}

func TestTradingDaysBetween_IgnoresClockAndZone(t *testing.T) {
	cal := New(nil)
	taipei := time.FixedZone("CST", 8*3600)

	days := cal.TradingDaysBetween(
		time.Date(2024, 1, 8, 23, 30, 0, 0, taipei),
		time.Date(2024, 1, 9, 1, 0, 0, 0, taipei),
	)
	assert.Equal(t, []time.Time{date("2024-01-08"), date("2024-01-09")}, days)
}

func TestNextAndPrevTradingDay(t *testing.T) {
	cal := New(map[time.Time]string{date("2024-01-08"): "test"})

	assert.Equal(t, date("2024-01-09"), cal.NextTradingDay(date("2024-01-05")))
	assert.Equal(t, date("2024-01-05"), cal.PrevTradingDay(date("2024-01-09")))
	assert.False(t, cal.IsTradingDay(date("2024-01-08")))
}

func TestLoad_ExtraFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte("holidays:\n  - {date: 2026-03-02, name: Typhoon}\n"), 0o644))

	cal, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cal.IsTradingDay(date("2026-03-02")))
	assert.False(t, cal.IsTradingDay(date("2024-01-01")), "embedded holidays are kept")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("holidays:\n  - {date: 01/02/2024}\n"))
	assert.Error(t, err)
}

func TestDefault_CoversQuoteHistory(t *testing.T) {
	cal, err := Default()
	require.NoError(t, err)

	// quotes start at the 2007-04-23 epoch
	assert.Empty(t, cal.Uncovered(2007, time.Now().Year()), "holidays.yaml needs the missing years")
	assert.False(t, cal.Covers(1990))
}

func TestDefault_KnownClosures(t *testing.T) {
	cal, err := Default()
	require.NoError(t, err)

	for _, d := range []string{"2026-01-01", "2026-02-16", "2022-01-31", "2015-10-09", "2012-08-02", "2008-02-07"} {
		assert.False(t, cal.IsTradingDay(date(d)), d)
	}
	for _, d := range []string{"2026-02-11", "2026-02-23", "2026-01-02", "2015-10-12"} {
		assert.True(t, cal.IsTradingDay(date(d)), d)
	}
}

func TestSaturdaySessions(t *testing.T) {
	cal, err := Default()
	require.NoError(t, err)

	assert.True(t, cal.IsTradingDay(date("2000-12-30")))
	assert.False(t, cal.IsTradingDay(date("2000-12-31")), "sundays never trade")
	assert.False(t, cal.IsTradingDay(date("2001-01-06")))

	days := cal.TradingDaysBetween(date("2000-10-10"), date("2000-10-16"))
	assert.Contains(t, days, date("2000-10-14"))
	assert.NotContains(t, days, date("2000-10-15"))

	closed := NewFromSchedule(Schedule{
		Holidays:         map[time.Time]string{date("2000-10-14"): "closed"},
		SaturdaySessions: []Span{{From: date("2000-01-01"), To: date("2000-12-31")}},
	})
	assert.False(t, closed.IsTradingDay(date("2000-10-14")))
	assert.True(t, closed.IsTradingDay(date("2000-10-21")))
}

func TestLoad_ExtraTradingDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	doc := "trading_days:\n  - {date: 2026-03-07, name: Make-up session}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cal, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cal.IsTradingDay(date("2026-03-07")))
	assert.Equal(t, date("2026-03-09"), cal.NextTradingDay(date("2026-03-07")))
	assert.Equal(t, date("2026-03-07"), cal.PrevTradingDay(date("2026-03-09")))
}

func TestParse_ScheduleErrors(t *testing.T) {
	_, err := Parse([]byte("trading_days:\n  - {date: 2026-03-06}\n"))
	assert.Error(t, err, "weekday trading day")

	_, err = Parse([]byte("saturday_sessions:\n  - {from: 2000-12-31, to: 2000-01-01}\n"))
	assert.Error(t, err, "reversed span")

	_, err = Parse([]byte("saturday_sessions:\n  - {from: 2000-01-01, to: soon}\n"))
	assert.Error(t, err)
}
