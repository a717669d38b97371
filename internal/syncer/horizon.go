package syncer

import (
	"time"

	"github.com/wonny/twstock/internal/calendar"
)

// Horizon returns the last date a run should bring data up to.
// It is the market-local date of now, or the day before when now is earlier than cutoff
// (the offset from local midnight at which daily reports are published).
func Horizon(now time.Time, loc *time.Location, cutoff time.Duration) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if local.Sub(midnight) < cutoff {
		day = day.AddDate(0, 0, -1)
	}
	return calendar.Day(day)
}
