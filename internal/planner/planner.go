package planner

import (
	"time"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
)

// Chunking selects how a long gap is split into sub-ranges
type Chunking int

const (
	// ByTradingDays splits every MaxTradingDays trading days (daily reports)
	ByTradingDays Chunking = iota
	// ByMonth splits on calendar months (monthly index reports)
	ByMonth
)

// Config holds planner settings for one series family
type Config struct {
	Epoch          time.Time // earliest date the source serves
	Chunking       Chunking
	MaxTradingDays int // ByTradingDays only; 0 means one range
}

// Request is one fetch unit for one series
type Request struct {
	Symbol string
	contracts.DateRange
	TradingDays int
}

// Planner computes the missing trading-day ranges of a series
// ⭐ SSOT: 갭 계산은 여기서만
type Planner struct {
	cal *calendar.Calendar
	cfg Config
}

// New creates a planner
func New(cal *calendar.Calendar, cfg Config) *Planner {
	return &Planner{cal: cal, cfg: cfg}
}

// Plan returns the ordered sub-ranges needed to bring a series from wm up to today.
// An absent watermark plans from the epoch. A watermark at or past today plans nothing.
// Ranges only cover trading days after MaxDate; dates below MinDate are never requested.
func (p *Planner) Plan(symbol string, wm contracts.Watermark, today time.Time) []Request {
	today = calendar.Day(today)

	from := calendar.Day(p.cfg.Epoch)
	allHistory := true
	if wm.Present {
		if !calendar.Day(wm.MaxDate).Before(today) {
			return nil
		}
		from = calendar.Day(wm.MaxDate).AddDate(0, 0, 1)
		allHistory = false
	}

	days := p.cal.TradingDaysBetween(from, today)
	if len(days) == 0 {
		return nil
	}

	var groups [][]time.Time
	switch p.cfg.Chunking {
	case ByMonth:
		groups = splitByMonth(days)
	default:
		groups = splitByCount(days, p.cfg.MaxTradingDays)
	}

	requests := make([]Request, 0, len(groups))
	for _, g := range groups {
		requests = append(requests, Request{
			Symbol: symbol,
			DateRange: contracts.DateRange{
				From:       g[0],
				To:         g[len(g)-1],
				AllHistory: allHistory,
			},
			TradingDays: len(g),
		})
	}
	return requests
}

func splitByCount(days []time.Time, n int) [][]time.Time {
	if n <= 0 || n >= len(days) {
		return [][]time.Time{days}
	}

	groups := make([][]time.Time, 0, (len(days)+n-1)/n)
	for start := 0; start < len(days); start += n {
		end := start + n
		if end > len(days) {
			end = len(days)
		}
		groups = append(groups, days[start:end])
	}
	return groups
}

func splitByMonth(days []time.Time) [][]time.Time {
	var groups [][]time.Time
	start := 0
	for i := 1; i <= len(days); i++ {
		if i == len(days) || !sameMonth(days[i], days[start]) {
			groups = append(groups, days[start:i])
			start = i
		}
	}
	return groups
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
