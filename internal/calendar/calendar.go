package calendar

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed holidays.yaml
var embeddedHolidays []byte

const dateLayout = "2006-01-02"

// Calendar answers which dates are trading days.
// Dates are compared as UTC midnights; see Day.
// ⭐ SSOT: 거래일 판단은 여기서만
type Calendar struct {
	holidays    map[time.Time]string
	tradingDays map[time.Time]string
	saturdays   []Span
	years       map[int]bool
}

// Span is an inclusive date range
type Span struct {
	From time.Time
	To   time.Time
}

func (s Span) contains(d time.Time) bool {
	return !d.Before(s.From) && !d.After(s.To)
}

// Schedule is the parsed form of a holidays YAML document
type Schedule struct {
	Holidays         map[time.Time]string // weekday closures
	TradingDays      map[time.Time]string // weekend sessions
	SaturdaySessions []Span               // periods when Saturdays traded
}

type dayEntry struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

type holidayFile struct {
	Holidays         []dayEntry `yaml:"holidays"`
	TradingDays      []dayEntry `yaml:"trading_days"`
	SaturdaySessions []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"saturday_sessions"`
}

// New returns a calendar that excludes weekends and the given holidays
func New(holidays map[time.Time]string) *Calendar {
	return NewFromSchedule(Schedule{Holidays: holidays})
}

// NewFromSchedule returns a calendar for a parsed schedule
func NewFromSchedule(s Schedule) *Calendar {
	c := &Calendar{
		holidays:    make(map[time.Time]string, len(s.Holidays)),
		tradingDays: make(map[time.Time]string, len(s.TradingDays)),
		years:       make(map[int]bool),
	}
	for d, name := range s.Holidays {
		c.holidays[Day(d)] = name
		c.years[d.Year()] = true
	}
	for d, name := range s.TradingDays {
		c.tradingDays[Day(d)] = name
	}
	for _, span := range s.SaturdaySessions {
		c.saturdays = append(c.saturdays, Span{From: Day(span.From), To: Day(span.To)})
	}
	return c
}

// Default returns the calendar built from the embedded holiday list
func Default() (*Calendar, error) {
	s, err := Parse(embeddedHolidays)
	if err != nil {
		return nil, fmt.Errorf("embedded holidays: %w", err)
	}
	return NewFromSchedule(s), nil
}

// Load returns the embedded calendar extended with the schedule in extraPath (optional)
func Load(extraPath string) (*Calendar, error) {
	s, err := Parse(embeddedHolidays)
	if err != nil {
		return nil, fmt.Errorf("embedded holidays: %w", err)
	}

	if extraPath != "" {
		data, err := os.ReadFile(extraPath)
		if err != nil {
			return nil, fmt.Errorf("read holidays file: %w", err)
		}
		extra, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", extraPath, err)
		}
		for d, name := range extra.Holidays {
			s.Holidays[d] = name
		}
		for d, name := range extra.TradingDays {
			s.TradingDays[d] = name
		}
		s.SaturdaySessions = append(s.SaturdaySessions, extra.SaturdaySessions...)
	}

	return NewFromSchedule(s), nil
}

// Parse reads a holidays YAML document
func Parse(data []byte) (Schedule, error) {
	var file holidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Schedule{}, fmt.Errorf("parse holidays: %w", err)
	}

	s := Schedule{
		Holidays:    make(map[time.Time]string, len(file.Holidays)),
		TradingDays: make(map[time.Time]string, len(file.TradingDays)),
	}
	for _, h := range file.Holidays {
		d, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return Schedule{}, fmt.Errorf("holiday %q: %w", h.Date, err)
		}
		s.Holidays[d] = h.Name
	}
	for _, t := range file.TradingDays {
		d, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return Schedule{}, fmt.Errorf("trading day %q: %w", t.Date, err)
		}
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			return Schedule{}, fmt.Errorf("trading day %s is not a weekend", t.Date)
		}
		s.TradingDays[d] = t.Name
	}
	for _, span := range file.SaturdaySessions {
		from, err := time.Parse(dateLayout, span.From)
		if err != nil {
			return Schedule{}, fmt.Errorf("saturday sessions from %q: %w", span.From, err)
		}
		to, err := time.Parse(dateLayout, span.To)
		if err != nil {
			return Schedule{}, fmt.Errorf("saturday sessions to %q: %w", span.To, err)
		}
		if to.Before(from) {
			return Schedule{}, fmt.Errorf("saturday sessions %s..%s: end before start", span.From, span.To)
		}
		s.SaturdaySessions = append(s.SaturdaySessions, Span{From: from, To: to})
	}
	return s, nil
}

// Day truncates t to its calendar date, expressed as UTC midnight.
// The wall-clock date of t is kept, whatever its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsTradingDay reports whether the market is open on date
func (c *Calendar) IsTradingDay(date time.Time) bool {
	d := Day(date)
	if _, ok := c.tradingDays[d]; ok {
		return true
	}
	switch d.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		return c.saturdaySession(d)
	}
	_, holiday := c.holidays[d]
	return !holiday
}

func (c *Calendar) saturdaySession(d time.Time) bool {
	for _, span := range c.saturdays {
		if span.contains(d) {
			_, holiday := c.holidays[d]
			return !holiday
		}
	}
	return false
}

// Holiday returns the holiday name for date, if any
func (c *Calendar) Holiday(date time.Time) (string, bool) {
	name, ok := c.holidays[Day(date)]
	return name, ok
}

// Covers reports whether the holiday list has entries for year.
// Outside covered years only weekends are known closures.
func (c *Calendar) Covers(year int) bool {
	return c.years[year]
}

// Uncovered returns the years in [from, to] with no holiday entries
func (c *Calendar) Uncovered(from, to int) []int {
	var missing []int
	for y := from; y <= to; y++ {
		if !c.years[y] {
			missing = append(missing, y)
		}
	}
	return missing
}

// TradingDaysBetween returns the trading days in [start, end] in ascending order.
// Empty when start is after end.
func (c *Calendar) TradingDaysBetween(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// NextTradingDay returns the first trading day strictly after date
func (c *Calendar) NextTradingDay(date time.Time) time.Time {
	d := Day(date).AddDate(0, 0, 1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PrevTradingDay returns the last trading day strictly before date
func (c *Calendar) PrevTradingDay(date time.Time) time.Time {
	d := Day(date).AddDate(0, 0, -1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
