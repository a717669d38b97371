package syncer

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/twstock/internal/contracts"
)

// Status is the outcome of one series in a stage
type Status string

const (
	StatusSynced  Status = "synced"  // every planned sub-range was fetched and merged
	StatusCurrent Status = "current" // nothing to fetch
	StatusSkipped Status = "skipped" // permanently unavailable at the source
	StatusFailed  Status = "failed"  // stopped at its first failed sub-range
)

// SeriesResult is the outcome of one symbol (or the index series)
type SeriesResult struct {
	Symbol    string              `json:"symbol"`
	Status    Status              `json:"status"`
	Requests  int                 `json:"requests"`
	Written   int                 `json:"written"`
	Rejected  int                 `json:"rejected"`
	Watermark contracts.Watermark `json:"watermark"`
	Reason    string              `json:"reason,omitempty"`
	Err       error               `json:"-"`
}

// Summary collects the results of one quote or index stage
type Summary struct {
	Stage    contracts.Stage `json:"stage"`
	Results  []SeriesResult  `json:"results"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
}

// Succeeded returns synced and already current series
func (s *Summary) Succeeded() []SeriesResult {
	return s.filter(func(r SeriesResult) bool {
		return r.Status == StatusSynced || r.Status == StatusCurrent
	})
}

// Failed returns the series that stopped on an error
func (s *Summary) Failed() []SeriesResult {
	return s.filter(func(r SeriesResult) bool { return r.Status == StatusFailed })
}

// Skipped returns the series the source no longer lists
func (s *Summary) Skipped() []SeriesResult {
	return s.filter(func(r SeriesResult) bool { return r.Status == StatusSkipped })
}

// Count returns the number of results with status
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Written returns the number of rows merged across all series
func (s *Summary) Written() int {
	n := 0
	for _, r := range s.Results {
		n += r.Written
	}
	return n
}

// Rejected returns the number of rows dropped by validation
func (s *Summary) Rejected() int {
	n := 0
	for _, r := range s.Results {
		n += r.Rejected
	}
	return n
}

// Err joins the errors of failed series, nil when none failed
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", r.Symbol, r.Err))
	}
	return errors.Join(errs...)
}

func (s *Summary) filter(keep func(SeriesResult) bool) []SeriesResult {
	var out []SeriesResult
	for _, r := range s.Results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
