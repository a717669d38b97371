package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wonny/twstock/internal/contracts"
)

// ErrInvalidFilter marks a filter the store cannot evaluate
var ErrInvalidFilter = errors.New("invalid filter")

// StockFilter narrows ListStocks / CountStocks.
// Begin keeps symbols covered since at least Begin (mindate <= Begin);
// End keeps symbols covered up to at least End (maxdate >= End).
type StockFilter struct {
	Begin  *time.Time
	End    *time.Time
	Market string // TWSE, OTC (TPEX accepted)
	Limit  int
}

// StockInfo is a symbol joined with its futures contracts
type StockInfo struct {
	contracts.Symbol
	Future     string `json:"future,omitempty"`
	MiniFuture string `json:"mini_future,omitempty"`
}

// Title renders "2330 台積電 (CDF,QFF)"
func (i StockInfo) Title() string {
	if i.Future == "" {
		return fmt.Sprintf("%s %s", i.ID, i.Name)
	}
	if i.MiniFuture == "" {
		return fmt.Sprintf("%s %s (%s)", i.ID, i.Name, i.Future)
	}
	return fmt.Sprintf("%s %s (%s,%s)", i.ID, i.Name, i.Future, i.MiniFuture)
}

// QuoteQuery narrows FetchQuotes
type QuoteQuery struct {
	From       *time.Time
	To         *time.Time
	Limit      int
	Descending bool
}

type stockViewRow struct {
	ID         string
	Name       string
	Market     string
	Future     *string
	MiniFuture *string
	MinDate    *time.Time `gorm:"column:mindate"`
	MaxDate    *time.Time `gorm:"column:maxdate"`
}

func (r stockViewRow) toInfo() StockInfo {
	return StockInfo{
		Symbol: StockModel{
			ID:      r.ID,
			Name:    r.Name,
			Market:  r.Market,
			MinDate: r.MinDate,
			MaxDate: r.MaxDate,
		}.toSymbol(),
		Future:     deref(r.Future),
		MiniFuture: deref(r.MiniFuture),
	}
}

func (s *Store) stockView(ctx context.Context, f StockFilter) (*gorm.DB, error) {
	q := s.db.WithContext(ctx).Table("stock_future_view").Where("id NOT IN ?", marketMarkerIDs)
	if f.Begin != nil {
		q = q.Where("mindate <= ?", dateOnly(*f.Begin))
	}
	if f.End != nil {
		q = q.Where("maxdate >= ?", dateOnly(*f.End))
	}
	if f.Market != "" {
		market := contracts.NormalizeMarket(f.Market)
		if market == "" {
			return nil, fmt.Errorf("%w: unknown market %q", ErrInvalidFilter, f.Market)
		}
		q = q.Where("market = ?", market)
	}
	return q, nil
}

// CountStocks counts symbols matching the filter (Limit is ignored)
func (s *Store) CountStocks(ctx context.Context, f StockFilter) (int64, error) {
	q, err := s.stockView(ctx, f)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count stocks: %w", err)
	}
	return n, nil
}

// ListStocks lists symbols matching the filter in id order
func (s *Store) ListStocks(ctx context.Context, f StockFilter) ([]StockInfo, error) {
	q, err := s.stockView(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []stockViewRow
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	out := make([]StockInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toInfo())
	}
	return out, nil
}

// StockInfo returns one symbol with its futures, or ErrNotFound
func (s *Store) StockInfo(ctx context.Context, id string) (StockInfo, error) {
	var row stockViewRow
	err := s.db.WithContext(ctx).Table("stock_future_view").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StockInfo{}, fmt.Errorf("stock %s: %w", id, contracts.ErrNotFound)
	}
	if err != nil {
		return StockInfo{}, fmt.Errorf("stock info %s: %w", id, err)
	}
	return row.toInfo(), nil
}

// FetchQuotes returns stored quotes of one symbol ordered by date
func (s *Store) FetchQuotes(ctx context.Context, symbol string, q QuoteQuery) ([]contracts.Quote, error) {
	db := s.db.WithContext(ctx).Where("symbol = ?", symbol)
	if q.From != nil {
		db = db.Where("date >= ?", dateOnly(*q.From))
	}
	if q.To != nil {
		db = db.Where("date <= ?", dateOnly(*q.To))
	}
	if q.Descending {
		db = db.Order("date DESC")
	} else {
		db = db.Order("date ASC")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var rows []QuoteModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch quotes %s: %w", symbol, err)
	}

	out := make([]contracts.Quote, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toQuote())
	}
	return out, nil
}

// FetchIndex returns stored TAIEX rows in [from, to] ordered by date
func (s *Store) FetchIndex(ctx context.Context, from, to time.Time) ([]contracts.IndexQuote, error) {
	var rows []IndexModel
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", dateOnly(from), dateOnly(to)).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	out := make([]contracts.IndexQuote, 0, len(rows))
	for _, r := range rows {
		out = append(out, contracts.IndexQuote{Date: dateOnly(r.Date), Open: r.Open, High: r.High, Low: r.Low, Close: r.Close})
	}
	return out, nil
}

// MaxDate returns the latest maxdate across symbols; false when nothing is stored
func (s *Store) MaxDate(ctx context.Context) (time.Time, bool, error) {
	var dates []time.Time
	err := s.db.WithContext(ctx).Model(&StockModel{}).
		Where("id NOT IN ? AND maxdate IS NOT NULL", marketMarkerIDs).
		Order("maxdate DESC").
		Limit(1).
		Pluck("maxdate", &dates).Error
	if err != nil {
		return time.Time{}, false, fmt.Errorf("max date: %w", err)
	}
	if len(dates) == 0 {
		return time.Time{}, false, nil
	}
	return dateOnly(dates[0]), true, nil
}
