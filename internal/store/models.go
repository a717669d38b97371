package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/twstock/internal/contracts"
)

// StockModel is a row of the stock table
type StockModel struct {
	ID      string     `gorm:"column:id;primaryKey;size:16"`
	Name    string     `gorm:"column:name;size:64;not null;default:''"`
	Market  string     `gorm:"column:market;size:8;not null;index"`
	MinDate *time.Time `gorm:"column:mindate;type:date"`
	MaxDate *time.Time `gorm:"column:maxdate;type:date"`
}

func (StockModel) TableName() string {
	return "stock"
}

// QuoteModel is a row of the quote table, keyed by (date, symbol)
type QuoteModel struct {
	Date      time.Time           `gorm:"column:date;type:date;primaryKey"`
	Symbol    string              `gorm:"column:symbol;size:16;primaryKey;index:idx_quote_symbol"`
	Volume    int64               `gorm:"column:volume;not null"`
	Turnover  int64               `gorm:"column:turnover;not null"`
	Open      decimal.Decimal     `gorm:"column:open;type:decimal(12,4);not null"`
	High      decimal.Decimal     `gorm:"column:high;type:decimal(12,4);not null"`
	Low       decimal.Decimal     `gorm:"column:low;type:decimal(12,4);not null"`
	Close     decimal.Decimal     `gorm:"column:close;type:decimal(12,4);not null"`
	Delta     decimal.NullDecimal `gorm:"column:delta;type:decimal(12,4)"`
	TickCount int64               `gorm:"column:tickcount;not null"`
}

func (QuoteModel) TableName() string {
	return "quote"
}

// IndexModel is a row of the twse (TAIEX) table
type IndexModel struct {
	Date  time.Time       `gorm:"column:date;type:date;primaryKey"`
	Open  decimal.Decimal `gorm:"column:open;type:decimal(12,4);not null"`
	High  decimal.Decimal `gorm:"column:high;type:decimal(12,4);not null"`
	Low   decimal.Decimal `gorm:"column:low;type:decimal(12,4);not null"`
	Close decimal.Decimal `gorm:"column:close;type:decimal(12,4);not null"`
}

func (IndexModel) TableName() string {
	return "twse"
}

// StockFutureModel is a row of the stock_future table
type StockFutureModel struct {
	Symbol     string  `gorm:"column:symbol;primaryKey;size:16"`
	Future     *string `gorm:"column:future;size:16"`
	MiniFuture *string `gorm:"column:mini_future;size:16"`
	Reserved   bool    `gorm:"column:reserved;not null;default:false"`
}

func (StockFutureModel) TableName() string {
	return "stock_future"
}

// Legacy per-market marker rows in stock; never treated as symbols
var marketMarkerIDs = []string{contracts.MarketTWSE, contracts.MarketOTC}

func toQuoteModel(q contracts.Quote) QuoteModel {
	return QuoteModel{
		Date:      q.Date,
		Symbol:    q.Symbol,
		Volume:    q.Volume,
		Turnover:  q.Turnover,
		Open:      q.Open,
		High:      q.High,
		Low:       q.Low,
		Close:     q.Close,
		Delta:     q.Delta,
		TickCount: q.TickCount,
	}
}

func (m QuoteModel) toQuote() contracts.Quote {
	return contracts.Quote{
		Date:      dateOnly(m.Date),
		Symbol:    m.Symbol,
		Volume:    m.Volume,
		Turnover:  m.Turnover,
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
		Delta:     m.Delta,
		TickCount: m.TickCount,
	}
}

func (m StockModel) toSymbol() contracts.Symbol {
	return contracts.Symbol{
		ID:        m.ID,
		Name:      m.Name,
		Market:    m.Market,
		Watermark: watermarkOf(m.MinDate, m.MaxDate),
	}
}

func watermarkOf(minDate, maxDate *time.Time) contracts.Watermark {
	if minDate == nil || maxDate == nil {
		return contracts.Watermark{}
	}
	return contracts.NewWatermark(dateOnly(*minDate), dateOnly(*maxDate))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
