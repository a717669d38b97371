package contracts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is a tracked security and its coverage watermark
// ⭐ SSOT: stock 테이블 한 행
type Symbol struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Market    string    `json:"market"`
	Watermark Watermark `json:"watermark"`
}

// Listing is a security as seen by the discovery source
type Listing struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Market string `json:"market"`
}

// Watermark is the stored coverage of one series.
// When present, MinDate and MaxDate are the min and max dates of stored rows.
type Watermark struct {
	MinDate time.Time `json:"mindate"`
	MaxDate time.Time `json:"maxdate"`
	Present bool      `json:"present"`
}

// NewWatermark returns a present watermark
func NewWatermark(minDate, maxDate time.Time) Watermark {
	return Watermark{MinDate: minDate, MaxDate: maxDate, Present: true}
}

// String renders the watermark for logs and CLI output
func (w Watermark) String() string {
	if !w.Present {
		return "empty"
	}
	return fmt.Sprintf("%s..%s", w.MinDate.Format("2006-01-02"), w.MaxDate.Format("2006-01-02"))
}

// Quote is one day of trading for one symbol
// ⭐ SSOT: quote 테이블 한 행 (date, symbol)
type Quote struct {
	Date      time.Time           `json:"date"`
	Symbol    string              `json:"symbol"`
	Volume    int64               `json:"volume"`
	Turnover  int64               `json:"turnover"`
	Open      decimal.Decimal     `json:"open"`
	High      decimal.Decimal     `json:"high"`
	Low       decimal.Decimal     `json:"low"`
	Close     decimal.Decimal     `json:"close"`
	Delta     decimal.NullDecimal `json:"delta"`
	TickCount int64               `json:"tickcount"`
}

// IndexQuote is one day of the TAIEX index
// ⭐ SSOT: twse 테이블 한 행
type IndexQuote struct {
	Date  time.Time       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// FuturesMapping links an underlying symbol to its stock futures contracts.
// Empty Future or MiniFuture means the contract does not exist.
type FuturesMapping struct {
	Symbol     string `json:"symbol"`
	Future     string `json:"future,omitempty"`
	MiniFuture string `json:"mini_future,omitempty"`
	Reserved   bool   `json:"reserved"`
}

// DateRange is an inclusive range of trading days
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// AllHistory is set when the range starts at the source epoch
	// because nothing was stored yet.
	AllHistory bool `json:"all_history"`
}

// String renders the range for logs
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
}

// ReconcileResult counts registry changes
type ReconcileResult struct {
	Discovered int `json:"discovered"`
	Added      int `json:"added"`
	Updated    int `json:"updated"`
}
