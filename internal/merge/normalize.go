package merge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
)

// Rejection reasons
var (
	ErrNonTradingDate = errors.New("non-trading date")
	ErrSymbolMismatch = errors.New("symbol mismatch")
	ErrMissingField   = errors.New("missing field")
	ErrOutOfRange     = errors.New("value out of range")
)

// NormalizeQuote validates a raw report row into a Quote for symbol
func NormalizeQuote(cal *calendar.Calendar, symbol string, raw contracts.RawQuote) (contracts.Quote, error) {
	if raw.Symbol != symbol {
		return contracts.Quote{}, fmt.Errorf("%w: row for %q", ErrSymbolMismatch, raw.Symbol)
	}
	if !cal.IsTradingDay(raw.Date) {
		return contracts.Quote{}, fmt.Errorf("%w: %s", ErrNonTradingDate, raw.Date.Format("2006-01-02"))
	}

	var p parser
	q := contracts.Quote{
		Date:      calendar.Day(raw.Date),
		Symbol:    symbol,
		Volume:    p.integer("volume", raw.Volume),
		Turnover:  p.integer("turnover", raw.Turnover),
		TickCount: p.integer("tickcount", raw.TickCount),
		Open:      p.price("open", raw.Open),
		High:      p.price("high", raw.High),
		Low:       p.price("low", raw.Low),
		Close:     p.price("close", raw.Close),
		Delta:     p.optionalDecimal("delta", raw.Delta),
	}
	if p.err != nil {
		return contracts.Quote{}, p.err
	}

	switch {
	case q.Volume <= 0:
		return contracts.Quote{}, fmt.Errorf("%w: volume %d", ErrOutOfRange, q.Volume)
	case q.Turnover < 0:
		return contracts.Quote{}, fmt.Errorf("%w: turnover %d", ErrOutOfRange, q.Turnover)
	case q.TickCount < 0:
		return contracts.Quote{}, fmt.Errorf("%w: tickcount %d", ErrOutOfRange, q.TickCount)
	}
	if err := checkBar(q.Open, q.High, q.Low, q.Close); err != nil {
		return contracts.Quote{}, err
	}
	return q, nil
}

// NormalizeIndex validates a raw TAIEX row
func NormalizeIndex(cal *calendar.Calendar, raw contracts.RawIndex) (contracts.IndexQuote, error) {
	if !cal.IsTradingDay(raw.Date) {
		return contracts.IndexQuote{}, fmt.Errorf("%w: %s", ErrNonTradingDate, raw.Date.Format("2006-01-02"))
	}

	var p parser
	q := contracts.IndexQuote{
		Date:  calendar.Day(raw.Date),
		Open:  p.price("open", raw.Open),
		High:  p.price("high", raw.High),
		Low:   p.price("low", raw.Low),
		Close: p.price("close", raw.Close),
	}
	if p.err != nil {
		return contracts.IndexQuote{}, p.err
	}
	if err := checkBar(q.Open, q.High, q.Low, q.Close); err != nil {
		return contracts.IndexQuote{}, err
	}
	return q, nil
}

// checkBar requires positive prices with low <= open,close <= high
func checkBar(open, high, low, close decimal.Decimal) error {
	for _, v := range []decimal.Decimal{open, high, low, close} {
		if !v.IsPositive() {
			return fmt.Errorf("%w: non-positive price %s", ErrOutOfRange, v)
		}
	}
	if high.LessThan(low) ||
		open.LessThan(low) || open.GreaterThan(high) ||
		close.LessThan(low) || close.GreaterThan(high) {
		return fmt.Errorf("%w: bar o=%s h=%s l=%s c=%s", ErrOutOfRange, open, high, low, close)
	}
	return nil
}

// parser keeps the first field error
type parser struct {
	err error
}

func missing(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "--", "---", "----":
		return true
	}
	return false
}

func (p *parser) fail(field, value string, cause error) {
	if p.err != nil {
		return
	}
	if cause == nil {
		p.err = fmt.Errorf("%w: %s", ErrMissingField, field)
		return
	}
	p.err = fmt.Errorf("%w: %s=%q: %v", ErrMissingField, field, value, cause)
}

func (p *parser) integer(field, s string) int64 {
	if missing(s) {
		p.fail(field, s, nil)
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		p.fail(field, s, err)
	}
	return v
}

func (p *parser) price(field, s string) decimal.Decimal {
	if missing(s) {
		p.fail(field, s, nil)
		return decimal.Zero
	}
	v, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	if err != nil {
		p.fail(field, s, err)
	}
	return v
}

func (p *parser) optionalDecimal(field, s string) decimal.NullDecimal {
	if missing(s) {
		return decimal.NullDecimal{}
	}
	v, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	if err != nil {
		// Non-numeric markers ("除權息", "X") mean no comparable delta
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}
