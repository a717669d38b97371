package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

type fakeStore struct {
	quotes  map[string][]contracts.Quote
	index   []contracts.IndexQuote
	calls   int
	failErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{quotes: map[string][]contracts.Quote{}}
}

func (f *fakeStore) ApplyQuotes(_ context.Context, symbol string, quotes []contracts.Quote) (contracts.Watermark, error) {
	f.calls++
	if f.failErr != nil {
		return contracts.Watermark{}, f.failErr
	}
	f.quotes[symbol] = append(f.quotes[symbol], quotes...)
	all := f.quotes[symbol]
	min, max := all[0].Date, all[0].Date
	for _, q := range all {
		if q.Date.Before(min) {
			min = q.Date
		}
		if q.Date.After(max) {
			max = q.Date
		}
	}
	return contracts.NewWatermark(min, max), nil
}

func (f *fakeStore) ApplyIndexQuotes(_ context.Context, quotes []contracts.IndexQuote) (contracts.Watermark, error) {
	f.calls++
	f.index = append(f.index, quotes...)
	return contracts.NewWatermark(quotes[0].Date, quotes[len(quotes)-1].Date), nil
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func raw(symbol, day string) contracts.RawQuote {
	return contracts.RawQuote{
		Source:    "twse",
		Symbol:    symbol,
		Date:      date(day),
		Volume:    "25000000",
		Turnover:  "14750000000",
		TickCount: "12345",
		Open:      "590.00",
		High:      "593.00",
		Low:       "589.00",
		Close:     "591.00",
		Delta:     "-2.00",
	}
}

func TestNormalizeQuote(t *testing.T) {
	cal := calendar.New(nil)

	q, err := NormalizeQuote(cal, "2330", raw("2330", "2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, int64(25000000), q.Volume)
	assert.True(t, decimal.RequireFromString("591").Equal(q.Close))
	assert.True(t, q.Delta.Valid)
	assert.True(t, decimal.RequireFromString("-2").Equal(q.Delta.Decimal))

	tests := []struct {
		name   string
		mutate func(r *contracts.RawQuote)
		want   error
	}{
		{"weekend", func(r *contracts.RawQuote) { r.Date = date("2024-01-06") }, ErrNonTradingDate},
		{"other symbol", func(r *contracts.RawQuote) { r.Symbol = "2317" }, ErrSymbolMismatch},
		{"missing close", func(r *contracts.RawQuote) { r.Close = "--" }, ErrMissingField},
		{"garbage volume", func(r *contracts.RawQuote) { r.Volume = "abc" }, ErrMissingField},
		{"missing tickcount", func(r *contracts.RawQuote) { r.TickCount = "" }, ErrMissingField},
		{"negative volume", func(r *contracts.RawQuote) { r.Volume = "-5" }, ErrOutOfRange},
		{"zero volume", func(r *contracts.RawQuote) { r.Volume = "0" }, ErrOutOfRange},
		{"zero price", func(r *contracts.RawQuote) { r.Low = "0" }, ErrOutOfRange},
		{"high below low", func(r *contracts.RawQuote) { r.High = "500" }, ErrOutOfRange},
		{"close above high", func(r *contracts.RawQuote) { r.Close = "600" }, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := raw("2330", "2024-01-08")
			tt.mutate(&r)

			_, err := NormalizeQuote(cal, "2330", r)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNormalizeQuote_OptionalDelta(t *testing.T) {
	cal := calendar.New(nil)

	for _, delta := range []string{"", "---", "除權息", "X"} {
		r := raw("2330", "2024-01-08")
		r.Delta = delta

		q, err := NormalizeQuote(cal, "2330", r)
		require.NoError(t, err, delta)
		assert.False(t, q.Delta.Valid, delta)
	}

	r := raw("2330", "2024-01-08")
	r.Delta = "+1.50"
	q, err := NormalizeQuote(cal, "2330", r)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(q.Delta.Decimal))
}

func TestMergeQuotes_WritesValidRows(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, calendar.New(nil), logger.Nop())

	bad := raw("2330", "2024-01-09")
	bad.Volume = "-1"

	res, err := engine.MergeQuotes(context.Background(), "2330", []contracts.RawQuote{
		raw("2330", "2024-01-10"),
		raw("2330", "2024-01-08"),
		bad,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.True(t, res.Written)
	assert.Equal(t, contracts.NewWatermark(date("2024-01-08"), date("2024-01-10")), res.Watermark)

	written := store.quotes["2330"]
	require.Len(t, written, 2)
	assert.Equal(t, date("2024-01-08"), written[0].Date, "rows are written in date order")
}

func TestMergeQuotes_DedupesByDate(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, calendar.New(nil), logger.Nop())

	second := raw("2330", "2024-01-08")
	second.Close = "592.00"

	res, err := engine.MergeQuotes(context.Background(), "2330", []contracts.RawQuote{raw("2330", "2024-01-08"), second})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Accepted)
	require.Len(t, store.quotes["2330"], 1)
	assert.True(t, decimal.RequireFromString("592").Equal(store.quotes["2330"][0].Close))
}

func TestMergeQuotes_NothingValidWritesNothing(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, calendar.New(nil), logger.Nop())

	bad := raw("9999", "2024-01-08")
	bad.Volume = "-100"

	res, err := engine.MergeQuotes(context.Background(), "9999", []contracts.RawQuote{bad})
	require.NoError(t, err)

	assert.False(t, res.Written)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 0, store.calls)

	res, err = engine.MergeQuotes(context.Background(), "9999", nil)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, 0, store.calls)
}

func TestMergeQuotes_StorageError(t *testing.T) {
	store := newFakeStore()
	store.failErr = errors.New("disk full")
	engine := NewEngine(store, calendar.New(nil), logger.Nop())

	res, err := engine.MergeQuotes(context.Background(), "2330", []contracts.RawQuote{raw("2330", "2024-01-08")})
	require.Error(t, err)
	assert.False(t, res.Written)
}

func TestMergeIndex(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, calendar.New(nil), logger.Nop())

	res, err := engine.MergeIndex(context.Background(), []contracts.RawIndex{
		{Date: date("2024-01-02"), Open: "17,910.37", High: "17910.37", Low: "17776.18", Close: "17853.76"},
		{Date: date("2024-01-03"), Open: "17750.00", High: "17760.00", Low: "17550.00", Close: "17612.29"},
		{Date: date("2024-01-06"), Open: "1", High: "1", Low: "1", Close: "1"},
	})
	require.NoError(t, err)

	// "17,910.37" is not cleaned here: sources hand over cleaned values
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, contracts.NewWatermark(date("2024-01-03"), date("2024-01-03")), res.Watermark)
}
