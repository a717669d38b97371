package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/store"
	"github.com/wonny/twstock/pkg/logger"
)

const (
	maxStockLimit = 5000
	maxQuoteLimit = 10000
)

// StockStore is the read side the stock endpoints need
type StockStore interface {
	CountStocks(ctx context.Context, f store.StockFilter) (int64, error)
	ListStocks(ctx context.Context, f store.StockFilter) ([]store.StockInfo, error)
	StockInfo(ctx context.Context, id string) (store.StockInfo, error)
	FetchQuotes(ctx context.Context, symbol string, q store.QuoteQuery) ([]contracts.Quote, error)
}

// StockHandler handles stock data API endpoints
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StockHandler struct {
	store  StockStore
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(st StockStore, log *logger.Logger) *StockHandler {
	return &StockHandler{store: st, logger: log}
}

// StockResponse is one symbol for API responses
type StockResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Market     string `json:"market"`
	Title      string `json:"title"`
	MinDate    string `json:"mindate,omitempty"`
	MaxDate    string `json:"maxdate,omitempty"`
	Future     string `json:"future,omitempty"`
	MiniFuture string `json:"mini_future,omitempty"`
}

func toStockResponse(info store.StockInfo) StockResponse {
	wm := info.Watermark
	return StockResponse{
		ID:         info.ID,
		Name:       info.Name,
		Market:     info.Market,
		Title:      info.Title(),
		MinDate:    formatDate(wm.MinDate, wm.Present),
		MaxDate:    formatDate(wm.MaxDate, wm.Present),
		Future:     info.Future,
		MiniFuture: info.MiniFuture,
	}
}

// QuoteResponse is one daily quote for API responses
type QuoteResponse struct {
	Date      string              `json:"date"`
	Open      decimal.Decimal     `json:"open"`
	High      decimal.Decimal     `json:"high"`
	Low       decimal.Decimal     `json:"low"`
	Close     decimal.Decimal     `json:"close"`
	Delta     decimal.NullDecimal `json:"delta"`
	Volume    int64               `json:"volume"`
	Turnover  int64               `json:"turnover"`
	TickCount int64               `json:"tickcount"`
}

// ListStocks lists tracked symbols
// GET /api/stocks?market=TWSE&begin=2024-01-02&end=2024-06-28&limit=100
func (h *StockHandler) ListStocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseStockFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.store.CountStocks(ctx, filter)
	if err != nil {
		h.storeError(w, err, "Failed to count stocks")
		return
	}

	stocks, err := h.store.ListStocks(ctx, filter)
	if err != nil {
		h.storeError(w, err, "Failed to list stocks")
		return
	}

	result := make([]StockResponse, len(stocks))
	for i, s := range stocks {
		result[i] = toStockResponse(s)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  count,
		"stocks": result,
	})
}

// GetStock returns one symbol with its futures contracts
// GET /api/stocks/{id}
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	info, err := h.store.StockInfo(r.Context(), id)
	if err != nil {
		h.storeError(w, err, "Failed to get stock")
		return
	}

	respondJSON(w, http.StatusOK, toStockResponse(info))
}

// GetQuotes returns stored daily quotes of one symbol
// GET /api/stocks/{id}/quotes?from=2024-01-02&to=2024-01-31&limit=20&order=desc
func (h *StockHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	q, err := parseQuoteQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.store.StockInfo(ctx, id)
	if err != nil {
		h.storeError(w, err, "Failed to get stock")
		return
	}

	quotes, err := h.store.FetchQuotes(ctx, id, q)
	if err != nil {
		h.storeError(w, err, "Failed to retrieve quotes")
		return
	}

	result := make([]QuoteResponse, len(quotes))
	for i, qt := range quotes {
		result[i] = QuoteResponse{
			Date:      qt.Date.Format("2006-01-02"),
			Open:      qt.Open,
			High:      qt.High,
			Low:       qt.Low,
			Close:     qt.Close,
			Delta:     qt.Delta,
			Volume:    qt.Volume,
			Turnover:  qt.Turnover,
			TickCount: qt.TickCount,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stock":  toStockResponse(info),
		"count":  len(result),
		"quotes": result,
	})
}

func (h *StockHandler) storeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "stock not found")
	case errors.Is(err, store.ErrInvalidFilter):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}

func parseStockFilter(r *http.Request) (store.StockFilter, error) {
	var f store.StockFilter
	var err error

	if f.Begin, err = queryDate(r, "begin"); err != nil {
		return f, err
	}
	if f.End, err = queryDate(r, "end"); err != nil {
		return f, err
	}
	if f.Limit, err = queryLimit(r, maxStockLimit); err != nil {
		return f, err
	}
	f.Market = r.URL.Query().Get("market")
	return f, nil
}

func parseQuoteQuery(r *http.Request) (store.QuoteQuery, error) {
	var q store.QuoteQuery
	var err error

	if q.From, err = queryDate(r, "from"); err != nil {
		return q, err
	}
	if q.To, err = queryDate(r, "to"); err != nil {
		return q, err
	}
	if q.Limit, err = queryLimit(r, maxQuoteLimit); err != nil {
		return q, err
	}
	q.Descending = strings.EqualFold(r.URL.Query().Get("order"), "desc")
	return q, nil
}
