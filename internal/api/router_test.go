package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twstock/internal/api/handlers"
	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/internal/store"
	"github.com/wonny/twstock/pkg/database"
	"github.com/wonny/twstock/pkg/logger"
)

type fakeHealth struct {
	err error
}

func (f fakeHealth) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return &database.HealthStatus{Healthy: f.err == nil, Driver: "sqlite", Timestamp: time.Now()}, f.err
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func setupRouter(t *testing.T, health fakeHealth) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(":memory:", logger.Nop())
	require.NoError(t, err)
	st := store.New(db, logger.Nop())
	require.NoError(t, st.Migrate(ctx))

	_, err = st.ReconcileSymbols(ctx, []contracts.Listing{
		{ID: "2330", Name: "台積電", Market: contracts.MarketTWSE},
		{ID: "6488", Name: "環球晶", Market: contracts.MarketOTC},
	})
	require.NoError(t, err)

	var quotes []contracts.Quote
	for i, d := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
		c := decimal.NewFromInt(int64(590 + i))
		quotes = append(quotes, contracts.Quote{
			Date: date(d), Symbol: "2330", Volume: 1000, Turnover: 590000,
			Open: c, High: c, Low: c, Close: c, TickCount: 10,
		})
	}
	_, err = st.ApplyQuotes(ctx, "2330", quotes)
	require.NoError(t, err)

	_, err = st.ReplaceFuturesMappings(ctx, []contracts.FuturesMapping{{Symbol: "2330", Future: "CDF", MiniFuture: "QFF"}})
	require.NoError(t, err)

	return NewRouter(
		handlers.NewStockHandler(st, logger.Nop()),
		handlers.NewHealthHandler(health, st, logger.Nop()),
		logger.Nop(),
	)
}

func get(t *testing.T, router http.Handler, url string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := get(t, setupRouter(t, fakeHealth{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-01-04", body["maxdate"])

	rec, body = get(t, setupRouter(t, fakeHealth{err: errors.New("database is locked")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestListStocks(t *testing.T) {
	router := setupRouter(t, fakeHealth{})

	rec, body := get(t, router, "/api/stocks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	stocks := body["stocks"].([]interface{})
	require.Len(t, stocks, 2)
	first := stocks[0].(map[string]interface{})
	assert.Equal(t, "2330", first["id"])
	assert.Equal(t, "2330 台積電 (CDF,QFF)", first["title"])
	assert.Equal(t, "2024-01-02", first["mindate"])

	_, body = get(t, router, "/api/stocks?market=tpex")
	assert.Equal(t, float64(1), body["count"])

	_, body = get(t, router, "/api/stocks?end=2024-01-04")
	assert.Equal(t, float64(1), body["count"], "only symbols covered up to end")

	rec, _ = get(t, router, "/api/stocks?market=NYSE")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/stocks?begin=20240102")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/stocks?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStock(t *testing.T) {
	router := setupRouter(t, fakeHealth{})

	rec, body := get(t, router, "/api/stocks/2330")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CDF", body["future"])
	assert.Equal(t, "QFF", body["mini_future"])
	assert.Equal(t, "2024-01-04", body["maxdate"])

	rec, body = get(t, router, "/api/stocks/6488")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "maxdate", "empty watermark is omitted")

	rec, _ = get(t, router, "/api/stocks/9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetQuotes(t *testing.T) {
	router := setupRouter(t, fakeHealth{})

	rec, body := get(t, router, "/api/stocks/2330/quotes")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["count"])
	quotes := body["quotes"].([]interface{})
	assert.Equal(t, "2024-01-02", quotes[0].(map[string]interface{})["date"])

	_, body = get(t, router, "/api/stocks/2330/quotes?order=desc&limit=1")
	quotes = body["quotes"].([]interface{})
	require.Len(t, quotes, 1)
	latest := quotes[0].(map[string]interface{})
	assert.Equal(t, "2024-01-04", latest["date"])
	assert.Equal(t, "592", latest["close"])
	assert.Nil(t, latest["delta"])

	_, body = get(t, router, "/api/stocks/2330/quotes?from=2024-01-03&to=2024-01-03")
	assert.Equal(t, float64(1), body["count"])

	rec, _ = get(t, router, "/api/stocks/9999/quotes")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, router, "/api/stocks/2330/quotes?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
