package tpex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/wonny/twstock/pkg/config"
	"github.com/wonny/twstock/pkg/httputil"
	"github.com/wonny/twstock/pkg/logger"
)

const quotesFixture = "\"上櫃股票行情\"\r\n" +
	"\"資料日期:113/01/02\"\r\n" +
	"\"代號\",\"名稱\",\"收盤\",\"漲跌\",\"開盤\",\"最高\",\"最低\",\"均價\",\"成交股數\",\"成交金額(元)\",\"成交筆數\",\"最後買價\"\r\n" +
	"\"006201\",\"元大富櫃50\",\"18.90\",\"+0.10\",\"18.80\",\"18.95\",\"18.80\",\"18.88\",\"120,000\",\"2,265,600\",\"45\",\"18.85\"\r\n" +
	"\"3105\",\"穩懋\",\"150.50\",\"-2.50\",\"153.00\",\"154.00\",\"150.00\",\"151.63\",\"3,456,789\",\"524,107,000\",\"4,321\",\"150.50\"\r\n" +
	"\"6488\",\"環球晶\",\"---\",\"除息\",\"---\",\"---\",\"---\",\"---\",\"0\",\"0\",\"0\",\"---\"\r\n" +
	"\"共3筆\"\r\n"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, logger.Nop(), server.URL)
}

func TestDailyReport(t *testing.T) {
	body, err := traditionalchinese.Big5.NewEncoder().Bytes([]byte(quotesFixture))
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/www/zh-tw/afterTrading/dailyQuotes", r.URL.Path)
		assert.Equal(t, "2024/01/02", r.URL.Query().Get("date"))
		assert.Equal(t, "csv", r.URL.Query().Get("response"))
		w.Write(body)
	})

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows, err := client.DailyReport(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "006201", rows[0].Symbol)
	assert.Equal(t, "元大富櫃50", rows[0].Name)
	assert.Equal(t, "+0.10", rows[0].Delta)

	wm := rows[1]
	assert.Equal(t, "3105", wm.Symbol)
	assert.Equal(t, "150.50", wm.Close)
	assert.Equal(t, "-2.50", wm.Delta)
	assert.Equal(t, "153.00", wm.Open)
	assert.Equal(t, "154.00", wm.High)
	assert.Equal(t, "150.00", wm.Low)
	assert.Equal(t, "3456789", wm.Volume)
	assert.Equal(t, "524107000", wm.Turnover)
	assert.Equal(t, "4321", wm.TickCount)
	assert.Equal(t, Source, wm.Source)

	// suspended rows are passed through; the merge engine rejects them
	assert.Equal(t, "6488", rows[2].Symbol)
	assert.Equal(t, "0", rows[2].Volume)
}

func TestDailyReport_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.DailyReport(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, httputil.ErrNotFound)
}
