package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL
	return New(opts)
}

func TestMarkets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png",
			 "current_price":64000.5,"market_cap":1.2e12,"market_cap_rank":1,"price_change_percentage_24h":-1.2}
		]`))
	}, Options{APIKey: "demo-key"})

	rows, err := c.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bitcoin", rows[0].ID)
	assert.Equal(t, "btc", rows[0].Symbol)
	require.NotNil(t, rows[0].MarketCapRank)
	assert.Equal(t, 1, *rows[0].MarketCapRank)
}

func TestMarketChart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		assert.Equal(t, "daily", r.URL.Query().Get("interval"))
		assert.Empty(t, r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"prices":[[1620000000000,50000],[1620086400000,51000.5]],"market_caps":[]}`))
	}, Options{})

	chart, err := c.MarketChart(context.Background(), "bitcoin", 30)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1620000000000, 50000}, {1620086400000, 51000.5}}, chart.Prices)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}, Options{})

	_, err := c.Markets(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.False(t, fault.IsParse(err))
}

func TestBadBodyIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":"soon"}`))
	}, Options{})

	_, err := c.MarketChart(context.Background(), "bitcoin", 7)
	assert.True(t, fault.IsParse(err))
}

func TestMissingPricesIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	}, Options{})

	_, err := c.MarketChart(context.Background(), "nope", 7)
	assert.True(t, fault.IsParse(err))
}

func TestNullSampleIsParseError(t *testing.T) {
	bodies := map[string]string{
		"null timestamp": `{"prices":[[null,50000]]}`,
		"null price":     `{"prices":[[1620000000000,null]]}`,
		"null pair":      `{"prices":[null]}`,
		"string price":   `{"prices":[[1620000000000,"50000"]]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}, Options{})

			chart, err := c.MarketChart(context.Background(), "bitcoin", 7)
			assert.Nil(t, chart)
			assert.True(t, fault.IsParse(err), "got %v", err)
		})
	}
}

func TestOutOfRangeTimestampIsRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[[1e300,1]]}`))
	}, Options{})

	chart, err := c.MarketChart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	_, err = ToPricePoints(chart)
	assert.True(t, fault.IsParse(err))
}

func TestNullMarketsIsParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}, Options{})

	rows, err := c.Markets(context.Background())
	assert.Nil(t, rows)
	assert.True(t, fault.IsParse(err))
}

func TestEmptyMarketsIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, Options{})

	rows, err := c.Markets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Options{BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.Markets(context.Background())
	require.Error(t, err)
	assert.False(t, fault.IsParse(err))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, Options{RateLimit: 0.001, Burst: 1})

	_, err := c.Markets(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Markets(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestPathEscaping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/a%2Fb/market_chart", r.URL.RawPath)
		_, _ = w.Write([]byte(`{"prices":[]}`))
	}, Options{})

	_, err := c.MarketChart(context.Background(), "a/b", 7)
	require.NoError(t, err)
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "unexpected status 500", (&StatusError{StatusCode: 500}).Error())
	assert.Equal(t, "unexpected status 404: not found", (&StatusError{StatusCode: 404, Body: "not found"}).Error())
}
