// Package coingecko is a minimal client for the two CoinGecko endpoints the
// tracker consumes, plus the transforms into the cached shapes.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const apiKeyHeader = "x-cg-demo-api-key"

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	Timeout    time.Duration
	// RateLimit is the sustained request rate per second. Zero disables it.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the transport, for tests.
	HTTPClient *http.Client
}

// Client talks to the CoinGecko REST API.
type Client struct {
	baseURL    string
	apiKey     string
	vsCurrency string
	http       *http.Client
	limiter    *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		vsCurrency: opts.VsCurrency,
		http:       opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.vsCurrency == "" {
		c.vsCurrency = "usd"
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Markets fetches the market-cap ordered coin listing.
func (c *Client) Markets(ctx context.Context) ([]models.CoinMarket, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("order", "market_cap_desc")

	var out []models.CoinMarket
	if err := c.get(ctx, "/coins/markets", q, "coins/markets", &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &fault.ParseError{Source: "coins/markets", Err: errors.New("null body")}
	}
	return out, nil
}

// MarketChart fetches daily prices for coinID over the last days.
func (c *Client) MarketChart(ctx context.Context, coinID string, days int) (*models.MarketChart, error) {
	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")

	var out models.MarketChart
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart"
	if err := c.get(ctx, path, q, "market_chart", &out); err != nil {
		return nil, err
	}
	if out.Prices == nil {
		return nil, &fault.ParseError{Source: "market_chart", Err: errors.New("missing prices")}
	}
	return &out, nil
}

// get performs a GET and decodes the JSON body into out. Transport and
// status failures are returned as is; undecodable bodies as ParseError.
func (c *Client) get(ctx context.Context, path string, q url.Values, source string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &fault.ParseError{Source: source, Err: err}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
