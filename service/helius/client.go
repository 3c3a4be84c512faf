package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brojonat/swapledger/service/metrics"
)

// Fetch limits accepted by the enhanced-transactions endpoint.
const (
	MinLimit = 1
	MaxLimit = 1000
)

// Doer is the subset of http.Client we need.
// This allows us to mock the HTTP layer in tests without a real server.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError is returned when the API responds with a non-2xx status.
// A fetch failure is fatal to the current query; there is no retry.
type FetchError struct {
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("helius API returned status %d: %s", e.StatusCode, e.Body)
}

// Client fetches enhanced transaction history from the Helius API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient Doer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a new Helius API client.
// If httpClient is nil, a default client with a 30s timeout is used.
// If m is nil, no metrics will be recorded.
func NewClient(baseURL, apiKey string, httpClient Doer, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// GetTransactionsParams contains parameters for fetching transactions.
type GetTransactionsParams struct {
	Address string // wallet or market account to query
	Limit   int    // number of transactions, clamped to [MinLimit, MaxLimit] by validation upstream
}

// GetTransactions fetches the most recent enhanced transactions for an
// address. This is a single bounded request: no pagination, no retry.
// A non-2xx response is returned as a *FetchError.
func (c *Client) GetTransactions(ctx context.Context, params GetTransactionsParams) ([]RawTransaction, error) {
	u, err := url.Parse(fmt.Sprintf("%s/addresses/%s/transactions", c.baseURL, url.PathEscape(params.Address)))
	if err != nil {
		return nil, fmt.Errorf("failed to build request URL: %w", err)
	}
	q := u.Query()
	q.Set("api-key", c.apiKey)
	q.Set("limit", strconv.Itoa(params.Limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.DebugContext(ctx, "fetching transactions",
		"address", params.Address,
		"limit", params.Limit,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordAPICall("GetTransactions", status, duration)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if c.metrics != nil {
			c.metrics.RecordAPICall("GetTransactions", "http_error", duration)
		}
		c.logger.ErrorContext(ctx, "helius API error",
			"address", params.Address,
			"status", resp.StatusCode,
		)
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var txs []RawTransaction
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if c.metrics != nil {
		c.metrics.RecordTransactionsPerFetch(float64(len(txs)))
	}
	c.logger.InfoContext(ctx, "fetched transactions",
		"address", params.Address,
		"count", len(txs),
	)

	return txs, nil
}
