// Package client provides a Go HTTP client for the swapledger server API.
package client

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

	"github.com/shopspring/decimal"
)

// Trade is a classified trade as returned by the server.
type Trade struct {
	Signature   string          `json:"signature"`
	FeePayer    string          `json:"fee_payer"`
	Slot        uint64          `json:"slot"`
	Timestamp   time.Time       `json:"timestamp"`
	Direction   string          `json:"direction"` // BUY, SELL, UNKNOWN
	SOLAmount   decimal.Decimal `json:"sol_amount"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	TokenMint   string          `json:"token_mint,omitempty"`
	Fee         decimal.Decimal `json:"fee"`
	TotalValue  decimal.Decimal `json:"total_value"`
	TokenSource string          `json:"token_source"`
	SOLResolved bool            `json:"sol_resolved"`
}

// TradesResponse is the server's response to a trade query.
type TradesResponse struct {
	Address  string          `json:"address"`
	Limit    int             `json:"limit"`
	Fetched  int             `json:"fetched"`
	Skipped  int             `json:"skipped"`
	TotalSOL decimal.Decimal `json:"total_sol"`
	Trades   []*Trade        `json:"trades"`
}

// Client is the HTTP client for the swapledger trade history service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new trade service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetTrades fetches and classifies the recent trades for an address.
// A limit of 0 uses the server's default.
func (c *Client) GetTrades(ctx context.Context, address string, limit int) (*TradesResponse, error) {
	u := fmt.Sprintf("%s/api/v1/addresses/%s/trades", c.baseURL, url.PathEscape(address))
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var trades TradesResponse
	if err := json.NewDecoder(resp.Body).Decode(&trades); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("fetched trades",
		"address", address,
		"classified", len(trades.Trades),
		"skipped", trades.Skipped,
	)
	return &trades, nil
}

// ExportCSV downloads the CSV export for an address into w.
// A limit of 0 uses the server's default.
func (c *Client) ExportCSV(ctx context.Context, address string, limit int, w io.Writer) error {
	u := fmt.Sprintf("%s/api/v1/addresses/%s/trades/export", c.baseURL, url.PathEscape(address))
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}

	c.logger.Debug("downloaded CSV export", "address", address)
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
