package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brojonat/swapledger/service/classify"
	"github.com/brojonat/swapledger/service/config"
	"github.com/brojonat/swapledger/service/helius"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddress = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testCounter = "So11111111111111111111111111111111111111112"
)

// mockFetcher implements TransactionFetcher and counts calls.
type mockFetcher struct {
	calls int
	raws  []helius.RawTransaction
	err   error
}

func (m *mockFetcher) GetTransactions(ctx context.Context, params helius.GetTransactionsParams) ([]helius.RawTransaction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.raws, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		HeliusAPIKey:      "test-key",
		HeliusBaseURL:     "http://localhost/v0",
		HTTPTimeout:       30 * time.Second,
		DefaultFetchLimit: 100,
		ConversionRate:    decimal.NewFromInt(1),
	}
}

func testProcessor() *classify.Processor {
	return classify.NewProcessor(classify.NewClassifier(classify.DefaultConversionRate), nil, testLogger(), nil)
}

// sampleRaws returns one classifiable transaction for the test address.
func sampleRaws() []helius.RawTransaction {
	return []helius.RawTransaction{
		{
			Signature: "sig-1",
			FeePayer:  testAddress,
			Fee:       5000,
			Slot:      100,
			Timestamp: 1700000000,
			NativeTransfers: []helius.NativeTransfer{
				{FromUserAccount: testCounter, ToUserAccount: testAddress, Amount: 2_000_000_000},
			},
			AccountData: []helius.AccountData{
				{
					Account: testAddress,
					TokenBalanceChanges: []helius.TokenBalanceChange{
						{
							UserAccount:    testAddress,
							Mint:           "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
							RawTokenAmount: helius.RawTokenAmount{TokenAmount: "-1000000", Decimals: 6},
						},
					},
				},
			},
		},
	}
}

func doRequest(t *testing.T, h http.Handler, target, address string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.SetPathValue("address", address)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// TestHandleGetTrades_Success verifies the JSON payload for a classified query.
func TestHandleGetTrades_Success(t *testing.T) {
	fetcher := &mockFetcher{raws: sampleRaws()}
	h := handleGetTrades(fetcher, testProcessor(), nil, testConfig(), nil, testLogger())

	w := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades?limit=10", testAddress)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp TradesResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, testAddress, resp.Address)
	assert.Equal(t, 10, resp.Limit)
	assert.Equal(t, 1, resp.Fetched)
	assert.Zero(t, resp.Skipped)
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, classify.DirectionSell, resp.Trades[0].Direction)
	assert.True(t, resp.TotalSOL.Equal(decimal.RequireFromString("1.999995")),
		"got %s", resp.TotalSOL)
	assert.Equal(t, 1, fetcher.calls)
}

// TestHandleGetTrades_InvalidAddress covers the validation failure modes.
func TestHandleGetTrades_InvalidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"bad characters", "not-base58-0OIl"},
		{"not a public key", "abc"},
		{"control characters", "abc\x00def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockFetcher{}
			h := handleGetTrades(fetcher, testProcessor(), nil, testConfig(), nil, testLogger())

			w := doRequest(t, h, "/api/v1/addresses/x/trades", tt.address)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, fetcher.calls, "validation must reject before fetching")
		})
	}
}

// TestHandleGetTrades_LimitOutOfRange verifies the limit bounds.
func TestHandleGetTrades_LimitOutOfRange(t *testing.T) {
	for _, limit := range []string{"0", "1001", "-5", "abc"} {
		t.Run(limit, func(t *testing.T) {
			fetcher := &mockFetcher{}
			h := handleGetTrades(fetcher, testProcessor(), nil, testConfig(), nil, testLogger())

			w := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades?limit="+limit, testAddress)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, fetcher.calls)
		})
	}
}

// TestHandleGetTrades_FetchError verifies an upstream failure maps to 502.
func TestHandleGetTrades_FetchError(t *testing.T) {
	fetcher := &mockFetcher{err: &helius.FetchError{StatusCode: http.StatusTooManyRequests}}
	h := handleGetTrades(fetcher, testProcessor(), nil, testConfig(), nil, testLogger())

	w := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades", testAddress)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body["error"], "429")
}

// TestHandleGetTrades_CacheHit verifies a repeated query skips the upstream call.
func TestHandleGetTrades_CacheHit(t *testing.T) {
	fetcher := &mockFetcher{raws: sampleRaws()}
	cache := gocache.New(time.Minute, time.Minute)
	h := handleGetTrades(fetcher, testProcessor(), cache, testConfig(), nil, testLogger())

	first := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades?limit=10", testAddress)
	second := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades?limit=10", testAddress)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, fetcher.calls, "second query must be served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// A different limit is a different cache key.
	third := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades?limit=20", testAddress)
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, fetcher.calls)
}

// TestHandleExportTrades_CSV verifies the attachment headers and body shape.
func TestHandleExportTrades_CSV(t *testing.T) {
	fetcher := &mockFetcher{raws: sampleRaws()}
	h := handleExportTrades(fetcher, testProcessor(), nil, testConfig(), nil, testLogger())

	w := doRequest(t, h, "/api/v1/addresses/"+testAddress+"/trades/export", testAddress)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="trades_`+testAddress+`.csv"`,
		w.Header().Get("Content-Disposition"))

	body := w.Body.String()
	assert.Contains(t, body, "Date,Direction,Token Amount,SOL Amount")
	assert.Contains(t, body, "SELL")
	assert.Contains(t, body, "sig-")
}

// TestValidateAddress exercises the validator directly.
func TestValidateAddress(t *testing.T) {
	assert.NoError(t, validateAddress(testAddress))
	assert.Error(t, validateAddress(""))
	assert.Error(t, validateAddress("0OIl"))
	assert.Error(t, validateAddress("2vxsx"))
}
