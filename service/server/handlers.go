package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/brojonat/swapledger/service/classify"
	"github.com/brojonat/swapledger/service/config"
	"github.com/brojonat/swapledger/service/export"
	"github.com/brojonat/swapledger/service/helius"
	"github.com/brojonat/swapledger/service/metrics"
	solanago "github.com/gagliardetto/solana-go"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const (
	maxAddressLength = 100 // Solana addresses are 44 chars, give buffer
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// TradesResponse is the JSON payload for a classified trade query.
type TradesResponse struct {
	Address  string            `json:"address"`
	Limit    int               `json:"limit"`
	Fetched  int               `json:"fetched"`
	Skipped  int               `json:"skipped"`
	TotalSOL decimal.Decimal   `json:"total_sol"`
	Trades   []*classify.Trade `json:"trades"`
}

// handleGetTrades returns a handler that fetches, classifies, and returns
// an address's recent trades as JSON.
// GET /api/v1/addresses/{address}/trades?limit={limit}
func handleGetTrades(fetcher TransactionFetcher, processor *classify.Processor, cache *gocache.Cache, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, status, err := queryTrades(r, fetcher, processor, cache, cfg, m, "trades", logger)
		if err != nil {
			writeError(w, err.Error(), status)
			return
		}
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleExportTrades returns a handler that serves the same query as a
// CSV attachment.
// GET /api/v1/addresses/{address}/trades/export?limit={limit}
func handleExportTrades(fetcher TransactionFetcher, processor *classify.Processor, cache *gocache.Cache, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, status, err := queryTrades(r, fetcher, processor, cache, cfg, m, "export", logger)
		if err != nil {
			writeError(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "trades_"+resp.Address+".csv"))
		if err := export.WriteCSV(w, resp.Trades); err != nil {
			// Headers are already sent; all we can do is log.
			logger.Error("failed to write CSV export", "address", resp.Address, "error", err)
		}
	})
}

// queryTrades validates the request, consults the result cache, and runs
// the fetch-classify pipeline on a miss.
func queryTrades(r *http.Request, fetcher TransactionFetcher, processor *classify.Processor, cache *gocache.Cache, cfg *config.Config, m *metrics.Metrics, handlerName string, logger *slog.Logger) (*TradesResponse, int, error) {
	address := r.PathValue("address")
	if err := validateAddress(address); err != nil {
		logger.Debug("invalid address", "address", address, "error", err)
		return nil, http.StatusBadRequest, err
	}

	limit := cfg.DefaultFetchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, http.StatusBadRequest, errorf("invalid limit %q: not an integer", raw)
		}
		limit = parsed
	}
	if limit < helius.MinLimit || limit > helius.MaxLimit {
		return nil, http.StatusBadRequest,
			errorf("limit must be between %d and %d", helius.MinLimit, helius.MaxLimit)
	}

	cacheKey := address + ":" + strconv.Itoa(limit)
	if cache != nil {
		if cached, found := cache.Get(cacheKey); found {
			if m != nil {
				m.RecordCacheLookup(handlerName, true)
			}
			return cached.(*TradesResponse), http.StatusOK, nil
		}
		if m != nil {
			m.RecordCacheLookup(handlerName, false)
		}
	}

	raws, err := fetcher.GetTransactions(r.Context(), helius.GetTransactionsParams{
		Address: address,
		Limit:   limit,
	})
	if err != nil {
		var fetchErr *helius.FetchError
		if errors.As(err, &fetchErr) {
			logger.Error("upstream fetch failed", "address", address, "status", fetchErr.StatusCode)
			return nil, http.StatusBadGateway, errorf("upstream fetch failed with status %d", fetchErr.StatusCode)
		}
		logger.Error("failed to fetch transactions", "address", address, "error", err)
		return nil, http.StatusInternalServerError, errorf("failed to fetch transactions")
	}

	result, err := processor.Process(r.Context(), raws)
	if err != nil {
		// Only cancellation escapes the batch boundary.
		logger.Warn("batch processing aborted", "address", address, "error", err)
		return nil, http.StatusInternalServerError, errorf("processing aborted")
	}

	resp := &TradesResponse{
		Address:  address,
		Limit:    limit,
		Fetched:  len(raws),
		Skipped:  result.Skipped,
		TotalSOL: result.TotalSOL,
		Trades:   result.Trades,
	}
	if cache != nil {
		cache.SetDefault(cacheKey, resp)
	}

	logger.Info("served trade query",
		"address", address,
		"limit", limit,
		"classified", len(resp.Trades),
		"skipped", resp.Skipped,
	)
	return resp, http.StatusOK, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// validateAddress validates a wallet/market address for security and format.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}

	if len(address) > maxAddressLength {
		return errorf("address too long: maximum length is %d characters", maxAddressLength)
	}

	// Check for null bytes and control characters
	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in address: control characters not allowed")
		}
	}

	if !validAddressRegex.MatchString(address) {
		return errorf("invalid address format: must contain only valid base58 characters")
	}

	// Confirm it decodes to a real public key
	if _, err := solanago.PublicKeyFromBase58(address); err != nil {
		return errorf("invalid address: %v", err)
	}

	return nil
}

// errorf creates a validation error with a formatted message.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
