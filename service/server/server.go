package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/swapledger/service/classify"
	"github.com/brojonat/swapledger/service/config"
	"github.com/brojonat/swapledger/service/helius"
	"github.com/brojonat/swapledger/service/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TransactionFetcher fetches raw transactions for an address.
// *helius.Client satisfies this; tests substitute a mock.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, params helius.GetTransactionsParams) ([]helius.RawTransaction, error)
}

// Server represents the HTTP server for the trade history service.
type Server struct {
	addr      string
	cfg       *config.Config
	fetcher   TransactionFetcher
	processor *classify.Processor
	cache     *gocache.Cache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The fetcher supplies raw transactions and the processor classifies them.
// The metrics is optional - if nil, the /metrics endpoint won't be available.
func New(addr string, cfg *config.Config, fetcher TransactionFetcher, processor *classify.Processor, m *metrics.Metrics, logger *slog.Logger) *Server {
	var cache *gocache.Cache
	if cfg.ResultCacheTTL > 0 {
		cache = gocache.New(cfg.ResultCacheTTL, 2*cfg.ResultCacheTTL)
	}
	return &Server{
		addr:      addr,
		cfg:       cfg,
		fetcher:   fetcher,
		processor: processor,
		cache:     cache,
		metrics:   m,
		logger:    logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	withMetrics := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	// Trade history routes
	mux.Handle("GET /api/v1/addresses/{address}/trades",
		withMetrics("/api/v1/addresses/{address}/trades",
			handleGetTrades(s.fetcher, s.processor, s.cache, s.cfg, s.metrics, s.logger)))
	mux.Handle("GET /api/v1/addresses/{address}/trades/export",
		withMetrics("/api/v1/addresses/{address}/trades/export",
			handleExportTrades(s.fetcher, s.processor, s.cache, s.cfg, s.metrics, s.logger)))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers so browser-based consumers can call
// the API directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
