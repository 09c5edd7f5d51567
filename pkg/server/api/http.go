// Package api provides HTTP and WebSocket endpoints exposing the computed rate.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tc.com/rate-oracle/pkg/logging"
	"tc.com/rate-oracle/pkg/metrics"
	"tc.com/rate-oracle/pkg/oracle"
)

// PriceResponse is the JSON shape of a computed price.
type PriceResponse struct {
	Pair      string `json:"pair"`
	Price     string `json:"price"`    // integer, scaled by 10^decimals
	Decimals  int    `json:"decimals"` // implied decimal places of Price
	Human     string `json:"human"`    // human-readable rendering
	Timestamp string `json:"timestamp"`
}

// Server is the HTTP API server. It is the caching layer on top of the
// oracle's uncached reads.
type Server struct {
	addr     string
	oracle   *oracle.Oracle
	pair     string
	cacheTTL time.Duration
	logger   *logging.Logger

	mu        sync.RWMutex
	cached    *PriceResponse
	cacheTime time.Time

	server   *http.Server
	wsServer *WebSocketServer
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, o *oracle.Oracle, pair string, cacheTTL time.Duration, logger *logging.Logger) *Server {
	return &Server{
		addr:     addr,
		oracle:   o,
		pair:     pair,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// SetWebSocketServer sets the WebSocket server for streaming updates.
func (s *Server) SetWebSocketServer(ws *WebSocketServer) {
	s.wsServer = ws
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/price", s.handlePrice)

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Poll evaluates the price at the given interval and broadcasts each result
// to WebSocket clients until ctx is canceled.
func (s *Server) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			resp, err := s.refresh(queryCtx)
			cancel()
			if err != nil {
				s.logger.Warn("Price poll failed", "error", err)
				continue
			}
			if s.wsServer != nil {
				s.wsServer.Broadcast(resp)
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleHealth handles the /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/health", "200", time.Since(start))
	}()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePrice handles the /v1/price endpoint.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "200"
	defer func() {
		metrics.RecordHTTPRequest("/v1/price", status, time.Since(start))
	}()

	s.mu.RLock()
	cached := s.cached
	fresh := time.Since(s.cacheTime) < s.cacheTTL
	s.mu.RUnlock()

	if cached != nil && fresh {
		s.sendJSON(w, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := s.refresh(ctx)
	if err != nil {
		status = "503"
		s.logger.Error("Failed to compute price", "error", err)
		http.Error(w, "price unavailable", http.StatusServiceUnavailable)
		return
	}

	if s.wsServer != nil {
		s.wsServer.Broadcast(resp)
	}

	s.sendJSON(w, resp)
}

// refresh computes a fresh price and updates the cache.
func (s *Server) refresh(ctx context.Context) (*PriceResponse, error) {
	price, err := s.oracle.Price(ctx)
	if err != nil {
		return nil, err
	}

	decimals := s.oracle.PriceDecimals()
	resp := &PriceResponse{
		Pair:      s.pair,
		Price:     price.String(),
		Decimals:  decimals,
		Human:     decimal.NewFromBigInt(price, int32(-decimals)).String(), // #nosec G115 -- decimals bounded by 36+255
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	s.cached = resp
	s.cacheTime = time.Now()
	s.mu.Unlock()

	return resp, nil
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}
