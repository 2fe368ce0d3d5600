// Package server exposes the dashboard HTTP API: six JSON endpoints, a
// WebSocket price feed and Prometheus metrics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"velocitysol/internal/app"
	"velocitysol/internal/observability"
	"velocitysol/internal/ports"
)

// Server holds the handler dependencies and the route table.
type Server struct {
	logger  ports.Logger
	market  *app.MarketDataService
	signals *app.SignalService
	hub     *Hub
}

// Config holds construction options for the HTTP server.
type Config struct {
	Logger     ports.Logger
	MarketData *app.MarketDataService
	Signals    *app.SignalService
	// Hub is optional; without it /ws/price responds 404.
	Hub *Hub
}

// New creates the server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.MarketData == nil || cfg.Signals == nil {
		return nil, fmt.Errorf("missing required dependencies for Server")
	}
	return &Server{
		logger:  cfg.Logger,
		market:  cfg.MarketData,
		signals: cfg.Signals,
		hub:     cfg.Hub,
	}, nil
}

// Routes returns the full handler chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/price-hybrid", s.instrument("price-hybrid", s.handlePriceHybrid))
	mux.HandleFunc("/historical-data", s.instrument("historical-data", s.handleHistoricalData))
	mux.HandleFunc("/jupiter-quote", s.instrument("jupiter-quote", s.handleJupiterQuote))
	mux.HandleFunc("/market-sentiment", s.instrument("market-sentiment", s.handleMarketSentiment))
	mux.HandleFunc("/trading-signals", s.instrument("trading-signals", s.handleTradingSignals))
	mux.HandleFunc("/health-check", s.instrument("health-check", s.handleHealthCheck))
	if s.hub != nil {
		mux.HandleFunc("/ws/price", s.hub.ServeWS)
	}
	mux.Handle("/metrics", observability.Handler())
	return corsMiddleware(mux)
}

// corsMiddleware applies the dashboard's open CORS policy to every route.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the written status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordRequest(endpoint, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

// writeJSON serializes payload with the given status and an s-maxage cache
// hint. maxAgeSeconds 0 omits the header.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, maxAgeSeconds int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if maxAgeSeconds > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("s-maxage=%d", maxAgeSeconds))
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(r.Context(), err, "failed to encode response", map[string]interface{}{"path": r.URL.Path})
	}
}
