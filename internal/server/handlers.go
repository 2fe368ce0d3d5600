package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"velocitysol/internal/cache"
	"velocitysol/internal/domain"
)

// Error messages and the usage example returned on invalid quote requests.
const (
	errMissingQuoteParams = "Missing required parameters: inputMint, outputMint, amount"
	errInvalidAmount      = "Invalid amount parameter - must be a positive integer"
	quoteExample          = "/jupiter-quote?inputMint=So11111111111111111111111111111111111111112&outputMint=EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v&amount=1000000"

	defaultSlippageBps = 50
)

type priceResponse struct {
	Success        bool      `json:"success"`
	Price          float64   `json:"price"`
	Change24h      float64   `json:"change24h,omitempty"`
	Source         string    `json:"source"`
	Cached         bool      `json:"cached"`
	Timestamp      time.Time `json:"timestamp"`
	ResponseTimeMs int64     `json:"responseTime"`
}

func (s *Server) handlePriceHybrid(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := s.market.HybridPrice(r.Context())

	s.writeJSON(w, r, http.StatusOK, int(cache.TTLPrice.Seconds()), priceResponse{
		Success:        true,
		Price:          res.Quote.Price,
		Change24h:      res.Quote.Change24h,
		Source:         res.Source,
		Cached:         res.Cached,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
}

type historicalPayload struct {
	Success        bool               `json:"success"`
	Days           int                `json:"days"`
	Prices         []float64          `json:"prices"`
	Volumes        []float64          `json:"volumes"`
	Timestamps     []int64            `json:"timestamps"`
	Technicals     *domain.Technicals `json:"technicals,omitempty"`
	Source         string             `json:"source"`
	Cached         bool               `json:"cached"`
	Timestamp      time.Time          `json:"timestamp"`
	ResponseTimeMs int64              `json:"responseTime"`
}

type historicalErrorResponse struct {
	Success        bool              `json:"success"`
	Error          string            `json:"error"`
	Fallback       historicalPayload `json:"fallback"`
	Timestamp      time.Time         `json:"timestamp"`
	ResponseTimeMs int64             `json:"responseTime"`
}

func historicalBody(data *domain.HistoricalData, cached bool, start time.Time) historicalPayload {
	ts := make([]int64, 0, len(data.Series.Timestamps))
	for _, t := range data.Series.Timestamps {
		ts = append(ts, t.UnixMilli())
	}
	return historicalPayload{
		Success:        true,
		Days:           data.Days,
		Prices:         data.Series.Prices,
		Volumes:        data.Series.Volumes,
		Timestamps:     ts,
		Technicals:     data.Technicals,
		Source:         data.Source,
		Cached:         cached,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}

func (s *Server) handleHistoricalData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		}
	}

	res, err := s.market.Historical(r.Context(), days)
	if err != nil {
		fb := s.market.FallbackHistorical(days)
		s.writeJSON(w, r, http.StatusInternalServerError, 0, historicalErrorResponse{
			Success:        false,
			Error:          err.Error(),
			Fallback:       historicalBody(fb.Data, false, start),
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	s.writeJSON(w, r, http.StatusOK, int(cache.TTLHistorical.Seconds()), historicalBody(res.Data, res.Cached, start))
}

type quoteResponse struct {
	Success            bool             `json:"success"`
	Quote              json.RawMessage  `json:"quote"`
	EstimatedAmountOut string           `json:"estimatedAmountOut"`
	PriceImpactPct     float64          `json:"priceImpactPct"`
	RouteInfo          domain.RouteInfo `json:"routeInfo"`
	Source             string           `json:"source"`
	Cached             bool             `json:"cached"`
	Timestamp          time.Time        `json:"timestamp"`
	ResponseTimeMs     int64            `json:"responseTime"`
}

type errorResponse struct {
	Success        bool      `json:"success"`
	Error          string    `json:"error"`
	Example        string    `json:"example,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	ResponseTimeMs int64     `json:"responseTime"`
}

func (s *Server) handleJupiterQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	inputMint := q.Get("inputMint")
	outputMint := q.Get("outputMint")
	amountRaw := q.Get("amount")
	if inputMint == "" || outputMint == "" || amountRaw == "" {
		s.writeJSON(w, r, http.StatusBadRequest, 0, errorResponse{
			Error:          errMissingQuoteParams,
			Example:        quoteExample,
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	amount, err := strconv.ParseInt(amountRaw, 10, 64)
	if err != nil || amount <= 0 {
		s.writeJSON(w, r, http.StatusBadRequest, 0, errorResponse{
			Error:          errInvalidAmount,
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	slippageBps := defaultSlippageBps
	if raw := q.Get("slippageBps"); raw != "" {
		if parsed, perr := strconv.Atoi(raw); perr == nil && parsed >= 0 {
			slippageBps = parsed
		}
	}

	res, err := s.market.Quote(r.Context(), domain.QuoteRequest{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      amount,
		SlippageBps: slippageBps,
	})
	if err != nil {
		s.writeJSON(w, r, http.StatusInternalServerError, 0, errorResponse{
			Error:          err.Error(),
			Timestamp:      time.Now().UTC(),
			ResponseTimeMs: time.Since(start).Milliseconds(),
		})
		return
	}

	s.writeJSON(w, r, http.StatusOK, int(cache.TTLQuote.Seconds()), quoteResponse{
		Success:            true,
		Quote:              res.Quote.Quote,
		EstimatedAmountOut: res.Quote.EstimatedAmountOut,
		PriceImpactPct:     res.Quote.PriceImpactPct,
		RouteInfo:          res.Quote.RouteInfo,
		Source:             res.Quote.Source,
		Cached:             res.Cached,
		Timestamp:          time.Now().UTC(),
		ResponseTimeMs:     time.Since(start).Milliseconds(),
	})
}

type sentimentResponse struct {
	Success        bool                    `json:"success"`
	Sentiment      domain.Sentiment        `json:"sentiment"`
	MarketData     domain.MarketData       `json:"marketData"`
	Source         domain.SentimentSources `json:"source"`
	Cached         bool                    `json:"cached"`
	Timestamp      time.Time               `json:"timestamp"`
	ResponseTimeMs int64                   `json:"responseTime"`
}

func (s *Server) handleMarketSentiment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := s.market.Sentiment(r.Context())

	s.writeJSON(w, r, http.StatusOK, int(cache.TTLMarket.Seconds()), sentimentResponse{
		Success:        true,
		Sentiment:      res.Report.Sentiment,
		MarketData:     res.Report.MarketData,
		Source:         res.Report.Sources,
		Cached:         res.Cached,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
}

type signalResponse struct {
	Success        bool           `json:"success"`
	Signal         *domain.Signal `json:"signal"`
	DataSource     string         `json:"dataSource"`
	Cached         bool           `json:"cached"`
	Timestamp      time.Time      `json:"timestamp"`
	ResponseTimeMs int64          `json:"responseTime"`
}

func (s *Server) handleTradingSignals(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := s.signals.Generate(r.Context())

	s.writeJSON(w, r, http.StatusOK, 0, signalResponse{
		Success:        true,
		Signal:         res.Signal,
		DataSource:     res.Source,
		Cached:         res.Cached,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
}

type healthResponse struct {
	Status         domain.HealthStatus               `json:"status"`
	Services       []domain.ServiceHealth            `json:"services"`
	RateLimits     map[string]domain.RateLimitState  `json:"rateLimits"`
	Cache          cache.Stats                       `json:"cache"`
	Timestamp      time.Time                         `json:"timestamp"`
	ResponseTimeMs int64                             `json:"responseTime"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report := s.market.Health(r.Context())

	status := http.StatusOK
	switch report.Overall {
	case domain.StatusDegraded:
		status = http.StatusMultiStatus
	case domain.StatusUnhealthy:
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, r, status, 0, healthResponse{
		Status:         report.Overall,
		Services:       report.Services,
		RateLimits:     report.RateLimits,
		Cache:          report.Cache,
		Timestamp:      time.Now().UTC(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	})
}
