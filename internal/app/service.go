// Package app orchestrates the dashboard's market-data operations: cache
// admission, rate-limit checks, the primary/fallback/mock source tiers and
// derived indicator computation.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"velocitysol/internal/cache"
	"velocitysol/internal/domain"
	"velocitysol/internal/fallback"
	"velocitysol/internal/observability"
	"velocitysol/internal/ports"
	"velocitysol/internal/ratelimit"
	"velocitysol/internal/strategy/indicators"
)

// Historical request bounds.
const (
	MinHistoricalDays     = 1
	MaxHistoricalDays     = 365
	DefaultHistoricalDays = 30

	pingTimeout           = 3 * time.Second
	marketDataTimeout     = 8 * time.Second
)

// Cache keys.
const (
	keyHybridPrice = "price:hybrid"
	keySentiment   = "sentiment:combined"
)

// PriceResult is the outcome of a hybrid price lookup.
type PriceResult struct {
	Quote  *domain.PriceQuote
	Source string
	Cached bool
}

// HistoricalResult is the outcome of a historical series lookup.
type HistoricalResult struct {
	Data   *domain.HistoricalData
	Cached bool
}

// QuoteResult is the outcome of a swap quote lookup.
type QuoteResult struct {
	Quote  *domain.SwapQuote
	Cached bool
}

// SentimentResult is the outcome of a combined sentiment lookup.
type SentimentResult struct {
	Report *domain.SentimentReport
	Cached bool
}

// HealthReport aggregates provider probes with local resource state.
type HealthReport struct {
	Overall    domain.HealthStatus
	Services   []domain.ServiceHealth
	RateLimits map[string]domain.RateLimitState
	Cache      cache.Stats
}

// MarketDataService serves every read operation of the dashboard. All methods
// are safe for concurrent use.
type MarketDataService struct {
	logger    ports.Logger
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	mock      *fallback.Generator
	jupiter   ports.PriceSource
	quotes    ports.QuoteSource
	coingecko ports.PriceSource
	history   ports.HistoricalSource
	market    ports.MarketDataSource
	fearGreed ports.SentimentSource
	pingers   map[string]ports.Pinger
}

// MarketDataDeps lists the collaborators of the market-data service.
type MarketDataDeps struct {
	Logger    ports.Logger
	Cache     *cache.Cache
	Limiter   *ratelimit.Limiter
	Mock      *fallback.Generator
	Jupiter   ports.PriceSource
	Quotes    ports.QuoteSource
	CoinGecko ports.PriceSource
	History   ports.HistoricalSource
	Market    ports.MarketDataSource
	FearGreed ports.SentimentSource
	// Pingers maps provider name to its reachability probe.
	Pingers map[string]ports.Pinger
}

// NewMarketDataService creates the market-data service.
func NewMarketDataService(deps MarketDataDeps) (*MarketDataService, error) {
	if deps.Logger == nil || deps.Cache == nil || deps.Limiter == nil || deps.Mock == nil {
		return nil, fmt.Errorf("missing required dependencies for MarketDataService")
	}
	if deps.Jupiter == nil || deps.Quotes == nil || deps.CoinGecko == nil ||
		deps.History == nil || deps.Market == nil || deps.FearGreed == nil {
		return nil, fmt.Errorf("missing required data sources for MarketDataService")
	}
	return &MarketDataService{
		logger:    deps.Logger,
		cache:     deps.Cache,
		limiter:   deps.Limiter,
		mock:      deps.Mock,
		jupiter:   deps.Jupiter,
		quotes:    deps.Quotes,
		coingecko: deps.CoinGecko,
		history:   deps.History,
		market:    deps.Market,
		fearGreed: deps.FearGreed,
		pingers:   deps.Pingers,
	}, nil
}

// HybridPrice returns the current price through the three-tier source chain:
// Jupiter, then CoinGecko, then synthetic data. It never fails; the worst
// case is a mock quote.
func (s *MarketDataService) HybridPrice(ctx context.Context) *PriceResult {
	if v, ok := s.cache.Get(keyHybridPrice); ok {
		observability.RecordCacheLookup(true)
		res := v.(*PriceResult)
		return &PriceResult{Quote: res.Quote, Source: res.Source, Cached: true}
	}
	observability.RecordCacheLookup(false)

	quote, _, err := fallback.ExecuteWithFallback(ctx, s.logger, "hybrid price",
		func(ctx context.Context) (*domain.PriceQuote, error) {
			return s.fetchPrice(ctx, s.jupiter, ratelimit.ServiceJupiter)
		},
		func(ctx context.Context) (*domain.PriceQuote, error) {
			return s.fetchPrice(ctx, s.coingecko, ratelimit.ServiceCoinGecko)
		},
	)
	if err != nil {
		s.logger.Warn(ctx, "serving synthetic price", map[string]interface{}{"error": err.Error()})
		quote = s.mock.Price()
	}

	res := &PriceResult{Quote: quote, Source: quote.Source}
	observability.RecordSource("price", quote.Source)
	s.cache.Set(keyHybridPrice, res, cache.CategoryPrice)
	return res
}

func (s *MarketDataService) fetchPrice(ctx context.Context, src ports.PriceSource, service string) (*domain.PriceQuote, error) {
	if !s.limiter.CanMakeRequest(service) {
		observability.RecordRateLimitDenial(service)
		return nil, fmt.Errorf("%w: %s budget exhausted", ports.ErrRateLimited, service)
	}
	quote, err := src.FetchPrice(ctx)
	observability.RecordUpstream(src.Name(), err)
	return quote, err
}

// Historical returns the daily series for the requested day count, clamped to
// [MinHistoricalDays, MaxHistoricalDays], with derived technical indicators.
// Unlike HybridPrice it can fail; callers serve FallbackHistorical instead.
func (s *MarketDataService) Historical(ctx context.Context, days int) (*HistoricalResult, error) {
	days = ClampDays(days)
	key := fmt.Sprintf("historical:%d", days)

	if v, ok := s.cache.Get(key); ok {
		observability.RecordCacheLookup(true)
		res := v.(*HistoricalResult)
		return &HistoricalResult{Data: res.Data, Cached: true}, nil
	}
	observability.RecordCacheLookup(false)

	if !s.limiter.CanMakeRequest(ratelimit.ServiceCoinGecko) {
		observability.RecordRateLimitDenial(ratelimit.ServiceCoinGecko)
		return nil, fmt.Errorf("%w: %s budget exhausted", ports.ErrRateLimited, ratelimit.ServiceCoinGecko)
	}

	series, err := s.history.FetchHistorical(ctx, days)
	observability.RecordUpstream(s.history.Name(), err)
	if err != nil {
		return nil, err
	}

	res := &HistoricalResult{Data: &domain.HistoricalData{
		Days:       days,
		Series:     *series,
		Technicals: indicators.Compute(series.Prices, series.Volumes),
		Source:     s.history.Name(),
	}}
	observability.RecordSource("historical", res.Data.Source)
	s.cache.Set(key, res, cache.CategoryHistorical)
	return res, nil
}

// FallbackHistorical synthesizes a historical series when the live source is
// unavailable. The result is not cached so a recovered upstream is retried on
// the next request.
func (s *MarketDataService) FallbackHistorical(days int) *HistoricalResult {
	days = ClampDays(days)
	series := s.mock.Historical(days)
	observability.RecordSource("historical", "mock")
	return &HistoricalResult{Data: &domain.HistoricalData{
		Days:       days,
		Series:     *series,
		Technicals: indicators.Compute(series.Prices, series.Volumes),
		Source:     "mock",
	}}
}

// Quote returns a swap quote for the validated request, cached briefly under
// the full parameter set.
func (s *MarketDataService) Quote(ctx context.Context, req domain.QuoteRequest) (*QuoteResult, error) {
	key := fmt.Sprintf("quote:%s:%s:%d:%d", req.InputMint, req.OutputMint, req.Amount, req.SlippageBps)

	if v, ok := s.cache.Get(key); ok {
		observability.RecordCacheLookup(true)
		res := v.(*QuoteResult)
		return &QuoteResult{Quote: res.Quote, Cached: true}, nil
	}
	observability.RecordCacheLookup(false)

	if !s.limiter.CanMakeRequest(ratelimit.ServiceJupiter) {
		observability.RecordRateLimitDenial(ratelimit.ServiceJupiter)
		return nil, fmt.Errorf("%w: %s budget exhausted", ports.ErrRateLimited, ratelimit.ServiceJupiter)
	}

	quote, err := s.quotes.FetchQuote(ctx, req)
	observability.RecordUpstream("jupiter", err)
	if err != nil {
		return nil, err
	}

	res := &QuoteResult{Quote: quote}
	s.cache.Set(key, res, cache.CategoryQuote)
	return res, nil
}

// Sentiment returns the combined Fear & Greed reading and market statistics.
// The two halves are fetched concurrently and degrade to synthetic values
// independently, so one dead provider never blanks the whole report.
func (s *MarketDataService) Sentiment(ctx context.Context) *SentimentResult {
	if v, ok := s.cache.Get(keySentiment); ok {
		observability.RecordCacheLookup(true)
		res := v.(*SentimentResult)
		return &SentimentResult{Report: res.Report, Cached: true}
	}
	observability.RecordCacheLookup(false)

	mockReport := s.mock.Sentiment()
	report := &domain.SentimentReport{
		Sentiment:  mockReport.Sentiment,
		MarketData: mockReport.MarketData,
		Sources:    domain.SentimentSources{FearGreed: "mock", MarketData: "mock"},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(2)

	go func() {
		defer wg.Done()
		sent, err := s.fearGreed.FetchFearGreed(ctx)
		observability.RecordUpstream("alternative.me", err)
		if err != nil {
			s.logger.Warn(ctx, "fear & greed fetch failed, using synthetic reading", map[string]interface{}{"error": err.Error()})
			return
		}
		mu.Lock()
		report.Sentiment = *sent
		report.Sources.FearGreed = "alternative.me"
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		mdCtx, cancel := context.WithTimeout(ctx, marketDataTimeout)
		defer cancel()
		if !s.limiter.CanMakeRequest(ratelimit.ServiceCoinGecko) {
			observability.RecordRateLimitDenial(ratelimit.ServiceCoinGecko)
			return
		}
		md, err := s.market.FetchMarketData(mdCtx)
		observability.RecordUpstream("coingecko", err)
		if err != nil {
			s.logger.Warn(ctx, "market data fetch failed, using synthetic statistics", map[string]interface{}{"error": err.Error()})
			return
		}
		mu.Lock()
		report.MarketData = *md
		report.Sources.MarketData = "coingecko"
		mu.Unlock()
	}()

	wg.Wait()

	res := &SentimentResult{Report: report}
	s.cache.Set(keySentiment, res, cache.CategoryMarket)
	return res
}

// Health probes every registered provider concurrently with a short timeout
// and aggregates the results: all reachable is healthy, some is degraded,
// none is unhealthy.
func (s *MarketDataService) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{
		RateLimits: map[string]domain.RateLimitState{
			ratelimit.ServiceCoinGecko: s.rateLimitState(ratelimit.ServiceCoinGecko),
			ratelimit.ServiceJupiter:   s.rateLimitState(ratelimit.ServiceJupiter),
		},
		Cache: s.cache.Stats(),
	}

	type probe struct {
		name   string
		pinger ports.Pinger
	}
	probes := make([]probe, 0, len(s.pingers))
	for name, p := range s.pingers {
		probes = append(probes, probe{name: name, pinger: p})
	}

	results := make([]domain.ServiceHealth, len(probes))
	var wg sync.WaitGroup
	for i, p := range probes {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()

			start := time.Now()
			err := p.pinger.Ping(pingCtx)
			elapsed := time.Since(start).Milliseconds()

			sh := domain.ServiceHealth{
				Service:        p.name,
				Status:         domain.StatusHealthy,
				ResponseTimeMs: elapsed,
				CanMakeRequest: s.limiter.Peek(serviceFor(p.name)),
			}
			if err != nil {
				sh.Status = domain.StatusUnhealthy
				sh.Error = err.Error()
			}
			results[i] = sh
		}(i, p)
	}
	wg.Wait()

	healthy := 0
	for _, sh := range results {
		if sh.Status == domain.StatusHealthy {
			healthy++
		}
	}
	switch {
	case len(results) == 0 || healthy == len(results):
		report.Overall = domain.StatusHealthy
	case healthy > 0:
		report.Overall = domain.StatusDegraded
	default:
		report.Overall = domain.StatusUnhealthy
	}
	report.Services = results
	return report
}

func (s *MarketDataService) rateLimitState(service string) domain.RateLimitState {
	return domain.RateLimitState{
		CanMakeRequest: s.limiter.Peek(service),
		WaitTimeMs:     s.limiter.WaitTime(service).Milliseconds(),
	}
}

// serviceFor maps a provider name to its rate-limit budget. Providers without
// a budget (alternative.me) map to an unknown service, which is always
// admitted.
func serviceFor(provider string) string {
	switch provider {
	case "jupiter":
		return ratelimit.ServiceJupiter
	case "coingecko":
		return ratelimit.ServiceCoinGecko
	default:
		return provider
	}
}

// ClampDays bounds a requested day count to the supported range. Zero or
// negative values select the default.
func ClampDays(days int) int {
	if days == 0 {
		return DefaultHistoricalDays
	}
	if days < MinHistoricalDays {
		return MinHistoricalDays
	}
	if days > MaxHistoricalDays {
		return MaxHistoricalDays
	}
	return days
}
