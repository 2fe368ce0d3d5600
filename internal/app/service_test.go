package app

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocitysol/internal/cache"
	"velocitysol/internal/domain"
	"velocitysol/internal/fallback"
	"velocitysol/internal/ports"
	"velocitysol/internal/ratelimit"
)

type testLogger struct{}

func (testLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (testLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (testLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (testLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type stubPriceSource struct {
	name  string
	quote *domain.PriceQuote
	err   error
	calls int
}

func (s *stubPriceSource) FetchPrice(ctx context.Context) (*domain.PriceQuote, error) {
	s.calls++
	return s.quote, s.err
}

func (s *stubPriceSource) Name() string { return s.name }

type stubHistoricalSource struct {
	name     string
	series   *domain.Series
	err      error
	lastDays int
	calls    int
}

func (s *stubHistoricalSource) FetchHistorical(ctx context.Context, days int) (*domain.Series, error) {
	s.calls++
	s.lastDays = days
	return s.series, s.err
}

func (s *stubHistoricalSource) Name() string { return s.name }

type stubQuoteSource struct {
	quote *domain.SwapQuote
	err   error
	calls int
}

func (s *stubQuoteSource) FetchQuote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error) {
	s.calls++
	return s.quote, s.err
}

type stubSentimentSource struct {
	sentiment *domain.Sentiment
	err       error
}

func (s *stubSentimentSource) FetchFearGreed(ctx context.Context) (*domain.Sentiment, error) {
	return s.sentiment, s.err
}

type stubMarketSource struct {
	data *domain.MarketData
	err  error
}

func (s *stubMarketSource) FetchMarketData(ctx context.Context) (*domain.MarketData, error) {
	return s.data, s.err
}

type stubPinger struct{ err error }

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

type fixture struct {
	svc       *MarketDataService
	jupiter   *stubPriceSource
	coingecko *stubPriceSource
	history   *stubHistoricalSource
	quotes    *stubQuoteSource
	fearGreed *stubSentimentSource
	market    *stubMarketSource
	limiter   *ratelimit.Limiter
}

func dailySeries(n int) *domain.Series {
	s := &domain.Series{}
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, 100+float64(i))
		s.Volumes = append(s.Volumes, 1e9)
		s.Timestamps = append(s.Timestamps, end.AddDate(0, 0, i-n+1))
	}
	return s
}

func newFixture(t *testing.T, limits map[string]ratelimit.Limit) *fixture {
	t.Helper()

	f := &fixture{
		jupiter:   &stubPriceSource{name: "jupiter", quote: &domain.PriceQuote{Price: 150.5, Source: "jupiter"}},
		coingecko: &stubPriceSource{name: "coingecko", quote: &domain.PriceQuote{Price: 150.1, Change24h: 2.5, Source: "coingecko"}},
		history:   &stubHistoricalSource{name: "coingecko", series: dailySeries(60)},
		quotes:    &stubQuoteSource{quote: &domain.SwapQuote{EstimatedAmountOut: "6500000", Source: "jupiter"}},
		fearGreed: &stubSentimentSource{sentiment: &domain.Sentiment{FearGreedIndex: 72, Sentiment: "Greed"}},
		market:    &stubMarketSource{data: &domain.MarketData{MarketCap: 9e10, Volume24h: 3e9}},
	}
	f.limiter = ratelimit.New(ratelimit.Config{Limits: limits})

	svc, err := NewMarketDataService(MarketDataDeps{
		Logger:    testLogger{},
		Cache:     cache.New(cache.Config{}),
		Limiter:   f.limiter,
		Mock:      fallback.NewGenerator(fallback.GeneratorConfig{Source: rand.NewSource(1)}),
		Jupiter:   f.jupiter,
		Quotes:    f.quotes,
		CoinGecko: f.coingecko,
		History:   f.history,
		Market:    f.market,
		FearGreed: f.fearGreed,
		Pingers: map[string]ports.Pinger{
			"jupiter":   &stubPinger{},
			"coingecko": &stubPinger{},
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestHybridPrice_PrimaryServes(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.HybridPrice(context.Background())
	assert.Equal(t, 150.5, res.Quote.Price)
	assert.Equal(t, "jupiter", res.Source)
	assert.False(t, res.Cached)
	assert.Equal(t, 0, f.coingecko.calls, "fallback must not fire when primary succeeds")
}

func TestHybridPrice_FallsBackToCoinGecko(t *testing.T) {
	f := newFixture(t, nil)
	f.jupiter.err = errors.New("jupiter down")
	f.jupiter.quote = nil

	res := f.svc.HybridPrice(context.Background())
	assert.Equal(t, "coingecko", res.Source)
	assert.Equal(t, 150.1, res.Quote.Price)
	assert.Equal(t, 1, f.jupiter.calls)
	assert.Equal(t, 1, f.coingecko.calls)
}

func TestHybridPrice_BothFailServesSynthetic(t *testing.T) {
	f := newFixture(t, nil)
	f.jupiter.err = errors.New("down")
	f.jupiter.quote = nil
	f.coingecko.err = errors.New("down")
	f.coingecko.quote = nil

	res := f.svc.HybridPrice(context.Background())
	assert.Equal(t, "mock", res.Source)
	assert.Greater(t, res.Quote.Price, 0.0)
}

func TestHybridPrice_RateLimitSkipsUpstream(t *testing.T) {
	f := newFixture(t, map[string]ratelimit.Limit{
		ratelimit.ServiceJupiter: {Calls: 0, Window: time.Minute},
	})

	res := f.svc.HybridPrice(context.Background())
	assert.Equal(t, 0, f.jupiter.calls, "denied budget must not reach the network")
	assert.Equal(t, "coingecko", res.Source)
}

func TestHybridPrice_SecondCallCached(t *testing.T) {
	f := newFixture(t, nil)

	first := f.svc.HybridPrice(context.Background())
	second := f.svc.HybridPrice(context.Background())

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Quote, second.Quote)
	assert.Equal(t, 1, f.jupiter.calls)
}

func TestHistorical_ClampsDays(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Historical(context.Background(), 400)
	require.NoError(t, err)
	assert.Equal(t, 365, f.history.lastDays)
	assert.Equal(t, 365, res.Data.Days)

	_, err = f.svc.Historical(context.Background(), -3)
	require.NoError(t, err)
	assert.Equal(t, 1, f.history.lastDays)

	_, err = f.svc.Historical(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, f.history.lastDays)
}

func TestHistorical_ComputesTechnicals(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Historical(context.Background(), 60)
	require.NoError(t, err)
	require.NotNil(t, res.Data.Technicals, "60 points carry indicators")
	assert.Equal(t, "coingecko", res.Data.Source)

	short := dailySeries(20)
	f.history.series = short
	res2, err := f.svc.Historical(context.Background(), 20)
	require.NoError(t, err)
	assert.Nil(t, res2.Data.Technicals, "short series carries no indicators")
}

func TestHistorical_ErrorPropagatesAndFallbackServes(t *testing.T) {
	f := newFixture(t, nil)
	f.history.err = errors.New("coingecko 500")
	f.history.series = nil

	_, err := f.svc.Historical(context.Background(), 30)
	require.Error(t, err)

	fb := f.svc.FallbackHistorical(30)
	assert.Equal(t, "mock", fb.Data.Source)
	assert.Len(t, fb.Data.Series.Prices, 31)
}

func TestHistorical_CachedPerDayCount(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Historical(context.Background(), 30)
	require.NoError(t, err)
	res, err := f.svc.Historical(context.Background(), 30)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, f.history.calls)

	_, err = f.svc.Historical(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, 2, f.history.calls, "different day count is a different entry")
}

func TestQuote_RateLimitDenied(t *testing.T) {
	f := newFixture(t, map[string]ratelimit.Limit{
		ratelimit.ServiceJupiter: {Calls: 0, Window: time.Minute},
	})

	_, err := f.svc.Quote(context.Background(), domain.QuoteRequest{InputMint: "a", OutputMint: "b", Amount: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
	assert.Equal(t, 0, f.quotes.calls)
}

func TestQuote_CachedUnderFullParameterSet(t *testing.T) {
	f := newFixture(t, nil)
	req := domain.QuoteRequest{InputMint: "a", OutputMint: "b", Amount: 1000000, SlippageBps: 50}

	first, err := f.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.Quote(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, f.quotes.calls)

	req.Amount = 2000000
	_, err = f.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.quotes.calls)
}

func TestSentiment_BothLive(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.Sentiment(context.Background())
	assert.Equal(t, 72, res.Report.Sentiment.FearGreedIndex)
	assert.Equal(t, 9e10, res.Report.MarketData.MarketCap)
	assert.Equal(t, "alternative.me", res.Report.Sources.FearGreed)
	assert.Equal(t, "coingecko", res.Report.Sources.MarketData)
}

func TestSentiment_PartialDegradation(t *testing.T) {
	f := newFixture(t, nil)
	f.market.err = errors.New("coingecko down")
	f.market.data = nil

	res := f.svc.Sentiment(context.Background())
	assert.Equal(t, "alternative.me", res.Report.Sources.FearGreed, "live half survives")
	assert.Equal(t, "mock", res.Report.Sources.MarketData, "dead half degrades alone")
	assert.Equal(t, 45_000_000_000.0, res.Report.MarketData.MarketCap)
}

func TestSentiment_Cached(t *testing.T) {
	f := newFixture(t, nil)

	first := f.svc.Sentiment(context.Background())
	second := f.svc.Sentiment(context.Background())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
}

func TestHealth_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		jupiter  error
		gecko    error
		expected domain.HealthStatus
	}{
		{name: "all reachable", expected: domain.StatusHealthy},
		{name: "one down", jupiter: errors.New("timeout"), expected: domain.StatusDegraded},
		{name: "all down", jupiter: errors.New("timeout"), gecko: errors.New("refused"), expected: domain.StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.svc.pingers = map[string]ports.Pinger{
				"jupiter":   &stubPinger{err: tt.jupiter},
				"coingecko": &stubPinger{err: tt.gecko},
			}

			report := f.svc.Health(context.Background())
			assert.Equal(t, tt.expected, report.Overall)
			assert.Len(t, report.Services, 2)
			assert.Contains(t, report.RateLimits, ratelimit.ServiceCoinGecko)
			assert.Contains(t, report.RateLimits, ratelimit.ServiceJupiter)
		})
	}
}

func TestHealth_ReportsUnhealthyServiceError(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.pingers = map[string]ports.Pinger{
		"jupiter": &stubPinger{err: errors.New("connection refused")},
	}

	report := f.svc.Health(context.Background())
	require.Len(t, report.Services, 1)
	assert.Equal(t, domain.StatusUnhealthy, report.Services[0].Status)
	assert.Equal(t, "connection refused", report.Services[0].Error)
}
