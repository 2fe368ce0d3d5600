package fallback

import (
	"math"
	"math/rand"
	"time"

	"velocitysol/internal/domain"
)

const (
	mockBasePrice      = 119.75
	mockHistoricalBase = 120.0
)

// Generator synthesizes plausible market data when every upstream provider
// has failed. The shape is deterministic (a sine trend around a base price);
// only the noise comes from the injected random source.
type Generator struct {
	rand *rand.Rand
	now  func() time.Time
}

// GeneratorConfig holds construction options for the generator.
type GeneratorConfig struct {
	// Source overrides the random source, for deterministic tests.
	// Defaults to a time-seeded source.
	Source rand.Source
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewGenerator creates a synthetic data generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	src := cfg.Source
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{rand: rand.New(src), now: now}
}

// Price synthesizes a current-price quote around the mock base price.
func (g *Generator) Price() *domain.PriceQuote {
	return &domain.PriceQuote{
		Price:     mockBasePrice + (g.rand.Float64()-0.5)*10,
		Change24h: (g.rand.Float64() - 0.5) * 8,
		Source:    "mock",
		Timestamp: g.now(),
	}
}

// Historical synthesizes a daily series of days+1 points: a full sine cycle
// of amplitude 20 around the base price with bounded noise, floored at 50.
func (g *Generator) Historical(days int) *domain.Series {
	n := days + 1
	series := &domain.Series{
		Prices:     make([]float64, 0, n),
		Volumes:    make([]float64, 0, n),
		Timestamps: make([]time.Time, 0, n),
	}

	end := g.now()
	for i := 0; i < n; i++ {
		dayOffset := float64(i) / float64(days)
		trend := math.Sin(dayOffset*math.Pi*2) * 20
		noise := (g.rand.Float64() - 0.5) * 15
		price := mockHistoricalBase + trend + noise
		if price < 50 {
			price = 50
		}
		series.Prices = append(series.Prices, price)
		series.Volumes = append(series.Volumes, 1_000_000_000+g.rand.Float64()*1_000_000_000)
		series.Timestamps = append(series.Timestamps, end.AddDate(0, 0, i-days))
	}
	return series
}

// Sentiment synthesizes a neutral Fear & Greed reading with ballpark market
// statistics.
func (g *Generator) Sentiment() *domain.SentimentReport {
	return &domain.SentimentReport{
		Sentiment: domain.Sentiment{
			FearGreedIndex: 50 + g.rand.Intn(40),
			Sentiment:      "Neutral",
		},
		MarketData: domain.MarketData{
			MarketCap: 45_000_000_000,
			Volume24h: 2_500_000_000,
		},
		Sources: domain.SentimentSources{FearGreed: "mock", MarketData: "mock"},
	}
}
