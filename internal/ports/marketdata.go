package ports

import (
	"context"
	"time"

	"velocitysol/internal/domain"
)

// PriceSource fetches the current price of the traded pair from one provider.
type PriceSource interface {
	// FetchPrice retrieves the current price. It fails with an explicit error
	// when the response is not OK or required fields are missing.
	FetchPrice(ctx context.Context) (*domain.PriceQuote, error)

	// Name returns the provider identifier used for source tagging.
	Name() string
}

// HistoricalSource fetches a daily historical price/volume series.
type HistoricalSource interface {
	// FetchHistorical retrieves the last `days` daily data points.
	FetchHistorical(ctx context.Context, days int) (*domain.Series, error)

	// Name returns the provider identifier used for source tagging.
	Name() string
}

// QuoteSource fetches swap quotes from the DEX aggregator.
type QuoteSource interface {
	// FetchQuote retrieves a swap quote for the given parameters.
	FetchQuote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error)
}

// SentimentSource fetches the aggregate Fear & Greed index.
type SentimentSource interface {
	// FetchFearGreed retrieves the latest Fear & Greed reading.
	FetchFearGreed(ctx context.Context) (*domain.Sentiment, error)
}

// MarketDataSource fetches aggregate market statistics for the asset.
type MarketDataSource interface {
	// FetchMarketData retrieves market cap, volume and related statistics.
	FetchMarketData(ctx context.Context) (*domain.MarketData, error)
}

// Pinger checks the connectivity of an upstream provider.
type Pinger interface {
	// Ping performs a lightweight reachability probe.
	Ping(ctx context.Context) error
}

// PriceStreamer starts a live price feed for the traded pair.
// This abstraction allows decoupling the dashboard push channel from the
// exchange implementation providing the feed.
type PriceStreamer interface {
	// StreamPrices starts a stream of live price ticks.
	// It takes handlers for processing ticks and errors.
	// Returns channels to control the stream (doneCh, stopCh) or an error if connection fails.
	StreamPrices(ctx context.Context, handler func(tick *domain.PriceTick), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)
}

// SignalRepository stores generated signals for offline analysis. The serving
// path never reads this history.
type SignalRepository interface {
	// RecordSignal saves one generated signal and the price it was derived
	// from, returning the assigned ID.
	RecordSignal(ctx context.Context, sig *domain.Signal, price float64, generatedAt time.Time) (int64, error)
	// FindRecent retrieves the most recent recorded signals, up to a limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.RecordedSignal, error)
	// Close releases the underlying store.
	Close() error
}
