// Package coingecko adapts the CoinGecko public API v3 to the market-data
// ports. It serves as the fallback price source and the only historical and
// market-overview source.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultTimeout = 15 * time.Second
	coinID         = "solana"
	vsCurrency     = "usd"
)

// Config holds configuration for the CoinGecko client adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// Client implements ports.PriceSource, ports.HistoricalSource,
// ports.MarketDataSource and ports.Pinger against the CoinGecko API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// New creates a new CoinGecko client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CoinGecko client")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "coingecko" }

// simplePriceResponse is the /simple/price response shape. Pointers
// distinguish absent fields from zero values.
type simplePriceResponse map[string]struct {
	USD          *float64 `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change"`
}

// FetchPrice retrieves the current SOL price in USD with 24h change.
func (c *Client) FetchPrice(ctx context.Context) (*domain.PriceQuote, error) {
	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s&include_24hr_change=true", c.baseURL, coinID, vsCurrency)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var decoded simplePriceResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("coingecko price decode: %w: %v", ports.ErrMalformedResponse, err)
	}

	entry, ok := decoded[coinID]
	if !ok || entry.USD == nil {
		return nil, fmt.Errorf("coingecko price: %w: no usd price for %s", ports.ErrMalformedResponse, coinID)
	}

	quote := &domain.PriceQuote{
		Price:     *entry.USD,
		Source:    c.Name(),
		Timestamp: time.Now(),
	}
	if entry.USD24hChange != nil {
		quote.Change24h = *entry.USD24hChange
	}
	return quote, nil
}

// marketChartResponse is the /coins/{id}/market_chart response shape. Each
// point is a [timestampMillis, value] pair.
type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// FetchHistorical retrieves daily price and volume history for the given
// number of days.
func (c *Client) FetchHistorical(ctx context.Context, days int) (*domain.Series, error) {
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=daily", c.baseURL, coinID, vsCurrency, days)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var decoded marketChartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("coingecko historical decode: %w: %v", ports.ErrMalformedResponse, err)
	}
	if len(decoded.Prices) == 0 {
		return nil, fmt.Errorf("coingecko historical: %w: empty price series", ports.ErrMalformedResponse)
	}

	series := &domain.Series{
		Prices:     make([]float64, 0, len(decoded.Prices)),
		Volumes:    make([]float64, 0, len(decoded.TotalVolumes)),
		Timestamps: make([]time.Time, 0, len(decoded.Prices)),
	}
	for _, p := range decoded.Prices {
		series.Prices = append(series.Prices, p[1])
		series.Timestamps = append(series.Timestamps, time.UnixMilli(int64(p[0])))
	}
	for _, v := range decoded.TotalVolumes {
		series.Volumes = append(series.Volumes, v[1])
	}
	return series, nil
}

// coinResponse is the subset of /coins/{id} the dashboard needs.
type coinResponse struct {
	MarketData struct {
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
		TotalVolume struct {
			USD float64 `json:"usd"`
		} `json:"total_volume"`
		ATH struct {
			USD float64 `json:"usd"`
		} `json:"ath"`
		ATL struct {
			USD float64 `json:"usd"`
		} `json:"atl"`
		PriceChangePct24h float64 `json:"price_change_percentage_24h"`
		PriceChangePct7d  float64 `json:"price_change_percentage_7d"`
		CirculatingSupply float64 `json:"circulating_supply"`
	} `json:"market_data"`
}

// FetchMarketData retrieves the market overview (cap, volume, 24h change).
func (c *Client) FetchMarketData(ctx context.Context) (*domain.MarketData, error) {
	u := fmt.Sprintf("%s/coins/%s?localization=false&tickers=false&community_data=false&developer_data=false", c.baseURL, coinID)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var decoded coinResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("coingecko market decode: %w: %v", ports.ErrMalformedResponse, err)
	}
	if decoded.MarketData.MarketCap.USD == 0 {
		return nil, fmt.Errorf("coingecko market: %w: missing market data", ports.ErrMalformedResponse)
	}

	return &domain.MarketData{
		MarketCap:         decoded.MarketData.MarketCap.USD,
		Volume24h:         decoded.MarketData.TotalVolume.USD,
		PriceChange24h:    decoded.MarketData.PriceChangePct24h,
		PriceChange7d:     decoded.MarketData.PriceChangePct7d,
		AllTimeHigh:       decoded.MarketData.ATH.USD,
		AllTimeLow:        decoded.MarketData.ATL.USD,
		CirculatingSupply: decoded.MarketData.CirculatingSupply,
	}, nil
}

// Ping probes the /ping endpoint for reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"/ping")
	return err
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w: %v", ports.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("coingecko: %w: status 429", ports.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: %w: status %d %s", ports.ErrUpstreamUnavailable, resp.StatusCode, resp.Status)
	}
	return body, nil
}
