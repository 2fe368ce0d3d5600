// Package jupiter adapts the Jupiter aggregator public APIs (price v4 and
// quote v6) to the market-data ports.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
)

// Hard-coded pair: wrapped SOL priced in USDC.
const (
	SOLMint  = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

const (
	defaultPriceBaseURL = "https://price.jup.ag"
	defaultQuoteBaseURL = "https://quote-api.jup.ag"
	defaultTimeout      = 15 * time.Second
)

// Config holds configuration for the Jupiter client adapter.
type Config struct {
	PriceBaseURL string
	QuoteBaseURL string
	Timeout      time.Duration
	Logger       ports.Logger
}

// Client implements ports.PriceSource, ports.QuoteSource and ports.Pinger
// against the Jupiter public APIs.
type Client struct {
	priceBaseURL string
	quoteBaseURL string
	httpClient   *http.Client
	logger       ports.Logger
}

// New creates a new Jupiter client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Jupiter client")
	}
	if cfg.PriceBaseURL == "" {
		cfg.PriceBaseURL = defaultPriceBaseURL
	}
	if cfg.QuoteBaseURL == "" {
		cfg.QuoteBaseURL = defaultQuoteBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		priceBaseURL: cfg.PriceBaseURL,
		quoteBaseURL: cfg.QuoteBaseURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       cfg.Logger,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "jupiter" }

// priceResponse is the Jupiter price API v4 response shape.
type priceResponse struct {
	Data map[string]struct {
		Price json.Number `json:"price"`
	} `json:"data"`
}

// FetchPrice retrieves the current SOL/USDC price.
func (c *Client) FetchPrice(ctx context.Context) (*domain.PriceQuote, error) {
	u := fmt.Sprintf("%s/v4/price?ids=%s&vsToken=%s", c.priceBaseURL, SOLMint, USDCMint)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var decoded priceResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("jupiter price decode: %w: %v", ports.ErrMalformedResponse, err)
	}

	entry, ok := decoded.Data[SOLMint]
	if !ok {
		return nil, fmt.Errorf("jupiter price: %w: no entry for mint %s", ports.ErrMalformedResponse, SOLMint)
	}
	price, err := entry.Price.Float64()
	if err != nil || price == 0 {
		return nil, fmt.Errorf("jupiter price: %w: invalid price value", ports.ErrMalformedResponse)
	}

	return &domain.PriceQuote{
		Price:     price,
		Source:    c.Name(),
		Timestamp: time.Now(),
	}, nil
}

// quoteResponse is the subset of the Jupiter quote API v6 response the
// dashboard needs; the raw payload is preserved alongside.
type quoteResponse struct {
	Error          string `json:"error"`
	OutAmount      string `json:"outAmount"`
	PriceImpactPct string `json:"priceImpactPct"`
	RoutePlan      []struct {
		SwapInfo struct {
			Label string `json:"label"`
		} `json:"swapInfo"`
	} `json:"routePlan"`
}

// FetchQuote retrieves a swap quote for the given parameters.
func (c *Client) FetchQuote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error) {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatInt(req.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(req.SlippageBps))
	u := fmt.Sprintf("%s/v6/quote?%s", c.quoteBaseURL, q.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("jupiter quote decode: %w: %v", ports.ErrMalformedResponse, err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("jupiter quote: %w: %s", ports.ErrUpstreamUnavailable, decoded.Error)
	}
	if decoded.OutAmount == "" {
		return nil, fmt.Errorf("jupiter quote: %w: missing outAmount", ports.ErrMalformedResponse)
	}

	impact, _ := strconv.ParseFloat(decoded.PriceImpactPct, 64)
	firstRoute := "Unknown"
	if len(decoded.RoutePlan) > 0 && decoded.RoutePlan[0].SwapInfo.Label != "" {
		firstRoute = decoded.RoutePlan[0].SwapInfo.Label
	}

	return &domain.SwapQuote{
		Quote:              json.RawMessage(body),
		InputMint:          req.InputMint,
		OutputMint:         req.OutputMint,
		Amount:             req.Amount,
		SlippageBps:        req.SlippageBps,
		PriceImpactPct:     impact,
		EstimatedAmountOut: decoded.OutAmount,
		RouteInfo: domain.RouteInfo{
			NumRoutes:  len(decoded.RoutePlan),
			FirstRoute: firstRoute,
		},
		Source: c.Name(),
	}, nil
}

// Ping probes the price endpoint for reachability.
func (c *Client) Ping(ctx context.Context) error {
	u := fmt.Sprintf("%s/v4/price?ids=%s", c.priceBaseURL, SOLMint)
	_, err := c.get(ctx, u)
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
		return nil, fmt.Errorf("jupiter fetch: %w: %v", ports.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jupiter read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter: %w: status %d %s", ports.ErrUpstreamUnavailable, resp.StatusCode, resp.Status)
	}
	return body, nil
}
