// Package alternativeme adapts the alternative.me Fear & Greed index API to
// the sentiment port.
package alternativeme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
)

const (
	defaultBaseURL = "https://api.alternative.me"
	defaultTimeout = 5 * time.Second
)

// Config holds configuration for the alternative.me client adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// Client implements ports.SentimentSource against the alternative.me API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
}

// New creates a new alternative.me client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for alternative.me client")
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
func (c *Client) Name() string { return "alternative.me" }

// fngResponse is the /fng/ response shape. Values arrive as strings.
type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FetchFearGreed retrieves the latest Fear & Greed index reading.
func (c *Client) FetchFearGreed(ctx context.Context) (*domain.Sentiment, error) {
	u := c.baseURL + "/fng/?limit=1"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fear-greed fetch: %w: %v", ports.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fear-greed read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fear-greed: %w: status %d %s", ports.ErrUpstreamUnavailable, resp.StatusCode, resp.Status)
	}

	var decoded fngResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("fear-greed decode: %w: %v", ports.ErrMalformedResponse, err)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("fear-greed: %w: empty data array", ports.ErrMalformedResponse)
	}

	value, err := strconv.Atoi(decoded.Data[0].Value)
	if err != nil {
		return nil, fmt.Errorf("fear-greed: %w: non-numeric value %q", ports.ErrMalformedResponse, decoded.Data[0].Value)
	}

	return &domain.Sentiment{
		FearGreedIndex: value,
		Sentiment:      decoded.Data[0].ValueClassification,
		Timestamp:      decoded.Data[0].Timestamp,
	}, nil
}
