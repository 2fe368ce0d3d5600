package jupiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{PriceBaseURL: srv.URL, QuoteBaseURL: srv.URL, Logger: &mockLogger{}})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestFetchPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/price", r.URL.Path)
		assert.Equal(t, SOLMint, r.URL.Query().Get("ids"))
		fmt.Fprintf(w, `{"data":{"%s":{"price":151.23}}}`, SOLMint)
	})

	quote, err := c.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 151.23, quote.Price)
	assert.Equal(t, "jupiter", quote.Source)
}

func TestFetchPrice_StringPrice(t *testing.T) {
	// Some API revisions return the price as a JSON string.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"%s":{"price":"151.23"}}}`, SOLMint)
	})

	quote, err := c.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 151.23, quote.Price)
}

func TestFetchPrice_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
	}{
		{
			name: "non-OK status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			sentinel: ports.ErrUpstreamUnavailable,
		},
		{
			name: "missing mint entry",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data":{}}`)
			},
			sentinel: ports.ErrMalformedResponse,
		},
		{
			name: "invalid JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `not json`)
			},
			sentinel: ports.ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.FetchPrice(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)
		})
	}
}

func TestFetchQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/quote", r.URL.Path)
		assert.Equal(t, "1000000", r.URL.Query().Get("amount"))
		assert.Equal(t, "50", r.URL.Query().Get("slippageBps"))
		fmt.Fprint(w, `{"outAmount":"6500000","priceImpactPct":"0.0123","routePlan":[{"swapInfo":{"label":"Orca"}},{"swapInfo":{"label":"Raydium"}}]}`)
	})

	quote, err := c.FetchQuote(context.Background(), domain.QuoteRequest{
		InputMint:   SOLMint,
		OutputMint:  USDCMint,
		Amount:      1000000,
		SlippageBps: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "6500000", quote.EstimatedAmountOut)
	assert.Equal(t, 0.0123, quote.PriceImpactPct)
	assert.Equal(t, 2, quote.RouteInfo.NumRoutes)
	assert.Equal(t, "Orca", quote.RouteInfo.FirstRoute)
	assert.NotEmpty(t, quote.Quote, "raw payload is preserved")
}

func TestFetchQuote_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"No routes found"}`)
	})

	_, err := c.FetchQuote(context.Background(), domain.QuoteRequest{InputMint: "a", OutputMint: "b", Amount: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No routes found")
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	})
	assert.NoError(t, c.Ping(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Ping(context.Background()))
}
