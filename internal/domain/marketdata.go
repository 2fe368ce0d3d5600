package domain

import (
	"encoding/json"
	"time"
)

// PriceQuote is a normalized current-price observation from one provider.
type PriceQuote struct {
	Price     float64
	Change24h float64
	Source    string
	Timestamp time.Time
}

// HistoricalData is a normalized historical series with derived indicators.
type HistoricalData struct {
	Days       int
	Series     Series
	Technicals *Technicals
	Source     string
}

// QuoteRequest holds the validated parameters for a swap quote.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      int64
	SlippageBps int
}

// RouteInfo summarizes the routing of a swap quote.
type RouteInfo struct {
	NumRoutes  int    `json:"numRoutes"`
	FirstRoute string `json:"firstRoute"`
}

// SwapQuote is a normalized swap quote from the DEX aggregator. Quote keeps
// the raw upstream payload so the dashboard can render route details.
type SwapQuote struct {
	Quote              json.RawMessage
	InputMint          string
	OutputMint         string
	Amount             int64
	SlippageBps        int
	PriceImpactPct     float64
	EstimatedAmountOut string
	RouteInfo          RouteInfo
	Source             string
}

// Sentiment is the Fear & Greed index reading.
type Sentiment struct {
	FearGreedIndex int    `json:"fearGreedIndex"`
	Sentiment      string `json:"sentiment"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// MarketData holds aggregate market statistics for the asset.
type MarketData struct {
	MarketCap         float64 `json:"marketCap"`
	Volume24h         float64 `json:"volume24h"`
	PriceChange24h    float64 `json:"priceChange24h,omitempty"`
	PriceChange7d     float64 `json:"priceChange7d,omitempty"`
	AllTimeHigh       float64 `json:"allTimeHigh,omitempty"`
	AllTimeLow        float64 `json:"allTimeLow,omitempty"`
	CirculatingSupply float64 `json:"circulatingSupply,omitempty"`
}

// SentimentSources tags each half of a sentiment report with its provenance.
type SentimentSources struct {
	FearGreed  string `json:"fearGreed"`
	MarketData string `json:"marketData"`
}

// SentimentReport combines the Fear & Greed reading with market statistics.
type SentimentReport struct {
	Sentiment  Sentiment
	MarketData MarketData
	Sources    SentimentSources
}

// PriceTick is a single live price update pushed to dashboard clients.
type PriceTick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	Time   time.Time `json:"time"`
}
