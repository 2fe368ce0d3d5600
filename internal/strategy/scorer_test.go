package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocitysol/internal/domain"
	"velocitysol/internal/strategy/indicators"
)

type testLogger struct{}

func (testLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (testLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (testLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (testLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(testLogger{})
	require.NoError(t, err)
	return s
}

func ramp(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestNewScorer_RequiresLogger(t *testing.T) {
	_, err := NewScorer(nil)
	require.Error(t, err)
}

func TestGenerate_SteadyUptrend(t *testing.T) {
	s := newTestScorer(t)

	prices := ramp(100, 1, 60)
	tech := indicators.Compute(prices, constant(1e9, 60))
	require.NotNil(t, tech)

	sig := s.Generate(context.Background(), prices, tech)

	// Bullish trend +3, above SMA20 +1, overbought RSI -3, MACD +2, and the
	// trailing window of a pure ramp reads as a double bottom +3.
	assert.Equal(t, domain.ActionStrongBuy, sig.Action)
	assert.InDelta(t, 6.0, sig.Score, 1e-9)
	assert.Equal(t, 95, sig.Confidence, "confidence clamps at the ceiling")
	assert.Equal(t, domain.RiskLow, sig.RiskLevel, "low volatility ramp")

	assert.Contains(t, sig.Signals, "Bullish Trend (SMA20 > SMA50)")
	assert.Contains(t, sig.Signals, "Price Above SMA20")
	assert.Contains(t, sig.Signals, "RSI Overbought (High Probability Pullback)")
	assert.Contains(t, sig.Signals, "MACD Bullish Crossover")
	assert.Contains(t, sig.Signals, "Low Volatility (Breakout Potential)")
	assert.Contains(t, sig.Signals, "Double Bottom Reversal Pattern")

	// Buy-side risk levels: entry nudged 0.1% under spot, stop above the
	// distant support floor, targets at 0.6x/1.0x of 2.5x the stop distance.
	assert.InDelta(t, 158.84, sig.Entry, 1e-9)
	assert.Greater(t, sig.StopLoss, tech.Support[0])
	assert.Greater(t, sig.Target1, sig.Entry)
	assert.Greater(t, sig.Target2, sig.Target1)
	assert.InDelta(t, 1.5, sig.RiskRewardRatio, 1e-9)

	assert.Equal(t, 0.02, sig.PositionSizing.MaxRiskPerTrade)
	assert.Equal(t, "LARGE", sig.PositionSizing.RecommendedSize)
	assert.Same(t, tech, sig.Technicals)
}

func TestGenerate_SteadyDowntrend(t *testing.T) {
	s := newTestScorer(t)

	prices := ramp(200, -1, 60)
	tech := indicators.Compute(prices, constant(1e9, 60))
	require.NotNil(t, tech)

	sig := s.Generate(context.Background(), prices, tech)

	assert.Contains(t, sig.Signals, "Bearish Trend")
	assert.Contains(t, sig.Signals, "RSI Oversold (High Probability Bounce)")
	assert.Contains(t, sig.Signals, "MACD Below Zero")
	assert.False(t, sig.Action.IsBuySide())

	// Sell-side risk levels invert: entry nudged above spot, targets below.
	assert.Greater(t, sig.Entry, prices[len(prices)-1])
	assert.Greater(t, sig.StopLoss, sig.Entry)
	assert.Less(t, sig.Target1, sig.Entry)
	assert.Less(t, sig.Target2, sig.Target1)
}

func TestGenerate_NilTechnicalsDegrades(t *testing.T) {
	s := newTestScorer(t)

	prices := []float64{118.2, 119.1, 120.4}
	sig := s.Generate(context.Background(), prices, nil)

	assert.Equal(t, domain.ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Score)
	assert.Equal(t, 50, sig.Confidence)
	assert.Equal(t, domain.RiskMedium, sig.RiskLevel)
	assert.Equal(t, 120.4, sig.Entry)
	assert.Equal(t, []string{"Insufficient historical data - using safe defaults"}, sig.Signals)
	assert.Nil(t, sig.Technicals)
	assert.Equal(t, "SMALL", sig.PositionSizing.RecommendedSize)
	assert.Equal(t, 0.02, sig.PositionSizing.MaxRiskPerTrade)
	assert.Equal(t, 0.0, sig.RiskRewardRatio)
}

func TestGenerate_EmptyPricesDegrades(t *testing.T) {
	s := newTestScorer(t)

	sig := s.Generate(context.Background(), nil, nil)
	assert.Equal(t, domain.ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Entry)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score    float64
		expected domain.Action
	}{
		{score: 3.1, expected: domain.ActionStrongBuy},
		{score: 3.0, expected: domain.ActionBuy},
		{score: 1.1, expected: domain.ActionBuy},
		{score: 1.0, expected: domain.ActionHold},
		{score: 0, expected: domain.ActionHold},
		{score: -1.0, expected: domain.ActionHold},
		{score: -1.1, expected: domain.ActionSell},
		{score: -3.0, expected: domain.ActionSell},
		{score: -3.1, expected: domain.ActionStrongSell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, classify(tt.score), "score %v", tt.score)
	}
}

func TestRecommendedSize(t *testing.T) {
	assert.Equal(t, "LARGE", recommendedSize(81))
	assert.Equal(t, "MEDIUM", recommendedSize(80))
	assert.Equal(t, "MEDIUM", recommendedSize(61))
	assert.Equal(t, "SMALL", recommendedSize(60))
	assert.Equal(t, "SMALL", recommendedSize(20))
}

func TestNearLevel(t *testing.T) {
	assert.True(t, nearLevel(100, []float64{101}))
	assert.True(t, nearLevel(100, []float64{500, 99}))
	assert.False(t, nearLevel(100, []float64{103}))
	assert.False(t, nearLevel(100, []float64{0}), "zero levels are skipped")
	assert.False(t, nearLevel(100, nil))
}
