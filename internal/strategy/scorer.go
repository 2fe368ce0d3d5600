// Package strategy turns an indicator snapshot into a trade recommendation
// using a deterministic weighted-rule engine. The weights, thresholds and
// risk multipliers are exact contracts, not tunable defaults.
package strategy

import (
	"context"
	"fmt"
	"math"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
	"velocitysol/internal/strategy/indicators"
)

// Rule weights and thresholds, in evaluation order.
const (
	baseConfidence = 50.0

	trendBullishWeight    = 3.0
	trendAboveSMA20Weight = 1.0
	trendBearishWeight    = -2.0

	rsiOversoldWeight   = 3.0
	rsiOverboughtWeight = -3.0
	rsiNeutralWeight    = 1.0
	rsiZoneConfidence   = 15.0

	macdBullishWeight = 2.0
	macdBearishWeight = -1.0

	bollingerWeight     = 2.5
	bollingerConfidence = 10.0

	supportWeight      = 2.0
	resistanceWeight   = -1.5
	proximityThreshold = 0.02

	volumeSpikeWeight     = 1.0
	volumeSpikeConfidence = 5.0

	highVolatilityThreshold = 0.05
	lowVolatilityThreshold  = 0.02
	volatilityConfidence    = 5.0

	triangleWeight       = 2.0
	triangleConfidence   = 10.0
	doubleBottomWeight   = 3.0
	doubleBottomBonus    = 15.0
	patternWindow        = 10

	minConfidence = 20.0
	maxConfidence = 95.0

	strongBuyThreshold  = 3.0
	buyThreshold        = 1.0
	strongSellThreshold = -3.0
	sellThreshold       = -1.0

	// Risk management multipliers.
	stopDistanceVolMultiplier = 2.0
	takeProfitMultiplier      = 2.5
	target1Fraction           = 0.6
	entryNudge                = 0.001
	stopLossFloor             = 0.05
	maxRiskPerTrade           = 0.02
)

// Scorer generates trading signals from historical data.
type Scorer struct {
	logger ports.Logger
}

// NewScorer creates a new Scorer instance.
func NewScorer(logger ports.Logger) (*Scorer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for scorer")
	}
	return &Scorer{logger: logger}, nil
}

// Generate evaluates the scoring rules in order against the supplied series
// and indicator snapshot and returns the composite signal. A nil technicals
// snapshot (series shorter than the indicator minimum) yields the documented
// degraded signal: HOLD at base confidence.
func (s *Scorer) Generate(ctx context.Context, prices []float64, technicals *domain.Technicals) *domain.Signal {
	currentPrice := 0.0
	if len(prices) > 0 {
		currentPrice = prices[len(prices)-1]
	}

	if technicals == nil {
		s.logger.Warn(ctx, "generating degraded signal: insufficient historical data")
		return &domain.Signal{
			Action:     domain.ActionHold,
			Score:      0,
			Confidence: int(baseConfidence),
			RiskLevel:  domain.RiskMedium,
			Entry:      round2(currentPrice),
			Signals:    []string{"Insufficient historical data - using safe defaults"},
			PositionSizing: domain.PositionSizing{
				MaxRiskPerTrade: maxRiskPerTrade,
				RecommendedSize: "SMALL",
			},
		}
	}

	score := 0.0
	confidence := baseConfidence
	riskLevel := domain.RiskMedium
	var reasons []string

	// 1. Trend via SMA crossover.
	if technicals.SMA20 > technicals.SMA50 {
		score += trendBullishWeight
		reasons = append(reasons, "Bullish Trend (SMA20 > SMA50)")
		if currentPrice > technicals.SMA20 {
			score += trendAboveSMA20Weight
			reasons = append(reasons, "Price Above SMA20")
		}
	} else {
		score += trendBearishWeight
		reasons = append(reasons, "Bearish Trend")
	}

	// 2. RSI zone.
	switch {
	case technicals.RSI < 30:
		score += rsiOversoldWeight
		confidence += rsiZoneConfidence
		reasons = append(reasons, "RSI Oversold (High Probability Bounce)")
	case technicals.RSI > 70:
		score += rsiOverboughtWeight
		confidence += rsiZoneConfidence
		reasons = append(reasons, "RSI Overbought (High Probability Pullback)")
	case technicals.RSI > 40 && technicals.RSI < 60:
		score += rsiNeutralWeight
		reasons = append(reasons, "RSI Neutral Zone")
	}

	// 3. MACD sign.
	if technicals.MACD > 0 {
		score += macdBullishWeight
		reasons = append(reasons, "MACD Bullish Crossover")
	} else {
		score += macdBearishWeight
		reasons = append(reasons, "MACD Below Zero")
	}

	// 4. Bollinger Band proximity.
	if currentPrice <= technicals.BollingerBands.Lower {
		score += bollingerWeight
		confidence += bollingerConfidence
		reasons = append(reasons, "Price at Lower Bollinger Band (Oversold)")
	} else if currentPrice >= technicals.BollingerBands.Upper {
		score -= bollingerWeight
		confidence += bollingerConfidence
		reasons = append(reasons, "Price at Upper Bollinger Band (Overbought)")
	}

	// 5. Support/resistance proximity within 2%.
	if nearLevel(currentPrice, technicals.Support) {
		score += supportWeight
		riskLevel = domain.RiskLow
		reasons = append(reasons, "Near Major Support Level")
	}
	if nearLevel(currentPrice, technicals.Resistance) {
		score += resistanceWeight
		reasons = append(reasons, "Near Major Resistance Level")
	}

	// 6. Volume confirmation.
	if technicals.VolumeSpike {
		score += volumeSpikeWeight
		confidence += volumeSpikeConfidence
		reasons = append(reasons, "Volume Spike Confirmation")
	}

	// 7. Volatility regime.
	if technicals.Volatility > highVolatilityThreshold {
		riskLevel = domain.RiskHigh
		confidence -= volatilityConfidence
		reasons = append(reasons, "High Volatility Environment")
	} else if technicals.Volatility < lowVolatilityThreshold {
		riskLevel = domain.RiskLow
		confidence += volatilityConfidence
		reasons = append(reasons, "Low Volatility (Breakout Potential)")
	}

	// 8. Pattern flags over the trailing sub-window.
	window := prices
	if len(window) > patternWindow {
		window = window[len(window)-patternWindow:]
	}
	if indicators.IsAscendingTriangle(window) {
		score += triangleWeight
		confidence += triangleConfidence
		reasons = append(reasons, "Ascending Triangle Pattern")
	}
	if indicators.IsDoubleBottom(window) {
		score += doubleBottomWeight
		confidence += doubleBottomBonus
		reasons = append(reasons, "Double Bottom Reversal Pattern")
	}

	confidence = math.Min(maxConfidence, math.Max(minConfidence, confidence+math.Abs(score)*5))
	action := classify(score)

	sig := &domain.Signal{
		Action:     action,
		Score:      math.Round(score*10) / 10,
		Confidence: int(math.Round(confidence)),
		RiskLevel:  riskLevel,
		Signals:    reasons,
		Technicals: technicals,
		PositionSizing: domain.PositionSizing{
			MaxRiskPerTrade: maxRiskPerTrade,
			RecommendedSize: recommendedSize(confidence),
		},
	}
	s.applyRiskLevels(sig, currentPrice, technicals)

	s.logger.Info(ctx, "signal generated", map[string]interface{}{
		"action":     sig.Action,
		"score":      sig.Score,
		"confidence": sig.Confidence,
		"riskLevel":  sig.RiskLevel,
	})
	return sig
}

// applyRiskLevels derives entry, stop-loss and take-profit levels. The stop
// distance scales with volatility and is bounded by the nearest
// support/resistance level; the two targets sit at 0.6x and 1.0x of 2.5x the
// stop distance.
func (s *Scorer) applyRiskLevels(sig *domain.Signal, currentPrice float64, technicals *domain.Technicals) {
	stopDistance := technicals.Volatility * stopDistanceVolMultiplier
	takeProfitDistance := stopDistance * takeProfitMultiplier
	isBuy := sig.Action.IsBuySide()

	var entry, stopLoss, target1, target2 float64
	if isBuy {
		entry = currentPrice * (1 - entryNudge)
		floor := entry * (1 - stopLossFloor)
		if len(technicals.Support) > 0 && technicals.Support[0] != 0 {
			floor = technicals.Support[0]
		}
		stopLoss = math.Max(entry*(1-stopDistance), floor)
		target1 = entry * (1 + takeProfitDistance*target1Fraction)
		target2 = entry * (1 + takeProfitDistance)
	} else {
		entry = currentPrice * (1 + entryNudge)
		ceiling := entry * (1 + stopLossFloor)
		if len(technicals.Resistance) > 0 && technicals.Resistance[0] != 0 {
			ceiling = technicals.Resistance[0]
		}
		stopLoss = math.Min(entry*(1+stopDistance), ceiling)
		target1 = entry * (1 - takeProfitDistance*target1Fraction)
		target2 = entry * (1 - takeProfitDistance)
	}

	ratio := 0.0
	if risk := math.Abs(entry - stopLoss); risk > 0 {
		ratio = math.Abs(target1-entry) / risk
	}

	sig.Entry = round2(entry)
	sig.StopLoss = round2(stopLoss)
	sig.Target1 = round2(target1)
	sig.Target2 = round2(target2)
	sig.RiskRewardRatio = math.Round(ratio*10) / 10
}

func classify(score float64) domain.Action {
	switch {
	case score > strongBuyThreshold:
		return domain.ActionStrongBuy
	case score > buyThreshold:
		return domain.ActionBuy
	case score < strongSellThreshold:
		return domain.ActionStrongSell
	case score < sellThreshold:
		return domain.ActionSell
	default:
		return domain.ActionHold
	}
}

func nearLevel(price float64, levels []float64) bool {
	for _, level := range levels {
		if level != 0 && math.Abs(price-level)/level < proximityThreshold {
			return true
		}
	}
	return false
}

func recommendedSize(confidence float64) string {
	switch {
	case confidence > 80:
		return "LARGE"
	case confidence > 60:
		return "MEDIUM"
	default:
		return "SMALL"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
