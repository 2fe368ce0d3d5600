// Package indicators computes technical indicators over a trailing
// price/volume window. All functions are pure and stateless.
package indicators

import (
	"fmt"
	"math"
	"sort"

	"velocitysol/internal/domain"
)

// MinDataPoints is the window length below which Compute returns no
// indicator snapshot. This is not an error: short series simply carry no
// technicals.
const MinDataPoints = 50

// SMA computes the arithmetic mean of the last `period` prices.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate SMA for period %d", len(prices), period)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average over the whole slice, seeded
// with the first price and applied left-to-right with multiplier 2/(period+1).
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive")
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no prices to calculate EMA")
	}
	multiplier := 2.0 / float64(period+1)
	ema := prices[0]
	for i := 1; i < len(prices); i++ {
		ema = prices[i]*multiplier + ema*(1-multiplier)
	}
	return ema, nil
}

// RSI computes the Relative Strength Index over the last `period`
// period-over-period deltas, accumulating gains and losses separately
// (losses as positive magnitudes).
//
// When the average loss is zero the ratio saturates: an all-gain window
// yields 100, a perfectly flat window yields the neutral 50.
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive")
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(prices), period)
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[len(prices)-i] - prices[len(prices)-i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50, nil
		}
		return 100, nil
	}

	rs := gains / losses
	return 100 - 100/(1+rs), nil
}

// Volatility computes sqrt(mean(r^2)) of period-over-period percentage
// returns across the whole window (the standard deviation about zero).
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	sumSq := 0.0
	for i := 1; i < len(prices); i++ {
		ret := (prices[i] - prices[i-1]) / prices[i-1]
		sumSq += ret * ret
	}
	return math.Sqrt(sumSq / float64(len(prices)-1))
}

// SupportResistance sorts the full window ascending and returns the values
// at the 10th/20th percentile positions as support and the 80th/90th as
// resistance, with percentile position floor(len*p).
func SupportResistance(prices []float64) (support, resistance []float64) {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	support = []float64{
		sorted[int(math.Floor(n*0.1))],
		sorted[int(math.Floor(n*0.2))],
	}
	resistance = []float64{
		sorted[int(math.Floor(n*0.8))],
		sorted[int(math.Floor(n*0.9))],
	}
	return support, resistance
}

// Compute derives the full indicator snapshot from aligned price and volume
// series. It returns nil when fewer than MinDataPoints points are supplied.
func Compute(prices, volumes []float64) *domain.Technicals {
	if len(prices) < MinDataPoints {
		return nil
	}

	sma20, _ := SMA(prices, 20)
	sma50, _ := SMA(prices, 50)
	rsi, _ := RSI(prices, 14)

	ema12, _ := EMA(prices, 12)
	ema26, _ := EMA(prices, 26)
	macd := ema12 - ema26

	// Bollinger Bands: SMA20 +/- 2 standard deviations of the last 20 prices.
	// The middle band carries the unrounded SMA20.
	sumSq := 0.0
	for i := len(prices) - 20; i < len(prices); i++ {
		diff := prices[i] - sma20
		sumSq += diff * diff
	}
	stdDev := math.Sqrt(sumSq / 20)

	support, resistance := SupportResistance(prices)

	avgVolume := 0.0
	for _, v := range volumes {
		avgVolume += v
	}
	avgVolume /= float64(len(volumes))
	volumeSpike := volumes[len(volumes)-1] > avgVolume*1.5

	return &domain.Technicals{
		SMA20: round2(sma20),
		SMA50: round2(sma50),
		RSI:   round1(rsi),
		MACD:  round2(macd),
		BollingerBands: domain.BollingerBands{
			Upper:  round2(sma20 + stdDev*2),
			Middle: sma20,
			Lower:  round2(sma20 - stdDev*2),
		},
		Support:     support,
		Resistance:  resistance,
		Volatility:  round3(Volatility(prices)),
		VolumeSpike: volumeSpike,
		AvgVolume:   avgVolume,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
