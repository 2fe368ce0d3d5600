package indicators

import "math"

// Pattern detectors are heuristics over a short trailing sub-window using
// alternating high/low sampling and near-equality thresholds. They are
// approximate by construction and are not validated against ground truth.

// IsAscendingTriangle reports a flat-top/rising-bottom shape: prices at even
// indices (the sampled highs) all within 2% of the first high, prices at odd
// indices (the sampled lows) strictly rising. Requires at least 5 points.
func IsAscendingTriangle(prices []float64) bool {
	if len(prices) < 5 {
		return false
	}

	var highs, lows []float64
	for i, p := range prices {
		if i%2 == 0 {
			highs = append(highs, p)
		} else {
			lows = append(lows, p)
		}
	}

	for _, high := range highs[1:] {
		if math.Abs(high-highs[0])/highs[0] >= 0.02 {
			return false
		}
	}
	for i := 1; i < len(lows); i++ {
		if lows[i] <= lows[i-1] {
			return false
		}
	}
	return true
}

// IsDoubleBottom reports two troughs of near-equal depth (within 3%): the
// minimum of the first three points against the minimum of everything from
// the fifth point on. Requires at least 7 points.
func IsDoubleBottom(prices []float64) bool {
	if len(prices) < 7 {
		return false
	}

	first := minOf(prices[:3])
	second := minOf(prices[4:])

	return math.Abs(first-second)/first < 0.03
}

func minOf(prices []float64) float64 {
	m := prices[0]
	for _, p := range prices[1:] {
		if p < m {
			m = p
		}
	}
	return m
}
