package domain

import "time"

// Series holds aligned price/volume history for the traded pair, oldest first.
// Prices, Volumes and Timestamps are index-aligned and timestamps are strictly
// increasing.
type Series struct {
	Prices     []float64
	Volumes    []float64
	Timestamps []time.Time
}

// Len returns the number of data points in the series.
func (s *Series) Len() int {
	return len(s.Prices)
}

// CurrentPrice returns the most recent price, or 0 for an empty series.
func (s *Series) CurrentPrice() float64 {
	if len(s.Prices) == 0 {
		return 0
	}
	return s.Prices[len(s.Prices)-1]
}
