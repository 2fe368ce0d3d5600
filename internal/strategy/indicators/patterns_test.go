package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAscendingTriangle(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected bool
	}{
		{
			name: "flat highs and rising lows",
			// even indices near 100, odd indices strictly rising
			prices:   []float64{100, 90, 100.5, 92, 99.8, 94, 100.2, 96},
			expected: true,
		},
		{
			name:     "highs drift beyond 2 percent",
			prices:   []float64{100, 90, 104, 92, 100, 94},
			expected: false,
		},
		{
			name:     "lows not rising",
			prices:   []float64{100, 94, 100.5, 92, 99.8, 93},
			expected: false,
		},
		{
			name:     "too short",
			prices:   []float64{100, 90, 100, 92},
			expected: false,
		},
		{
			name:     "flat lows rejected",
			prices:   []float64{100, 90, 100, 90, 100},
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAscendingTriangle(tt.prices))
		})
	}
}

func TestIsDoubleBottom(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected bool
	}{
		{
			name: "two troughs of near-equal depth",
			// first trough 90 in the opening three, second trough 91 later
			prices:   []float64{95, 90, 96, 99, 97, 91, 98},
			expected: true,
		},
		{
			name:     "second trough too deep",
			prices:   []float64{95, 90, 96, 99, 97, 80, 98},
			expected: false,
		},
		{
			name:     "too short",
			prices:   []float64{95, 90, 96, 99, 97, 91},
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDoubleBottom(tt.prices))
		})
	}
}
