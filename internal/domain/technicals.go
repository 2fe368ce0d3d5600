package domain

// BollingerBands is the SMA20 +/- 2 standard deviation envelope.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Technicals is an immutable snapshot of indicator values derived from a
// price/volume series. Prices are rounded to 2 decimals, RSI to 1 and
// volatility to 3; the Bollinger middle band carries the unrounded SMA20.
type Technicals struct {
	SMA20          float64        `json:"sma20"`
	SMA50          float64        `json:"sma50"`
	RSI            float64        `json:"rsi"`
	MACD           float64        `json:"macd"`
	BollingerBands BollingerBands `json:"bollingerBands"`
	Support        []float64      `json:"support"`
	Resistance     []float64      `json:"resistance"`
	Volatility     float64        `json:"volatility"`
	VolumeSpike    bool           `json:"volumeSpike"`
	AvgVolume      float64        `json:"avgVolume"`
}
