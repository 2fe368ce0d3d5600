package domain

import "time"

// Action classifies the trade recommendation.
type Action string

const (
	ActionStrongBuy  Action = "STRONG_BUY"
	ActionBuy        Action = "BUY"
	ActionHold       Action = "HOLD"
	ActionSell       Action = "SELL"
	ActionStrongSell Action = "STRONG_SELL"
)

// IsBuySide reports whether the action recommends entering long.
func (a Action) IsBuySide() bool {
	return a == ActionBuy || a == ActionStrongBuy
}

// RiskLevel classifies the risk environment of a signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// PositionSizing recommends how much of the portfolio to commit.
type PositionSizing struct {
	MaxRiskPerTrade float64 `json:"maxRiskPerTrade"`
	RecommendedSize string  `json:"recommendedSize"`
}

// Signal is the final output of one signal-generation cycle. It is immutable
// once returned and is not persisted by the serving path.
type Signal struct {
	Action          Action          `json:"action"`
	Score           float64         `json:"score"`
	Confidence      int             `json:"confidence"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	Entry           float64         `json:"entry"`
	StopLoss        float64         `json:"stopLoss"`
	Target1         float64         `json:"target1"`
	Target2         float64         `json:"target2"`
	RiskRewardRatio float64         `json:"riskRewardRatio"`
	Signals         []string        `json:"signals"`
	Technicals      *Technicals     `json:"technicals,omitempty"`
	PositionSizing  PositionSizing  `json:"positionSizing"`
}

// RecordedSignal is one persisted signal-history row: the signal together
// with the spot price it was derived from and when it was generated.
type RecordedSignal struct {
	ID        int64     `json:"id"`
	Signal    Signal    `json:"signal"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}
