package domain

// HealthStatus classifies the reachability of an upstream or of the service
// as a whole.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ServiceHealth is the probe result for a single upstream provider.
type ServiceHealth struct {
	Service        string       `json:"service"`
	Status         HealthStatus `json:"status"`
	ResponseTimeMs int64        `json:"responseTime,omitempty"`
	Error          string       `json:"error,omitempty"`
	CanMakeRequest bool         `json:"canMakeRequest"`
}

// RateLimitState reports the admission state of one provider budget.
type RateLimitState struct {
	CanMakeRequest bool  `json:"canMakeRequest"`
	WaitTimeMs     int64 `json:"waitTime"`
}
