package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Upstream Provider Errors
	ErrUpstreamUnavailable = errors.New("upstream API is unavailable")
	ErrMalformedResponse   = errors.New("upstream response is missing required fields")
	ErrRateLimited         = errors.New("API rate limit exceeded")

	// Indicator Errors
	ErrInsufficientData = errors.New("not enough data points for calculation")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
