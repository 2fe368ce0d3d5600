// Package fallback implements the primary/secondary data-source policy:
// exactly two attempts, no retries within an attempt, no backoff.
package fallback

import (
	"context"
	"fmt"

	"velocitysol/internal/ports"
)

// Source provenance tags attached to fallback results.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

// ExecuteWithFallback invokes primary; if it fails, invokes secondary; if
// both fail it returns the zero value, SourceNone and an error carrying both
// underlying messages. A successful result is tagged with the path that
// produced it; callers may override the tag with their own provider name.
func ExecuteWithFallback[T any](
	ctx context.Context,
	logger ports.Logger,
	label string,
	primary func(context.Context) (T, error),
	secondary func(context.Context) (T, error),
) (T, string, error) {
	logger.Debug(ctx, "trying primary source", map[string]interface{}{"context": label})
	result, primaryErr := primary(ctx)
	if primaryErr == nil {
		logger.Debug(ctx, "primary source successful", map[string]interface{}{"context": label})
		return result, SourcePrimary, nil
	}
	logger.Warn(ctx, "primary source failed", map[string]interface{}{"context": label, "error": primaryErr.Error()})

	logger.Debug(ctx, "trying fallback source", map[string]interface{}{"context": label})
	result, secondaryErr := secondary(ctx)
	if secondaryErr == nil {
		logger.Debug(ctx, "fallback source successful", map[string]interface{}{"context": label})
		return result, SourceFallback, nil
	}
	logger.Error(ctx, secondaryErr, "both sources failed", map[string]interface{}{"context": label})

	var zero T
	return zero, SourceNone, fmt.Errorf("both sources failed: %v | %v", primaryErr, secondaryErr)
}
