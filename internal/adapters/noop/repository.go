// Package noop provides a signal repository that discards everything. It is
// wired when no database path is configured so the scheduler can run without
// persistence.
package noop

import (
	"context"
	"time"

	"velocitysol/internal/domain"
)

// Repository implements ports.SignalRepository as a no-op.
type Repository struct{}

// NewRepository creates a discarding signal repository.
func NewRepository() *Repository { return &Repository{} }

// RecordSignal discards the signal and reports ID 0.
func (r *Repository) RecordSignal(ctx context.Context, sig *domain.Signal, price float64, generatedAt time.Time) (int64, error) {
	return 0, nil
}

// FindRecent always reports an empty history.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.RecordedSignal, error) {
	return nil, nil
}

// Close is a no-op.
func (r *Repository) Close() error { return nil }
