// Package scheduler runs the periodic background signal cycle.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"velocitysol/internal/app"
	"velocitysol/internal/ports"
)

// Scheduler manages the cron-driven signal generation task.
type Scheduler struct {
	cron    *cron.Cron
	signals *app.SignalService
	logger  ports.Logger
	ctx     context.Context
}

// New creates a scheduler bound to the given context; tasks stop firing when
// the scheduler is stopped, and in-flight cycles observe ctx.
func New(ctx context.Context, signals *app.SignalService, logger ports.Logger) (*Scheduler, error) {
	if signals == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Scheduler")
	}
	return &Scheduler{
		cron:    cron.New(),
		signals: signals,
		logger:  logger,
		ctx:     ctx,
	}, nil
}

// Register adds the signal cycle under the given cron spec
// (e.g. "@every 5m").
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.signalCycle); err != nil {
		return fmt.Errorf("register signal cycle: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(s.ctx, "scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info(s.ctx, "scheduler stopped")
}

func (s *Scheduler) signalCycle() {
	if err := s.signals.RunCycle(s.ctx); err != nil {
		s.logger.Error(s.ctx, err, "scheduled signal cycle failed")
	}
}
