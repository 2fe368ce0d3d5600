package app

import (
	"context"
	"fmt"
	"time"

	"velocitysol/internal/domain"
	"velocitysol/internal/observability"
	"velocitysol/internal/ports"
)

// SignalResult is the outcome of one signal generation cycle.
type SignalResult struct {
	Signal *domain.Signal
	// Source tags the historical data the signal was derived from.
	Source string
	Cached bool
}

// SignalGenerator is the strategy dependency of the signal service.
type SignalGenerator interface {
	Generate(ctx context.Context, prices []float64, technicals *domain.Technicals) *domain.Signal
}

// SignalService derives trading signals from the historical series. It backs
// both the /trading-signals endpoint and the scheduled background cycle.
type SignalService struct {
	logger     ports.Logger
	marketData *MarketDataService
	scorer     SignalGenerator
	repo       ports.SignalRepository
	days       int
}

// SignalDeps lists the collaborators of the signal service.
type SignalDeps struct {
	Logger     ports.Logger
	MarketData *MarketDataService
	Scorer     SignalGenerator
	Repo       ports.SignalRepository
	// HistoryDays is the series length fed to the scorer.
	HistoryDays int
}

// NewSignalService creates the signal service.
func NewSignalService(deps SignalDeps) (*SignalService, error) {
	if deps.Logger == nil || deps.MarketData == nil || deps.Scorer == nil || deps.Repo == nil {
		return nil, fmt.Errorf("missing required dependencies for SignalService")
	}
	if deps.HistoryDays <= 0 {
		deps.HistoryDays = 50
	}
	return &SignalService{
		logger:     deps.Logger,
		marketData: deps.MarketData,
		scorer:     deps.Scorer,
		repo:       deps.Repo,
		days:       deps.HistoryDays,
	}, nil
}

// Generate produces a signal from the freshest available historical series,
// degrading to the synthetic series when the live source fails. It never
// returns an error; the worst case is the scorer's safe-default signal.
func (s *SignalService) Generate(ctx context.Context) *SignalResult {
	hist, err := s.marketData.Historical(ctx, s.days)
	if err != nil {
		s.logger.Warn(ctx, "historical fetch failed, generating signal from synthetic series", map[string]interface{}{"error": err.Error()})
		hist = s.marketData.FallbackHistorical(s.days)
	}

	sig := s.scorer.Generate(ctx, hist.Data.Series.Prices, hist.Data.Technicals)
	return &SignalResult{
		Signal: sig,
		Source: hist.Data.Source,
		Cached: hist.Cached,
	}
}

// RunCycle generates one signal and records it. Scheduled by the cron runner;
// the serving path never reads what it writes.
func (s *SignalService) RunCycle(ctx context.Context) error {
	res := s.Generate(ctx)

	// Entry is nudged off the spot price, so record the spot alongside.
	price := res.Signal.Entry
	if pr := s.marketData.HybridPrice(ctx); pr.Quote != nil {
		price = pr.Quote.Price
	}

	id, err := s.repo.RecordSignal(ctx, res.Signal, price, time.Now())
	if err != nil {
		observability.RecordSignalCycle("error", 0)
		return fmt.Errorf("failed to record signal: %w", err)
	}

	observability.RecordSignalCycle("success", time.Now().Unix())
	s.logger.Info(ctx, "signal cycle completed", map[string]interface{}{
		"id":     id,
		"action": res.Signal.Action,
		"source": res.Source,
	})
	return nil
}

// Recent returns the most recently recorded signals, newest first.
func (s *SignalService) Recent(ctx context.Context, limit int) ([]*domain.RecordedSignal, error) {
	return s.repo.FindRecent(ctx, limit)
}
