package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"velocitysol/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "velocitysol-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleSignal() *domain.Signal {
	return &domain.Signal{
		Action:          domain.ActionBuy,
		Score:           2.5,
		Confidence:      75,
		RiskLevel:       domain.RiskLow,
		Entry:           150.85,
		StopLoss:        148.4,
		Target1:         153.1,
		Target2:         154.6,
		RiskRewardRatio: 1.5,
		Signals:         []string{"Bullish Trend (SMA20 > SMA50)", "Volume Spike Confirmation"},
	}
}

func TestRepository_RecordAndFindRecent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id, err := repo.RecordSignal(ctx, sampleSignal(), 151.2, time.Now())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	recent, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, domain.ActionBuy, got.Signal.Action)
	assert.Equal(t, 2.5, got.Signal.Score)
	assert.Equal(t, 75, got.Signal.Confidence)
	assert.Equal(t, domain.RiskLow, got.Signal.RiskLevel)
	assert.Equal(t, 151.2, got.Price)
	assert.Equal(t, []string{"Bullish Trend (SMA20 > SMA50)", "Volume Spike Confirmation"}, got.Signal.Signals)
}

func TestRepository_FindRecentOrderAndLimit(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sig := sampleSignal()
		sig.Score = float64(i)
		_, err := repo.RecordSignal(ctx, sig, 150.0+float64(i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	recent, err := repo.FindRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first.
	assert.Equal(t, 4.0, recent[0].Signal.Score)
	assert.Equal(t, 3.0, recent[1].Signal.Score)
	assert.Equal(t, 2.0, recent[2].Signal.Score)
}

func TestRepository_RecordNilSignal(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.RecordSignal(context.Background(), nil, 0, time.Now())
	require.Error(t, err)
}

func TestRepository_EmptyHistory(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	recent, err := repo.FindRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
