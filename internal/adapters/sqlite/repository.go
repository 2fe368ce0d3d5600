package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.SignalRepository using SQLite. Each periodic
// signal cycle appends one row, giving the dashboard a queryable history of
// what the scorer recommended and at what price.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/velocitysol.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; limit the Go-side pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "signal history database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		score REAL NOT NULL,
		confidence INTEGER NOT NULL,
		risk_level TEXT NOT NULL,
		entry REAL NOT NULL,
		stop_loss REAL NOT NULL,
		target1 REAL NOT NULL,
		target2 REAL NOT NULL,
		risk_reward REAL NOT NULL,
		reasons TEXT NOT NULL,
		price REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// RecordSignal persists one generated signal together with the spot price it
// was derived from.
func (r *Repository) RecordSignal(ctx context.Context, sig *domain.Signal, price float64, generatedAt time.Time) (int64, error) {
	if sig == nil {
		return 0, fmt.Errorf("%w: nil signal", ports.ErrInvalidRequest)
	}

	reasons, err := json.Marshal(sig.Signals)
	if err != nil {
		return 0, fmt.Errorf("failed to encode signal reasons: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO signals (action, score, confidence, risk_level, entry, stop_loss, target1, target2, risk_reward, reasons, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sig.Action), sig.Score, sig.Confidence, string(sig.RiskLevel),
		sig.Entry, sig.StopLoss, sig.Target1, sig.Target2, sig.RiskRewardRatio,
		string(reasons), price, generatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error(ctx, err, "failed to record signal")
		return 0, fmt.Errorf("%w: insert signal: %v", ports.ErrQueryFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ports.ErrQueryFailed, err)
	}
	return id, nil
}

// FindRecent returns up to limit most recent recorded signals, newest first.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.RecordedSignal, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, score, confidence, risk_level, entry, stop_loss, target1, target2, risk_reward, reasons, price, created_at
		FROM signals ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query signals: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []*domain.RecordedSignal
	for rows.Next() {
		var (
			rec     domain.RecordedSignal
			action  string
			risk    string
			reasons string
		)
		if err := rows.Scan(&rec.ID, &action, &rec.Signal.Score, &rec.Signal.Confidence, &risk,
			&rec.Signal.Entry, &rec.Signal.StopLoss, &rec.Signal.Target1, &rec.Signal.Target2,
			&rec.Signal.RiskRewardRatio, &reasons, &rec.Price, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan signal row: %v", ports.ErrQueryFailed, err)
		}
		rec.Signal.Action = domain.Action(action)
		rec.Signal.RiskLevel = domain.RiskLevel(risk)
		if err := json.Unmarshal([]byte(reasons), &rec.Signal.Signals); err != nil {
			r.logger.Warn(ctx, "failed to decode stored signal reasons", map[string]interface{}{"id": rec.ID})
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate signal rows: %v", ports.ErrQueryFailed, err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
