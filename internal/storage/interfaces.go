package storage

import (
	"context"

	"window-config-lab/internal/domain"
)

// TradeRow is a stored trade record with its deterministic ID.
type TradeRow struct {
	TradeID string
	Trade   domain.TradeRecord
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate trade_id.
	InsertBulk(ctx context.Context, rows []TradeRow) error

	// GetAll retrieves every trade ordered by (window_start, entry_minute) ASC.
	// Rows sharing both keep insertion order.
	GetAll(ctx context.Context) ([]TradeRow, error)

	// GetByWindow retrieves the trades of one window, ordered like GetAll.
	GetByWindow(ctx context.Context, windowStart int64) ([]TradeRow, error)

	// Count returns the number of stored trades.
	Count(ctx context.Context) (int, error)
}

// SweepRunStore provides access to sweep_runs storage.
type SweepRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.SweepRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.SweepRun, error)

	// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
	GetAll(ctx context.Context) ([]*domain.SweepRun, error)
}

// SweepResultStore provides access to sweep_results storage.
// Stored results carry summary statistics only, never executed trades.
type SweepResultStore interface {
	// InsertBulk adds the ranked results of one run atomically.
	// Fails entire batch on any duplicate (run_id, config_id).
	InsertBulk(ctx context.Context, runID string, ranked []domain.RankedResult) error

	// GetTop retrieves the n best results of a run ordered by rank ASC.
	GetTop(ctx context.Context, runID string, n int) ([]domain.RankedResult, error)

	// GetByConfigID retrieves one result. Returns ErrNotFound if not exists.
	GetByConfigID(ctx context.Context, runID, configID string) (*domain.RankedResult, error)
}
