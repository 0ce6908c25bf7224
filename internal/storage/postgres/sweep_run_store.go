package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/storage"
)

// SweepRunStore implements storage.SweepRunStore using PostgreSQL.
type SweepRunStore struct {
	pool *Pool
}

// NewSweepRunStore creates a new SweepRunStore.
func NewSweepRunStore(pool *Pool) *SweepRunStore {
	return &SweepRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SweepRunStore = (*SweepRunStore)(nil)

const sweepRunSelect = `
	SELECT
		run_id, created_at,
		trade_count, window_count, config_count, error_count,
		starting_balance::text,
		best_config_id, best_config_label, best_final_balance::text,
		baseline_final_balance::text
	FROM sweep_runs
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *SweepRunStore) Insert(ctx context.Context, run *domain.SweepRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sweep_runs (
			run_id, created_at,
			trade_count, window_count, config_count, error_count,
			starting_balance,
			best_config_id, best_config_label, best_final_balance,
			baseline_final_balance
		) VALUES (
			$1, $2,
			$3, $4, $5, $6,
			$7,
			$8, $9, $10,
			$11
		)
	`

	_, err := s.pool.Exec(ctx, query,
		run.RunID, run.CreatedAt,
		run.TradeCount, run.WindowCount, run.ConfigCount, run.ErrorCount,
		moneyArg(run.StartingBalance),
		run.BestConfigID, run.BestConfigLabel, moneyArg(run.BestFinalBalance),
		moneyArg(run.BaselineFinalBalance),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sweep run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SweepRunStore) GetByID(ctx context.Context, runID string) (*domain.SweepRun, error) {
	row := s.pool.QueryRow(ctx, sweepRunSelect+` WHERE run_id = $1`, runID)
	run, err := scanSweepRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sweep run by id: %w", err)
	}
	return run, nil
}

// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
func (s *SweepRunStore) GetAll(ctx context.Context) ([]*domain.SweepRun, error) {
	rows, err := s.pool.Query(ctx, sweepRunSelect+` ORDER BY created_at ASC, run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all sweep runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.SweepRun
	for rows.Next() {
		run, err := scanSweepRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweep run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep run rows: %w", err)
	}
	return runs, nil
}

// scanSweepRun scans a single row into a SweepRun.
func scanSweepRun(row pgx.Row) (*domain.SweepRun, error) {
	var (
		run                        domain.SweepRun
		startBal, bestBal, baseBal string
	)

	err := row.Scan(
		&run.RunID, &run.CreatedAt,
		&run.TradeCount, &run.WindowCount, &run.ConfigCount, &run.ErrorCount,
		&startBal,
		&run.BestConfigID, &run.BestConfigLabel, &bestBal,
		&baseBal,
	)
	if err != nil {
		return nil, err
	}

	if run.StartingBalance, err = parseMoney(startBal); err != nil {
		return nil, err
	}
	if run.BestFinalBalance, err = parseMoney(bestBal); err != nil {
		return nil, err
	}
	if run.BaselineFinalBalance, err = parseMoney(baseBal); err != nil {
		return nil, err
	}
	return &run, nil
}
