package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

var tradeColumns = []string{
	"trade_id", "window_start", "entry_minute", "direction",
	"buy_price_cents", "result", "profit",
}

// InsertBulk adds multiple trades atomically via COPY. Fails entire batch on any duplicate.
// The seq column records insertion order for tie-breaking reads.
func (s *TradeStore) InsertBulk(ctx context.Context, rows []storage.TradeRow) (err error) {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { observability.RecordDBQuery("postgres", "trades_insert", time.Since(start).Seconds(), err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"trades"}, tradeColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			t := rows[i].Trade
			return []any{
				rows[i].TradeID, t.WindowStart, t.EntryMinute, string(t.Direction),
				t.BuyPriceCents, string(t.Result), t.Profit,
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves every trade ordered by (window_start, entry_minute, seq).
func (s *TradeStore) GetAll(ctx context.Context) ([]storage.TradeRow, error) {
	query := `
		SELECT trade_id, window_start, entry_minute, direction, buy_price_cents, result, profit
		FROM trades
		ORDER BY window_start ASC, entry_minute ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByWindow retrieves the trades of one window.
func (s *TradeStore) GetByWindow(ctx context.Context, windowStart int64) ([]storage.TradeRow, error) {
	query := `
		SELECT trade_id, window_start, entry_minute, direction, buy_price_cents, result, profit
		FROM trades
		WHERE window_start = $1
		ORDER BY entry_minute ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, windowStart)
	if err != nil {
		return nil, fmt.Errorf("get trades by window: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Count returns the number of stored trades.
func (s *TradeStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

// scanTrades scans multiple rows into a slice of TradeRow.
func scanTrades(rows pgx.Rows) ([]storage.TradeRow, error) {
	var result []storage.TradeRow

	for rows.Next() {
		var (
			r      storage.TradeRow
			dir    string
			res    string
			profit float64
		)
		err := rows.Scan(
			&r.TradeID, &r.Trade.WindowStart, &r.Trade.EntryMinute, &dir,
			&r.Trade.BuyPriceCents, &res, &profit,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		r.Trade.Direction = domain.Direction(dir)
		r.Trade.Result = domain.Result(res)
		r.Trade.Profit = profit
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return result, nil
}
