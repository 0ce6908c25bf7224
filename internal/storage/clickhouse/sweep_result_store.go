package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/storage"
)

// moneyScale matches the Decimal(20, 8) money columns.
const moneyScale = 8

// SweepResultStore implements storage.SweepResultStore using ClickHouse.
type SweepResultStore struct {
	conn *Conn
}

// NewSweepResultStore creates a new SweepResultStore.
func NewSweepResultStore(conn *Conn) *SweepResultStore {
	return &SweepResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SweepResultStore = (*SweepResultStore)(nil)

const sweepResultColumns = `
	run_id, rank, config_id,
	min_minute, max_minute, position_pct,
	max_buy_price_cents, stop_on_flip, max_losses_per_window, max_trades_per_window, first_direction_only,
	starting_balance, final_balance, min_balance,
	total_trades, wins, losses, win_rate, windows_traded,
	gross_wins, gross_losses, profit_factor, pf_infinite,
	max_drawdown, max_consecutive_losses
`

// InsertBulk adds the ranked results of one run in a single batch.
// Fails entire batch on any duplicate (run_id, config_id).
func (s *SweepResultStore) InsertBulk(ctx context.Context, runID string, ranked []domain.RankedResult) (err error) {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(ranked) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "sweep_results_insert", time.Since(start).Seconds(), err)
	}()

	// MergeTree does not enforce uniqueness, so duplicates are checked up front.
	existing, err := s.configIDs(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	seen := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		if r.ConfigID == "" || r.Result == nil {
			return storage.ErrInvalidInput
		}
		if _, ok := existing[r.ConfigID]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := seen[r.ConfigID]; ok {
			return storage.ErrDuplicateKey
		}
		seen[r.ConfigID] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO sweep_results (`+sweepResultColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range ranked {
		c, res := r.Config, r.Result
		pf := 0.0
		if !res.ProfitFactor.Infinite {
			pf = res.ProfitFactor.Value
		}
		err = batch.Append(
			runID, uint32(r.Rank), r.ConfigID,
			uint8(c.MinMinute), uint8(c.MaxMinute), c.PositionPct,
			toUint8(c.MaxBuyPriceCents), boolToUint8(c.StopOnFlip),
			toUint16(c.MaxLossesPerWindow), toUint16(c.MaxTradesPerWindow),
			boolToUint8(c.FirstDirectionOnly),
			money(res.StartingBalance), money(res.FinalBalance), money(res.MinBalance),
			uint32(res.TotalTrades), uint32(res.Wins), uint32(res.Losses), res.WinRate, uint32(res.WindowsTraded),
			money(res.GrossWins), money(res.GrossLosses), pf, boolToUint8(res.ProfitFactor.Infinite),
			res.MaxDrawdown, uint32(res.MaxConsecutiveLosses),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetTop retrieves the n best results of a run ordered by rank ASC.
// A negative n returns every result.
func (s *SweepResultStore) GetTop(ctx context.Context, runID string, n int) ([]domain.RankedResult, error) {
	query := `SELECT ` + sweepResultColumns + ` FROM sweep_results WHERE run_id = ? ORDER BY rank ASC`
	args := []any{runID}
	if n >= 0 {
		query += ` LIMIT ?`
		args = append(args, uint64(n))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top results: %w", err)
	}
	defer rows.Close()

	var result []domain.RankedResult
	for rows.Next() {
		r, err := scanSweepResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweep result: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweep results: %w", err)
	}
	return result, nil
}

// GetByConfigID retrieves one result. Returns ErrNotFound if not exists.
func (s *SweepResultStore) GetByConfigID(ctx context.Context, runID, configID string) (*domain.RankedResult, error) {
	query := `SELECT ` + sweepResultColumns + ` FROM sweep_results WHERE run_id = ? AND config_id = ? LIMIT 1`

	rows, err := s.conn.Query(ctx, query, runID, configID)
	if err != nil {
		return nil, fmt.Errorf("query sweep result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate sweep results: %w", err)
		}
		return nil, storage.ErrNotFound
	}
	r, err := scanSweepResult(rows)
	if err != nil {
		return nil, fmt.Errorf("scan sweep result: %w", err)
	}
	return &r, nil
}

func (s *SweepResultStore) configIDs(ctx context.Context, runID string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT config_id FROM sweep_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func scanSweepResult(rows driver.Rows) (domain.RankedResult, error) {
	var (
		rank, totalTrades, wins, losses, windowsTraded, maxConsec uint32
		minMinute, maxMinute, flip, first, pfInfinite             uint8
		priceCap                                                  *uint8
		lossCap, tradeCap                                         *uint16
		startBal, finalBal, minBal, grossWins, grossLosses        decimal.Decimal
		r                                                         domain.RankedResult
		res                                                       domain.SimulationResult
		runID                                                     string
		pf                                                        float64
	)

	err := rows.Scan(
		&runID, &rank, &r.ConfigID,
		&minMinute, &maxMinute, &r.Config.PositionPct,
		&priceCap, &flip, &lossCap, &tradeCap, &first,
		&startBal, &finalBal, &minBal,
		&totalTrades, &wins, &losses, &res.WinRate, &windowsTraded,
		&grossWins, &grossLosses, &pf, &pfInfinite,
		&res.MaxDrawdown, &maxConsec,
	)
	if err != nil {
		return r, err
	}

	r.Rank = int(rank)
	r.Config.MinMinute = int(minMinute)
	r.Config.MaxMinute = int(maxMinute)
	r.Config.MaxBuyPriceCents = fromUint8(priceCap)
	r.Config.StopOnFlip = flip == 1
	r.Config.MaxLossesPerWindow = fromUint16(lossCap)
	r.Config.MaxTradesPerWindow = fromUint16(tradeCap)
	r.Config.FirstDirectionOnly = first == 1

	res.StartingBalance = startBal.InexactFloat64()
	res.FinalBalance = finalBal.InexactFloat64()
	res.MinBalance = minBal.InexactFloat64()
	res.TotalTrades = int(totalTrades)
	res.Wins = int(wins)
	res.Losses = int(losses)
	res.WindowsTraded = int(windowsTraded)
	res.GrossWins = grossWins.InexactFloat64()
	res.GrossLosses = grossLosses.InexactFloat64()
	res.ProfitFactor = domain.ProfitFactor{Value: pf, Infinite: pfInfinite == 1}
	res.MaxConsecutiveLosses = int(maxConsec)
	r.Result = &res

	return r, nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(moneyScale)
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func toUint8(v *int) *uint8 {
	if v == nil {
		return nil
	}
	x := uint8(*v)
	return &x
}

func toUint16(v *int) *uint16 {
	if v == nil {
		return nil
	}
	x := uint16(*v)
	return &x
}

func fromUint8(v *uint8) *int {
	if v == nil {
		return nil
	}
	return domain.IntPtr(int(*v))
}

func fromUint16(v *uint16) *int {
	if v == nil {
		return nil
	}
	return domain.IntPtr(int(*v))
}
