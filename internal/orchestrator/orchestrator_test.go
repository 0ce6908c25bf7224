package orchestrator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window-config-lab/internal/configspace"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/idhash"
	"window-config-lab/internal/ingestion"
	"window-config-lab/internal/storage"
	"window-config-lab/internal/storage/memory"
)

type testStores struct {
	trades  *memory.TradeStore
	runs    *memory.SweepRunStore
	results *memory.SweepResultStore
}

func createTestStores() testStores {
	return testStores{
		trades:  memory.NewTradeStore(),
		runs:    memory.NewSweepRunStore(),
		results: memory.NewSweepResultStore(),
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testGrid() *configspace.Grid {
	return &configspace.Grid{
		MinuteFirst:        1,
		MinuteLast:         4,
		PositionPcts:       []float64{0.01, 0.02},
		MaxBuyPrices:       []*int{nil, domain.IntPtr(55)},
		StopOnFlip:         []bool{true, false},
		MaxLosses:          []*int{nil},
		MaxTrades:          []*int{nil, domain.IntPtr(1)},
		FirstDirectionOnly: []bool{true, false},
	}
}

// Window 900: cheap UP win at minute 1, then an expensive DOWN loss at minute 3.
// Window 1800: UP win at minute 2, UP loss at minute 4.
func testTrades() []domain.TradeRecord {
	return []domain.TradeRecord{
		{WindowStart: 900, EntryMinute: 1, Direction: domain.DirectionUp, BuyPriceCents: 50, Result: domain.ResultWin},
		{WindowStart: 900, EntryMinute: 3, Direction: domain.DirectionDown, BuyPriceCents: 70, Result: domain.ResultLoss},
		{WindowStart: 1800, EntryMinute: 2, Direction: domain.DirectionUp, BuyPriceCents: 40, Result: domain.ResultWin},
		{WindowStart: 1800, EntryMinute: 4, Direction: domain.DirectionUp, BuyPriceCents: 60, Result: domain.ResultLoss},
	}
}

func newTestOrchestrator(stores testStores) *Orchestrator {
	baseline := domain.SweepConfig{MinMinute: 1, MaxMinute: 4, PositionPct: 0.01}
	return New(Options{
		TradeStore:  stores.trades,
		RunStore:    stores.runs,
		ResultStore: stores.results,
		Grid:        testGrid(),
		Baseline:    &baseline,
		Workers:     4,
		NewRunID:    func() string { return "run-test" },
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
		Logger:      quietLogger(),
	})
}

func TestOrchestrator_Run_WithTrades(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	result, err := newTestOrchestrator(stores).Run(ctx, testTrades())
	require.NoError(t, err)

	expected := configspace.Count(*testGrid())
	assert.Len(t, result.Ranked, expected)
	assert.Empty(t, result.Failed)

	run := result.Run
	assert.Equal(t, "run-test", run.RunID)
	assert.Equal(t, int64(1700000000000), run.CreatedAt)
	assert.Equal(t, 4, run.TradeCount)
	assert.Equal(t, 2, run.WindowCount)
	assert.Equal(t, expected, run.ConfigCount)
	assert.Equal(t, 100.0, run.StartingBalance)

	// Best has its executed trades, ranked entries do not.
	require.NotNil(t, result.Best)
	assert.Equal(t, result.Ranked[0].ConfigID, result.Best.ConfigID)
	assert.NotEmpty(t, result.Best.Result.Trades)
	assert.Nil(t, result.Ranked[0].Result.Trades)
	assert.InDelta(t, result.Ranked[0].Result.FinalBalance, result.Best.Result.FinalBalance, 1e-9)
	assert.Equal(t, result.Best.Config.Label(), run.BestConfigLabel)

	// Ranks are 1..n with non-increasing balances.
	for i, r := range result.Ranked {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.LessOrEqual(t, r.Result.FinalBalance, result.Ranked[i-1].Result.FinalBalance)
		}
	}

	require.NotNil(t, result.Comparison)
	assert.InDelta(t, run.BaselineFinalBalance, result.Comparison.BaselineFinal, 1e-9)
	assert.GreaterOrEqual(t, result.Comparison.ImprovementPct, 0.0)

	require.NotNil(t, result.Report)
	assert.Equal(t, "run-test", result.Report.RunID)
	assert.Equal(t, 1, result.Report.Data.FlipWindowCount)
}

func TestOrchestrator_Run_Persists(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	result, err := newTestOrchestrator(stores).Run(ctx, testTrades())
	require.NoError(t, err)

	run, err := stores.runs.GetByID(ctx, "run-test")
	require.NoError(t, err)
	assert.Equal(t, result.Run.BestConfigID, run.BestConfigID)

	top, err := stores.results.GetTop(ctx, "run-test", 5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, result.Ranked[0].ConfigID, top[0].ConfigID)

	best, err := stores.results.GetByConfigID(ctx, "run-test", idhash.ComputeConfigID(result.Best.Config))
	require.NoError(t, err)
	assert.Equal(t, 1, best.Rank)

	// Same run ID again is rejected by the stores.
	_, err = newTestOrchestrator(stores).Run(ctx, testTrades())
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOrchestrator_Run_LoadsFromStore(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	_, err := ingestion.Import(ctx, stores.trades, testTrades(), 0)
	require.NoError(t, err)

	fromStore, err := newTestOrchestrator(stores).Run(ctx, nil)
	require.NoError(t, err)

	direct, err := newTestOrchestrator(createTestStores()).Run(ctx, testTrades())
	require.NoError(t, err)

	assert.Equal(t, direct.Run.BestConfigID, fromStore.Run.BestConfigID)
	assert.Equal(t, direct.Run.BestFinalBalance, fromStore.Run.BestFinalBalance)
}

func TestOrchestrator_Run_NoTradeSource(t *testing.T) {
	orch := New(Options{Grid: testGrid(), Logger: quietLogger()})

	_, err := orch.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTradeSource)
}

func TestOrchestrator_Run_EmptyTrades(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	result, err := newTestOrchestrator(stores).Run(ctx, []domain.TradeRecord{})
	require.ErrorIs(t, err, ErrNoResults)
	require.NotNil(t, result)
	assert.Empty(t, result.Ranked)
	assert.Nil(t, result.Best)
	assert.Nil(t, result.Comparison)
	assert.Equal(t, 0, result.Run.WindowCount)

	// Nothing is persisted for an empty run.
	_, err = stores.runs.GetByID(ctx, "run-test")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOrchestrator_Run_InvalidGrid(t *testing.T) {
	grid := testGrid()
	grid.PositionPcts = nil

	orch := New(Options{Grid: grid, Logger: quietLogger()})
	_, err := orch.Run(context.Background(), testTrades())
	assert.ErrorIs(t, err, configspace.ErrEmptyDimension)
}

func TestOrchestrator_Run_Cancelled(t *testing.T) {
	stores := createTestStores()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestOrchestrator(stores).Run(ctx, testTrades())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, result.Run.ConfigCount, result.Run.ErrorCount)

	_, err = stores.runs.GetByID(context.Background(), "run-test")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
