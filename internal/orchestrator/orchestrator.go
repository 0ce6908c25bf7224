// Package orchestrator runs a complete configuration sweep.
// It coordinates: load trades → group windows → generate configs → sweep →
// rank → baseline comparison → persistence → report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"window-config-lab/internal/configspace"
	"window-config-lab/internal/domain"
	"window-config-lab/internal/metrics"
	"window-config-lab/internal/observability"
	"window-config-lab/internal/reporting"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/storage"
	"window-config-lab/internal/sweep"
	"window-config-lab/internal/window"
)

// ErrNoResults is returned when no configuration produced a result.
var ErrNoResults = errors.New("sweep produced no results")

// ErrNoTradeSource is returned when Run gets no trades and no TradeStore is configured.
var ErrNoTradeSource = errors.New("no trades given and no trade store configured")

// Orchestrator coordinates one sweep execution.
type Orchestrator struct {
	// Stores, all optional
	tradeStore  storage.TradeStore
	runStore    storage.SweepRunStore
	resultStore storage.SweepResultStore

	grid     configspace.Grid
	baseline domain.SweepConfig
	runner   *sweep.Runner
	report   *reporting.Generator

	startingBalance float64
	newRunID        func() string
	now             func() time.Time
	log             logrus.FieldLogger
	metrics         *observability.Metrics
}

// Options for creating Orchestrator.
type Options struct {
	// TradeStore supplies trades when Run is called without any.
	TradeStore storage.TradeStore

	// RunStore and ResultStore persist the run when both are set.
	RunStore    storage.SweepRunStore
	ResultStore storage.SweepResultStore

	// Grid defaults to configspace.DefaultGrid().
	Grid *configspace.Grid

	// Baseline defaults to domain.BaselineConfig().
	Baseline *domain.SweepConfig

	Workers         int
	StartingBalance float64
	ProgressEvery   int
	TopResults      int

	// NewRunID defaults to uuid.NewString. Now defaults to time.Now.
	NewRunID func() string
	Now      func() time.Time

	Logger  logrus.FieldLogger
	Metrics *observability.Metrics
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	grid := configspace.DefaultGrid()
	if opts.Grid != nil {
		grid = *opts.Grid
	}
	baseline := domain.BaselineConfig()
	if opts.Baseline != nil {
		baseline = *opts.Baseline
	}
	if opts.StartingBalance == 0 {
		opts.StartingBalance = simulation.DefaultStartingBalance
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	gen := reporting.NewGenerator().WithClock(func() time.Time { return opts.Now().UTC() })
	if opts.TopResults > 0 {
		gen.WithTopResults(opts.TopResults)
	}

	return &Orchestrator{
		tradeStore:  opts.TradeStore,
		runStore:    opts.RunStore,
		resultStore: opts.ResultStore,
		grid:        grid,
		baseline:    baseline,
		runner: sweep.NewRunner(sweep.Options{
			Workers:         opts.Workers,
			StartingBalance: opts.StartingBalance,
			ProgressEvery:   opts.ProgressEvery,
			Logger:          log,
			Metrics:         opts.Metrics,
		}),
		report:          gen,
		startingBalance: opts.StartingBalance,
		newRunID:        opts.NewRunID,
		now:             opts.Now,
		log:             log.WithField("component", "orchestrator"),
		metrics:         opts.Metrics,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Run     *domain.SweepRun
	Windows *window.Windows
	Ranked  []domain.RankedResult
	Failed  []sweep.Outcome

	// Best is the top-ranked configuration re-simulated with its executed trades.
	Best *domain.RankedResult

	Baseline   *domain.SimulationResult
	Comparison *metrics.Comparison
	Report     *reporting.Report
}

// Run executes a full sweep over trades. When trades is nil they are loaded
// from the configured TradeStore.
// Phases:
//  1. Load trades
//  2. Group into windows and generate configurations
//  3. Sweep
//  4. Rank, baseline comparison, best-config replay
//  5. Persist run and results
//  6. Build report
//
// If ctx is cancelled during the sweep the partial result is returned along
// with the context error and nothing is persisted.
func (o *Orchestrator) Run(ctx context.Context, trades []domain.TradeRecord) (*RunResult, error) {
	// Phase 1: Load trades
	if trades == nil {
		if o.tradeStore == nil {
			return nil, ErrNoTradeSource
		}
		o.log.Info("Phase 1: Loading trades from store...")
		loaded, err := loadTrades(ctx, o.tradeStore)
		if err != nil {
			return nil, fmt.Errorf("phase 1 (load trades) failed: %w", err)
		}
		trades = loaded
	}
	o.log.WithField("trades", len(trades)).Info("Phase 1: Trades ready")

	// Phase 2: Windows and configuration space
	windows := window.Group(trades)
	configs, err := configspace.Generate(o.grid)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (generate configs) failed: %w", err)
	}
	o.log.WithFields(logrus.Fields{
		"windows":      windows.Len(),
		"flip_windows": metrics.CountFlipWindows(windows),
		"configs":      len(configs),
	}).Info("Phase 2: Configuration space generated")

	runID := o.newRunID()
	result := &RunResult{
		Run: &domain.SweepRun{
			RunID:           runID,
			CreatedAt:       o.now().UnixMilli(),
			TradeCount:      windows.TradeCount(),
			WindowCount:     windows.Len(),
			ConfigCount:     len(configs),
			StartingBalance: o.startingBalance,
		},
		Windows: windows,
	}

	// Nothing to rank: no trades, or a grid that pruned down to nothing.
	if windows.TradeCount() == 0 || len(configs) == 0 {
		o.log.Warn("no trades or configurations, skipping sweep")
		return result, ErrNoResults
	}

	// Phase 3: Sweep
	o.log.Info("Phase 3: Running sweep...")
	outcomes, sweepErr := o.runner.Run(ctx, windows, configs)

	// Phase 4: Rank and compare
	result.Ranked, result.Failed = metrics.Rank(outcomes)
	result.Run.ErrorCount = len(result.Failed)
	if sweepErr != nil {
		return result, fmt.Errorf("phase 3 (sweep) failed: %w", sweepErr)
	}

	best, ok := metrics.Best(result.Ranked)
	if !ok {
		o.log.Warn("no configuration produced a result")
		return result, ErrNoResults
	}

	result.Baseline = simulation.Summarize(windows, o.baseline, o.startingBalance)
	cmp := metrics.Compare(o.baseline, result.Baseline, best)
	result.Comparison = &cmp

	best.Result = simulation.Simulate(windows, best.Config, o.startingBalance)
	result.Best = &best

	result.Run.BestConfigID = best.ConfigID
	result.Run.BestConfigLabel = best.Config.Label()
	result.Run.BestFinalBalance = best.Result.FinalBalance
	result.Run.BaselineFinalBalance = result.Baseline.FinalBalance

	o.log.WithFields(logrus.Fields{
		"ranked":      len(result.Ranked),
		"failed":      len(result.Failed),
		"best":        result.Run.BestConfigLabel,
		"best_final":  fmt.Sprintf("%.2f", result.Run.BestFinalBalance),
		"baseline":    fmt.Sprintf("%.2f", result.Run.BaselineFinalBalance),
		"improvement": fmt.Sprintf("%+.1f%%", cmp.ImprovementPct),
	}).Info("Phase 4: Results ranked")

	// Phase 5: Persist
	if o.runStore != nil && o.resultStore != nil {
		if err := o.persist(ctx, result); err != nil {
			return result, fmt.Errorf("phase 5 (persist) failed: %w", err)
		}
		o.log.WithField("run_id", runID).Info("Phase 5: Run persisted")
	} else {
		o.log.Info("Phase 5: Skipping persistence (no stores configured)")
	}

	// Phase 6: Report
	result.Report, err = o.report.Generate(reporting.Input{
		RunID:           runID,
		Trades:          trades,
		Windows:         windows,
		Ranked:          result.Ranked,
		Failed:          result.Failed,
		ConfigCount:     len(configs),
		StartingBalance: o.startingBalance,
		Comparison:      result.Comparison,
	})
	if err != nil {
		return result, fmt.Errorf("phase 6 (report) failed: %w", err)
	}

	if o.metrics != nil {
		o.metrics.BestFinalBalance.Set(result.Run.BestFinalBalance)
		o.metrics.LastSuccessfulSweep.SetToCurrentTime()
	}

	return result, nil
}

// persist writes the run and its results. Results go first so a stored run
// always has its results.
func (o *Orchestrator) persist(ctx context.Context, result *RunResult) error {
	if err := o.resultStore.InsertBulk(ctx, result.Run.RunID, result.Ranked); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	if err := o.runStore.Insert(ctx, result.Run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// loadTrades loads every stored trade in window order.
func loadTrades(ctx context.Context, store storage.TradeStore) ([]domain.TradeRecord, error) {
	rows, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	trades := make([]domain.TradeRecord, len(rows))
	for i, r := range rows {
		trades[i] = r.Trade
	}
	return trades, nil
}
