package verification

import (
	"context"
	"errors"
	"fmt"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/simulation"
	"window-config-lab/internal/storage"
	"window-config-lab/internal/window"
)

var (
	// ErrRunNotFound is returned when the run ID doesn't exist.
	ErrRunNotFound = errors.New("sweep run not found")

	// ErrResultNotFound is returned when the run has no result for a config ID.
	ErrResultNotFound = errors.New("sweep result not found")

	// ErrTradeCountMismatch is returned when the replay trades differ in size
	// from the dataset the run was computed on.
	ErrTradeCountMismatch = errors.New("trade count differs from sweep run")
)

// ReplayVerifier implements Verifier by re-simulating stored configurations.
type ReplayVerifier struct {
	tradeStore  storage.TradeStore
	runStore    storage.SweepRunStore
	resultStore storage.SweepResultStore

	// trades overrides the trade store when the run was computed from a file.
	trades []domain.TradeRecord
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	TradeStore  storage.TradeStore
	RunStore    storage.SweepRunStore
	ResultStore storage.SweepResultStore

	// Trades, when non-nil, is replayed instead of the trade store contents.
	Trades []domain.TradeRecord
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		tradeStore:  opts.TradeStore,
		runStore:    opts.RunStore,
		resultStore: opts.ResultStore,
		trades:      opts.Trades,
	}
}

// VerifyConfig verifies a single stored result by replaying its configuration.
func (v *ReplayVerifier) VerifyConfig(ctx context.Context, runID, configID string) (*VerificationResult, error) {
	run, windows, err := v.load(ctx, runID)
	if err != nil {
		return nil, err
	}

	stored, err := v.resultStore.GetByConfigID(ctx, runID, configID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrResultNotFound, configID)
		}
		return nil, err
	}

	res := verify(windows, *stored, run.StartingBalance)
	return &res, nil
}

// VerifyTop verifies the n best stored results of a run.
func (v *ReplayVerifier) VerifyTop(ctx context.Context, runID string, n int) (*VerificationReport, error) {
	run, windows, err := v.load(ctx, runID)
	if err != nil {
		return nil, err
	}

	ranked, err := v.resultStore.GetTop(ctx, runID, n)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		RunID:        runID,
		TotalResults: len(ranked),
		Results:      make([]VerificationResult, 0, len(ranked)),
	}
	for _, r := range ranked {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := verify(windows, r, run.StartingBalance)
		report.Results = append(report.Results, res)
		if res.Match {
			report.MatchedResults++
		} else {
			report.Divergent++
		}
	}

	return report, nil
}

// load fetches the run and groups the trades it was computed on.
func (v *ReplayVerifier) load(ctx context.Context, runID string) (*domain.SweepRun, *window.Windows, error) {
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}

	trades := v.trades
	if trades == nil {
		rows, err := v.tradeStore.GetAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		trades = make([]domain.TradeRecord, len(rows))
		for i, r := range rows {
			trades[i] = r.Trade
		}
	}

	if len(trades) != run.TradeCount {
		return nil, nil, fmt.Errorf("%w: run has %d, replay has %d", ErrTradeCountMismatch, run.TradeCount, len(trades))
	}

	return run, window.Group(trades), nil
}

// verify replays one stored result and compares the summaries.
func verify(windows *window.Windows, stored domain.RankedResult, startingBalance float64) VerificationResult {
	res := VerificationResult{
		ConfigID:    stored.ConfigID,
		Label:       stored.Config.Label(),
		Rank:        stored.Rank,
		StoredFinal: stored.Result.FinalBalance,
	}

	if err := stored.Config.Validate(); err != nil {
		res.Divergences = []FieldDivergence{{Field: "Error", Actual: err.Error()}}
		return res
	}

	replayed := simulation.Summarize(windows, stored.Config, startingBalance)
	res.ReplayedFinal = replayed.FinalBalance
	res.Divergences = CompareResults(stored.Result, replayed)
	res.Match = len(res.Divergences) == 0
	return res
}
