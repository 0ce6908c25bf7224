// Package simulation replays trading windows under a sweep configuration.
//
// Replay is a pure function of (windows, config, starting balance): the
// portfolio balance is threaded through an explicit Accumulator and windows
// are never modified, so simulations may run concurrently over shared data.
package simulation

import (
	"window-config-lab/internal/domain"
	"window-config-lab/internal/window"
)

// Simulate replays every window in ascending start order under cfg and
// returns the result including the executed trade list.
func Simulate(windows *window.Windows, cfg domain.SweepConfig, startingBalance float64) *domain.SimulationResult {
	var executed []domain.ExecutedTrade
	acc := NewAccumulator(startingBalance)

	windows.Each(func(start int64, trades []domain.TradeRecord) {
		var ts []domain.ExecutedTrade
		acc, ts = SimulateWindow(start, trades, cfg, acc)
		executed = append(executed, ts...)
	})

	return acc.result(startingBalance, executed)
}

// Summarize is Simulate without the executed trade list.
// Summary statistics are identical to Simulate's.
func Summarize(windows *window.Windows, cfg domain.SweepConfig, startingBalance float64) *domain.SimulationResult {
	acc := NewAccumulator(startingBalance)

	windows.Each(func(start int64, trades []domain.TradeRecord) {
		acc = replayWindow(start, trades, cfg, acc, nil)
	})

	return acc.result(startingBalance, nil)
}

// WindowTrace is the per-trade decision log of one window.
type WindowTrace struct {
	WindowStart    int64
	Decisions      []Decision
	BalanceBefore  float64
	BalanceAfter   float64
	ExecutedTrades int
}

// Trace replays windows like Simulate and records why each trade was
// admitted or skipped. Windows with no trades in the minute range are kept
// so callers can show them as untouched.
func Trace(windows *window.Windows, cfg domain.SweepConfig, startingBalance float64) ([]WindowTrace, *domain.SimulationResult) {
	var (
		traces   []WindowTrace
		executed []domain.ExecutedTrade
	)
	acc := NewAccumulator(startingBalance)

	windows.Each(func(start int64, trades []domain.TradeRecord) {
		wt := WindowTrace{WindowStart: start, BalanceBefore: acc.Balance}
		acc = replayWindow(start, trades, cfg, acc, func(d Decision) {
			wt.Decisions = append(wt.Decisions, d)
			if d.Executed != nil {
				wt.ExecutedTrades++
				executed = append(executed, *d.Executed)
			}
		})
		wt.BalanceAfter = acc.Balance
		traces = append(traces, wt)
	})

	return traces, acc.result(startingBalance, executed)
}
