package simulation

import "window-config-lab/internal/domain"

// SkipReason explains why a trade was not admitted. Empty means admitted.
type SkipReason string

// Skip reasons, in the order the filters are evaluated.
const (
	SkipNone              SkipReason = ""
	SkipInvalidPrice      SkipReason = "INVALID_PRICE"
	SkipOutsideMinutes    SkipReason = "OUTSIDE_MINUTES"
	SkipTradeCap          SkipReason = "TRADE_CAP"
	SkipNotFirstDirection SkipReason = "NOT_FIRST_DIRECTION"
	SkipFlipped           SkipReason = "DIRECTION_FLIPPED"
	SkipPriceCap          SkipReason = "PRICE_CAP"
	SkipLossCap           SkipReason = "LOSS_CAP"
)

// windowState is the per-window replay state, created fresh for every window.
type windowState struct {
	executed int
	losses   int

	firstDir domain.Direction
	hasFirst bool

	prevDir domain.Direction
	hasPrev bool

	// flipped latches once an executed direction has been reversed.
	flipped bool
}

// admit runs the admission filters for one trade.
// Trades outside the minute range are invisible to the window: they neither
// set the first direction nor trip the flip latch.
func (s *windowState) admit(t domain.TradeRecord, cfg domain.SweepConfig) SkipReason {
	if t.BuyPriceCents < domain.MinBuyPriceCents {
		return SkipInvalidPrice
	}
	if t.EntryMinute < cfg.MinMinute || t.EntryMinute > cfg.MaxMinute {
		return SkipOutsideMinutes
	}

	if !s.hasFirst {
		s.firstDir = t.Direction
		s.hasFirst = true
	}

	reversed := cfg.StopOnFlip && s.hasPrev && (s.flipped || t.Direction != s.prevDir)
	if reversed {
		s.flipped = true
	}

	switch {
	case cfg.MaxTradesPerWindow != nil && s.executed >= *cfg.MaxTradesPerWindow:
		return SkipTradeCap
	case cfg.FirstDirectionOnly && t.Direction != s.firstDir:
		return SkipNotFirstDirection
	case reversed:
		return SkipFlipped
	case cfg.MaxBuyPriceCents != nil && t.BuyPriceCents > *cfg.MaxBuyPriceCents:
		return SkipPriceCap
	case cfg.MaxLossesPerWindow != nil && s.losses >= *cfg.MaxLossesPerWindow:
		return SkipLossCap
	}
	return SkipNone
}

// record updates the window state after an admitted trade.
func (s *windowState) record(t domain.TradeRecord) {
	s.executed++
	if !t.IsWin() {
		s.losses++
	}
	s.prevDir = t.Direction
	s.hasPrev = true
}

// Profit returns the P/L of staking stake on t. A win pays out at unit value,
// so cheaper contracts return more: stake * (100/price - 1). A loss forfeits the stake.
func Profit(t domain.TradeRecord, stake float64) float64 {
	if t.IsWin() {
		return stake * (float64(domain.PayoutCents)/float64(t.BuyPriceCents) - 1.0)
	}
	return -stake
}

// Decision is the replay outcome of one trade.
type Decision struct {
	Trade    domain.TradeRecord
	Skip     SkipReason
	Executed *domain.ExecutedTrade // nil when skipped
}

// SimulateWindow replays one window's ordered trades under cfg, starting from acc.
// It returns the updated accumulator and the executed trades.
func SimulateWindow(start int64, trades []domain.TradeRecord, cfg domain.SweepConfig, acc Accumulator) (Accumulator, []domain.ExecutedTrade) {
	var executed []domain.ExecutedTrade
	acc = replayWindow(start, trades, cfg, acc, func(d Decision) {
		if d.Executed != nil {
			executed = append(executed, *d.Executed)
		}
	})
	return acc, executed
}

// replayWindow is the window loop shared by simulation and tracing.
// observe may be nil.
func replayWindow(start int64, trades []domain.TradeRecord, cfg domain.SweepConfig, acc Accumulator, observe func(Decision)) Accumulator {
	var state windowState

	for _, t := range trades {
		if reason := state.admit(t, cfg); reason != SkipNone {
			if observe != nil {
				observe(Decision{Trade: t, Skip: reason})
			}
			continue
		}

		stake := acc.Balance * cfg.PositionPct
		profit := Profit(t, stake)
		acc = acc.apply(t, profit)
		state.record(t)

		if observe != nil {
			observe(Decision{
				Trade: t,
				Executed: &domain.ExecutedTrade{
					WindowStart:   start,
					EntryMinute:   t.EntryMinute,
					Direction:     t.Direction,
					Result:        t.Result,
					BuyPriceCents: t.BuyPriceCents,
					Stake:         stake,
					Profit:        profit,
					Balance:       acc.Balance,
				},
			})
		}
	}

	if state.executed > 0 {
		acc.WindowsTraded++
	}
	return acc
}
