package simulation

import "window-config-lab/internal/domain"

// DefaultStartingBalance is the capital every sweep simulation starts from.
const DefaultStartingBalance = 100.0

// Accumulator carries portfolio state from one window to the next.
// It is passed by value into each window replay and returned updated,
// so no simulation shares mutable state with another.
type Accumulator struct {
	Balance    float64
	MinBalance float64
	Peak       float64

	Trades      int
	Wins        int
	Losses      int
	GrossWins   float64
	GrossLosses float64

	WindowsTraded int

	MaxDrawdown          float64
	lossStreak           int
	MaxConsecutiveLosses int
}

// NewAccumulator starts a portfolio at the given balance.
func NewAccumulator(startingBalance float64) Accumulator {
	return Accumulator{
		Balance:    startingBalance,
		MinBalance: startingBalance,
		Peak:       startingBalance,
	}
}

// apply books one executed trade.
func (a Accumulator) apply(t domain.TradeRecord, profit float64) Accumulator {
	a.Balance += profit
	a.Trades++

	if t.IsWin() {
		a.Wins++
		a.GrossWins += profit
		a.lossStreak = 0
	} else {
		a.Losses++
		a.GrossLosses += -profit
		a.lossStreak++
		if a.lossStreak > a.MaxConsecutiveLosses {
			a.MaxConsecutiveLosses = a.lossStreak
		}
	}

	if a.Balance < a.MinBalance {
		a.MinBalance = a.Balance
	}
	if a.Balance > a.Peak {
		a.Peak = a.Balance
	}
	if dd := a.Peak - a.Balance; dd > a.MaxDrawdown {
		a.MaxDrawdown = dd
	}

	return a
}

// result freezes the accumulator into a SimulationResult.
func (a Accumulator) result(startingBalance float64, trades []domain.ExecutedTrade) *domain.SimulationResult {
	return &domain.SimulationResult{
		StartingBalance:      startingBalance,
		FinalBalance:         a.Balance,
		MinBalance:           a.MinBalance,
		TotalTrades:          a.Trades,
		Wins:                 a.Wins,
		Losses:               a.Losses,
		WinRate:              winRate(a.Wins, a.Trades),
		WindowsTraded:        a.WindowsTraded,
		GrossWins:            a.GrossWins,
		GrossLosses:          a.GrossLosses,
		ProfitFactor:         domain.NewProfitFactor(a.GrossWins, a.GrossLosses),
		MaxDrawdown:          a.MaxDrawdown,
		MaxConsecutiveLosses: a.MaxConsecutiveLosses,
		Trades:               trades,
	}
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
