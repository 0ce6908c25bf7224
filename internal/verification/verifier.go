// Package verification checks that stored sweep results match a fresh
// replay of the same configuration over the same trades.
package verification

import (
	"context"
	"math"

	"window-config-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Stored money
// columns keep eight decimal places.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single configuration.
type VerificationResult struct {
	ConfigID      string
	Label         string
	Rank          int
	Match         bool // true if all fields match
	Divergences   []FieldDivergence
	StoredFinal   float64
	ReplayedFinal float64
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	RunID          string
	TotalResults   int
	MatchedResults int
	Divergent      int
	Results        []VerificationResult
}

// Verifier re-simulates stored sweep results.
type Verifier interface {
	// VerifyConfig verifies one stored result of a run.
	VerifyConfig(ctx context.Context, runID, configID string) (*VerificationResult, error)

	// VerifyTop verifies the n best stored results of a run. n < 0 verifies all.
	VerifyTop(ctx context.Context, runID string, n int) (*VerificationReport, error)
}

// CompareResults compares a stored summary with a replayed one and returns
// divergences. Executed trades are not compared since stores never keep them.
func CompareResults(stored, replayed *domain.SimulationResult) []FieldDivergence {
	var d []FieldDivergence

	floats := []struct {
		field string
		a, b  float64
	}{
		{"StartingBalance", stored.StartingBalance, replayed.StartingBalance},
		{"FinalBalance", stored.FinalBalance, replayed.FinalBalance},
		{"MinBalance", stored.MinBalance, replayed.MinBalance},
		{"WinRate", stored.WinRate, replayed.WinRate},
		{"GrossWins", stored.GrossWins, replayed.GrossWins},
		{"GrossLosses", stored.GrossLosses, replayed.GrossLosses},
		{"MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown},
	}
	for _, f := range floats {
		if !floatEquals(f.a, f.b) {
			d = append(d, FieldDivergence{Field: f.field, Expected: f.a, Actual: f.b})
		}
	}

	ints := []struct {
		field string
		a, b  int
	}{
		{"TotalTrades", stored.TotalTrades, replayed.TotalTrades},
		{"Wins", stored.Wins, replayed.Wins},
		{"Losses", stored.Losses, replayed.Losses},
		{"WindowsTraded", stored.WindowsTraded, replayed.WindowsTraded},
		{"MaxConsecutiveLosses", stored.MaxConsecutiveLosses, replayed.MaxConsecutiveLosses},
	}
	for _, f := range ints {
		if f.a != f.b {
			d = append(d, FieldDivergence{Field: f.field, Expected: f.a, Actual: f.b})
		}
	}

	if !profitFactorEquals(stored.ProfitFactor, replayed.ProfitFactor) {
		d = append(d, FieldDivergence{
			Field:    "ProfitFactor",
			Expected: stored.ProfitFactor.String(),
			Actual:   replayed.ProfitFactor.String(),
		})
	}

	return d
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

func profitFactorEquals(a, b domain.ProfitFactor) bool {
	if a.Infinite || b.Infinite {
		return a.Infinite == b.Infinite
	}
	return floatEquals(a.Value, b.Value)
}
