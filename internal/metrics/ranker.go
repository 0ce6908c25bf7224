// Package metrics ranks sweep outcomes and aggregates them for reporting.
package metrics

import (
	"sort"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/sweep"
)

// Rank orders successful outcomes by final balance, highest first, and
// assigns ranks 1..n. Ties keep input order. Failed outcomes are returned
// separately in input order.
func Rank(outcomes []sweep.Outcome) (ranked []domain.RankedResult, failed []sweep.Outcome) {
	ranked = make([]domain.RankedResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			failed = append(failed, o)
			continue
		}
		ranked = append(ranked, domain.RankedResult{
			ConfigID: o.ConfigID,
			Config:   o.Config,
			Result:   o.Result,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.FinalBalance > ranked[j].Result.FinalBalance
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, failed
}

// Best returns the top-ranked result. ok is false when ranked is empty.
func Best(ranked []domain.RankedResult) (best domain.RankedResult, ok bool) {
	if len(ranked) == 0 {
		return domain.RankedResult{}, false
	}
	return ranked[0], true
}

// Top returns at most n leading results.
func Top(ranked []domain.RankedResult, n int) []domain.RankedResult {
	if n < 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
