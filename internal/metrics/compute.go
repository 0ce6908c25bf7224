package metrics

import (
	"math"
	"sort"

	"window-config-lab/internal/domain"
)

// Distribution summarizes final balances across ranked results.
type Distribution struct {
	Count  int
	Mean   float64
	Stddev float64
	Min    float64
	P10    float64
	Median float64
	P90    float64
	Max    float64

	// Profitable counts results that ended above their starting balance.
	Profitable int
}

// FinalBalanceDistribution computes the distribution of final balances.
func FinalBalanceDistribution(ranked []domain.RankedResult) Distribution {
	n := len(ranked)
	if n == 0 {
		return Distribution{}
	}

	balances := make([]float64, n)
	profitable := 0
	for i, r := range ranked {
		balances[i] = r.Result.FinalBalance
		if r.Result.FinalBalance > r.Result.StartingBalance {
			profitable++
		}
	}
	mean := computeMean(balances)

	sorted := make([]float64, n)
	copy(sorted, balances)
	sort.Float64s(sorted)

	return Distribution{
		Count:      n,
		Mean:       mean,
		Stddev:     computeStddev(balances, mean),
		Min:        sorted[0],
		P10:        computePercentile(sorted, 0.10),
		Median:     computePercentile(sorted, 0.50),
		P90:        computePercentile(sorted, 0.90),
		Max:        sorted[n-1],
		Profitable: profitable,
	}
}

// computeWinRate calculates win rate as wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
