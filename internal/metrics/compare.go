package metrics

import "window-config-lab/internal/domain"

// Comparison contrasts a reference configuration with the best one found.
type Comparison struct {
	Baseline      domain.SweepConfig
	BaselineFinal float64
	BaselineWR    float64
	BaselineCount int

	Best      domain.SweepConfig
	BestFinal float64
	BestWR    float64
	BestCount int

	// ImprovementPct is (best - baseline) / baseline * 100.
	// Zero when the baseline balance is zero.
	ImprovementPct float64
}

// Compare builds a Comparison between baseline and best results.
func Compare(baselineCfg domain.SweepConfig, baseline *domain.SimulationResult, best domain.RankedResult) Comparison {
	c := Comparison{
		Baseline:      baselineCfg,
		BaselineFinal: baseline.FinalBalance,
		BaselineWR:    baseline.WinRate,
		BaselineCount: baseline.TotalTrades,
		Best:          best.Config,
		BestFinal:     best.Result.FinalBalance,
		BestWR:        best.Result.WinRate,
		BestCount:     best.Result.TotalTrades,
	}
	if baseline.FinalBalance != 0 {
		c.ImprovementPct = (c.BestFinal - c.BaselineFinal) / c.BaselineFinal * 100
	}
	return c
}
