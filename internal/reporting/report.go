package reporting

import (
	"time"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/metrics"
)

// Report is the summary of one sweep run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string

	Data  DataSummary
	Sweep SweepSummary

	// Distribution of final balances across every ranked configuration.
	Distribution metrics.Distribution

	// Best configurations, rank ASC.
	TopResults []ResultRow

	// Aggregates per configuration dimension, in metrics.Dimensions order.
	Groups []GroupSection

	// Minute ranges ordered by their best final balance.
	TopMinuteRanges []metrics.GroupStat

	// Raw per-minute win rates. Empty when the report is built from storage only.
	MinuteStats []metrics.MinuteStat

	// Baseline vs best. Nil when no baseline was evaluated.
	Comparison *metrics.Comparison

	// Configurations that failed to evaluate.
	Failures []FailureRow
}

// DataSummary describes the trade dataset the sweep ran on.
type DataSummary struct {
	TradeCount      int
	WindowCount     int
	FlipWindowCount int   // windows whose raw direction sequence reverses
	FirstWindow     int64 // unix seconds
	LastWindow      int64

	// HasWindows is set when the census and range above were computed from
	// the windows themselves. Stored runs only carry the counts.
	HasWindows bool
}

// SweepSummary describes the configuration space.
type SweepSummary struct {
	ConfigCount     int
	RankedCount     int
	FailedCount     int
	StartingBalance float64
}

// ResultRow is one ranked configuration.
type ResultRow struct {
	Rank                 int
	ConfigID             string
	Label                string
	Config               domain.SweepConfig
	FinalBalance         float64
	MinBalance           float64
	NetProfit            float64
	TotalTrades          int
	WinRate              float64
	MaxDrawdown          float64
	MaxConsecutiveLosses int
	ProfitFactor         domain.ProfitFactor
	GrossWins            float64
	GrossLosses          float64
}

// GroupSection holds the aggregates of one dimension.
type GroupSection struct {
	Dimension metrics.Dimension
	Stats     []metrics.GroupStat
}

// FailureRow lists a configuration that produced no result.
type FailureRow struct {
	ConfigID string
	Label    string
	Error    string
}

func newResultRow(r domain.RankedResult) ResultRow {
	return ResultRow{
		Rank:                 r.Rank,
		ConfigID:             r.ConfigID,
		Label:                r.Config.Label(),
		Config:               r.Config,
		FinalBalance:         r.Result.FinalBalance,
		MinBalance:           r.Result.MinBalance,
		NetProfit:            r.Result.NetProfit(),
		TotalTrades:          r.Result.TotalTrades,
		WinRate:              r.Result.WinRate,
		MaxDrawdown:          r.Result.MaxDrawdown,
		MaxConsecutiveLosses: r.Result.MaxConsecutiveLosses,
		ProfitFactor:         r.Result.ProfitFactor,
		GrossWins:            r.Result.GrossWins,
		GrossLosses:          r.Result.GrossLosses,
	}
}
