package reporting

import (
	"context"
	"fmt"
	"time"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/metrics"
	"window-config-lab/internal/storage"
	"window-config-lab/internal/sweep"
	"window-config-lab/internal/window"
)

// Defaults for report section sizes.
const (
	DefaultTopResults      = 20
	DefaultTopMinuteRanges = 10
	DefaultTopJSON         = 100
)

// Input is everything a report is built from after a sweep.
type Input struct {
	RunID           string
	Trades          []domain.TradeRecord
	Windows         *window.Windows
	Ranked          []domain.RankedResult
	Failed          []sweep.Outcome
	ConfigCount     int
	StartingBalance float64
	Comparison      *metrics.Comparison
}

// Generator produces reports.
type Generator struct {
	topResults      int
	topMinuteRanges int
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator with default section sizes.
func NewGenerator() *Generator {
	return &Generator{
		topResults:      DefaultTopResults,
		topMinuteRanges: DefaultTopMinuteRanges,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopResults sets how many ranked configurations the report lists.
func (g *Generator) WithTopResults(n int) *Generator {
	g.topResults = n
	return g
}

// Generate builds a report from an in-memory sweep.
func (g *Generator) Generate(in Input) (*Report, error) {
	groups, topRanges, err := g.groups(in.Ranked)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		RunID:       in.RunID,
		Sweep: SweepSummary{
			ConfigCount:     in.ConfigCount,
			RankedCount:     len(in.Ranked),
			FailedCount:     len(in.Failed),
			StartingBalance: in.StartingBalance,
		},
		Distribution:    metrics.FinalBalanceDistribution(in.Ranked),
		TopResults:      resultRows(metrics.Top(in.Ranked, g.topResults)),
		Groups:          groups,
		TopMinuteRanges: topRanges,
		MinuteStats:     metrics.MinuteStats(in.Trades),
		Comparison:      in.Comparison,
	}

	r.Data.TradeCount = len(in.Trades)
	if in.Windows != nil {
		r.Data.TradeCount = in.Windows.TradeCount()
		r.Data.WindowCount = in.Windows.Len()
		r.Data.FlipWindowCount = metrics.CountFlipWindows(in.Windows)
		r.Data.HasWindows = true
		if starts := in.Windows.Starts(); len(starts) > 0 {
			r.Data.FirstWindow = starts[0]
			r.Data.LastWindow = starts[len(starts)-1]
		}
	}

	for _, o := range in.Failed {
		row := FailureRow{ConfigID: o.ConfigID, Label: o.Config.Label()}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		r.Failures = append(r.Failures, row)
	}

	return r, nil
}

// GenerateStored rebuilds a report for a persisted run. Sections that need
// the raw trades (minute stats, flip census) are left empty.
func (g *Generator) GenerateStored(ctx context.Context, runs storage.SweepRunStore, results storage.SweepResultStore, runID string) (*Report, []domain.RankedResult, error) {
	run, err := runs.GetByID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	ranked, err := results.GetTop(ctx, runID, -1)
	if err != nil {
		return nil, nil, fmt.Errorf("load results of run %s: %w", runID, err)
	}

	groups, topRanges, err := g.groups(ranked)
	if err != nil {
		return nil, nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		RunID:       run.RunID,
		Data: DataSummary{
			TradeCount:  run.TradeCount,
			WindowCount: run.WindowCount,
		},
		Sweep: SweepSummary{
			ConfigCount:     run.ConfigCount,
			RankedCount:     len(ranked),
			FailedCount:     run.ErrorCount,
			StartingBalance: run.StartingBalance,
		},
		Distribution:    metrics.FinalBalanceDistribution(ranked),
		TopResults:      resultRows(metrics.Top(ranked, g.topResults)),
		Groups:          groups,
		TopMinuteRanges: topRanges,
	}
	return r, ranked, nil
}

func (g *Generator) groups(ranked []domain.RankedResult) ([]GroupSection, []metrics.GroupStat, error) {
	sections := make([]GroupSection, 0, len(metrics.Dimensions))
	var topRanges []metrics.GroupStat

	for _, dim := range metrics.Dimensions {
		stats, err := metrics.GroupBy(ranked, dim)
		if err != nil {
			return nil, nil, fmt.Errorf("group by %s: %w", dim, err)
		}
		if dim == metrics.DimMinuteRange {
			// Only the leading minute ranges are listed.
			topRanges = metrics.SortByMax(stats)
			if len(topRanges) > g.topMinuteRanges {
				topRanges = topRanges[:g.topMinuteRanges]
			}
			continue
		}
		sections = append(sections, GroupSection{Dimension: dim, Stats: stats})
	}
	return sections, topRanges, nil
}

func resultRows(ranked []domain.RankedResult) []ResultRow {
	rows := make([]ResultRow, len(ranked))
	for i, r := range ranked {
		rows[i] = newResultRow(r)
	}
	return rows
}
