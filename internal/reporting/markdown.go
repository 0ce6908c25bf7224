package reporting

import (
	"fmt"
	"strings"
	"time"

	"window-config-lab/internal/metrics"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Configuration Sweep Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	}

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", r.Data.TradeCount))
	sb.WriteString(fmt.Sprintf("| Windows | %d |\n", r.Data.WindowCount))
	if r.Data.HasWindows && r.Data.WindowCount > 0 {
		sb.WriteString(fmt.Sprintf("| Windows With Direction Flip | %d (%.1f%%) |\n",
			r.Data.FlipWindowCount, pct(r.Data.FlipWindowCount, r.Data.WindowCount)))
		sb.WriteString(fmt.Sprintf("| First Window | %s |\n", formatUnix(r.Data.FirstWindow)))
		sb.WriteString(fmt.Sprintf("| Last Window | %s |\n", formatUnix(r.Data.LastWindow)))
	}
	sb.WriteString(fmt.Sprintf("| Configurations | %d |\n", r.Sweep.ConfigCount))
	sb.WriteString(fmt.Sprintf("| Ranked | %d |\n", r.Sweep.RankedCount))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Sweep.FailedCount))
	sb.WriteString(fmt.Sprintf("| Starting Balance | $%.2f |\n", r.Sweep.StartingBalance))
	sb.WriteString("\n")

	// Distribution
	d := r.Distribution
	sb.WriteString("## Final Balance Distribution\n\n")
	if d.Count > 0 {
		sb.WriteString("| Min | P10 | Median | Mean | P90 | Max | Stddev | Profitable |\n")
		sb.WriteString("|-----|-----|--------|------|-----|-----|--------|------------|\n")
		sb.WriteString(fmt.Sprintf("| $%.2f | $%.2f | $%.2f | $%.2f | $%.2f | $%.2f | %.2f | %d (%.1f%%) |\n\n",
			d.Min, d.P10, d.Median, d.Mean, d.P90, d.Max, d.Stddev, d.Profitable, pct(d.Profitable, d.Count)))
	} else {
		sb.WriteString("No results available.\n\n")
	}

	// Top configurations
	sb.WriteString(fmt.Sprintf("## Top %d Configurations\n\n", len(r.TopResults)))
	if len(r.TopResults) > 0 {
		sb.WriteString("| # | Config | Final | MinBal | Trades | WinRate | MaxDD | PF |\n")
		sb.WriteString("|---|--------|-------|--------|--------|---------|-------|----|\n")
		for _, row := range r.TopResults {
			sb.WriteString(fmt.Sprintf("| %d | %s | $%.2f | $%.2f | %d | %.1f%% | $%.2f | %s |\n",
				row.Rank, row.Label, row.FinalBalance, row.MinBalance, row.TotalTrades,
				row.WinRate*100, row.MaxDrawdown, row.ProfitFactor))
		}
	} else {
		sb.WriteString("No configurations ranked.\n")
	}
	sb.WriteString("\n")

	// Baseline comparison
	if c := r.Comparison; c != nil {
		sb.WriteString("## Baseline vs Best\n\n")
		sb.WriteString("| | Config | Final | Trades | WinRate |\n")
		sb.WriteString("|-|--------|-------|--------|---------|\n")
		sb.WriteString(fmt.Sprintf("| Baseline | %s | $%.2f | %d | %.1f%% |\n",
			c.Baseline.Label(), c.BaselineFinal, c.BaselineCount, c.BaselineWR*100))
		sb.WriteString(fmt.Sprintf("| Best | %s | $%.2f | %d | %.1f%% |\n\n",
			c.Best.Label(), c.BestFinal, c.BestCount, c.BestWR*100))
		sb.WriteString(fmt.Sprintf("Improvement: %+.1f%%\n\n", c.ImprovementPct))
	}

	// Dimension aggregates
	for _, g := range r.Groups {
		sb.WriteString(fmt.Sprintf("## By %s\n\n", dimensionTitle(g.Dimension)))
		writeGroupTable(&sb, g.Stats)
	}

	sb.WriteString("## Top Minute Ranges\n\n")
	writeGroupTable(&sb, r.TopMinuteRanges)

	// Per-minute performance
	if len(r.MinuteStats) > 0 {
		sb.WriteString("## Win Rate By Entry Minute\n\n")
		sb.WriteString("| Minute | Trades | Wins | WinRate | Recorded P&L |\n")
		sb.WriteString("|--------|--------|------|---------|--------------|\n")
		for _, m := range r.MinuteStats {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.1f%% | $%.2f |\n",
				m.Minute, m.Total, m.Wins, m.WinRate*100, m.Profit))
		}
		sb.WriteString("\n")
	}

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Failed Configurations\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Label, f.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeGroupTable(sb *strings.Builder, stats []metrics.GroupStat) {
	if len(stats) == 0 {
		sb.WriteString("No data.\n\n")
		return
	}
	sb.WriteString("| Value | Configs | Mean Final | Max Final |\n")
	sb.WriteString("|-------|---------|------------|-----------|\n")
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("| %s | %d | $%.2f | $%.2f |\n", s.Label, s.Count, s.Mean, s.Max))
	}
	sb.WriteString("\n")
}

func dimensionTitle(d metrics.Dimension) string {
	switch d {
	case metrics.DimDirectionMode:
		return "Direction Mode"
	case metrics.DimMaxBuyPrice:
		return "Max Buy Price"
	case metrics.DimPositionPct:
		return "Position Size"
	case metrics.DimMinuteRange:
		return "Minute Range"
	case metrics.DimLossCap:
		return "Loss Cap"
	case metrics.DimTradeCap:
		return "Trade Cap"
	default:
		return string(d)
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func formatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04")
}
