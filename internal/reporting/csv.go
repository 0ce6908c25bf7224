package reporting

import (
	"fmt"
	"strings"

	"window-config-lab/internal/domain"
)

// RenderCSV renders ranked results as CSV string. Empty cap columns mean no limit.
func RenderCSV(ranked []domain.RankedResult) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,config_id,min_minute,max_minute,position_pct,max_buy_price_cents,")
	sb.WriteString("stop_on_flip,max_losses_per_window,max_trades_per_window,first_direction_only,")
	sb.WriteString("final_balance,min_balance,total_trades,wins,losses,win_rate,max_drawdown,")
	sb.WriteString("max_consecutive_losses,profit_factor,gross_wins,gross_losses\n")

	// Rows
	for _, r := range ranked {
		c, res := r.Config, r.Result
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%d,%.4f,%s,%t,%s,%s,%t,%.6f,%.6f,%d,%d,%d,%.6f,%.6f,%d,%s,%.6f,%.6f\n",
			r.Rank,
			r.ConfigID,
			c.MinMinute,
			c.MaxMinute,
			c.PositionPct,
			optCell(c.MaxBuyPriceCents),
			c.StopOnFlip,
			optCell(c.MaxLossesPerWindow),
			optCell(c.MaxTradesPerWindow),
			c.FirstDirectionOnly,
			res.FinalBalance,
			res.MinBalance,
			res.TotalTrades,
			res.Wins,
			res.Losses,
			res.WinRate,
			res.MaxDrawdown,
			res.MaxConsecutiveLosses,
			pfCell(res.ProfitFactor),
			res.GrossWins,
			res.GrossLosses,
		))
	}

	return sb.String()
}

func optCell(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

func pfCell(p domain.ProfitFactor) string {
	if p.Infinite {
		return "inf"
	}
	return fmt.Sprintf("%.6f", p.Value)
}
