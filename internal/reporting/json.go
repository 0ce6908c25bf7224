package reporting

import (
	"encoding/json"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/metrics"
)

// ConfigJSON is the exported form of a SweepConfig. Null caps mean no limit.
type ConfigJSON struct {
	MinMinute          int     `json:"min_minute"`
	MaxMinute          int     `json:"max_minute"`
	PositionPct        float64 `json:"position_pct"`
	MaxBuyPriceCents   *int    `json:"max_buy_price_cents"`
	StopOnFlip         bool    `json:"stop_on_flip"`
	MaxLossesPerWindow *int    `json:"max_losses_per_window"`
	MaxTradesPerWindow *int    `json:"max_trades_per_window"`
	FirstDirectionOnly bool    `json:"first_direction_only"`
}

// ExportEntry is one configuration in the top-N JSON export.
// MinBalance is the lowest balance reached and MaxDrawdown the largest
// peak-to-trough fall. ProfitFactor is null when no trade lost.
type ExportEntry struct {
	Rank         int                 `json:"rank"`
	ConfigID     string              `json:"config_id"`
	Config       ConfigJSON          `json:"config"`
	ConfigStr    string              `json:"config_str"`
	FinalBalance float64             `json:"final_balance"`
	MinBalance   float64             `json:"min_balance"`
	TotalTrades  int                 `json:"total_trades"`
	WinRate      float64             `json:"win_rate"`
	MaxDrawdown  float64             `json:"max_drawdown"`
	ProfitFactor domain.ProfitFactor `json:"profit_factor"`
	GrossWins    float64             `json:"gross_wins"`
	GrossLosses  float64             `json:"gross_losses"`
}

// NewConfigJSON converts a config for export.
func NewConfigJSON(c domain.SweepConfig) ConfigJSON {
	return ConfigJSON{
		MinMinute:          c.MinMinute,
		MaxMinute:          c.MaxMinute,
		PositionPct:        c.PositionPct,
		MaxBuyPriceCents:   c.MaxBuyPriceCents,
		StopOnFlip:         c.StopOnFlip,
		MaxLossesPerWindow: c.MaxLossesPerWindow,
		MaxTradesPerWindow: c.MaxTradesPerWindow,
		FirstDirectionOnly: c.FirstDirectionOnly,
	}
}

// SweepConfig converts back to the domain type.
func (c ConfigJSON) SweepConfig() domain.SweepConfig {
	return domain.SweepConfig{
		MinMinute:          c.MinMinute,
		MaxMinute:          c.MaxMinute,
		PositionPct:        c.PositionPct,
		MaxBuyPriceCents:   c.MaxBuyPriceCents,
		StopOnFlip:         c.StopOnFlip,
		MaxLossesPerWindow: c.MaxLossesPerWindow,
		MaxTradesPerWindow: c.MaxTradesPerWindow,
		FirstDirectionOnly: c.FirstDirectionOnly,
	}
}

// RenderJSON renders the n best results as an indented JSON array.
// A negative n exports every result.
func RenderJSON(ranked []domain.RankedResult, n int) ([]byte, error) {
	top := metrics.Top(ranked, n)
	entries := make([]ExportEntry, len(top))
	for i, r := range top {
		entries[i] = ExportEntry{
			Rank:         r.Rank,
			ConfigID:     r.ConfigID,
			Config:       NewConfigJSON(r.Config),
			ConfigStr:    r.Config.Label(),
			FinalBalance: r.Result.FinalBalance,
			MinBalance:   r.Result.MinBalance,
			TotalTrades:  r.Result.TotalTrades,
			WinRate:      r.Result.WinRate,
			MaxDrawdown:  r.Result.MaxDrawdown,
			ProfitFactor: r.Result.ProfitFactor,
			GrossWins:    r.Result.GrossWins,
			GrossLosses:  r.Result.GrossLosses,
		}
	}
	return json.MarshalIndent(entries, "", "  ")
}
