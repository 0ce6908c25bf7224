package metrics

import (
	"fmt"
	"math"
	"sort"

	"window-config-lab/internal/domain"
)

// Dimension is a configuration field results can be grouped by.
type Dimension string

// Grouping dimensions.
const (
	DimMaxBuyPrice   Dimension = "max_buy_price"
	DimPositionPct   Dimension = "position_pct"
	DimMinuteRange   Dimension = "minute_range"
	DimDirectionMode Dimension = "direction_mode"
	DimLossCap       Dimension = "loss_cap"
	DimTradeCap      Dimension = "trade_cap"
)

// Dimensions lists every grouping dimension in report order.
var Dimensions = []Dimension{
	DimDirectionMode,
	DimMaxBuyPrice,
	DimPositionPct,
	DimMinuteRange,
	DimLossCap,
	DimTradeCap,
}

// GroupStat aggregates final balances of all results sharing one dimension value.
type GroupStat struct {
	Dimension Dimension
	Label     string
	Count     int
	Mean      float64
	Max       float64

	// BestConfigID identifies the result that reached Max.
	BestConfigID string

	order float64
}

// GroupBy groups ranked results by one dimension. Groups come back in the
// dimension's natural order, with "no limit" after every numeric cap.
func GroupBy(ranked []domain.RankedResult, dim Dimension) ([]GroupStat, error) {
	keyFn, err := keyFor(dim)
	if err != nil {
		return nil, err
	}

	type acc struct {
		stat GroupStat
		sum  float64
	}
	byLabel := make(map[string]*acc)
	for _, r := range ranked {
		label, order := keyFn(r.Config)
		a, ok := byLabel[label]
		if !ok {
			a = &acc{stat: GroupStat{Dimension: dim, Label: label, Max: math.Inf(-1), order: order}}
			byLabel[label] = a
		}
		bal := r.Result.FinalBalance
		a.stat.Count++
		a.sum += bal
		if bal > a.stat.Max {
			a.stat.Max = bal
			a.stat.BestConfigID = r.ConfigID
		}
	}

	out := make([]GroupStat, 0, len(byLabel))
	for _, a := range byLabel {
		a.stat.Mean = a.sum / float64(a.stat.Count)
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// SortByMax returns a copy of groups ordered by Max descending.
// Ties keep the natural order.
func SortByMax(groups []GroupStat) []GroupStat {
	out := make([]GroupStat, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Max > out[j].Max
	})
	return out
}

type keyFunc func(domain.SweepConfig) (label string, order float64)

func keyFor(dim Dimension) (keyFunc, error) {
	switch dim {
	case DimMaxBuyPrice:
		return func(c domain.SweepConfig) (string, float64) {
			return capLabel(c.MaxBuyPriceCents, "c")
		}, nil
	case DimPositionPct:
		return func(c domain.SweepConfig) (string, float64) {
			return fmt.Sprintf("%.1f%%", c.PositionPct*100), c.PositionPct
		}, nil
	case DimMinuteRange:
		return func(c domain.SweepConfig) (string, float64) {
			return fmt.Sprintf("M%d-%d", c.MinMinute, c.MaxMinute), float64(c.MinMinute*100 + c.MaxMinute)
		}, nil
	case DimDirectionMode:
		return func(c domain.SweepConfig) (string, float64) {
			mode := c.DirectionMode()
			return mode, float64(directionModeOrder[mode])
		}, nil
	case DimLossCap:
		return func(c domain.SweepConfig) (string, float64) {
			return capLabel(c.MaxLossesPerWindow, "")
		}, nil
	case DimTradeCap:
		return func(c domain.SweepConfig) (string, float64) {
			return capLabel(c.MaxTradesPerWindow, "")
		}, nil
	default:
		return nil, fmt.Errorf("unknown dimension %q", dim)
	}
}

var directionModeOrder = map[string]int{
	domain.DirectionModeAllowFlips: 0,
	domain.DirectionModeStopOnFlip: 1,
	domain.DirectionModeFirstOnly:  2,
}

// NoLimitLabel labels the nil value of a cap dimension.
const NoLimitLabel = "no limit"

func capLabel(v *int, unit string) (string, float64) {
	if v == nil {
		return NoLimitLabel, math.Inf(1)
	}
	return fmt.Sprintf("%d%s", *v, unit), float64(*v)
}
