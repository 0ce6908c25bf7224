package configspace

import "window-config-lab/internal/domain"

// Predicate reports whether a configuration should be dropped.
type Predicate func(domain.SweepConfig) bool

// Redundant reports configurations that duplicate another one's behavior:
// with first-direction-only set, stop-on-flip has no additional effect.
func Redundant(c domain.SweepConfig) bool {
	return c.FirstDirectionOnly && c.StopOnFlip
}

// Product returns the full Cartesian product of the grid, unpruned.
// Ordering is deterministic: minute range, sizing, price cap, flip,
// loss cap, trade cap, first direction (last dimension varies fastest).
func Product(g Grid) []domain.SweepConfig {
	ranges := g.MinuteRanges()
	out := make([]domain.SweepConfig, 0, len(ranges)*len(g.PositionPcts)*len(g.MaxBuyPrices)*
		len(g.StopOnFlip)*len(g.MaxLosses)*len(g.MaxTrades)*len(g.FirstDirectionOnly))

	for _, r := range ranges {
		for _, pct := range g.PositionPcts {
			for _, price := range g.MaxBuyPrices {
				for _, flip := range g.StopOnFlip {
					for _, losses := range g.MaxLosses {
						for _, trades := range g.MaxTrades {
							for _, first := range g.FirstDirectionOnly {
								out = append(out, domain.SweepConfig{
									MinMinute:          r[0],
									MaxMinute:          r[1],
									PositionPct:        pct,
									MaxBuyPriceCents:   copyInt(price),
									StopOnFlip:         flip,
									MaxLossesPerWindow: copyInt(losses),
									MaxTradesPerWindow: copyInt(trades),
									FirstDirectionOnly: first,
								})
							}
						}
					}
				}
			}
		}
	}
	return out
}

// Prune returns the configs for which drop is false, preserving order.
func Prune(configs []domain.SweepConfig, drop Predicate) []domain.SweepConfig {
	out := make([]domain.SweepConfig, 0, len(configs))
	for _, c := range configs {
		if !drop(c) {
			out = append(out, c)
		}
	}
	return out
}

// Generate returns the pruned configuration space of g. No two returned
// configs are field-wise equal.
func Generate(g Grid) ([]domain.SweepConfig, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return dedupe(Prune(Product(g), Redundant)), nil
}

// Count returns len(Generate(g)) without materializing the configs.
func Count(g Grid) int {
	modes := 0
	for _, flip := range g.StopOnFlip {
		for _, first := range g.FirstDirectionOnly {
			if !(flip && first) {
				modes++
			}
		}
	}
	return len(g.MinuteRanges()) * len(g.PositionPcts) * len(g.MaxBuyPrices) *
		len(g.MaxLosses) * len(g.MaxTrades) * modes
}

func dedupe(configs []domain.SweepConfig) []domain.SweepConfig {
	seen := make(map[string]struct{}, len(configs))
	out := configs[:0]
	for _, c := range configs {
		k := c.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// copyInt gives each config its own cap pointer so configs never alias grid values.
func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return domain.IntPtr(*v)
}
