package idhash

import "window-config-lab/internal/domain"

// ComputeConfigID computes a deterministic config_id: SHA256 of cfg.Key().
// Field-wise equal configs share an ID across runs and processes.
func ComputeConfigID(cfg domain.SweepConfig) string {
	return hashHex(cfg.Key())
}

// ComputeTradeIDs assigns IDs to trades in input order, numbering records
// that share (window_start, entry_minute, direction) with increasing ordinals.
func ComputeTradeIDs(trades []domain.TradeRecord) []string {
	type slot struct {
		start  int64
		minute int
		dir    domain.Direction
	}
	seen := make(map[slot]int, len(trades))
	ids := make([]string, len(trades))
	for i, t := range trades {
		k := slot{t.WindowStart, t.EntryMinute, t.Direction}
		ids[i] = ComputeTradeID(t.WindowStart, t.EntryMinute, t.Direction, seen[k])
		seen[k]++
	}
	return ids
}
