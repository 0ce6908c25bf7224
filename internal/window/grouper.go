// Package window groups trade records into trading windows.
package window

import (
	"sort"

	"window-config-lab/internal/domain"
)

// Window is one trading window: its identifier and its trades ordered by entry minute.
type Window struct {
	Start  int64
	Trades []domain.TradeRecord
}

// Windows is an immutable mapping from window start to the window's ordered trades.
// It is built once and shared read-only by every simulation of a sweep.
type Windows struct {
	starts  []int64 // ascending
	byStart map[int64][]domain.TradeRecord
	total   int
}

// Group partitions trades by WindowStart and orders each window by EntryMinute ASC.
// Ties keep input order. Every input record appears exactly once in the output.
func Group(trades []domain.TradeRecord) *Windows {
	byStart := make(map[int64][]domain.TradeRecord)
	for _, t := range trades {
		byStart[t.WindowStart] = append(byStart[t.WindowStart], t)
	}

	starts := make([]int64, 0, len(byStart))
	for start, group := range byStart {
		SortTrades(group)
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	return &Windows{
		starts:  starts,
		byStart: byStart,
		total:   len(trades),
	}
}

// SortTrades orders trades by EntryMinute ASC, keeping input order on ties.
func SortTrades(trades []domain.TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryMinute < trades[j].EntryMinute
	})
}

// Len returns the number of windows.
func (w *Windows) Len() int {
	return len(w.starts)
}

// TradeCount returns the number of trades across all windows.
func (w *Windows) TradeCount() int {
	return w.total
}

// Starts returns window starts in ascending order.
func (w *Windows) Starts() []int64 {
	out := make([]int64, len(w.starts))
	copy(out, w.starts)
	return out
}

// Trades returns a copy of the ordered trades of one window, nil if unknown.
func (w *Windows) Trades(start int64) []domain.TradeRecord {
	group, ok := w.byStart[start]
	if !ok {
		return nil
	}
	out := make([]domain.TradeRecord, len(group))
	copy(out, group)
	return out
}

// Each calls fn for every window in ascending start order.
// The trades slice is shared: fn must not modify it.
func (w *Windows) Each(fn func(start int64, trades []domain.TradeRecord)) {
	for _, start := range w.starts {
		fn(start, w.byStart[start])
	}
}

// All returns a copy of every window in ascending start order.
func (w *Windows) All() []Window {
	out := make([]Window, 0, len(w.starts))
	for _, start := range w.starts {
		out = append(out, Window{Start: start, Trades: w.Trades(start)})
	}
	return out
}
