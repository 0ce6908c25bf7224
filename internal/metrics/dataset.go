package metrics

import (
	"sort"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/window"
)

// MinuteStat is the raw performance of every recorded trade at one entry minute.
type MinuteStat struct {
	Minute  int
	Wins    int
	Total   int
	WinRate float64
	Profit  float64 // sum of recorded TradeRecord.Profit
}

// MinuteStats computes per-minute win rates over the raw dataset, ordered by minute.
func MinuteStats(trades []domain.TradeRecord) []MinuteStat {
	byMinute := make(map[int]*MinuteStat)
	for _, t := range trades {
		s, ok := byMinute[t.EntryMinute]
		if !ok {
			s = &MinuteStat{Minute: t.EntryMinute}
			byMinute[t.EntryMinute] = s
		}
		s.Total++
		if t.IsWin() {
			s.Wins++
		}
		s.Profit += t.Profit
	}

	out := make([]MinuteStat, 0, len(byMinute))
	for _, s := range byMinute {
		s.WinRate = computeWinRate(s.Wins, s.Total)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Minute < out[j].Minute })
	return out
}

// FlipWindow is a window whose raw direction sequence reverses.
type FlipWindow struct {
	Start int64
	// FlipIndex is the position of the first trade whose direction differs
	// from its predecessor.
	FlipIndex int
	Trades    []domain.TradeRecord
}

// FlipWindows lists windows containing a direction reversal, in start order.
func FlipWindows(windows *window.Windows) []FlipWindow {
	var out []FlipWindow
	windows.Each(func(start int64, trades []domain.TradeRecord) {
		for i := 1; i < len(trades); i++ {
			if trades[i].Direction != trades[i-1].Direction {
				out = append(out, FlipWindow{Start: start, FlipIndex: i, Trades: windows.Trades(start)})
				return
			}
		}
	})
	return out
}

// CountFlipWindows returns the number of windows containing a direction reversal.
func CountFlipWindows(windows *window.Windows) int {
	n := 0
	windows.Each(func(_ int64, trades []domain.TradeRecord) {
		for i := 1; i < len(trades); i++ {
			if trades[i].Direction != trades[i-1].Direction {
				n++
				return
			}
		}
	})
	return n
}
