// Package configspace enumerates the sweep configuration space.
package configspace

import (
	"errors"
	"fmt"

	"window-config-lab/internal/domain"
)

// Grid validation errors.
var (
	ErrEmptyDimension     = errors.New("grid dimension has no values")
	ErrDuplicateValue     = errors.New("grid dimension has duplicate values")
	ErrInvalidMinuteRange = errors.New("invalid grid minute domain")
	ErrInvalidValue       = errors.New("invalid grid value")
)

// Grid lists the values tried for each configuration dimension.
// Minute ranges are every [lo, hi] with MinuteFirst <= lo <= hi <= MinuteLast.
// A nil entry in a cap dimension means "no limit".
type Grid struct {
	MinuteFirst int
	MinuteLast  int

	PositionPcts       []float64
	MaxBuyPrices       []*int
	StopOnFlip         []bool
	MaxLosses          []*int
	MaxTrades          []*int
	FirstDirectionOnly []bool
}

// DefaultGrid returns the grid searched by a standard sweep.
func DefaultGrid() Grid {
	return Grid{
		MinuteFirst:  domain.FirstEntryMinute,
		MinuteLast:   domain.LastEntryMinute,
		PositionPcts: []float64{0.005, 0.01, 0.02},
		MaxBuyPrices: []*int{
			nil,
			domain.IntPtr(50), domain.IntPtr(55), domain.IntPtr(60), domain.IntPtr(65),
			domain.IntPtr(70), domain.IntPtr(75), domain.IntPtr(80),
		},
		StopOnFlip: []bool{true, false},
		MaxLosses:  []*int{nil, domain.IntPtr(1), domain.IntPtr(2), domain.IntPtr(3)},
		MaxTrades: []*int{
			nil,
			domain.IntPtr(1), domain.IntPtr(2), domain.IntPtr(3), domain.IntPtr(4), domain.IntPtr(5),
		},
		FirstDirectionOnly: []bool{true, false},
	}
}

// Validate checks that every dimension is non-empty, duplicate-free and in bounds.
func (g Grid) Validate() error {
	var errs []error

	if g.MinuteFirst < domain.FirstEntryMinute || g.MinuteLast > domain.LastEntryMinute || g.MinuteFirst > g.MinuteLast {
		errs = append(errs, fmt.Errorf("%w: %d-%d", ErrInvalidMinuteRange, g.MinuteFirst, g.MinuteLast))
	}

	if len(g.PositionPcts) == 0 {
		errs = append(errs, fmt.Errorf("%w: position pct", ErrEmptyDimension))
	}
	seenPct := make(map[float64]bool, len(g.PositionPcts))
	for _, p := range g.PositionPcts {
		if p <= 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%w: position pct %v", ErrInvalidValue, p))
		}
		if seenPct[p] {
			errs = append(errs, fmt.Errorf("%w: position pct %v", ErrDuplicateValue, p))
		}
		seenPct[p] = true
	}

	errs = append(errs, checkCaps("max buy price", g.MaxBuyPrices, domain.MinBuyPriceCents, domain.MaxBuyPriceCents)...)
	errs = append(errs, checkCaps("max losses", g.MaxLosses, 1, -1)...)
	errs = append(errs, checkCaps("max trades", g.MaxTrades, 1, -1)...)
	errs = append(errs, checkBools("stop on flip", g.StopOnFlip)...)
	errs = append(errs, checkBools("first direction only", g.FirstDirectionOnly)...)

	return errors.Join(errs...)
}

// checkCaps validates an optional-int dimension. hi < 0 means unbounded.
func checkCaps(name string, values []*int, lo, hi int) []error {
	var errs []error
	if len(values) == 0 {
		return []error{fmt.Errorf("%w: %s", ErrEmptyDimension, name)}
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		key := capKey(v)
		if seen[key] {
			errs = append(errs, fmt.Errorf("%w: %s %s", ErrDuplicateValue, name, key))
		}
		seen[key] = true
		if v != nil && (*v < lo || (hi >= 0 && *v > hi)) {
			errs = append(errs, fmt.Errorf("%w: %s %d", ErrInvalidValue, name, *v))
		}
	}
	return errs
}

func checkBools(name string, values []bool) []error {
	if len(values) == 0 {
		return []error{fmt.Errorf("%w: %s", ErrEmptyDimension, name)}
	}
	if len(values) > 2 || (len(values) == 2 && values[0] == values[1]) {
		return []error{fmt.Errorf("%w: %s", ErrDuplicateValue, name)}
	}
	return nil
}

func capKey(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprint(*v)
}

// MinuteRanges returns every [lo, hi] pair of the grid's minute domain,
// ordered by lo then hi.
func (g Grid) MinuteRanges() [][2]int {
	var out [][2]int
	for lo := g.MinuteFirst; lo <= g.MinuteLast; lo++ {
		for hi := lo; hi <= g.MinuteLast; hi++ {
			out = append(out, [2]int{lo, hi})
		}
	}
	return out
}
