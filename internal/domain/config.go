package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Entry minute domain of a trading window.
const (
	FirstEntryMinute = 1
	LastEntryMinute  = 13
)

// Config validation errors.
var (
	ErrInvalidMinuteRange = errors.New("invalid entry minute range")
	ErrInvalidPositionPct = errors.New("position pct must be in (0, 1]")
	ErrInvalidPriceCap    = errors.New("max buy price must be in [1, 99]")
	ErrInvalidCap         = errors.New("per-window caps must be positive")
)

// SweepConfig is one point of the configuration space.
// It carries parameters only; all replay state lives in the simulator.
type SweepConfig struct {
	MinMinute int // inclusive
	MaxMinute int // inclusive

	PositionPct float64 // fraction of current balance staked per trade

	// MaxBuyPriceCents skips trades priced above the cap. Nil means no limit.
	MaxBuyPriceCents *int

	// StopOnFlip halts a window once a trade reverses the previous executed direction.
	StopOnFlip bool

	// MaxLossesPerWindow halts a window after this many losses. Nil means no cap.
	// Losses count as soon as the trade is replayed, which a live bot could only
	// know once the window resolves. Results using it are an optimistic bound.
	MaxLossesPerWindow *int

	// MaxTradesPerWindow caps executed trades per window. Nil means no cap.
	MaxTradesPerWindow *int

	// FirstDirectionOnly admits only trades matching the window's first direction.
	FirstDirectionOnly bool
}

// Validate checks parameter bounds.
func (c SweepConfig) Validate() error {
	if c.MinMinute < FirstEntryMinute || c.MaxMinute > LastEntryMinute || c.MinMinute > c.MaxMinute {
		return fmt.Errorf("%w: %d-%d", ErrInvalidMinuteRange, c.MinMinute, c.MaxMinute)
	}
	if c.PositionPct <= 0 || c.PositionPct > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidPositionPct, c.PositionPct)
	}
	if c.MaxBuyPriceCents != nil && (*c.MaxBuyPriceCents < MinBuyPriceCents || *c.MaxBuyPriceCents > MaxBuyPriceCents) {
		return fmt.Errorf("%w: %d", ErrInvalidPriceCap, *c.MaxBuyPriceCents)
	}
	if c.MaxLossesPerWindow != nil && *c.MaxLossesPerWindow <= 0 {
		return fmt.Errorf("%w: max losses %d", ErrInvalidCap, *c.MaxLossesPerWindow)
	}
	if c.MaxTradesPerWindow != nil && *c.MaxTradesPerWindow <= 0 {
		return fmt.Errorf("%w: max trades %d", ErrInvalidCap, *c.MaxTradesPerWindow)
	}
	return nil
}

// Key returns a canonical identity string. Two configs are field-wise equal
// iff their keys are equal.
func (c SweepConfig) Key() string {
	return fmt.Sprintf("m=%d-%d|pct=%s|price=%s|flip=%t|losses=%s|trades=%s|first=%t",
		c.MinMinute, c.MaxMinute,
		strconv.FormatFloat(c.PositionPct, 'g', -1, 64),
		optInt(c.MaxBuyPriceCents),
		c.StopOnFlip,
		optInt(c.MaxLossesPerWindow),
		optInt(c.MaxTradesPerWindow),
		c.FirstDirectionOnly,
	)
}

// Label renders the config for humans, e.g. "M1-3 | 2.0% | MaxPrice<=55c | StopOnFlip".
func (c SweepConfig) Label() string {
	parts := []string{
		fmt.Sprintf("M%d-%d", c.MinMinute, c.MaxMinute),
		fmt.Sprintf("%.1f%%", c.PositionPct*100),
	}
	if c.MaxBuyPriceCents != nil {
		parts = append(parts, fmt.Sprintf("MaxPrice<=%dc", *c.MaxBuyPriceCents))
	}
	if c.FirstDirectionOnly {
		parts = append(parts, "FirstDirOnly")
	} else if c.StopOnFlip {
		parts = append(parts, "StopOnFlip")
	}
	if c.MaxLossesPerWindow != nil {
		parts = append(parts, fmt.Sprintf("Stop@%dLoss", *c.MaxLossesPerWindow))
	}
	if c.MaxTradesPerWindow != nil {
		parts = append(parts, fmt.Sprintf("Max%dTrades", *c.MaxTradesPerWindow))
	}
	return strings.Join(parts, " | ")
}

// DirectionMode names the flip-handling mode of the config.
func (c SweepConfig) DirectionMode() string {
	switch {
	case c.FirstDirectionOnly:
		return DirectionModeFirstOnly
	case c.StopOnFlip:
		return DirectionModeStopOnFlip
	default:
		return DirectionModeAllowFlips
	}
}

// Direction mode labels.
const (
	DirectionModeAllowFlips = "allow_flips"
	DirectionModeStopOnFlip = "stop_on_flip"
	DirectionModeFirstOnly  = "first_direction_only"
)

// BaselineConfig is the configuration the live bot ran before optimization:
// minutes 2-9, 1% sizing, no filters.
func BaselineConfig() SweepConfig {
	return SweepConfig{
		MinMinute:   2,
		MaxMinute:   9,
		PositionPct: 0.01,
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

func optInt(v *int) string {
	if v == nil {
		return "none"
	}
	return strconv.Itoa(*v)
}
