package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// ProfitFactor is gross wins over gross losses.
// Infinite is set when there were no losing trades; Value is then meaningless.
type ProfitFactor struct {
	Value    float64
	Infinite bool
}

// NewProfitFactor computes wins/losses, returning the infinite sentinel when
// losses are zero.
func NewProfitFactor(grossWins, grossLosses float64) ProfitFactor {
	if grossLosses == 0 {
		return ProfitFactor{Infinite: true}
	}
	return ProfitFactor{Value: grossWins / grossLosses}
}

// Float returns the factor as a float64, +Inf for the sentinel.
func (p ProfitFactor) Float() float64 {
	if p.Infinite {
		return math.Inf(1)
	}
	return p.Value
}

// String formats the factor with two decimals, "inf" for the sentinel.
func (p ProfitFactor) String() string {
	if p.Infinite {
		return "inf"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON writes null for the infinite sentinel.
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.Infinite {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON reads null as the infinite sentinel.
func (p *ProfitFactor) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ProfitFactor{Infinite: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = ProfitFactor{Value: v}
	return nil
}

// ExecutedTrade is one admitted trade and its effect on the balance.
type ExecutedTrade struct {
	WindowStart   int64
	EntryMinute   int
	Direction     Direction
	Result        Result
	BuyPriceCents int
	Stake         float64
	Profit        float64
	Balance       float64 // running balance after the trade
}

// SimulationResult is the outcome of replaying all windows under one config.
// Created per (windows, config) pair and never modified afterwards.
type SimulationResult struct {
	StartingBalance float64
	FinalBalance    float64
	MinBalance      float64 // lowest balance reached, drawdown proxy

	TotalTrades   int
	Wins          int
	Losses        int
	WinRate       float64
	WindowsTraded int

	GrossWins    float64
	GrossLosses  float64 // absolute value
	ProfitFactor ProfitFactor

	MaxDrawdown          float64 // worst peak-to-trough on the balance path
	MaxConsecutiveLosses int

	Trades []ExecutedTrade
}

// NetProfit returns final minus starting balance.
func (r *SimulationResult) NetProfit() float64 {
	return r.FinalBalance - r.StartingBalance
}
