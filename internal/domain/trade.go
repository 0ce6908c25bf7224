package domain

// Direction is the side a trade was placed on.
type Direction string

// Direction constants.
const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Result is the known outcome of a historical trade.
type Result string

// Result constants.
const (
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
)

// Valid reports whether r is one of the known results.
func (r Result) Valid() bool {
	return r == ResultWin || r == ResultLoss
}

// Buy price bounds in cents. A contract pays out 100 cents on a win.
const (
	MinBuyPriceCents = 1
	MaxBuyPriceCents = 99
	PayoutCents      = 100
)

// TradeRecord is one historical trade opportunity with its outcome already known.
// Records are loaded once and never modified.
type TradeRecord struct {
	WindowStart   int64     // window identifier (unix seconds)
	EntryMinute   int       // minute within the window, 1-based
	Direction     Direction // UP | DOWN
	BuyPriceCents int       // 1..99
	Result        Result    // WIN | LOSS

	// Profit recorded by the live bot. Informational only, the simulator
	// recomputes P/L from stake and buy price.
	Profit float64
}

// IsWin reports whether the trade resolved as a win.
func (t TradeRecord) IsWin() bool {
	return t.Result == ResultWin
}
