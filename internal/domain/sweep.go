package domain

// RankedResult is a simulation result tagged with its originating config and
// its position in the ranking (1 = highest final balance).
type RankedResult struct {
	Rank     int
	ConfigID string // idhash.ComputeConfigID(Config)
	Config   SweepConfig
	Result   *SimulationResult
}

// SweepRun describes one execution of the configuration sweep.
// Corresponds to the sweep_runs table.
type SweepRun struct {
	RunID     string // uuid
	CreatedAt int64  // unix ms

	TradeCount      int
	WindowCount     int
	ConfigCount     int // configurations evaluated
	ErrorCount      int // configurations that failed
	StartingBalance float64

	// Best configuration, empty when no configuration produced a result.
	BestConfigID     string
	BestConfigLabel  string
	BestFinalBalance float64

	BaselineFinalBalance float64
}
