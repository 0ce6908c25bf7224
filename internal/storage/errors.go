package storage

import "errors"

// Storage errors shared by every backend. Trades, runs and results are
// written once and never updated.
var (
	// ErrNotFound is returned when a run or result does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a trade ID, run ID or (run, config)
	// pair is already stored, including duplicates inside one batch.
	ErrDuplicateKey = errors.New("duplicate key: records are write-once")

	// ErrInvalidInput is returned for empty IDs or missing results.
	ErrInvalidInput = errors.New("invalid input")
)
