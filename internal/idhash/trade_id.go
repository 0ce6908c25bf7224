package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"window-config-lab/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(window_start|entry_minute|direction|ordinal)
// ordinal is the record's position among records sharing the first three
// fields, so repeated entries in the same minute get distinct IDs.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	windowStart int64,
	entryMinute int,
	direction domain.Direction,
	ordinal int,
) string {
	data := fmt.Sprintf("%d|%d|%s|%d",
		windowStart,
		entryMinute,
		string(direction),
		ordinal,
	)

	return hashHex(data)
}

func hashHex(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
