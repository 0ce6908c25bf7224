package ingestion

import (
	"context"
	"fmt"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/idhash"
	"window-config-lab/internal/storage"
)

// DefaultBatchSize is the number of rows written per InsertBulk call.
const DefaultBatchSize = 5000

// Rows assigns deterministic trade IDs to trades, preserving order.
func Rows(trades []domain.TradeRecord) []storage.TradeRow {
	ids := idhash.ComputeTradeIDs(trades)
	rows := make([]storage.TradeRow, len(trades))
	for i, t := range trades {
		rows[i] = storage.TradeRow{TradeID: ids[i], Trade: t}
	}
	return rows
}

// Import writes trades to store in batches. Importing the same dataset twice
// fails with storage.ErrDuplicateKey on the first batch.
func Import(ctx context.Context, store storage.TradeStore, trades []domain.TradeRecord, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows := Rows(trades)
	written := 0
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := store.InsertBulk(ctx, rows[start:end]); err != nil {
			return written, fmt.Errorf("insert trades %d-%d: %w", start, end, err)
		}
		written += end - start
	}
	return written, nil
}
