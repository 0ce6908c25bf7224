package memory

import (
	"context"
	"sort"
	"sync"

	"window-config-lab/internal/storage"
)

type storedTrade struct {
	row storage.TradeRow
	seq int
}

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]storedTrade // keyed by trade_id
	seq  int
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]storedTrade),
	}
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, rows []storage.TradeRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(rows))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range rows {
		if r.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.TradeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.TradeID] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range rows {
		s.data[r.TradeID] = storedTrade{row: r, seq: s.seq}
		s.seq++
	}

	return nil
}

// GetAll retrieves every trade ordered by (window_start, entry_minute, insertion order).
func (s *TradeStore) GetAll(_ context.Context) ([]storage.TradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(storage.TradeRow) bool { return true }), nil
}

// GetByWindow retrieves the trades of one window.
func (s *TradeStore) GetByWindow(_ context.Context, windowStart int64) ([]storage.TradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(r storage.TradeRow) bool { return r.Trade.WindowStart == windowStart }), nil
}

// Count returns the number of stored trades.
func (s *TradeStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data), nil
}

// collect must be called with the read lock held.
func (s *TradeStore) collect(keep func(storage.TradeRow) bool) []storage.TradeRow {
	var matched []storedTrade
	for _, st := range s.data {
		if keep(st.row) {
			matched = append(matched, st)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].row.Trade, matched[j].row.Trade
		if a.WindowStart != b.WindowStart {
			return a.WindowStart < b.WindowStart
		}
		if a.EntryMinute != b.EntryMinute {
			return a.EntryMinute < b.EntryMinute
		}
		return matched[i].seq < matched[j].seq
	})

	result := make([]storage.TradeRow, len(matched))
	for i, st := range matched {
		result[i] = st.row
	}
	return result
}

var _ storage.TradeStore = (*TradeStore)(nil)
