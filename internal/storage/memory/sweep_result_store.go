package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/storage"
)

// SweepResultStore is an in-memory implementation of storage.SweepResultStore.
type SweepResultStore struct {
	mu   sync.RWMutex
	data map[string]domain.RankedResult // keyed by composite key
}

// NewSweepResultStore creates a new in-memory sweep result store.
func NewSweepResultStore() *SweepResultStore {
	return &SweepResultStore{
		data: make(map[string]domain.RankedResult),
	}
}

func resultKey(runID, configID string) string {
	return fmt.Sprintf("%s|%s", runID, configID)
}

// InsertBulk adds the ranked results of one run atomically.
func (s *SweepResultStore) InsertBulk(_ context.Context, runID string, ranked []domain.RankedResult) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(ranked) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(ranked))
	for _, r := range ranked {
		if r.ConfigID == "" || r.Result == nil {
			return storage.ErrInvalidInput
		}
		key := resultKey(runID, r.ConfigID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range ranked {
		s.data[resultKey(runID, r.ConfigID)] = summaryCopy(r)
	}
	return nil
}

// GetTop retrieves the n best results of a run ordered by rank ASC.
func (s *SweepResultStore) GetTop(_ context.Context, runID string, n int) ([]domain.RankedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := runID + "|"
	var result []domain.RankedResult
	for key, r := range s.data {
		if strings.HasPrefix(key, prefix) {
			result = append(result, summaryCopy(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Rank < result[j].Rank
	})
	if n >= 0 && n < len(result) {
		result = result[:n]
	}
	return result, nil
}

// GetByConfigID retrieves one result. Returns ErrNotFound if not exists.
func (s *SweepResultStore) GetByConfigID(_ context.Context, runID, configID string) (*domain.RankedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultKey(runID, configID)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	out := summaryCopy(r)
	return &out, nil
}

// summaryCopy deep-copies r without its executed trades.
func summaryCopy(r domain.RankedResult) domain.RankedResult {
	res := *r.Result
	res.Trades = nil
	r.Result = &res
	r.Config = copyConfig(r.Config)
	return r
}

func copyConfig(c domain.SweepConfig) domain.SweepConfig {
	c.MaxBuyPriceCents = copyInt(c.MaxBuyPriceCents)
	c.MaxLossesPerWindow = copyInt(c.MaxLossesPerWindow)
	c.MaxTradesPerWindow = copyInt(c.MaxTradesPerWindow)
	return c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

var _ storage.SweepResultStore = (*SweepResultStore)(nil)
