package memory

import (
	"context"
	"sort"
	"sync"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/storage"
)

// SweepRunStore is an in-memory implementation of storage.SweepRunStore.
type SweepRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SweepRun // keyed by run_id
}

// NewSweepRunStore creates a new in-memory sweep run store.
func NewSweepRunStore() *SweepRunStore {
	return &SweepRunStore{
		data: make(map[string]*domain.SweepRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *SweepRunStore) Insert(_ context.Context, run *domain.SweepRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	runCopy := *run
	s.data[run.RunID] = &runCopy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *SweepRunStore) GetByID(_ context.Context, runID string) (*domain.SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	runCopy := *run
	return &runCopy, nil
}

// GetAll retrieves all runs ordered by created_at ASC, run_id ASC.
func (s *SweepRunStore) GetAll(_ context.Context) ([]*domain.SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SweepRun, 0, len(s.data))
	for _, run := range s.data {
		runCopy := *run
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

var _ storage.SweepRunStore = (*SweepRunStore)(nil)
