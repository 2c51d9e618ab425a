package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ritzau/orgchart/pkg/model"
)

// MemoryStore keeps filter sets in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]model.FilterSet
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets: make(map[string]model.FilterSet),
		now:  time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, chartID string, opts ListOptions) ([]model.FilterSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.FilterSet, 0)
	for _, set := range s.sets {
		if set.ChartID == chartID && opts.matches(set) {
			result = append(result, cloneSet(set))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.FilterSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[id]
	if !ok {
		return model.FilterSet{}, ErrNotFound
	}
	return cloneSet(set), nil
}

func (s *MemoryStore) Save(_ context.Context, set *model.FilterSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generating filter set id: %w", err)
		}
		set.ID = id
		set.CreatedAt = s.now()
	} else {
		existing, ok := s.sets[set.ID]
		if !ok || existing.ChartID != set.ChartID {
			return ErrNotFound
		}
		set.CreatedAt = existing.CreatedAt
	}

	s.sets[set.ID] = cloneSet(*set)
	log.Debug("saved filter set", "id", set.ID, "chart", set.ChartID, "filters", len(set.Filters))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[id]; !ok {
		return ErrNotFound
	}
	delete(s.sets, id)
	return nil
}

func (s *MemoryStore) Close() {}
