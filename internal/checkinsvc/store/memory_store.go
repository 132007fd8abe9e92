package store

import (
	"context"
	"sync"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
)

// MemoryStore keeps records in process memory, in insertion order.
// It is intended for use in tests and dev environments.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Checkin
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(_ context.Context) ([]models.Checkin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Checkin, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, c models.Checkin) (models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, c)
	return c, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p models.CheckinPatch) (models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			p.Apply(&s.records[i])
			return s.records[i], nil
		}
	}
	return models.Checkin{}, ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
