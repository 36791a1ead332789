package access

import (
	"context"
	"sync"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[domain.Identity]map[domain.Identity]*Grant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[domain.Identity]map[domain.Identity]*Grant)}
}

func (s *InMemoryStore) Set(_ context.Context, grant *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byProvider, ok := s.grants[grant.Patient]
	if !ok {
		byProvider = make(map[domain.Identity]*Grant)
		s.grants[grant.Patient] = byProvider
	}
	row := *grant
	byProvider[grant.Provider] = &row
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, patient, provider domain.Identity) (*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.grants[patient][provider]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (s *InMemoryStore) ListByPatient(_ context.Context, patient domain.Identity) ([]*Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Grant
	for _, row := range s.grants[patient] {
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}
