package registry

import (
	"context"
	"sync"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// InMemoryStore keeps provider rows in memory. The insertion order slice
// preserves request order so ListPending can return newest-first without
// relying on timestamp resolution.
type InMemoryStore struct {
	mu        sync.RWMutex
	providers map[domain.Identity]*Provider
	order     []domain.Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{providers: make(map[domain.Identity]*Provider)}
}

func (s *InMemoryStore) Create(_ context.Context, provider *Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.providers[provider.Address]; exists {
		return sentinel.ErrAlreadyUsed
	}
	row := *provider
	s.providers[provider.Address] = &row
	s.order = append(s.order, provider.Address)
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr domain.Identity) (*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.providers[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, addr domain.Identity, validate func(*Provider) error, mutate func(*Provider)) (*Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.providers[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(row); err != nil {
		return nil, err
	}
	mutate(row)
	out := *row
	return &out, nil
}

func (s *InMemoryStore) ListPending(_ context.Context) ([]*Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Provider
	for i := len(s.order) - 1; i >= 0; i-- {
		row := s.providers[s.order[i]]
		if !row.Approved {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}
