package ledger

import (
	"context"
	"sync"

	"healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Identity][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Identity][]Record)}
}

func (s *InMemoryStore) Append(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.records[record.Patient]
	if record.Sequence != len(seq) {
		return sentinel.ErrInvalidState
	}
	s.records[record.Patient] = append(seq, *record)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context, patient domain.Identity) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[patient]), nil
}

func (s *InMemoryStore) Page(_ context.Context, patient domain.Identity, offset, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.records[patient]
	if offset >= len(seq) {
		return []Record{}, nil
	}
	end := offset + limit
	if end > len(seq) {
		end = len(seq)
	}
	out := make([]Record, end-offset)
	copy(out, seq[offset:end])
	return out, nil
}

func (s *InMemoryStore) ByIndex(_ context.Context, patient domain.Identity, index int) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.records[patient]
	if index < 0 || index >= len(seq) {
		return nil, sentinel.ErrNotFound
	}
	record := seq[index]
	return &record, nil
}
