package eventlog

import (
	"context"
	"sync"

	"healthchain/pkg/domain"
)

// InMemoryStore keeps the event history and its identity index in memory.
// The byIdentity index is updated on every append so activity queries never
// scan the full history.
type InMemoryStore struct {
	mu         sync.RWMutex
	events     []Event
	byIdentity map[domain.Identity][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byIdentity: make(map[domain.Identity][]int)}
}

func (s *InMemoryStore) Append(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.LogIndex = uint64(len(s.events))
	pos := len(s.events)
	s.events = append(s.events, *event)

	s.byIdentity[event.Actor] = append(s.byIdentity[event.Actor], pos)
	if !event.Subject.IsZero() && event.Subject != event.Actor {
		s.byIdentity[event.Subject] = append(s.byIdentity[event.Subject], pos)
	}
	return nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identity domain.Identity) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byIdentity[identity]
	out := make([]Event, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.events[pos])
	}
	return out, nil
}
