package eventlog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"healthchain/internal/platform/metrics"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/requestcontext"
)

// Sink receives committed events for downstream fan-out. Publishing is
// best-effort: the store is the source of truth, the sink is observability.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Service owns the append-only event history and its derived views.
// Append is internal to the core: domain services call it exactly once per
// successful mutation, inside the mutation's transactional boundary.
type Service struct {
	store   Store
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stamps and persists one event. The caller must already hold the
// serializer for the identity being mutated and must order the append before
// its own state write, so an append failure rejects the mutation outright.
func (s *Service) Append(ctx context.Context, kind Kind, actor, subject domain.Identity, payload map[string]string) (*Event, error) {
	event := &Event{
		ID:        uuid.New(),
		Kind:      kind,
		Actor:     actor,
		Subject:   subject,
		Payload:   payload,
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.store.Append(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append event")
	}
	if s.metrics != nil {
		s.metrics.EventsAppended.Inc()
	}
	if s.sink != nil {
		s.sink.Publish(ctx, *event)
	}
	return event, nil
}

// ActivityFor returns all events where the identity is actor or subject,
// most recent first. Ties on timestamp resolve to the later emission.
func (s *Service) ActivityFor(ctx context.Context, identity domain.Identity) ([]Event, error) {
	events, err := s.store.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load activity")
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].LogIndex > events[j].LogIndex
	})
	return events, nil
}
