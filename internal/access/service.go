package access

import (
	"context"
	"errors"
	"log/slog"

	"healthchain/internal/eventlog"
	"healthchain/internal/guard"
	"healthchain/internal/platform/metrics"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/platform/tx"
	"healthchain/pkg/requestcontext"
)

// Service applies patient-controlled grant state. Mutations serialize on the
// patient identity so grant/revoke for one patient are linearized with their
// record writes.
type Service struct {
	grants  Store
	events  *eventlog.Service
	guard   *guard.Guard
	runner  tx.Runner
	cache   GrantCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(grants Store, events *eventlog.Service, g *guard.Guard, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		grants:  grants,
		events:  events,
		guard:   g,
		runner:  runner,
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

// WithCache attaches a read-path cache for IsGranted.
func WithCache(cache GrantCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// Grant activates access for (patient, provider). Self-service only: the
// caller must be the patient. Granting an already-active pair succeeds with no
// state effect but still emits an event for audit completeness.
func (s *Service) Grant(ctx context.Context, caller, patient, provider domain.Identity) (*Grant, error) {
	return s.toggle(ctx, caller, patient, provider, true)
}

// Revoke deactivates access for (patient, provider). Revoking a never-granted
// or already-inactive pair is a successful no-op that still emits an event.
func (s *Service) Revoke(ctx context.Context, caller, patient, provider domain.Identity) (*Grant, error) {
	return s.toggle(ctx, caller, patient, provider, false)
}

func (s *Service) toggle(ctx context.Context, caller, patient, provider domain.Identity, active bool) (*Grant, error) {
	if provider.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "provider identity must not be empty")
	}
	if patient.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "patient identity must not be empty")
	}

	action := guard.ActionGrantAccess
	kind := eventlog.KindAccessGranted
	if !active {
		action = guard.ActionRevokeAccess
		kind = eventlog.KindAccessRevoked
	}

	var grant *Grant
	err := s.runner.RunInTx(ctx, patient.String(), func(ctx context.Context) error {
		if err := s.guard.Authorize(ctx, caller, action, guard.Params{Patient: patient}); err != nil {
			return err
		}
		grant = &Grant{
			Patient:   patient,
			Provider:  provider,
			Active:    active,
			ChangedAt: requestcontext.Now(ctx),
		}
		// Event first: the grant upsert is infallible in memory mode, and in
		// SQL mode both ride the same transaction, so a failed append leaves
		// no state behind.
		if _, err := s.events.Append(ctx, kind, caller, provider, nil); err != nil {
			return err
		}
		if err := s.grants.Set(ctx, grant); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist access grant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Invalidate only after the transaction committed; dropping the entry
	// earlier lets a concurrent read repopulate the pre-mutation value and
	// serve it until the TTL expires.
	if s.cache != nil {
		s.cache.Invalidate(ctx, patient, provider)
	}

	if active {
		s.metrics.AccessGranted.Inc()
	} else {
		s.metrics.AccessRevoked.Inc()
	}
	s.logger.InfoContext(ctx, "access grant changed",
		"patient", patient,
		"provider", provider,
		"active", active,
		"request_id", requestcontext.RequestID(ctx),
	)
	return grant, nil
}

// IsGranted reports whether the pair has an active grant. Absence of a row is
// equivalent to inactive. Pure query; served through the cache when attached.
func (s *Service) IsGranted(ctx context.Context, patient, provider domain.Identity) (bool, error) {
	if s.cache != nil {
		if active, ok := s.cache.Lookup(ctx, patient, provider); ok {
			return active, nil
		}
	}
	grant, err := s.grants.Get(ctx, patient, provider)
	if errors.Is(err, sentinel.ErrNotFound) {
		if s.cache != nil {
			s.cache.Store(ctx, patient, provider, false)
		}
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up access grant")
	}
	if s.cache != nil {
		s.cache.Store(ctx, patient, provider, grant.Active)
	}
	return grant.Active, nil
}

// GrantsFor lists all grant rows for a patient, active or not. Feeds the
// patient dashboard.
func (s *Service) GrantsFor(ctx context.Context, patient domain.Identity) ([]*Grant, error) {
	grants, err := s.grants.ListByPatient(ctx, patient)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list access grants")
	}
	return grants, nil
}

// GuardSource adapts a Store to the guard's AccessPort. The guard reads the
// store directly, never the cache, so authorization decisions always see
// committed state.
type GuardSource struct {
	store Store
}

func NewGuardSource(store Store) *GuardSource {
	return &GuardSource{store: store}
}

func (g *GuardSource) IsGranted(ctx context.Context, patient, provider domain.Identity) (bool, error) {
	grant, err := g.store.Get(ctx, patient, provider)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return grant.Active, nil
}
