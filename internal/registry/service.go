package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"healthchain/internal/eventlog"
	"healthchain/internal/guard"
	"healthchain/internal/platform/metrics"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
	"healthchain/pkg/platform/tx"
	"healthchain/pkg/requestcontext"
)

// Service orchestrates the provider registration/approval workflow. Every
// mutation runs inside the serializer for the subject address: authorization,
// state transition, and event append commit together or not at all.
type Service struct {
	providers Store
	events    *eventlog.Service
	guard     *guard.Guard
	runner    tx.Runner
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(providers Store, events *eventlog.Service, g *guard.Guard, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		providers: providers,
		events:    events,
		guard:     g,
		runner:    runner,
		metrics:   m,
		logger:    logger,
	}
}

// RequestRegistration creates a pending provider row for the caller.
// Registration is exactly-once per identity: a second request fails with
// Conflict whether the first is still pending or already approved.
func (s *Service) RequestRegistration(ctx context.Context, caller domain.Identity, name, specialty string) (*Provider, error) {
	name = strings.TrimSpace(name)
	specialty = strings.TrimSpace(specialty)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "provider name must not be empty")
	}

	var provider *Provider
	err := s.runner.RunInTx(ctx, caller.String(), func(ctx context.Context) error {
		if err := s.guard.Authorize(ctx, caller, guard.ActionRequestRegistration, guard.Params{}); err != nil {
			return err
		}
		provider = &Provider{
			Address:     caller,
			Name:        name,
			Specialty:   specialty,
			Requested:   true,
			RequestedAt: requestcontext.Now(ctx),
		}
		// Event first: a failed append rejects the whole operation before any
		// state exists. Registration is the only writer for this address and
		// the guard ruled out an existing row under the same serializer
		// shard, so Create cannot fail here in memory mode; in SQL mode a
		// conflict rolls the event back with it.
		if _, err := s.events.Append(ctx, eventlog.KindProviderRequested, caller, "", map[string]string{
			"name":      name,
			"specialty": specialty,
		}); err != nil {
			return err
		}
		if err := s.providers.Create(ctx, provider); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "provider already registered for this identity")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create provider")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ProvidersRegistered.Inc()
	s.logger.InfoContext(ctx, "provider registration requested",
		"address", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	return provider, nil
}

// ApproveProvider marks a pending registration as approved. Owner-only; the
// approved flag never reverts afterwards.
func (s *Service) ApproveProvider(ctx context.Context, caller, target domain.Identity) (*Provider, error) {
	if target.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "target provider identity must not be empty")
	}

	var provider *Provider
	err := s.runner.RunInTx(ctx, target.String(), func(ctx context.Context) error {
		if err := s.guard.Authorize(ctx, caller, guard.ActionApproveProvider, guard.Params{}); err != nil {
			return err
		}
		// Validate the transition before touching anything so the event is
		// only appended for an approval that will apply. All writers for this
		// address serialize on the same shard, so the state cannot change
		// between this check and Execute below.
		row, err := s.providers.FindByAddress(ctx, target)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no registration request exists for this provider")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up provider")
		}
		if err := row.CanApprove(); err != nil {
			return err
		}
		if _, err := s.events.Append(ctx, eventlog.KindProviderApproved, caller, target, nil); err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		provider, err = s.providers.Execute(ctx, target,
			func(p *Provider) error { return p.CanApprove() },
			func(p *Provider) { p.ApplyApproval(now) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ProvidersApproved.Inc()
	s.logger.InfoContext(ctx, "provider approved",
		"address", target,
		"request_id", requestcontext.RequestID(ctx),
	)
	return provider, nil
}

// ListPending returns all unapproved registration requests, newest first.
// Pure query, no authorization required.
func (s *Service) ListPending(ctx context.Context) ([]*Provider, error) {
	pending, err := s.providers.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending providers")
	}
	return pending, nil
}

// IsApproved reports whether the address belongs to an approved provider.
func (s *Service) IsApproved(ctx context.Context, addr domain.Identity) (bool, error) {
	provider, err := s.providers.FindByAddress(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up provider")
	}
	return provider.Approved, nil
}

// Find returns the provider row for an address, or NotFound.
func (s *Service) Find(ctx context.Context, addr domain.Identity) (*Provider, error) {
	provider, err := s.providers.FindByAddress(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no provider exists for this identity")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up provider")
	}
	return provider, nil
}

// GuardSource adapts a Store to the guard's RegistryPort.
type GuardSource struct {
	store Store
}

func NewGuardSource(store Store) *GuardSource {
	return &GuardSource{store: store}
}

func (g *GuardSource) Exists(ctx context.Context, addr domain.Identity) (bool, error) {
	_, err := g.store.FindByAddress(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *GuardSource) IsApproved(ctx context.Context, addr domain.Identity) (bool, error) {
	provider, err := g.store.FindByAddress(ctx, addr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return provider.Approved, nil
}
