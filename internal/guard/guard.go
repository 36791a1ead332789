// Package guard centralizes the authorization policy for every mutating
// operation. Rules stay in one place so they are testable in isolation and
// impossible to drift between handlers.
package guard

import (
	"context"

	"healthchain/internal/platform/metrics"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

// Action identifies a guarded mutation.
type Action string

const (
	ActionRequestRegistration Action = "request_registration"
	ActionApproveProvider     Action = "approve_provider"
	ActionGrantAccess         Action = "grant_access"
	ActionRevokeAccess        Action = "revoke_access"
	ActionAddRecord           Action = "add_record"
)

// Params carries the action-specific inputs the policy needs.
type Params struct {
	Patient domain.Identity
}

// RegistryPort exposes the provider registry facts the policy consults.
// Defined here so the guard depends on no domain package.
type RegistryPort interface {
	Exists(ctx context.Context, addr domain.Identity) (bool, error)
	IsApproved(ctx context.Context, addr domain.Identity) (bool, error)
}

// AccessPort exposes the grant state the policy consults.
type AccessPort interface {
	IsGranted(ctx context.Context, patient, provider domain.Identity) (bool, error)
}

// Guard evaluates the authorization policy. The owner identity is fixed at
// construction; no mutator exists, so owner immutability is structural.
type Guard struct {
	owner    domain.Identity
	registry RegistryPort
	access   AccessPort
	metrics  *metrics.Metrics
}

func New(owner domain.Identity, registry RegistryPort, access AccessPort, m *metrics.Metrics) *Guard {
	return &Guard{owner: owner, registry: registry, access: access, metrics: m}
}

// Owner returns the fixed registry owner identity.
func (g *Guard) Owner() domain.Identity { return g.owner }

// Authorize decides whether actor may perform action. Callers invoke it inside
// their transactional boundary, so no state can change between the decision
// and the mutation it gates. A denial names the specific violated rule.
func (g *Guard) Authorize(ctx context.Context, actor domain.Identity, action Action, params Params) error {
	if actor.IsZero() {
		return g.deny(action, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required"))
	}

	switch action {
	case ActionApproveProvider:
		if actor != g.owner {
			return g.deny(action, dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry owner"))
		}
		return nil

	case ActionRequestRegistration:
		exists, err := g.registry.Exists(ctx, actor)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check provider registry")
		}
		if exists {
			return g.deny(action, dErrors.New(dErrors.CodeConflict, "provider already registered for this identity"))
		}
		return nil

	case ActionGrantAccess, ActionRevokeAccess:
		if actor != params.Patient {
			return g.deny(action, dErrors.New(dErrors.CodeUnauthorized, "only the patient may change access to their own records"))
		}
		return nil

	case ActionAddRecord:
		approved, err := g.registry.IsApproved(ctx, actor)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check provider approval")
		}
		if !approved {
			return g.deny(action, dErrors.New(dErrors.CodeForbidden, "caller is not an approved provider"))
		}
		granted, err := g.access.IsGranted(ctx, params.Patient, actor)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check access grant")
		}
		if !granted {
			return g.deny(action, dErrors.New(dErrors.CodeForbidden, "patient has not granted the caller access"))
		}
		return nil

	default:
		return dErrors.New(dErrors.CodeInternal, "unknown action")
	}
}

func (g *Guard) deny(action Action, err error) error {
	g.metrics.IncDenied(string(action))
	return err
}
