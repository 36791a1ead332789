package registry

import (
	"time"

	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

// Provider is one row in the provider registry.
//
// Invariants:
//   - one row per address, created on the first registration request, never deleted
//   - Requested becomes true exactly once (a second request is rejected)
//   - Approved transitions false -> true at most once and never reverts
type Provider struct {
	Address     domain.Identity `json:"address"`
	Name        string          `json:"name"`
	Specialty   string          `json:"specialty"`
	Requested   bool            `json:"requested"`
	Approved    bool            `json:"approved"`
	RequestedAt time.Time       `json:"requested_at"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
}

// CanApprove checks whether the approval transition is allowed.
func (p *Provider) CanApprove() error {
	if p.Approved {
		return dErrors.New(dErrors.CodeConflict, "provider is already approved")
	}
	return nil
}

// ApplyApproval transitions the provider to approved. Call CanApprove first.
func (p *Provider) ApplyApproval(now time.Time) {
	p.Approved = true
	p.ApprovedAt = &now
}
