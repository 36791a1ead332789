package eventlog

import (
	"time"

	"github.com/google/uuid"

	"healthchain/pkg/domain"
)

// Kind names a state transition recorded in the event log.
type Kind string

const (
	KindProviderRequested Kind = "provider_requested"
	KindProviderApproved  Kind = "provider_approved"
	KindAccessGranted     Kind = "access_granted"
	KindAccessRevoked     Kind = "access_revoked"
	KindRecordAdded       Kind = "record_added"
)

// Event is one immutable entry in the append-only history. Events are globally
// ordered by LogIndex, assigned by the store at append time.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Kind      Kind              `json:"kind"`
	Actor     domain.Identity   `json:"actor"`
	Subject   domain.Identity   `json:"subject,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	LogIndex  uint64            `json:"log_index"`
}

// Involves reports whether the identity is the actor or the subject.
func (e Event) Involves(identity domain.Identity) bool {
	return e.Actor == identity || e.Subject == identity
}
