package access

import (
	"time"

	"healthchain/pkg/domain"
)

// Grant is the per-(patient, provider) access state. Rows are created lazily
// on first grant and never deleted, only toggled; absence of a row is
// equivalent to Active == false.
type Grant struct {
	Patient   domain.Identity `json:"patient"`
	Provider  domain.Identity `json:"provider"`
	Active    bool            `json:"active"`
	ChangedAt time.Time       `json:"changed_at"`
}
