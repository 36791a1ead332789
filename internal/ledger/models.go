package ledger

import (
	"time"

	"healthchain/pkg/domain"
)

// Record is one immutable, sequenced ledger entry. The payload itself lives in
// an external content-addressed store; the ledger keeps only the opaque
// reference string.
//
// Sequence is strictly increasing per patient starting at 0; insertion order
// is the total order. No update or delete operation exists anywhere.
type Record struct {
	Patient     domain.Identity `json:"patient"`
	Sequence    int             `json:"sequence"`
	Description string          `json:"description"`
	ContentHash string          `json:"content_hash"`
	UploadedBy  domain.Identity `json:"uploaded_by"`
	Timestamp   time.Time       `json:"timestamp"`
}
