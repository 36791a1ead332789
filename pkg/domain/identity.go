package domain

import (
	"strings"

	dErrors "healthchain/pkg/domain-errors"
)

// Identity is an opaque, externally-verified principal string. The core treats
// it as stable and unforgeable; how that is established (wallet signature,
// token issuer) is a boundary concern.
type Identity string

// maxIdentityLen bounds identity strings so store keys stay predictable.
const maxIdentityLen = 128

// ParseIdentity validates an identity string at a trust boundary.
//
// Invariants:
//   - non-empty after trimming
//   - at most 128 bytes
//   - printable ASCII with no whitespace
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity must not be empty")
	}
	if len(s) > maxIdentityLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity exceeds maximum length")
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= 0x20 || s[i] >= 0x7f {
			return "", dErrors.New(dErrors.CodeInvalidInput, "identity contains invalid characters")
		}
	}
	return Identity(s), nil
}

func (i Identity) String() string { return string(i) }

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == "" }
