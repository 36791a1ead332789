package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"healthchain/pkg/domain"
)

func TestGrantKeyIsInjective(t *testing.T) {
	// Identities may contain ':'; shifting bytes across the separator must
	// never produce the same key.
	pairs := [][2][2]domain.Identity{
		{{"did:a", "b"}, {"did", "a:b"}},
		{{"a", "b:c"}, {"a:b", "c"}},
		{{"x:", "y"}, {"x", ":y"}},
	}
	for _, p := range pairs {
		left := grantKey(p[0][0], p[0][1])
		right := grantKey(p[1][0], p[1][1])
		assert.NotEqual(t, left, right, "(%q,%q) vs (%q,%q)", p[0][0], p[0][1], p[1][0], p[1][1])
	}

	assert.Equal(t,
		grantKey("patient-1", "dr-jones"),
		grantKey("patient-1", "dr-jones"),
	)
}
