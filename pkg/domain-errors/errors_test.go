package domainerrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "healthchain/pkg/domain-errors"
)

func TestHasCode(t *testing.T) {
	err := dErrors.New(dErrors.CodeConflict, "provider already registered for this identity")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.False(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.False(t, dErrors.HasCode(errors.New("plain"), dErrors.CodeConflict))
	assert.False(t, dErrors.HasCode(nil, dErrors.CodeConflict))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(cause, dErrors.CodeUnavailable, "event store unreachable")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Contains(t, err.Error(), "event store unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	inner := dErrors.New(dErrors.CodeForbidden, "caller is not an approved provider")
	outer := fmt.Errorf("add record: %w", inner)

	assert.True(t, dErrors.HasCode(outer, dErrors.CodeForbidden))
	assert.Equal(t, "caller is not an approved provider", dErrors.RuleOf(outer))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeInvalidInput: http.StatusBadRequest,
		dErrors.CodeUnauthorized: http.StatusUnauthorized,
		dErrors.CodeForbidden:    http.StatusForbidden,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeUnavailable:  http.StatusServiceUnavailable,
		dErrors.CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, dErrors.ToHTTPStatus(code), "code %s", code)
	}
}
