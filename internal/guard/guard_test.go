package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

const (
	owner    = domain.Identity("owner-1")
	patient  = domain.Identity("patient-1")
	provider = domain.Identity("provider-1")
	stranger = domain.Identity("stranger-1")
)

type fakeRegistry struct {
	registered map[domain.Identity]bool
	approved   map[domain.Identity]bool
}

func (f *fakeRegistry) Exists(_ context.Context, addr domain.Identity) (bool, error) {
	return f.registered[addr], nil
}

func (f *fakeRegistry) IsApproved(_ context.Context, addr domain.Identity) (bool, error) {
	return f.approved[addr], nil
}

type fakeAccess struct {
	grants map[domain.Identity]map[domain.Identity]bool
}

func (f *fakeAccess) IsGranted(_ context.Context, p, prov domain.Identity) (bool, error) {
	return f.grants[p][prov], nil
}

func newTestGuard(reg *fakeRegistry, acl *fakeAccess) *Guard {
	if reg == nil {
		reg = &fakeRegistry{}
	}
	if acl == nil {
		acl = &fakeAccess{}
	}
	return New(owner, reg, acl, nil)
}

func TestAuthorizeApproveProvider(t *testing.T) {
	g := newTestGuard(nil, nil)

	require.NoError(t, g.Authorize(context.Background(), owner, ActionApproveProvider, Params{}))

	err := g.Authorize(context.Background(), stranger, ActionApproveProvider, Params{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "caller is not the registry owner", dErrors.RuleOf(err))
}

func TestAuthorizeRequestRegistration(t *testing.T) {
	reg := &fakeRegistry{registered: map[domain.Identity]bool{provider: true}}
	g := newTestGuard(reg, nil)

	require.NoError(t, g.Authorize(context.Background(), stranger, ActionRequestRegistration, Params{}))

	err := g.Authorize(context.Background(), provider, ActionRequestRegistration, Params{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAuthorizeAccessChanges(t *testing.T) {
	g := newTestGuard(nil, nil)

	for _, action := range []Action{ActionGrantAccess, ActionRevokeAccess} {
		require.NoError(t, g.Authorize(context.Background(), patient, action, Params{Patient: patient}))

		err := g.Authorize(context.Background(), stranger, action, Params{Patient: patient})
		require.Error(t, err, "action %s", action)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Equal(t, "only the patient may change access to their own records", dErrors.RuleOf(err))
	}

	// The owner holds no special power over patient grants.
	err := g.Authorize(context.Background(), owner, ActionGrantAccess, Params{Patient: patient})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthorizeAddRecord(t *testing.T) {
	tests := []struct {
		name     string
		approved bool
		granted  bool
		wantRule string
	}{
		{name: "approved and granted", approved: true, granted: true},
		{name: "not approved", approved: false, granted: true, wantRule: "caller is not an approved provider"},
		{name: "approved but not granted", approved: true, granted: false, wantRule: "patient has not granted the caller access"},
		{name: "neither", approved: false, granted: false, wantRule: "caller is not an approved provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &fakeRegistry{
				registered: map[domain.Identity]bool{provider: true},
				approved:   map[domain.Identity]bool{provider: tt.approved},
			}
			acl := &fakeAccess{grants: map[domain.Identity]map[domain.Identity]bool{}}
			if tt.granted {
				acl.grants[patient] = map[domain.Identity]bool{provider: true}
			}
			g := newTestGuard(reg, acl)

			err := g.Authorize(context.Background(), provider, ActionAddRecord, Params{Patient: patient})
			if tt.wantRule == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
			assert.Equal(t, tt.wantRule, dErrors.RuleOf(err))
		})
	}
}

func TestAuthorizeRejectsAnonymousCaller(t *testing.T) {
	g := newTestGuard(nil, nil)

	err := g.Authorize(context.Background(), "", ActionAddRecord, Params{Patient: patient})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
