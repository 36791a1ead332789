package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthchain/internal/eventlog"
	"healthchain/internal/guard"
	"healthchain/internal/platform/metrics"
	"healthchain/internal/registry"
	"healthchain/pkg/domain"
	"healthchain/pkg/platform/tx"
	"healthchain/pkg/requestcontext"
)

const testOwner = domain.Identity("registry-owner")

type noGrants struct{}

func (noGrants) IsGranted(context.Context, domain.Identity, domain.Identity) (bool, error) {
	return false, nil
}

func newTestRouter(t *testing.T) (chi.Router, *registry.Service) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())
	store := registry.NewInMemoryStore()
	events := eventlog.NewService(eventlog.NewInMemoryStore(), eventlog.WithLogger(log))
	g := guard.New(testOwner, registry.NewGuardSource(store), noGrants{}, m)
	svc := registry.NewService(store, events, g, tx.NewSerializer(), m, log)

	r := chi.NewRouter()
	New(svc, log).Register(r, r)
	return r, svc
}

func doJSON(t *testing.T, r chi.Router, caller domain.Identity, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if !caller.IsZero() {
		req = req.WithContext(requestcontext.WithCaller(req.Context(), caller))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterProviderEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "dr-jones", http.MethodPost, "/providers/register",
		`{"name":"Dr. Jones","specialty":"cardiology"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var provider registry.Provider
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &provider))
	assert.Equal(t, domain.Identity("dr-jones"), provider.Address)
	assert.False(t, provider.Approved)

	// Duplicate registration maps to 409.
	rec = doJSON(t, r, "dr-jones", http.MethodPost, "/providers/register",
		`{"name":"Dr. Jones"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body["error"])
	assert.Equal(t, "provider already registered for this identity", body["rule"])
}

func TestRegisterProviderRejectsBadBody(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "dr-jones", http.MethodPost, "/providers/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveProviderEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "dr-jones", http.MethodPost, "/providers/register", `{"name":"Dr. Jones"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Non-owner approval maps to 401.
	rec = doJSON(t, r, "stranger", http.MethodPost, "/providers/dr-jones/approve", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, testOwner, http.MethodPost, "/providers/dr-jones/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var provider registry.Provider
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &provider))
	assert.True(t, provider.Approved)

	// Unknown target maps to 404.
	rec = doJSON(t, r, testOwner, http.MethodPost, "/providers/ghost/approve", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPendingAndLookupEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, "", http.MethodGet, "/providers/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, r, "dr-jones", http.MethodPost, "/providers/register", `{"name":"Dr. Jones"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, "", http.MethodGet, "/providers/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []registry.Provider
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending, 1)

	rec = doJSON(t, r, "", http.MethodGet, "/providers/dr-jones", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, "", http.MethodGet, "/providers/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
