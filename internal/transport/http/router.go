// Package http assembles the HTTP surface: middleware chain, domain
// handlers, health and metrics endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "healthchain/internal/access/handler"
	eventloghandler "healthchain/internal/eventlog/handler"
	ledgerhandler "healthchain/internal/ledger/handler"
	"healthchain/internal/platform/middleware"
	registryhandler "healthchain/internal/registry/handler"
)

type Handlers struct {
	Registry *registryhandler.Handler
	Access   *accesshandler.Handler
	Ledger   *ledgerhandler.Handler
	Activity *eventloghandler.Handler
}

// New builds the service router. Mutating routes sit behind the caller
// verifier; reads and projections are public.
func New(h Handlers, verifier middleware.CallerVerifier, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireCaller(verifier, logger))
		h.Registry.Register(authed, r)
		h.Access.Register(authed, r)
		h.Ledger.Register(authed, r)
	})
	h.Activity.Register(r)

	return r
}
