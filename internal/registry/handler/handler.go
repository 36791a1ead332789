package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/registry"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

// Handler exposes the provider registry workflow. Mutations require an
// authenticated caller; the pending list and provider lookups are public.
type Handler struct {
	registry *registry.Service
	logger   *slog.Logger
}

func New(service *registry.Service, logger *slog.Logger) *Handler {
	return &Handler{registry: service, logger: logger}
}

// Register wires registry routes. The passed router already carries the
// caller-auth middleware for the mutation group.
func (h *Handler) Register(r chi.Router, public chi.Router) {
	r.Post("/providers/register", h.handleRequestRegistration)
	r.Post("/providers/{address}/approve", h.handleApprove)
	public.Get("/providers/pending", h.handleListPending)
	public.Get("/providers/{address}", h.handleGet)
}

type registerRequest struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

func (h *Handler) handleRequestRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	provider, err := h.registry.RequestRegistration(ctx, caller, req.Name, req.Specialty)
	if err != nil {
		h.logger.WarnContext(ctx, "registration request rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, provider)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	target, err := domain.ParseIdentity(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	provider, err := h.registry.ApproveProvider(ctx, caller, target)
	if err != nil {
		h.logger.WarnContext(ctx, "provider approval rejected",
			"target", target,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.registry.ListPending(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if pending == nil {
		pending = []*registry.Provider{}
	}
	httputil.WriteJSON(w, http.StatusOK, pending)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseIdentity(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	provider, err := h.registry.Find(r.Context(), addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}
