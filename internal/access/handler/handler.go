package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/access"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

type Handler struct {
	access *access.Service
	logger *slog.Logger
}

func New(service *access.Service, logger *slog.Logger) *Handler {
	return &Handler{access: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, public chi.Router) {
	r.Post("/access/grant", h.handleGrant)
	r.Post("/access/revoke", h.handleRevoke)
	public.Get("/access/{patient}/{provider}", h.handleCheck)
	public.Get("/access/{patient}", h.handleList)
}

type toggleRequest struct {
	// Patient is optional; it defaults to the caller. Only the patient
	// may change access to their own records, so a mismatch is rejected
	// by the authorization guard rather than silently ignored.
	Patient  string `json:"patient,omitempty"`
	Provider string `json:"provider"`
}

func (h *Handler) decodeToggle(r *http.Request) (patient, provider domain.Identity, err error) {
	var req toggleRequest
	if decErr := json.NewDecoder(r.Body).Decode(&req); decErr != nil {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "invalid request body")
	}
	provider, err = domain.ParseIdentity(req.Provider)
	if err != nil {
		return "", "", err
	}
	if req.Patient == "" {
		return requestcontext.Caller(r.Context()), provider, nil
	}
	patient, err = domain.ParseIdentity(req.Patient)
	if err != nil {
		return "", "", err
	}
	return patient, provider, nil
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.access.Grant)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.access.Revoke)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, caller, patient, provider domain.Identity) (*access.Grant, error)) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	patient, provider, err := h.decodeToggle(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	grant, err := fn(ctx, caller, patient, provider)
	if err != nil {
		h.logger.WarnContext(ctx, "access change rejected",
			"patient", patient,
			"provider", provider,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	patient, err := domain.ParseIdentity(chi.URLParam(r, "patient"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	provider, err := domain.ParseIdentity(chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	granted, err := h.access.IsGranted(r.Context(), patient, provider)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	patient, err := domain.ParseIdentity(chi.URLParam(r, "patient"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	grants, err := h.access.GrantsFor(r.Context(), patient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if grants == nil {
		grants = []*access.Grant{}
	}
	httputil.WriteJSON(w, http.StatusOK, grants)
}
