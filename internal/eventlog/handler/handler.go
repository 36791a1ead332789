package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/eventlog"
	"healthchain/pkg/domain"
	"healthchain/pkg/platform/httputil"
)

type Handler struct {
	events *eventlog.Service
	logger *slog.Logger
}

func New(service *eventlog.Service, logger *slog.Logger) *Handler {
	return &Handler{events: service, logger: logger}
}

func (h *Handler) Register(public chi.Router) {
	public.Get("/activity/{identity}", h.handleActivity)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.events.ActivityFor(r.Context(), identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}
