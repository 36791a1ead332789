package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"healthchain/internal/ledger"
	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/httputil"
	"healthchain/pkg/requestcontext"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

func New(service *ledger.Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, public chi.Router) {
	r.Post("/records", h.handleAddRecord)
	public.Get("/patients/{patient}/records", h.handleListRecords)
	public.Get("/patients/{patient}/records/count", h.handleRecordCount)
	public.Get("/patients/{patient}/records/{index}", h.handleGetRecord)
}

type addRecordRequest struct {
	Patient     string `json:"patient"`
	Description string `json:"description"`
	ContentHash string `json:"content_hash"`
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req addRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	patient, err := domain.ParseIdentity(req.Patient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.ledger.AddRecord(ctx, caller, patient, req.Description, req.ContentHash)
	if err != nil {
		h.logger.WarnContext(ctx, "record append rejected",
			"patient", patient,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	patient, err := domain.ParseIdentity(chi.URLParam(r, "patient"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", defaultPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	records, err := h.ledger.Records(r.Context(), patient, page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleRecordCount(w http.ResponseWriter, r *http.Request) {
	patient, err := domain.ParseIdentity(chi.URLParam(r, "patient"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	count, err := h.ledger.RecordCount(r.Context(), patient)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	patient, err := domain.ParseIdentity(chi.URLParam(r, "patient"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "record index must be a non-negative integer"))
		return
	}

	record, err := h.ledger.Record(r.Context(), patient, index)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be an integer")
	}
	return v, nil
}
