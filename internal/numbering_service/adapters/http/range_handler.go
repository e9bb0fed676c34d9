package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
)

// maxRequestBodyBytes bounds create, edit and resync bodies.
const maxRequestBodyBytes = 64 << 10

// RangeService is the subset of app.RangeService the handler needs.
type RangeService interface {
	SaveRange(ctx context.Context, in domain.NumberRangeInput) (*domain.RangeSaveSummary, error)
	ResyncRanges(ctx context.Context, ids []uuid.UUID) ([]*domain.RangeSaveSummary, error)
	ReconcileRange(ctx context.Context, id uuid.UUID) (*domain.ReconciliationReport, error)
	GetRange(ctx context.Context, id uuid.UUID) (*domain.NumberRange, error)
	ListRangeNumbers(ctx context.Context, id uuid.UUID, offset, limit int) (*domain.NumberPage, error)
}

type RangeHandler struct {
	service  RangeService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewRangeHandler(service RangeService, logger *slog.Logger, validate *validator.Validate) *RangeHandler {
	return &RangeHandler{
		service:  service,
		logger:   logger.With("component", "range_handler"),
		validate: validate,
	}
}

// NewRouter mounts the range API under /api/v1. Reads need a valid token; writes also
// need PermissionWrite.
func NewRouter(h *RangeHandler, jwtSecret string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1/number-ranges", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		r.Get("/{rangeID}", h.GetRange)
		r.Get("/{rangeID}/numbers", h.ListRangeNumbers)
		r.Get("/{rangeID}/reconciliation", h.ReconcileRange)

		r.Group(func(r chi.Router) {
			r.Use(RequirePermission(PermissionWrite, logger))
			r.Post("/", h.CreateRange)
			r.Put("/{rangeID}", h.UpdateRange)
			r.Post("/resync", h.ResyncRanges)
		})
	})
	return r
}

func (h *RangeHandler) CreateRange(w http.ResponseWriter, r *http.Request) {
	h.saveRange(w, r, nil, http.StatusCreated)
}

func (h *RangeHandler) UpdateRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.rangeID(w, r)
	if !ok {
		return
	}
	h.saveRange(w, r, &id, http.StatusOK)
}

func (h *RangeHandler) saveRange(w http.ResponseWriter, r *http.Request, id *uuid.UUID, successStatus int) {
	ctx := r.Context()
	var req SaveRangeRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	summary, err := h.service.SaveRange(ctx, req.toInput(id))
	if err != nil {
		h.writeServiceError(w, r, err, "SaveRange")
		return
	}
	writeJSON(w, successStatus, summary)
}

func (h *RangeHandler) ResyncRanges(w http.ResponseWriter, r *http.Request) {
	var req ResyncRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	summaries, err := h.service.ResyncRanges(r.Context(), req.RangeIDs)
	if err != nil {
		h.writeServiceError(w, r, err, "ResyncRanges")
		return
	}
	writeJSON(w, http.StatusOK, ResyncResponseDTO{Ranges: summaries})
}

func (h *RangeHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.rangeID(w, r)
	if !ok {
		return
	}
	rng, err := h.service.GetRange(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "GetRange")
		return
	}
	writeJSON(w, http.StatusOK, rng)
}

func (h *RangeHandler) ListRangeNumbers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.rangeID(w, r)
	if !ok {
		return
	}
	offset, okOffset := queryInt(r, "offset")
	limit, okLimit := queryInt(r, "limit")
	if !okOffset || !okLimit {
		writeError(w, http.StatusBadRequest, "invalid_request", "offset and limit must be non-negative integers")
		return
	}

	page, err := h.service.ListRangeNumbers(r.Context(), id, offset, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "ListRangeNumbers")
		return
	}
	writeJSON(w, http.StatusOK, ListNumbersResponseDTO{
		RangeID: page.RangeID,
		Offset:  page.Offset,
		Limit:   page.Limit,
		Numbers: page.Numbers,
	})
}

func (h *RangeHandler) ReconcileRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.rangeID(w, r)
	if !ok {
		return
	}
	report, err := h.service.ReconcileRange(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "ReconcileRange")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *RangeHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.WarnContext(ctx, "Request body too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return false
		}
		h.logger.WarnContext(ctx, "Failed to decode request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	if err := h.validate.StructCtx(ctx, dst); err != nil {
		h.logger.WarnContext(ctx, "Request validation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid_request", "Validation error: "+err.Error())
		return false
	}
	return true
}

func (h *RangeHandler) rangeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "rangeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "rangeID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter; absent is 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// errorCode maps a service error onto an HTTP status and a stable code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidStart):
		return http.StatusUnprocessableEntity, "invalid_start"
	case errors.Is(err, domain.ErrInvalidEnd):
		return http.StatusUnprocessableEntity, "invalid_end"
	case errors.Is(err, domain.ErrStartAfterEnd):
		return http.StatusUnprocessableEntity, "start_after_end"
	case errors.Is(err, domain.ErrUnknownCountry):
		return http.StatusUnprocessableEntity, "unknown_country"
	case errors.Is(err, domain.ErrExpansionTooLarge):
		return http.StatusUnprocessableEntity, "expansion_too_large"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrRepositoryConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *RangeHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), operation+" failed", "error", err)
		writeError(w, status, code, "Internal server error")
		return
	}
	h.logger.WarnContext(r.Context(), operation+" rejected", "code", code, "error", err)
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseDTO{Error: message, Code: code})
}
