// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/specparse"
)

// Handlers holds HTTP handler dependencies
type Handlers struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandlers creates new API handlers
func NewHandlers(svc *service.Service, logger *slog.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, ErrorResponse{Error: msg})
}

// respondFailure maps a pipeline error onto a status code and keeps its kind.
func (h *Handlers) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", GetRequestID(r.Context()), "error", err)
	}
	h.respondJSON(w, status, ErrorResponse{Error: err.Error(), Kind: string(apperr.KindOf(err))})
}

// StatusFor returns the HTTP status for a pipeline error.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindRetrieval, apperr.KindSpecParsing, apperr.KindChunking:
		return http.StatusBadRequest
	case apperr.KindInsufficientInfo:
		return http.StatusUnprocessableEntity
	case apperr.KindConnectivity:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Collection handles GET /v1/collection
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}

// Ingest handles POST /v1/ingest
func (h *Handlers) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	if req.Spec == "" {
		h.respondError(w, http.StatusBadRequest, "spec is required")
		return
	}

	format := specparse.Format(req.Format)
	if format == "" {
		format = specparse.FormatYAML
	}
	if format != specparse.FormatYAML && format != specparse.FormatJSON {
		h.respondError(w, http.StatusBadRequest, "format must be yaml or json")
		return
	}

	report, err := h.svc.IngestData(r.Context(), []byte(req.Spec), format, req.Force)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, report)
}

// Query handles POST /v1/query
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.Query(r.Context(), service.QueryOptions{
		Text:     req.Query,
		TopK:     req.TopK,
		Filters:  req.Filters,
		Validate: req.Validate,
		Strict:   req.Strict,
	})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.respondFailure(w, r, err)
		return
	}
	h.respondError(w, http.StatusBadRequest, "invalid request body")
}
