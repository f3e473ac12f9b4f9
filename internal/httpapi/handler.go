// Package httpapi serves the operation catalog and runner as a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jamesprial/gqlops/internal/catalog"
	"github.com/jamesprial/gqlops/internal/runner"
	"github.com/jamesprial/gqlops/internal/safety"
	"github.com/jamesprial/gqlops/internal/tools"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies accepted by POST handlers.
const maxBodyBytes = 1 << 20

// Handler exposes catalog listing and invocation over HTTP.
type Handler struct {
	runner *runner.Runner
	filter *safety.Filter
	audit  *safety.AuditLogger
	logger *zap.Logger
}

// NewHandler returns a Handler. filter and audit may be nil; a nil logger
// discards log output.
func NewHandler(r *runner.Runner, filter *safety.Filter, audit *safety.AuditLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: r, filter: filter, audit: audit, logger: logger}
}

// Register mounts the API routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/operations", h.ListOperations).Methods(http.MethodGet)
	api.HandleFunc("/operations/{name}", h.GetOperation).Methods(http.MethodGet)
	api.HandleFunc("/operations/{name}", h.RunOperation).Methods(http.MethodPost)
}

// Router returns a new router with the API routes mounted.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	h.Register(router)
	return router
}

// Health reports liveness and the number of exposed operations.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"operations": len(h.operations()),
	})
}

// ListOperations returns every exposed operation.
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.operations())
}

// GetOperation returns one operation with its parameters.
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	op, err := h.lookup(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, failure(name, err))
		return
	}
	writeJSON(w, http.StatusOK, op)
}

// RunOperation invokes an operation with a form-encoded or JSON object body.
func (h *Handler) RunOperation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	name := mux.Vars(r)["name"]

	op, err := h.lookup(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, failure(name, err))
		return
	}

	form, err := readForm(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failure(name, err))
		return
	}

	payload, err := h.runner.Run(r.Context(), name, form)
	if err != nil {
		tools.LogAudit(h.audit, requestID, name, op.Kind, form, "error: "+err.Error(), start)
		status := statusFor(err)
		h.logger.Debug("http operation failed",
			zap.String("request_id", requestID),
			zap.String("operation", name),
			zap.Int("status", status),
			zap.Error(err))
		writeJSON(w, status, failure(name, err))
		return
	}

	tools.LogAudit(h.audit, requestID, name, op.Kind, form, "ok", start)
	writeJSON(w, http.StatusOK, map[string]any{
		"title":   name,
		"ok":      true,
		"payload": payload,
	})
}

func (h *Handler) operations() []catalog.Operation {
	return h.filter.Select(h.runner.Catalog().List())
}

// lookup hides operations the filter denies behind ErrUnknownOperation.
func (h *Handler) lookup(name string) (catalog.Operation, error) {
	if !h.filter.IsAllowed(name) {
		return catalog.Operation{}, fmt.Errorf("%w: %s", catalog.ErrUnknownOperation, name)
	}
	return h.runner.Catalog().Get(name)
}

func readForm(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		form := map[string]any{}
		if err := dec.Decode(&form); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return form, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		return runner.FormValues(r.MultipartForm.Value), nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return runner.FormValues(r.PostForm), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrMissingValue):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func failure(name string, err error) map[string]any {
	return map[string]any{
		"title": name,
		"ok":    false,
		"error": err.Error(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
