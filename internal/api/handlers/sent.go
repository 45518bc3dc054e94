package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

// defaultRecentLimit caps the sent-notification listing when the client does
// not ask for a specific page size.
const defaultRecentLimit = 25

// maxRecentLimit bounds client-requested page sizes.
const maxRecentLimit = 100

// SentLifecycle is the slice of the lifecycle service the sent handler
// depends on.
type SentLifecycle interface {
	Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error)
	RecentSent(ctx context.Context, limit int) ([]*types.NotificationRecord, error)
	UpdateStatus(ctx context.Context, id string, status types.NotificationStatus) error
	RecordException(ctx context.Context, id string, errorMessage string) error
	RecordWarning(ctx context.Context, id string, warningMessage string) error
	ReportOutcomes(ctx context.Context, id string, succeeded, failed, throttled int) error
}

// DeliveryMetrics records delivery outcome telemetry. Implemented by
// metrics.CloudWatchOutcomeMetrics; emission is best-effort.
type DeliveryMetrics interface {
	RecordOutcomes(ctx context.Context, succeeded, failed, throttled int)
}

// UpdateStatusRequest is the body for the worker status callback.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReportOutcomesRequest is the body for the worker outcome batch callback.
type ReportOutcomesRequest struct {
	Succeeded int `json:"succeeded" validate:"min=0"`
	Failed    int `json:"failed" validate:"min=0"`
	Throttled int `json:"throttled" validate:"min=0"`
}

// RecordMessageRequest is the body for the worker error and warning
// callbacks.
type RecordMessageRequest struct {
	Message string `json:"message" validate:"required,max=8000"`
}

// SentHandler serves sent-notification reads and the callbacks delivery
// workers use to report progress.
type SentHandler struct {
	lifecycle SentLifecycle
	metrics   DeliveryMetrics
	validator *core.Validator
	logger    *slog.Logger
}

// NewSentHandler creates a SentHandler with the provided dependencies.
func NewSentHandler(lifecycle SentLifecycle, metrics DeliveryMetrics, v *core.Validator, l *slog.Logger) *SentHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SentHandler{
		lifecycle: lifecycle,
		metrics:   metrics,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts sent-notification routes on the provided chi.Router.
func (h *SentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sent", func(r chi.Router) {
		r.Get("/", h.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/status", h.UpdateStatus)
			r.Post("/outcomes", h.ReportOutcomes)
			r.Post("/error", h.RecordError)
			r.Post("/warning", h.RecordWarning)
		})
	})
}

// List handles GET /v1/sent, returning the most recent sends newest first.
func (h *SentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > maxRecentLimit {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidField,
				"limit must be a number between 1 and 100",
				nil,
			))
			return
		}
		limit = parsed
	}

	records, err := h.lifecycle.RecentSent(r.Context(), limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if records == nil {
		records = []*types.NotificationRecord{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}

// Get handles GET /v1/sent/{id}.
func (h *SentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	n, err := h.lifecycle.Get(r.Context(), types.PartitionSent, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if n == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: n})
}

// UpdateStatus handles POST /v1/sent/{id}/status. An unknown notification id
// is accepted and ignored so worker retries stay idempotent.
func (h *SentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	status := types.NotificationStatus(req.Status)
	if !status.Valid() {
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidStatus,
			"unknown notification status",
			nil,
			map[string]any{"status": req.Status},
		))
		return
	}

	if err := h.lifecycle.UpdateStatus(r.Context(), id, status); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReportOutcomes handles POST /v1/sent/{id}/outcomes: a batch of
// per-recipient delivery results. Counters are incremented atomically, and
// the batch is mirrored to delivery metrics.
func (h *SentHandler) ReportOutcomes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReportOutcomesRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.lifecycle.ReportOutcomes(r.Context(), id, req.Succeeded, req.Failed, req.Throttled); err != nil {
		core.Error(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOutcomes(r.Context(), req.Succeeded, req.Failed, req.Throttled)
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordError handles POST /v1/sent/{id}/error: appends to the error log,
// forces the status to Failed, and stamps the completion date.
func (h *SentHandler) RecordError(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordMessageRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.lifecycle.RecordException(r.Context(), id, req.Message); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordWarning handles POST /v1/sent/{id}/warning: appends to the warning
// log without touching status.
func (h *SentHandler) RecordWarning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordMessageRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.lifecycle.RecordWarning(r.Context(), id, req.Message); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
