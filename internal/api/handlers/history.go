package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

// HistoryLifecycle exposes the audience-filtered history query.
type HistoryLifecycle interface {
	VisibleSentNotifications(ctx context.Context, groupIDs []string) ([]*types.NotificationRecord, error)
}

// GroupResolver supplies the caller's group memberships from the directory
// service. Implemented by directory.Client.
type GroupResolver interface {
	UserGroups(ctx context.Context, userID string) ([]string, error)
}

// HistoryHandler serves the end-user history view: sent notifications whose
// audience includes the caller.
type HistoryHandler struct {
	lifecycle HistoryLifecycle
	resolver  GroupResolver
	logger    *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler with the provided dependencies.
func NewHistoryHandler(lifecycle HistoryLifecycle, resolver GroupResolver, l *slog.Logger) *HistoryHandler {
	if l == nil {
		l = slog.Default()
	}
	return &HistoryHandler{
		lifecycle: lifecycle,
		resolver:  resolver,
		logger:    l,
	}
}

// RegisterRoutes mounts history routes on the provided chi.Router.
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.List)
}

// List handles GET /v1/history. The caller's group set comes from the
// directory service; a directory outage fails the request rather than
// silently narrowing the visible history to broadcasts only.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requireIdentity(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	groups, err := h.resolver.UserGroups(r.Context(), userID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "group membership lookup failed",
			"user_id", userID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	records, err := h.lifecycle.VisibleSentNotifications(r.Context(), groups)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if records == nil {
		records = []*types.NotificationRecord{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: records})
}
