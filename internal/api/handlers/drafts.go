// Package handlers contains the HTTP handler implementations for the
// notification API. Each handler defines local interfaces for its
// dependencies, keeping the packages decoupled and the handlers testable
// with in-memory fakes.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

// DraftLifecycle is the slice of the lifecycle service the draft handler
// depends on.
type DraftLifecycle interface {
	CreateDraft(ctx context.Context, draft *types.NotificationRecord, createdBy string) (string, error)
	UpdateDraft(ctx context.Context, draft *types.NotificationRecord) error
	DeleteDraft(ctx context.Context, id string) error
	Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error)
	ListDrafts(ctx context.Context) ([]*types.NotificationRecord, error)
	MoveDraftToSent(ctx context.Context, draft *types.NotificationRecord) (string, error)
	DuplicateDraft(ctx context.Context, source *types.NotificationRecord, createdBy string) error
}

// SendEnqueuer hands a freshly queued notification to the delivery
// orchestrator. Implemented by queue.SendTrigger.
type SendEnqueuer interface {
	TriggerSend(ctx context.Context, notificationID string, requestedBy string) error
}

// DraftRequest is the request body for creating and updating drafts.
type DraftRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	ImageLink   string `json:"imageLink,omitempty" validate:"omitempty,url"`
	ImageSize   string `json:"imageSize,omitempty" validate:"omitempty,oneof=Auto Large Medium Small Custom"`
	ImageHeight int    `json:"imageHeight,omitempty" validate:"omitempty,min=1,max=2048"`
	ImageWidth  int    `json:"imageWidth,omitempty" validate:"omitempty,min=1,max=2048"`
	Summary     string `json:"summary,omitempty" validate:"max=4000"`
	Author      string `json:"author,omitempty" validate:"max=200"`
	ButtonTitle string `json:"buttonTitle,omitempty" validate:"max=200"`
	ButtonLink  string `json:"buttonLink,omitempty" validate:"omitempty,url"`

	Teams       []string `json:"teams,omitempty"`
	Rosters     []string `json:"rosters,omitempty"`
	TeamsGroups []string `json:"teamsGroups,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	AllUsers    bool     `json:"allUsers,omitempty"`

	// Content carries the fully rendered card payload, opaque to this
	// service.
	Content string `json:"content,omitempty"`
}

// toRecord maps the request body onto a NotificationRecord. Ownership and
// bookkeeping fields are left for the lifecycle service to manage.
func (req *DraftRequest) toRecord() *types.NotificationRecord {
	return &types.NotificationRecord{
		Title:       req.Title,
		ImageLink:   req.ImageLink,
		ImageSize:   types.ImageSize(req.ImageSize),
		ImageHeight: req.ImageHeight,
		ImageWidth:  req.ImageWidth,
		Summary:     req.Summary,
		Author:      req.Author,
		ButtonTitle: req.ButtonTitle,
		ButtonLink:  req.ButtonLink,

		Teams:       req.Teams,
		Rosters:     req.Rosters,
		TeamsGroups: req.TeamsGroups,
		Groups:      req.Groups,
		AllUsers:    req.AllUsers,

		Content: req.Content,
	}
}

// DraftHandler manages draft CRUD, duplication, and the send transition.
type DraftHandler struct {
	lifecycle DraftLifecycle
	enqueuer  SendEnqueuer
	validator *core.Validator
	logger    *slog.Logger
}

// NewDraftHandler creates a DraftHandler with the provided dependencies.
func NewDraftHandler(lifecycle DraftLifecycle, enqueuer SendEnqueuer, v *core.Validator, l *slog.Logger) *DraftHandler {
	if l == nil {
		l = slog.Default()
	}
	return &DraftHandler{
		lifecycle: lifecycle,
		enqueuer:  enqueuer,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts draft routes on the provided chi.Router.
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Route("/drafts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/duplicate", h.Duplicate)
			r.Post("/send", h.Send)
		})
	})
}

// requireIdentity extracts the caller identity set by the edge proxy, or
// fails with auth_identity_missing.
func requireIdentity(r *http.Request) (string, error) {
	userID := types.GetUserID(r.Context())
	if userID == "" {
		return "", types.NewAppError(
			types.ErrCodeAuthIdentityMissing,
			"caller identity is required",
			nil,
		)
	}
	return userID, nil
}

// Create handles POST /v1/drafts.
func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requireIdentity(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req DraftRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	draft := req.toRecord()
	// CreateDraft stamps the minted id and ownership onto the record.
	if _, err := h.lifecycle.CreateDraft(r.Context(), draft, userID); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: draft})
}

// List handles GET /v1/drafts, returning all drafts in creation order.
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.lifecycle.ListDrafts(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if drafts == nil {
		drafts = []*types.NotificationRecord{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: drafts})
}

// Get handles GET /v1/drafts/{id}.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	draft, err := h.lifecycle.Get(r.Context(), types.PartitionDraft, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if draft == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundDraft, "draft notification not found", nil))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: draft})
}

// Update handles PUT /v1/drafts/{id}, replacing the draft's authoring and
// audience state. Ownership fields are preserved by the lifecycle service.
func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := requireIdentity(r); err != nil {
		core.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")

	var req DraftRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	draft := req.toRecord()
	draft.ID = id

	if err := h.lifecycle.UpdateDraft(r.Context(), draft); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: draft})
}

// Delete handles DELETE /v1/drafts/{id}. Deleting an absent draft succeeds.
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := requireIdentity(r); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.lifecycle.DeleteDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Duplicate handles POST /v1/drafts/{id}/duplicate, creating a sibling copy
// of a draft or of an already-sent notification as a new draft owned by the
// caller.
func (h *DraftHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	userID, err := requireIdentity(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")

	source, err := h.lifecycle.Get(r.Context(), types.PartitionDraft, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if source == nil {
		// Duplicating a sent notification back into a draft is allowed.
		source, err = h.lifecycle.Get(r.Context(), types.PartitionSent, id)
		if err != nil {
			core.Error(w, r, err)
			return
		}
	}
	if source == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil))
		return
	}

	if err := h.lifecycle.DuplicateDraft(r.Context(), source, userID); err != nil {
		core.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Send handles POST /v1/drafts/{id}/send: the draft moves to the Sent
// partition under a new id and the prepare-to-send trigger is enqueued for
// the delivery orchestrator.
//
// When the move half-completes (sent record written, draft delete failed),
// the trigger is still enqueued because the send is already committed; the
// conflict is then surfaced to the caller for cleanup.
func (h *DraftHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, err := requireIdentity(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")

	draft, err := h.lifecycle.Get(r.Context(), types.PartitionDraft, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if draft == nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundDraft, "draft notification not found", nil))
		return
	}

	sentID, moveErr := h.lifecycle.MoveDraftToSent(r.Context(), draft)
	if moveErr != nil && !isPartialMove(moveErr) {
		core.Error(w, r, moveErr)
		return
	}

	if err := h.enqueuer.TriggerSend(r.Context(), sentID, userID); err != nil {
		h.logger.ErrorContext(r.Context(), "notification queued but trigger enqueue failed",
			"sent_id", sentID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	if moveErr != nil {
		core.Error(w, r, moveErr)
		return
	}

	core.JSON(w, r, http.StatusAccepted, core.APIResponse{
		Data: map[string]string{"id": sentID},
	})
}

// isPartialMove reports whether err is the half-completed move conflict.
func isPartialMove(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == types.ErrCodeConflictPartialMove
}
