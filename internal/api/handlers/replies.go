package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bullhorn/internal/core"
	"bullhorn/internal/types"
)

// ReplyStore provides reply persistence. Implemented by db.ReplyRepository.
type ReplyStore interface {
	Upsert(ctx context.Context, reply *types.ReplyRecord) error
	ListByNotification(ctx context.Context, notificationID string) ([]*types.ReplyRecord, error)
}

// ReplyNotificationReader checks that the target notification exists.
type ReplyNotificationReader interface {
	Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error)
}

// UpsertReplyRequest is the request body for posting a reply.
type UpsertReplyRequest struct {
	AuthorDisplayName string `json:"authorDisplayName" validate:"required,max=200"`
	Comment           string `json:"comment" validate:"required,max=4000"`
}

// ReplyHandler manages per-notification replies and their CSV export.
// The whole feature sits behind a flag; when disabled, main never registers
// these routes.
type ReplyHandler struct {
	replies   ReplyStore
	reader    ReplyNotificationReader
	validator *core.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewReplyHandler creates a ReplyHandler with the provided dependencies.
func NewReplyHandler(replies ReplyStore, reader ReplyNotificationReader, v *core.Validator, l *slog.Logger) *ReplyHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ReplyHandler{
		replies:   replies,
		reader:    reader,
		validator: v,
		logger:    l,
		now:       time.Now,
	}
}

// RegisterRoutes mounts reply routes under the sent-notification namespace.
func (h *ReplyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sent/{id}/replies", func(r chi.Router) {
		r.Post("/", h.Upsert)
		r.Get("/", h.List)
		r.Get("/export", h.Export)
	})
}

// getSentNotification loads the target sent notification or returns
// not_found_notification.
func (h *ReplyHandler) getSentNotification(r *http.Request) (*types.NotificationRecord, error) {
	id := chi.URLParam(r, "id")
	n, err := h.reader.Get(r.Context(), types.PartitionSent, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	return n, nil
}

// Upsert handles POST /v1/sent/{id}/replies. Each caller holds at most one
// reply per notification; posting again replaces it.
func (h *ReplyHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, err := requireIdentity(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	n, err := h.getSentNotification(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var req UpsertReplyRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	reply := &types.ReplyRecord{
		NotificationID:    n.ID,
		AuthorID:          userID,
		AuthorDisplayName: req.AuthorDisplayName,
		Comment:           req.Comment,
	}

	if err := h.replies.Upsert(r.Context(), reply); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: reply})
}

// List handles GET /v1/sent/{id}/replies.
func (h *ReplyHandler) List(w http.ResponseWriter, r *http.Request) {
	n, err := h.getSentNotification(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	replies, err := h.replies.ListByNotification(r.Context(), n.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if replies == nil {
		replies = []*types.ReplyRecord{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: replies})
}

// Export handles GET /v1/sent/{id}/replies/export, streaming the replies as
// a semicolon-separated CSV attachment for the authoring team.
func (h *ReplyHandler) Export(w http.ResponseWriter, r *http.Request) {
	n, err := h.getSentNotification(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	replies, err := h.replies.ListByNotification(r.Context(), n.ID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	filename := fmt.Sprintf("Replies-%s-%s.csv", n.ID, h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write([]string{"AuthorId", "AuthorDisplayName", "Comment"}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write reply export header", "error", err)
		return
	}
	for _, rep := range replies {
		if err := cw.Write([]string{rep.AuthorID, rep.AuthorDisplayName, rep.Comment}); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write reply export row", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to flush reply export", "error", err)
	}
}
