// Package lifecycle owns the notification state machine: draft authoring,
// the draft-to-sent move, duplication, and the status/counter/log mutations
// reported by delivery workers.
//
// Mutations addressed by a sent notification id (UpdateStatus,
// RecordException, RecordWarning, ReportOutcomes) are silent no-ops when the
// record does not exist. This is deliberate: delivery workers may race with
// reconciliation, and a no-op keeps their retries idempotent. Do not turn
// these into not-found errors.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bullhorn/internal/types"
)

// RecordStore is the persistence contract the lifecycle service depends on.
// Implemented by db.NotificationRepository.
type RecordStore interface {
	Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error)
	Put(ctx context.Context, n *types.NotificationRecord) error
	Delete(ctx context.Context, n *types.NotificationRecord) error
	ScanPartition(ctx context.Context, partition types.Partition, limit int) ([]*types.NotificationRecord, error)
	ScanPartitionByStatus(ctx context.Context, partition types.Partition, status types.NotificationStatus) ([]*types.NotificationRecord, error)
	IncrementCounts(ctx context.Context, id string, succeeded, failed, throttled int) error
}

// KeyGenerator mints ordered row keys. Implemented by rowkey.Generator.
type KeyGenerator interface {
	NewKeyNewestFirst() string
	NewKeyOldestFirst() string
}

// Service implements the notification lifecycle over a RecordStore.
type Service struct {
	store  RecordStore
	keys   KeyGenerator
	logger *slog.Logger
	now    func() time.Time // injectable clock for tests
}

// NewService creates a lifecycle Service. All dependencies are required.
func NewService(store RecordStore, keys KeyGenerator, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "record store must not be nil", nil)
	}
	if keys == nil {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "key generator must not be nil", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}, nil
}

// CreateDraft mints an oldest-first id for the draft, stamps ownership, and
// inserts it into the Draft partition. Returns the new id.
func (s *Service) CreateDraft(ctx context.Context, draft *types.NotificationRecord, createdBy string) (string, error) {
	if draft == nil {
		return "", types.NewAppError(types.ErrCodeValidationMissingField, "draft notification must not be nil", nil)
	}

	draft.ID = s.keys.NewKeyOldestFirst()
	draft.Partition = types.PartitionDraft
	draft.CreatedBy = createdBy
	draft.CreatedDate = s.now().UTC()

	if err := s.store.Put(ctx, draft); err != nil {
		s.logger.ErrorContext(ctx, "failed to create draft", "error", err)
		return "", err
	}
	return draft.ID, nil
}

// UpdateDraft overwrites an existing draft in place. The id is immutable; the
// caller supplies the full authoring and audience state.
func (s *Service) UpdateDraft(ctx context.Context, draft *types.NotificationRecord) error {
	if draft == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "draft notification must not be nil", nil)
	}

	existing, err := s.store.Get(ctx, types.PartitionDraft, draft.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load draft for update", "error", err, "id", draft.ID)
		return err
	}
	if existing == nil {
		return types.NewAppError(types.ErrCodeNotFoundDraft, "draft notification not found", nil)
	}

	draft.Partition = types.PartitionDraft
	draft.CreatedBy = existing.CreatedBy
	draft.CreatedDate = existing.CreatedDate

	if err := s.store.Put(ctx, draft); err != nil {
		s.logger.ErrorContext(ctx, "failed to update draft", "error", err, "id", draft.ID)
		return err
	}
	return nil
}

// DeleteDraft removes a draft. Deleting an absent draft is not an error.
func (s *Service) DeleteDraft(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, &types.NotificationRecord{ID: id, Partition: types.PartitionDraft})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete draft", "error", err, "id", id)
	}
	return err
}

// Get fetches a record from either partition. Returns (nil, nil) when absent.
func (s *Service) Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error) {
	return s.store.Get(ctx, partition, id)
}

// ListDrafts returns all drafts in creation order.
func (s *Service) ListDrafts(ctx context.Context) ([]*types.NotificationRecord, error) {
	return s.store.ScanPartition(ctx, types.PartitionDraft, 0)
}

// RecentSent returns the most recent sent notifications, newest first,
// capped to limit. Ordering falls directly out of the newest-first row keys;
// no sort is performed.
func (s *Service) RecentSent(ctx context.Context, limit int) ([]*types.NotificationRecord, error) {
	return s.store.ScanPartition(ctx, types.PartitionSent, limit)
}

// MoveDraftToSent transitions a draft into the Sent partition under a newly
// minted newest-first id, initializing send bookkeeping (status Queued,
// counters zero, sending started now). The sent record is written first and
// the draft deleted second, so a crash between the two steps leaves a
// duplicate draft rather than losing data.
//
// When the write succeeds but the delete fails, the new sent id is returned
// together with a conflict_partial_move error: the send is underway, but the
// caller must know cleanup is required.
func (s *Service) MoveDraftToSent(ctx context.Context, draft *types.NotificationRecord) (string, error) {
	if draft == nil {
		return "", types.NewAppError(types.ErrCodeValidationMissingField, "draft notification must not be nil", nil)
	}

	newID := s.keys.NewKeyNewestFirst()
	startedAt := s.now().UTC()

	sent := &types.NotificationRecord{
		ID:        newID,
		Partition: types.PartitionSent,

		Title:       draft.Title,
		ImageLink:   draft.ImageLink,
		ImageSize:   draft.ImageSize,
		ImageHeight: draft.ImageHeight,
		ImageWidth:  draft.ImageWidth,
		Summary:     draft.Summary,
		Author:      draft.Author,
		ButtonTitle: draft.ButtonTitle,
		ButtonLink:  draft.ButtonLink,

		Teams:       draft.Teams,
		Rosters:     draft.Rosters,
		TeamsGroups: draft.TeamsGroups,
		Groups:      draft.Groups,
		AllUsers:    draft.AllUsers,

		CreatedBy:   draft.CreatedBy,
		CreatedDate: draft.CreatedDate,
		Content:     draft.Content,

		SendingStartedDate: &startedAt,
		SentDate:           nil,
		Status:             types.StatusQueued,
		Succeeded:          0,
		Failed:             0,
		Throttled:          0,
		TotalMessageCount:  draft.TotalMessageCount,
	}

	if err := s.store.Put(ctx, sent); err != nil {
		s.logger.ErrorContext(ctx, "failed to write sent notification", "error", err, "draft_id", draft.ID)
		return "", err
	}

	if err := s.store.Delete(ctx, draft); err != nil {
		// The sent record exists; the lingering draft is a recoverable
		// inconsistency, not data loss. Surface it so the caller can clean up.
		s.logger.ErrorContext(ctx, "sent notification written but draft delete failed",
			"error", err, "draft_id", draft.ID, "sent_id", newID)
		return newID, types.NewAppErrorWithDetails(
			types.ErrCodeConflictPartialMove,
			"notification queued but the source draft could not be removed",
			err,
			map[string]any{"sent_id": newID, "draft_id": draft.ID},
		)
	}

	return newID, nil
}

// DuplicateDraft inserts a sibling copy of the source record as a new draft
// under an oldest-first id. Send bookkeeping is not copied; the source is
// never mutated.
func (s *Service) DuplicateDraft(ctx context.Context, source *types.NotificationRecord, createdBy string) error {
	if source == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "source notification must not be nil", nil)
	}

	copyRec := &types.NotificationRecord{
		ID:        s.keys.NewKeyOldestFirst(),
		Partition: types.PartitionDraft,

		Title:       source.Title,
		ImageLink:   source.ImageLink,
		ImageSize:   source.ImageSize,
		ImageHeight: source.ImageHeight,
		ImageWidth:  source.ImageWidth,
		Summary:     source.Summary,
		Author:      source.Author,
		ButtonTitle: source.ButtonTitle,
		ButtonLink:  source.ButtonLink,

		Teams:       source.Teams,
		Rosters:     source.Rosters,
		TeamsGroups: source.TeamsGroups,
		Groups:      source.Groups,
		AllUsers:    source.AllUsers,

		CreatedBy:   createdBy,
		CreatedDate: s.now().UTC(),
		Content:     source.Content,
	}

	if err := s.store.Put(ctx, copyRec); err != nil {
		s.logger.ErrorContext(ctx, "failed to duplicate draft", "error", err, "source_id", source.ID)
		return err
	}
	return nil
}

// UpdateStatus sets the status of a sent notification. Missing record is a
// silent no-op. No transition ordering is enforced here: an operator UI may
// overwrite a Failed status back to Sent as a manual correction.
func (s *Service) UpdateStatus(ctx context.Context, id string, status types.NotificationStatus) error {
	n, err := s.store.Get(ctx, types.PartitionSent, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load notification for status update", "error", err, "id", id)
		return err
	}
	if n == nil {
		return nil
	}

	n.Status = status
	if err := s.store.Put(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to update notification status", "error", err, "id", id)
		return err
	}
	return nil
}

// RecordException appends errorMessage to the record's error log, force-sets
// the status to Failed, and stamps the sent date. This is terminal and
// overriding: it can pull an already-Sent record back to Failed, representing
// an unrecoverable post-processing error. Missing record is a silent no-op.
func (s *Service) RecordException(ctx context.Context, id string, errorMessage string) error {
	n, err := s.store.Get(ctx, types.PartitionSent, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load notification for exception", "error", err, "id", id)
		return err
	}
	if n == nil {
		return nil
	}

	n.ErrorMessage = appendLine(n.ErrorMessage, errorMessage)
	n.Status = types.StatusFailed
	endedAt := s.now().UTC()
	n.SentDate = &endedAt

	if err := s.store.Put(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to record notification exception", "error", err, "id", id)
		return err
	}
	return nil
}

// RecordWarning appends warningMessage to the record's warning log without
// altering status. Missing record is a silent no-op.
func (s *Service) RecordWarning(ctx context.Context, id string, warningMessage string) error {
	n, err := s.store.Get(ctx, types.PartitionSent, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load notification for warning", "error", err, "id", id)
		return err
	}
	if n == nil {
		return nil
	}

	n.WarningMessage = appendLine(n.WarningMessage, warningMessage)
	if err := s.store.Put(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to record notification warning", "error", err, "id", id)
		return err
	}
	return nil
}

// ReportOutcomes records a batch of per-recipient delivery outcomes against
// a sent notification. The counters are incremented atomically in the store,
// so concurrent worker batches never lose updates. Missing record is a
// silent no-op.
func (s *Service) ReportOutcomes(ctx context.Context, id string, succeeded, failed, throttled int) error {
	if succeeded < 0 || failed < 0 || throttled < 0 {
		return types.NewAppError(types.ErrCodeValidationInvalidField, "outcome counts must be non-negative", nil)
	}
	if succeeded == 0 && failed == 0 && throttled == 0 {
		return nil
	}

	if err := s.store.IncrementCounts(ctx, id, succeeded, failed, throttled); err != nil {
		s.logger.ErrorContext(ctx, "failed to report delivery outcomes", "error", err, "id", id)
		return err
	}
	return nil
}

// appendLine joins log messages with newlines, starting the log with the
// first message when it is empty.
func appendLine(original, next string) string {
	if strings.TrimSpace(original) == "" {
		return next
	}
	return original + "\n" + next
}
