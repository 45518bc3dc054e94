package db

import (
	"context"

	"bullhorn/internal/types"
)

// ReplyRepository provides data access for the replies table. Replies are
// keyed (notification_id, author_id): one reply per author per notification,
// last write wins.
type ReplyRepository struct {
	db DBTX
}

// NewReplyRepository creates a new ReplyRepository backed by the given
// database connection (pool or transaction).
func NewReplyRepository(db DBTX) *ReplyRepository {
	return &ReplyRepository{db: db}
}

// Upsert inserts the reply, or replaces the comment and display name when the
// author has already replied to the notification.
func (r *ReplyRepository) Upsert(ctx context.Context, reply *types.ReplyRecord) error {
	if reply == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "reply record must not be nil", nil)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO replies (notification_id, author_id, author_display_name, comment)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (notification_id, author_id) DO UPDATE SET
			author_display_name = EXCLUDED.author_display_name,
			comment = EXCLUDED.comment`,
		reply.NotificationID, reply.AuthorID, reply.AuthorDisplayName, reply.Comment,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert reply", err)
	}
	return nil
}

// ListByNotification returns all replies for a notification, ordered by
// author id for stable report output. Returns an empty slice when the
// notification has no replies.
func (r *ReplyRepository) ListByNotification(ctx context.Context, notificationID string) ([]*types.ReplyRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT notification_id, author_id, author_display_name, comment
		 FROM replies
		 WHERE notification_id = $1
		 ORDER BY author_id`,
		notificationID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list replies", err)
	}
	defer rows.Close()

	var results []*types.ReplyRecord
	for rows.Next() {
		var rep types.ReplyRecord
		if err := rows.Scan(&rep.NotificationID, &rep.AuthorID, &rep.AuthorDisplayName, &rep.Comment); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan reply row", err)
		}
		results = append(results, &rep)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating reply rows", err)
	}

	return results, nil
}
