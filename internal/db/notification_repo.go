package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bullhorn/internal/types"
)

// NotificationRepository provides data access for the notifications table.
// The table is a partitioned keyed store: every record is addressed by
// (partition, row_key) and scans within a partition come back in row-key
// order, which the rowkey package guarantees equals chronological order.
//
// No cross-partition transaction is offered here; the lifecycle service owns
// the two-step draft-to-sent move and its failure semantics.
type NotificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a new NotificationRepository backed by the
// given database connection (pool or transaction).
func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// notifColumns is the standard column set for notification queries. The scan
// helpers depend on this exact ordering.
const notifColumns = `partition, row_key, title, image_link, image_size,
	image_height, image_width, summary, author, button_title, button_link,
	teams, rosters, teams_groups, groups, all_users,
	created_by, created_date, sending_started_date, sent_date, status,
	succeeded, failed, throttled, total_message_count,
	error_message, warning_message, content`

// Get fetches a single record by (partition, id). Returns (nil, nil) when no
// record exists; mutation callers rely on that to implement their silent
// no-op contract.
func (r *NotificationRepository) Get(ctx context.Context, partition types.Partition, id string) (*types.NotificationRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+notifColumns+`
		 FROM notifications
		 WHERE partition = $1 AND row_key = $2`,
		string(partition), id,
	)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get notification", err)
	}
	return n, nil
}

// Put upserts a record, overwriting any existing row with the same
// (partition, row_key).
func (r *NotificationRepository) Put(ctx context.Context, n *types.NotificationRecord) error {
	if n == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "notification record must not be nil", nil)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO notifications
		 (partition, row_key, title, image_link, image_size,
		  image_height, image_width, summary, author, button_title, button_link,
		  teams, rosters, teams_groups, groups, all_users,
		  created_by, created_date, sending_started_date, sent_date, status,
		  succeeded, failed, throttled, total_message_count,
		  error_message, warning_message, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		         $12, $13, $14, $15, $16, $17, $18, $19, $20, $21,
		         $22, $23, $24, $25, $26, $27, $28)
		 ON CONFLICT (partition, row_key) DO UPDATE SET
		  title = EXCLUDED.title,
		  image_link = EXCLUDED.image_link,
		  image_size = EXCLUDED.image_size,
		  image_height = EXCLUDED.image_height,
		  image_width = EXCLUDED.image_width,
		  summary = EXCLUDED.summary,
		  author = EXCLUDED.author,
		  button_title = EXCLUDED.button_title,
		  button_link = EXCLUDED.button_link,
		  teams = EXCLUDED.teams,
		  rosters = EXCLUDED.rosters,
		  teams_groups = EXCLUDED.teams_groups,
		  groups = EXCLUDED.groups,
		  all_users = EXCLUDED.all_users,
		  created_by = EXCLUDED.created_by,
		  created_date = EXCLUDED.created_date,
		  sending_started_date = EXCLUDED.sending_started_date,
		  sent_date = EXCLUDED.sent_date,
		  status = EXCLUDED.status,
		  succeeded = EXCLUDED.succeeded,
		  failed = EXCLUDED.failed,
		  throttled = EXCLUDED.throttled,
		  total_message_count = EXCLUDED.total_message_count,
		  error_message = EXCLUDED.error_message,
		  warning_message = EXCLUDED.warning_message,
		  content = EXCLUDED.content`,
		string(n.Partition), n.ID, n.Title, n.ImageLink, string(n.ImageSize),
		n.ImageHeight, n.ImageWidth, n.Summary, n.Author, n.ButtonTitle, n.ButtonLink,
		textArray(n.Teams), textArray(n.Rosters), textArray(n.TeamsGroups), textArray(n.Groups), n.AllUsers,
		n.CreatedBy, n.CreatedDate, n.SendingStartedDate, n.SentDate, string(n.Status),
		n.Succeeded, n.Failed, n.Throttled, n.TotalMessageCount,
		n.ErrorMessage, n.WarningMessage, n.Content,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to put notification", err)
	}
	return nil
}

// Delete removes the record. Deleting an absent record is not an error;
// the operation is idempotent.
func (r *NotificationRepository) Delete(ctx context.Context, n *types.NotificationRecord) error {
	if n == nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "notification record must not be nil", nil)
	}

	_, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE partition = $1 AND row_key = $2`,
		string(n.Partition), n.ID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete notification", err)
	}
	return nil
}

// ScanPartition returns the partition's records in ascending row-key order,
// optionally capped to the first limit rows. For the Sent partition (keys
// minted newest-first) the first N rows are the N most recent sends; for the
// Draft partition they are the oldest drafts.
func (r *NotificationRepository) ScanPartition(ctx context.Context, partition types.Partition, limit int) ([]*types.NotificationRecord, error) {
	query := `SELECT ` + notifColumns + `
		 FROM notifications
		 WHERE partition = $1
		 ORDER BY row_key`
	args := []any{string(partition)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan partition", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// ScanPartitionByStatus returns the partition's records matching the given
// status, in ascending row-key order. Used by the history query to restrict
// the Sent partition to terminally dispatched records.
func (r *NotificationRepository) ScanPartitionByStatus(ctx context.Context, partition types.Partition, status types.NotificationStatus) ([]*types.NotificationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+notifColumns+`
		 FROM notifications
		 WHERE partition = $1 AND status = $2
		 ORDER BY row_key`,
		string(partition), string(status),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan partition by status", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// IncrementCounts atomically adds the given deltas to the succeeded, failed,
// and throttled counters of a sent notification. The increment happens
// server-side in a single UPDATE, so concurrent delivery workers never lose
// updates to a read-modify-write race.
//
// A missing record is a silent no-op: workers may race with records that were
// never queued or have been reconciled away.
func (r *NotificationRepository) IncrementCounts(ctx context.Context, id string, succeeded, failed, throttled int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE notifications SET
			succeeded = succeeded + $1,
			failed = failed + $2,
			throttled = throttled + $3
		 WHERE partition = $4 AND row_key = $5`,
		succeeded, failed, throttled,
		string(types.PartitionSent), id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to increment delivery counters", err)
	}
	return nil
}

// collectNotifications drains a result set into a slice of records.
func collectNotifications(rows pgx.Rows) ([]*types.NotificationRecord, error) {
	var results []*types.NotificationRecord
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan notification row", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating notification rows", err)
	}
	return results, nil
}

// scanNotification scans a single notifications row. The columns must match
// the order defined in notifColumns. Works for both pgx.Row and pgx.Rows.
func scanNotification(row pgx.Row) (*types.NotificationRecord, error) {
	var (
		n         types.NotificationRecord
		partition string
		imageSize string
		status    string
	)

	err := row.Scan(
		&partition,
		&n.ID,
		&n.Title,
		&n.ImageLink,
		&imageSize,
		&n.ImageHeight,
		&n.ImageWidth,
		&n.Summary,
		&n.Author,
		&n.ButtonTitle,
		&n.ButtonLink,
		&n.Teams,
		&n.Rosters,
		&n.TeamsGroups,
		&n.Groups,
		&n.AllUsers,
		&n.CreatedBy,
		&n.CreatedDate,
		&n.SendingStartedDate,
		&n.SentDate,
		&status,
		&n.Succeeded,
		&n.Failed,
		&n.Throttled,
		&n.TotalMessageCount,
		&n.ErrorMessage,
		&n.WarningMessage,
		&n.Content,
	)
	if err != nil {
		return nil, err
	}

	n.Partition = types.Partition(partition)
	n.ImageSize = types.ImageSize(imageSize)
	n.Status = types.NotificationStatus(status)

	return &n, nil
}

// textArray normalizes nil slices to empty ones so the TEXT[] columns never
// receive NULL.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
