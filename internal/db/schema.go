package db

import (
	"context"
	"fmt"
)

// schema holds the table definitions for the notification store. The
// notifications table models a partitioned key-value layout: the composite
// primary key (partition, row_key) makes an ascending index scan equal the
// row-key ordering scheme, so "most recent N sent" needs no sort step.
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
    partition            TEXT NOT NULL,
    row_key              TEXT NOT NULL,
    title                TEXT NOT NULL DEFAULT '',
    image_link           TEXT NOT NULL DEFAULT '',
    image_size           TEXT NOT NULL DEFAULT '',
    image_height         INTEGER NOT NULL DEFAULT 0,
    image_width          INTEGER NOT NULL DEFAULT 0,
    summary              TEXT NOT NULL DEFAULT '',
    author               TEXT NOT NULL DEFAULT '',
    button_title         TEXT NOT NULL DEFAULT '',
    button_link          TEXT NOT NULL DEFAULT '',
    teams                TEXT[] NOT NULL DEFAULT '{}',
    rosters              TEXT[] NOT NULL DEFAULT '{}',
    teams_groups         TEXT[] NOT NULL DEFAULT '{}',
    groups               TEXT[] NOT NULL DEFAULT '{}',
    all_users            BOOLEAN NOT NULL DEFAULT FALSE,
    created_by           TEXT NOT NULL DEFAULT '',
    created_date         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sending_started_date TIMESTAMPTZ,
    sent_date            TIMESTAMPTZ,
    status               TEXT NOT NULL DEFAULT '',
    succeeded            INTEGER NOT NULL DEFAULT 0 CHECK (succeeded >= 0),
    failed               INTEGER NOT NULL DEFAULT 0 CHECK (failed >= 0),
    throttled            INTEGER NOT NULL DEFAULT 0 CHECK (throttled >= 0),
    total_message_count  INTEGER NOT NULL DEFAULT 0,
    error_message        TEXT NOT NULL DEFAULT '',
    warning_message      TEXT NOT NULL DEFAULT '',
    content              TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (partition, row_key)
);

-- Serves the status = 'Sent' equality scan used by the history query.
CREATE INDEX IF NOT EXISTS idx_notifications_partition_status
    ON notifications (partition, status);

CREATE TABLE IF NOT EXISTS replies (
    notification_id     TEXT NOT NULL,
    author_id           TEXT NOT NULL,
    author_display_name TEXT NOT NULL DEFAULT '',
    comment             TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (notification_id, author_id)
);
`

// InitSchema applies the notification store schema. It is idempotent and safe
// to run at every startup.
func InitSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying notification store schema: %w", err)
	}
	return nil
}
