package types

import (
	"time"
)

// NotificationRecord is the central domain entity: one authored broadcast
// message, living in exactly one partition (Draft or Sent) at a time.
//
// The ID doubles as the storage row key within its partition. Row keys are
// minted by the rowkey package so that lexicographic order equals
// chronological order (newest-first for Sent, oldest-first for Draft).
type NotificationRecord struct {
	ID        string    `json:"id" db:"row_key"`
	Partition Partition `json:"-" db:"partition"`

	// Authoring fields. Immutable once the record reaches the Sent
	// partition, except through an explicit draft edit before send.
	Title       string    `json:"title" db:"title"`
	ImageLink   string    `json:"imageLink,omitempty" db:"image_link"`
	ImageSize   ImageSize `json:"imageSize,omitempty" db:"image_size"`
	ImageHeight int       `json:"imageHeight,omitempty" db:"image_height"`
	ImageWidth  int       `json:"imageWidth,omitempty" db:"image_width"`
	Summary     string    `json:"summary,omitempty" db:"summary"`
	Author      string    `json:"author,omitempty" db:"author"`
	ButtonTitle string    `json:"buttonTitle,omitempty" db:"button_title"`
	ButtonLink  string    `json:"buttonLink,omitempty" db:"button_link"`

	// Audience selectors. By convention exactly one selection mode is
	// populated at a time; the model does not enforce mutual exclusion.
	Teams       []string `json:"teams" db:"teams"`
	Rosters     []string `json:"rosters" db:"rosters"`
	TeamsGroups []string `json:"teamsGroups" db:"teams_groups"`
	Groups      []string `json:"groups" db:"groups"`
	AllUsers    bool     `json:"allUsers" db:"all_users"`

	// Ownership / audit.
	CreatedBy   string    `json:"createdBy" db:"created_by"`
	CreatedDate time.Time `json:"createdDate" db:"created_date"`

	// Send bookkeeping, populated only once the record enters Sent.
	SendingStartedDate *time.Time         `json:"sendingStartedDate,omitempty" db:"sending_started_date"`
	SentDate           *time.Time         `json:"sentDate,omitempty" db:"sent_date"`
	Status             NotificationStatus `json:"status,omitempty" db:"status"`
	Succeeded          int                `json:"succeeded" db:"succeeded"`
	Failed             int                `json:"failed" db:"failed"`
	Throttled          int                `json:"throttled" db:"throttled"`
	TotalMessageCount  int                `json:"totalMessageCount" db:"total_message_count"`

	// Append-only newline-joined logs.
	ErrorMessage   string `json:"errorMessage,omitempty" db:"error_message"`
	WarningMessage string `json:"warningMessage,omitempty" db:"warning_message"`

	// Content holds the fully rendered card payload so the exact sent
	// message can be re-served on demand (reply UI). Opaque to this core.
	Content string `json:"content,omitempty" db:"content"`
}

// IsDraft reports whether the record currently lives in the Draft partition.
func (n *NotificationRecord) IsDraft() bool {
	return n.Partition == PartitionDraft
}

// TargetsGroup reports whether the record's groups or teamsGroups audience
// selectors contain the given group id.
func (n *NotificationRecord) TargetsGroup(groupID string) bool {
	for _, g := range n.Groups {
		if g == groupID {
			return true
		}
	}
	for _, g := range n.TeamsGroups {
		if g == groupID {
			return true
		}
	}
	return false
}

// ReplyRecord is a threaded comment attached to a sent notification.
// Keyed by (NotificationID, AuthorID): at most one reply per author per
// notification, last write wins.
type ReplyRecord struct {
	NotificationID    string `json:"notificationId" db:"notification_id"`
	AuthorID          string `json:"authorId" db:"author_id"`
	AuthorDisplayName string `json:"authorDisplayName" db:"author_display_name"`
	Comment           string `json:"comment" db:"comment"`
}
