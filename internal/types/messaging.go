package types

import "time"

// PrepareToSendMessage is the payload enqueued for the external delivery
// orchestrator after a draft is moved to the Sent partition. The orchestrator
// owns audience fan-out, throttling, and per-recipient sends; this core only
// hands off the sent notification id and tracing metadata.
type PrepareToSendMessage struct {
	NotificationID string    `json:"notification_id"`
	TraceID        string    `json:"trace_id"`
	RequestedBy    string    `json:"requested_by"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}
