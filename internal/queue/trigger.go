// Package queue provides the SQS-based producer that hands sent notifications
// off to the external delivery orchestrator. The orchestrator owns audience
// resolution, fan-out, and per-recipient sends; this core only enqueues the
// prepare-to-send signal after the draft-to-sent move succeeds.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"bullhorn/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SendTrigger publishes PrepareToSendMessage payloads to the prepare-to-send
// queue consumed by the delivery orchestrator.
type SendTrigger struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
	now      func() time.Time
}

// NewSendTrigger creates a SendTrigger publishing to the given queue URL.
func NewSendTrigger(client SQSSender, queueURL string, logger *slog.Logger) *SendTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendTrigger{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		now:      time.Now,
	}
}

// TriggerSend enqueues the prepare-to-send message for a freshly queued
// notification. requestedBy records the author who hit send, for tracing.
func (t *SendTrigger) TriggerSend(ctx context.Context, notificationID string, requestedBy string) error {
	msg := types.PrepareToSendMessage{
		NotificationID: notificationID,
		TraceID:        uuid.New().String(),
		RequestedBy:    requestedBy,
		EnqueuedAt:     t.now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal prepare-to-send message", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(t.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"notification_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(notificationID),
			},
		},
	}

	if _, err := t.client.SendMessage(ctx, input); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamQueue, "failed to enqueue prepare-to-send message", err)
	}

	t.logger.InfoContext(ctx, "prepare-to-send message enqueued",
		"queue_url", t.queueURL,
		"notification_id", notificationID,
		"trace_id", msg.TraceID,
		"requested_by", requestedBy,
	)

	return nil
}
