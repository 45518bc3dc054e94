package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullhorn/internal/types"
)

type fakeSQS struct {
	inputs  []*sqs.SendMessageInput
	sendErr error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestTriggerSend_PublishesMessage(t *testing.T) {
	client := &fakeSQS{}
	trigger := NewSendTrigger(client, "https://sqs.example.com/prepare-to-send", slog.New(slog.DiscardHandler))

	err := trigger.TriggerSend(context.Background(), "sent-1", "author@example.com")
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "https://sqs.example.com/prepare-to-send", *input.QueueUrl)
	assert.Equal(t, "sent-1", *input.MessageAttributes["notification_id"].StringValue)

	var msg types.PrepareToSendMessage
	require.NoError(t, json.Unmarshal([]byte(*input.MessageBody), &msg))
	assert.Equal(t, "sent-1", msg.NotificationID)
	assert.Equal(t, "author@example.com", msg.RequestedBy)
	assert.NotEmpty(t, msg.TraceID)
	assert.False(t, msg.EnqueuedAt.IsZero())
}

func TestTriggerSend_SendFailureIsUpstreamError(t *testing.T) {
	client := &fakeSQS{sendErr: errors.New("sqs unavailable")}
	trigger := NewSendTrigger(client, "https://sqs.example.com/prepare-to-send", slog.New(slog.DiscardHandler))

	err := trigger.TriggerSend(context.Background(), "sent-1", "author@example.com")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamQueue, appErr.Code)
}
