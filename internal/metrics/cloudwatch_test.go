package metrics

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordOutcomes_EmitsOneDatumPerOutcomeClass(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchOutcomeMetrics(cw, "Bullhorn/Delivery", slog.New(slog.DiscardHandler))

	m.RecordOutcomes(context.Background(), 5, 2, 1)

	require.Len(t, cw.inputs, 1)
	input := cw.inputs[0]
	assert.Equal(t, "Bullhorn/Delivery", *input.Namespace)
	require.Len(t, input.MetricData, 3)

	values := map[string]float64{}
	for _, d := range input.MetricData {
		values[*d.Dimensions[0].Value] = *d.Value
	}
	assert.Equal(t, 5.0, values["succeeded"])
	assert.Equal(t, 2.0, values["failed"])
	assert.Equal(t, 1.0, values["throttled"])
}

func TestRecordOutcomes_SkipsZeroCounts(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchOutcomeMetrics(cw, "Bullhorn/Delivery", slog.New(slog.DiscardHandler))

	m.RecordOutcomes(context.Background(), 3, 0, 0)

	require.Len(t, cw.inputs, 1)
	require.Len(t, cw.inputs[0].MetricData, 1)
	assert.Equal(t, "succeeded", *cw.inputs[0].MetricData[0].Dimensions[0].Value)
}

func TestRecordOutcomes_AllZeroSkipsCall(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewCloudWatchOutcomeMetrics(cw, "Bullhorn/Delivery", slog.New(slog.DiscardHandler))

	m.RecordOutcomes(context.Background(), 0, 0, 0)
	assert.Empty(t, cw.inputs)
}

func TestRecordOutcomes_FailureIsSwallowed(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("throttled by cloudwatch")}
	m := NewCloudWatchOutcomeMetrics(cw, "Bullhorn/Delivery", slog.New(slog.DiscardHandler))

	// Must not panic or surface the error.
	m.RecordOutcomes(context.Background(), 1, 0, 0)
	require.Len(t, cw.inputs, 1)
}
