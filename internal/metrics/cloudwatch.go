// Package metrics emits delivery telemetry to AWS CloudWatch. Metric emission
// is best-effort: failures are logged and never surfaced to the delivery path.
package metrics

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"bullhorn/internal/types"
)

// Metric and dimension names used in the CloudWatch namespace.
const (
	metricDeliveryOutcome = "DeliveryOutcome"
	dimOutcome            = "Outcome"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// OutcomeRecorder is the interface handlers depend on.
type OutcomeRecorder interface {
	RecordOutcomes(ctx context.Context, succeeded, failed, throttled int)
}

// CloudWatchOutcomeMetrics publishes DeliveryOutcome counts, one datum per
// outcome class with an Outcome dimension, so throttles are visible
// separately from hard failures.
type CloudWatchOutcomeMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// Compile-time assertion that CloudWatchOutcomeMetrics implements OutcomeRecorder.
var _ OutcomeRecorder = (*CloudWatchOutcomeMetrics)(nil)

// NewCloudWatchOutcomeMetrics creates a recorder publishing to the given
// CloudWatch namespace.
func NewCloudWatchOutcomeMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchOutcomeMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchOutcomeMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordOutcomes emits one DeliveryOutcome datum per non-zero outcome count.
func (m *CloudWatchOutcomeMetrics) RecordOutcomes(ctx context.Context, succeeded, failed, throttled int) {
	data := make([]cwtypes.MetricDatum, 0, 3)
	for _, c := range []struct {
		outcome types.DeliveryOutcome
		count   int
	}{
		{types.OutcomeSucceeded, succeeded},
		{types.OutcomeFailed, failed},
		{types.OutcomeThrottled, throttled},
	} {
		if c.count == 0 {
			continue
		}
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(metricDeliveryOutcome),
			Value:      aws.Float64(float64(c.count)),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{
					Name:  aws.String(dimOutcome),
					Value: aws.String(string(c.outcome)),
				},
			},
		})
	}
	if len(data) == 0 {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record delivery outcome metrics",
			"error", err,
			"succeeded", succeeded,
			"failed", failed,
			"throttled", throttled,
		)
	}
}

// NoopOutcomeMetrics discards all metrics. Used when no CloudWatch namespace
// is configured (local development).
type NoopOutcomeMetrics struct{}

// RecordOutcomes implements OutcomeRecorder.
func (NoopOutcomeMetrics) RecordOutcomes(context.Context, int, int, int) {}
