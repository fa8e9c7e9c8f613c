package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// cloudWatchBatchSize is the PutMetricData limit on MetricData entries per
// call that the sink stays under.
const cloudWatchBatchSize = 20

// putMetricDataClient is the subset of the CloudWatch API the sink needs.
type putMetricDataClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink publishes custom metrics with PutMetricData.
type CloudWatchSink struct {
	client putMetricDataClient
	logger *slog.Logger
	now    func() time.Time
}

// NewCloudWatchSink returns a sink backed by a CloudWatch client for cfg.
func NewCloudWatchSink(cfg aws.Config, logger *slog.Logger) *CloudWatchSink {
	return NewCloudWatchSinkWithClient(cloudwatch.NewFromConfig(cfg), logger)
}

// NewCloudWatchSinkWithClient returns a sink that uses client. Pass a mock in
// tests.
func NewCloudWatchSinkWithClient(client putMetricDataClient, logger *slog.Logger) *CloudWatchSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchSink{
		client: client,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Publish sends data in batches of 20. It stops at the first failed batch.
func (s *CloudWatchSink) Publish(ctx context.Context, namespace string, data []Datum) error {
	ts := s.now()
	for start := 0; start < len(data); start += cloudWatchBatchSize {
		end := min(start+cloudWatchBatchSize, len(data))

		batch := make([]cwtypes.MetricDatum, 0, end-start)
		for _, d := range data[start:end] {
			batch = append(batch, toMetricDatum(d, ts))
		}

		if _, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: batch,
		}); err != nil {
			return fmt.Errorf("PutMetricData %s: %w", namespace, err)
		}
		s.logger.Debug("published metrics",
			slog.String("sink", "cloudwatch"),
			slog.String("namespace", namespace),
			slog.Int("count", len(batch)),
		)
	}
	return nil
}

func toMetricDatum(d Datum, ts time.Time) cwtypes.MetricDatum {
	unit := d.Unit
	if unit == "" {
		unit = UnitNone
	}

	keys := make([]string, 0, len(d.Dimensions))
	for k := range d.Dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dims := make([]cwtypes.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(d.Dimensions[k])})
	}

	return cwtypes.MetricDatum{
		MetricName: aws.String(d.Name),
		Value:      aws.Float64(d.Value),
		Unit:       cwtypes.StandardUnit(unit),
		Timestamp:  aws.Time(ts),
		Dimensions: dims,
	}
}
