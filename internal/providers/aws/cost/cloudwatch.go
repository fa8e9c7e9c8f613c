package cost

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// metricQuery identifies one CloudWatch metric for a single resource.
type metricQuery struct {
	namespace string
	metric    string
	dimension string
	value     string
	period    int32 // seconds
}

// fetchMetricAverage calls CloudWatch GetMetricStatistics and returns the
// mean of the Average datapoints over [start, end) together with how many
// datapoints contributed.
//
// Returns (0, 0) when the call fails or no data points exist. Callers must
// treat a zero datapoint count as "data unavailable", not "truly idle".
func fetchMetricAverage(ctx context.Context, cw costCWClient, q metricQuery, start, end time.Time) (float64, int) {
	out, err := cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(q.namespace),
		MetricName: aws.String(q.metric),
		Dimensions: []cwtypes.Dimension{
			{
				Name:  aws.String(q.dimension),
				Value: aws.String(q.value),
			},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(q.period),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil || len(out.Datapoints) == 0 {
		return 0, 0
	}

	var total float64
	var count int
	for _, dp := range out.Datapoints {
		if dp.Average != nil {
			total += *dp.Average
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return total / float64(count), count
}

// fetchMetricSum returns the sum of the Sum datapoints over [start, end),
// or 0 when the call fails or no data points exist.
func fetchMetricSum(ctx context.Context, cw costCWClient, q metricQuery, start, end time.Time) float64 {
	out, err := cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(q.namespace),
		MetricName: aws.String(q.metric),
		Dimensions: []cwtypes.Dimension{
			{
				Name:  aws.String(q.dimension),
				Value: aws.String(q.value),
			},
		},
		StartTime:  aws.Time(start),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(q.period),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticSum},
	})
	if err != nil || len(out.Datapoints) == 0 {
		return 0
	}

	var total float64
	for _, dp := range out.Datapoints {
		if dp.Sum != nil {
			total += *dp.Sum
		}
	}
	return total
}
