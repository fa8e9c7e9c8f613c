package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// Anomalies returns every Cost Anomaly Detection anomaly whose window falls
// in the last daysBack days, across all monitors.
func (d *DefaultCostCollector) Anomalies(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSCostAnomaly, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	var anomalies []models.AWSCostAnomaly
	var nextToken *string
	for {
		out, err := clients.CE.GetAnomalies(ctx, &ce.GetAnomaliesInput{
			DateInterval: &cetypes.AnomalyDateInterval{
				StartDate: aws.String(start),
				EndDate:   aws.String(end),
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("Anomalies: %w", common.Classify("ce", "GetAnomalies", "", err))
		}

		for _, a := range out.Anomalies {
			anomalies = append(anomalies, toAnomaly(a))
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return anomalies, nil
}

// toAnomaly converts an SDK anomaly to the internal model. The service is
// taken from the first root cause, falling back to the monitored dimension.
func toAnomaly(a cetypes.Anomaly) models.AWSCostAnomaly {
	out := models.AWSCostAnomaly{
		ID:        aws.ToString(a.AnomalyId),
		StartDate: aws.ToString(a.AnomalyStartDate),
		EndDate:   aws.ToString(a.AnomalyEndDate),
		Service:   aws.ToString(a.DimensionValue),
	}
	if len(a.RootCauses) > 0 && a.RootCauses[0].Service != nil {
		out.Service = aws.ToString(a.RootCauses[0].Service)
	}
	if a.Impact != nil {
		out.MaxImpact = a.Impact.MaxImpact
		out.TotalImpact = a.Impact.TotalImpact
	}
	return out
}
