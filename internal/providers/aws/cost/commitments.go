package cost

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// ---------------------------------------------------------------------------
// Reserved Instances and Savings Plans (all Cost Explorer, us-east-1)
// ---------------------------------------------------------------------------

// RIUtilization returns the utilization of every reserved instance
// subscription over the last daysBack days, grouped by SUBSCRIPTION_ID.
func (d *DefaultCostCollector) RIUtilization(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSRIUtilization, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	var result []models.AWSRIUtilization
	var nextToken *string
	for {
		out, err := clients.CE.GetReservationUtilization(ctx, &ce.GetReservationUtilizationInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			GroupBy: []cetypes.GroupDefinition{
				{
					Key:  aws.String("SUBSCRIPTION_ID"),
					Type: cetypes.GroupDefinitionTypeDimension,
				},
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("RIUtilization: %w", common.Classify("ce", "GetReservationUtilization", "", err))
		}

		for _, period := range out.UtilizationsByTime {
			for _, g := range period.Groups {
				if g.Utilization == nil {
					continue
				}
				result = append(result, models.AWSRIUtilization{
					SubscriptionID:     aws.ToString(g.Value),
					InstanceType:       g.Attributes["instanceType"],
					Region:             g.Attributes["region"],
					UtilizationPercent: parseCostFloat(g.Utilization.UtilizationPercentage),
					PurchasedHours:     parseCostFloat(g.Utilization.PurchasedHours),
					UnusedHours:        parseCostFloat(g.Utilization.UnusedHours),
					NetSavingsUSD:      parseCostFloat(g.Utilization.NetRISavings),
				})
			}
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return result, nil
}

// Rightsizing returns Cost Explorer's EC2 rightsizing recommendations.
// Savings are read from the first target instance of a MODIFY
// recommendation, or from the terminate detail of a TERMINATE one.
func (d *DefaultCostCollector) Rightsizing(ctx context.Context, cfg aws.Config) ([]models.AWSRightsizingRecommendation, error) {
	clients := d.factory(globalConfig(cfg))

	var result []models.AWSRightsizingRecommendation
	var nextToken *string
	for {
		out, err := clients.CE.GetRightsizingRecommendation(ctx, &ce.GetRightsizingRecommendationInput{
			Service:       aws.String("AmazonEC2"),
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("Rightsizing: %w", common.Classify("ce", "GetRightsizingRecommendation", "", err))
		}

		for _, r := range out.RightsizingRecommendations {
			result = append(result, toRightsizing(r))
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return result, nil
}

func toRightsizing(r cetypes.RightsizingRecommendation) models.AWSRightsizingRecommendation {
	rec := models.AWSRightsizingRecommendation{
		AccountID: aws.ToString(r.AccountId),
		Action:    string(r.RightsizingType),
	}
	if cur := r.CurrentInstance; cur != nil {
		rec.ResourceID = aws.ToString(cur.ResourceId)
		if cur.ResourceDetails != nil && cur.ResourceDetails.EC2ResourceDetails != nil {
			rec.InstanceType = aws.ToString(cur.ResourceDetails.EC2ResourceDetails.InstanceType)
			rec.Region = aws.ToString(cur.ResourceDetails.EC2ResourceDetails.Region)
		}
	}
	switch {
	case r.ModifyRecommendationDetail != nil && len(r.ModifyRecommendationDetail.TargetInstances) > 0:
		target := r.ModifyRecommendationDetail.TargetInstances[0]
		rec.EstimatedMonthlySavings = parseCostFloat(target.EstimatedMonthlySavings)
		if target.ResourceDetails != nil && target.ResourceDetails.EC2ResourceDetails != nil {
			rec.TargetInstanceType = aws.ToString(target.ResourceDetails.EC2ResourceDetails.InstanceType)
		}
	case r.TerminateRecommendationDetail != nil:
		rec.EstimatedMonthlySavings = parseCostFloat(r.TerminateRecommendationDetail.EstimatedMonthlySavings)
	}
	return rec
}

// ReservationCoverage returns account-wide RI coverage for the last
// daysBack days, read from the response Total.
func (d *DefaultCostCollector) ReservationCoverage(ctx context.Context, cfg aws.Config, daysBack int) (*models.AWSReservationCoverage, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	out, err := clients.CE.GetReservationCoverage(ctx, &ce.GetReservationCoverageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ReservationCoverage: %w", common.Classify("ce", "GetReservationCoverage", "", err))
	}

	cov := &models.AWSReservationCoverage{PeriodStart: start, PeriodEnd: end}
	if out.Total != nil {
		if h := out.Total.CoverageHours; h != nil {
			cov.CoveragePercent = parseCostFloat(h.CoverageHoursPercentage)
			cov.OnDemandHours = parseCostFloat(h.OnDemandHours)
			cov.ReservedHours = parseCostFloat(h.ReservedHours)
		}
		if c := out.Total.CoverageCost; c != nil {
			cov.OnDemandCostUSD = parseCostFloat(c.OnDemandCost)
		}
	}
	return cov, nil
}

// SavingsPlanCoverage fetches Savings Plan coverage for every region in the
// account, aggregated over the last daysBack days and sorted by region.
//
// A single account-level CE call with GroupBy REGION returns per-region data.
// CoveragePercent is derived from the accumulated costs:
//
//	covered / (covered + on-demand) * 100
//
// Regions with zero spend (covered + on-demand == 0) receive 0% coverage.
func (d *DefaultCostCollector) SavingsPlanCoverage(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSSavingsPlanCoverage, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	type regionTotals struct {
		onDemand float64
		covered  float64
	}
	totals := make(map[string]*regionTotals)

	var nextToken *string
	for {
		out, err := clients.CE.GetSavingsPlansCoverage(ctx, &ce.GetSavingsPlansCoverageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			GroupBy: []cetypes.GroupDefinition{
				{
					Key:  aws.String("REGION"),
					Type: cetypes.GroupDefinitionTypeDimension,
				},
			},
			Granularity: cetypes.GranularityMonthly,
			NextToken:   nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("SavingsPlanCoverage: %w", common.Classify("ce", "GetSavingsPlansCoverage", "", err))
		}

		for _, cov := range out.SavingsPlansCoverages {
			// CE returns the region under "REGION" or "region" depending on
			// the API version.
			region := cov.Attributes["REGION"]
			if region == "" {
				region = cov.Attributes["region"]
			}
			if region == "" || cov.Coverage == nil {
				continue
			}

			if totals[region] == nil {
				totals[region] = &regionTotals{}
			}
			totals[region].onDemand += parseCostFloat(cov.Coverage.OnDemandCost)
			totals[region].covered += parseCostFloat(cov.Coverage.SpendCoveredBySavingsPlans)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	result := make([]models.AWSSavingsPlanCoverage, 0, len(totals))
	for region, t := range totals {
		var pct float64
		total := t.onDemand + t.covered
		if total > 0 {
			pct = (t.covered / total) * 100
		}
		result = append(result, models.AWSSavingsPlanCoverage{
			Region:          region,
			CoveragePercent: pct,
			OnDemandCostUSD: t.onDemand,
			CoveredCostUSD:  t.covered,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Region < result[j].Region })
	return result, nil
}
