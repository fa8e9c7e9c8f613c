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

const blendedCost = "BlendedCost"

// DailyCosts returns one BlendedCost amount per day for the last daysBack
// days, oldest first. A day's amount is the Total metric, or the sum of its
// groups when CE returns grouped results. Negative days (credits, refunds)
// are clamped to 0.
func (d *DefaultCostCollector) DailyCosts(ctx context.Context, cfg aws.Config, daysBack int) ([]float64, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	var amounts []float64
	var nextToken *string
	for {
		out, err := clients.CE.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			Granularity:   cetypes.GranularityDaily,
			Metrics:       []string{blendedCost},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DailyCosts: %w", common.Classify("ce", "GetCostAndUsage", "", err))
		}

		for _, result := range out.ResultsByTime {
			amount := dayAmount(result)
			if amount < 0 {
				var day string
				if result.TimePeriod != nil {
					day = aws.ToString(result.TimePeriod.Start)
				}
				d.logger.Debug("clamping negative daily cost", "day", day, "amount", amount)
				amount = 0
			}
			amounts = append(amounts, amount)
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return amounts, nil
}

// dayAmount sums the groups of one result when present, otherwise reads
// the ungrouped total.
func dayAmount(result cetypes.ResultByTime) float64 {
	if len(result.Groups) > 0 {
		var sum float64
		for _, g := range result.Groups {
			if m, ok := g.Metrics[blendedCost]; ok {
				sum += parseCostFloat(m.Amount)
			}
		}
		return sum
	}
	if m, ok := result.Total[blendedCost]; ok {
		return parseCostFloat(m.Amount)
	}
	return 0
}

// CostSummary calls Cost Explorer GetCostAndUsage for the last daysBack days
// and returns an aggregated summary with a per-service cost breakdown.
//
// Granularity is MONTHLY; costs are summed across all returned time periods so
// the summary covers the full requested window (which may span two calendar months).
// Services are sorted descending by cost.
func (d *DefaultCostCollector) CostSummary(ctx context.Context, cfg aws.Config, daysBack int) (*models.AWSCostSummary, error) {
	clients := d.factory(globalConfig(cfg))
	start, end := d.billingDateRange(effectiveDaysBack(daysBack))

	serviceTotals, err := groupedCosts(ctx, clients.CE, start, end, "SERVICE", "UnblendedCost")
	if err != nil {
		return nil, fmt.Errorf("CostSummary: %w", err)
	}

	var totalCost float64
	breakdown := make([]models.AWSServiceCost, 0, len(serviceTotals))
	for service, cost := range serviceTotals {
		totalCost += cost
		if cost > 0 {
			breakdown = append(breakdown, models.AWSServiceCost{Service: service, CostUSD: cost})
		}
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].CostUSD != breakdown[j].CostUSD {
			return breakdown[i].CostUSD > breakdown[j].CostUSD
		}
		return breakdown[i].Service < breakdown[j].Service
	})

	return &models.AWSCostSummary{
		PeriodStart:      start,
		PeriodEnd:        end,
		TotalCostUSD:     totalCost,
		ServiceBreakdown: breakdown,
	}, nil
}

// groupedCosts pages through a MONTHLY GetCostAndUsage grouped by one
// dimension and sums metric per group key across all periods.
func groupedCosts(ctx context.Context, client costCEClient, start, end, dimension, metric string) (map[string]float64, error) {
	totals := make(map[string]float64)

	var nextToken *string
	for {
		out, err := client.GetCostAndUsage(ctx, &ce.GetCostAndUsageInput{
			TimePeriod: &cetypes.DateInterval{
				Start: aws.String(start),
				End:   aws.String(end),
			},
			Granularity: cetypes.GranularityMonthly,
			Metrics:     []string{metric},
			GroupBy: []cetypes.GroupDefinition{
				{
					Key:  aws.String(dimension),
					Type: cetypes.GroupDefinitionTypeDimension,
				},
			},
			NextPageToken: nextToken,
		})
		if err != nil {
			return nil, common.Classify("ce", "GetCostAndUsage", dimension, err)
		}

		for _, result := range out.ResultsByTime {
			for _, group := range result.Groups {
				if len(group.Keys) == 0 {
					continue
				}
				m, ok := group.Metrics[metric]
				if !ok {
					continue
				}
				totals[group.Keys[0]] += parseCostFloat(m.Amount)
			}
		}

		if out.NextPageToken == nil {
			break
		}
		nextToken = out.NextPageToken
	}

	return totals, nil
}
