package cost

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

func totalDay(amount string) cetypes.ResultByTime {
	return cetypes.ResultByTime{
		Total: map[string]cetypes.MetricValue{blendedCost: {Amount: aws.String(amount)}},
	}
}

func groupedDay(amounts ...string) cetypes.ResultByTime {
	r := cetypes.ResultByTime{
		// Total is ignored whenever groups are present.
		Total: map[string]cetypes.MetricValue{blendedCost: {Amount: aws.String("999")}},
	}
	for _, a := range amounts {
		r.Groups = append(r.Groups, cetypes.Group{
			Keys:    []string{"svc"},
			Metrics: map[string]cetypes.MetricValue{blendedCost: {Amount: aws.String(a)}},
		})
	}
	return r
}

func TestDailyCosts_TotalsGroupsAndPages(t *testing.T) {
	mce := &mockCE{costPages: []*ce.GetCostAndUsageOutput{
		{
			ResultsByTime: []cetypes.ResultByTime{totalDay("10.50"), groupedDay("1.25", "2.25")},
			NextPageToken: aws.String("page-2"),
		},
		{
			ResultsByTime: []cetypes.ResultByTime{totalDay("-4.00"), totalDay("7")},
		},
	}}
	c := newTestCollector(&costClients{CE: mce})

	amounts, err := c.DailyCosts(context.Background(), aws.Config{Region: "eu-west-1"}, 60)
	require.NoError(t, err)
	assert.Equal(t, []float64{10.5, 3.5, 0, 7}, amounts, "negative days clamp to 0")
	assert.Equal(t, 2, mce.costCalls)
}

func TestDailyCosts_ErrorIsClassified(t *testing.T) {
	c := newTestCollector(&costClients{CE: &mockCE{costErr: apiError("AccessDeniedException")}})

	_, err := c.DailyCosts(context.Background(), aws.Config{}, 60)
	require.Error(t, err)

	var de *common.DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "GetCostAndUsage", de.Operation)
	assert.True(t, de.Recoverable)
}

func TestCostSummary_SortsServicesByCost(t *testing.T) {
	mce := &mockCE{costPages: []*ce.GetCostAndUsageOutput{{
		ResultsByTime: []cetypes.ResultByTime{
			{Groups: []cetypes.Group{
				{Keys: []string{"Amazon S3"}, Metrics: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String("20")}}},
				{Keys: []string{"Amazon EC2"}, Metrics: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String("80")}}},
				{Keys: []string{"Tax"}, Metrics: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: aws.String("0")}}},
			}},
		},
	}}}
	c := newTestCollector(&costClients{CE: mce})

	summary, err := c.CostSummary(context.Background(), aws.Config{}, 30)
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.TotalCostUSD)
	require.Len(t, summary.ServiceBreakdown, 2, "zero-cost services are dropped")
	assert.Equal(t, "Amazon EC2", summary.ServiceBreakdown[0].Service)
	assert.Equal(t, "2026-02-13", summary.PeriodStart)
	assert.Equal(t, "2026-03-15", summary.PeriodEnd)
}

func TestAnomalies_ConvertsImpactAndService(t *testing.T) {
	mce := &mockCE{anomalies: &ce.GetAnomaliesOutput{Anomalies: []cetypes.Anomaly{
		{
			AnomalyId:        aws.String("a-1"),
			AnomalyStartDate: aws.String("2026-03-01"),
			DimensionValue:   aws.String("fallback"),
			Impact:           &cetypes.Impact{MaxImpact: 150, TotalImpact: 420},
			RootCauses:       []cetypes.RootCause{{Service: aws.String("Amazon EC2")}},
		},
		{
			AnomalyId:      aws.String("a-2"),
			DimensionValue: aws.String("AWS Lambda"),
		},
	}}}
	c := newTestCollector(&costClients{CE: mce})

	got, err := c.Anomalies(context.Background(), aws.Config{}, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Amazon EC2", got[0].Service)
	assert.Equal(t, 150.0, got[0].MaxImpact)
	assert.Equal(t, 420.0, got[0].TotalImpact)
	assert.Equal(t, "AWS Lambda", got[1].Service)
	assert.Zero(t, got[1].MaxImpact)
}

func TestRIUtilization(t *testing.T) {
	mce := &mockCE{utilization: &ce.GetReservationUtilizationOutput{
		UtilizationsByTime: []cetypes.UtilizationByTime{{
			Groups: []cetypes.ReservationUtilizationGroup{
				{
					Value:      aws.String("ri-1"),
					Attributes: map[string]string{"instanceType": "m5.large", "region": "us-east-1"},
					Utilization: &cetypes.ReservationAggregates{
						UtilizationPercentage: aws.String("62.5"),
						UnusedHours:           aws.String("120"),
					},
				},
				{Value: aws.String("ri-no-data")},
			},
		}},
	}}
	c := newTestCollector(&costClients{CE: mce})

	got, err := c.RIUtilization(context.Background(), aws.Config{}, 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ri-1", got[0].SubscriptionID)
	assert.Equal(t, "m5.large", got[0].InstanceType)
	assert.Equal(t, 62.5, got[0].UtilizationPercent)
	assert.Equal(t, 120.0, got[0].UnusedHours)
}

func TestRightsizing_ReadsSavingsFromTargetInstance(t *testing.T) {
	mce := &mockCE{rightsizing: &ce.GetRightsizingRecommendationOutput{
		RightsizingRecommendations: []cetypes.RightsizingRecommendation{
			{
				AccountId:       aws.String("111122223333"),
				RightsizingType: cetypes.RightsizingTypeModify,
				CurrentInstance: &cetypes.CurrentInstance{
					ResourceId: aws.String("i-1"),
					ResourceDetails: &cetypes.ResourceDetails{EC2ResourceDetails: &cetypes.EC2ResourceDetails{
						InstanceType: aws.String("m5.2xlarge"),
						Region:       aws.String("US East (N. Virginia)"),
					}},
				},
				ModifyRecommendationDetail: &cetypes.ModifyRecommendationDetail{
					TargetInstances: []cetypes.TargetInstance{{
						EstimatedMonthlySavings: aws.String("95.5"),
						ResourceDetails: &cetypes.ResourceDetails{EC2ResourceDetails: &cetypes.EC2ResourceDetails{
							InstanceType: aws.String("m5.xlarge"),
						}},
					}},
				},
			},
			{
				RightsizingType:               cetypes.RightsizingTypeTerminate,
				CurrentInstance:               &cetypes.CurrentInstance{ResourceId: aws.String("i-2")},
				TerminateRecommendationDetail: &cetypes.TerminateRecommendationDetail{EstimatedMonthlySavings: aws.String("40")},
			},
		},
	}}
	c := newTestCollector(&costClients{CE: mce})

	got, err := c.Rightsizing(context.Background(), aws.Config{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "MODIFY", got[0].Action)
	assert.Equal(t, "m5.xlarge", got[0].TargetInstanceType)
	assert.Equal(t, 95.5, got[0].EstimatedMonthlySavings)
	assert.Equal(t, "TERMINATE", got[1].Action)
	assert.Equal(t, 40.0, got[1].EstimatedMonthlySavings)
}

func TestReservationCoverage_ReadsTotal(t *testing.T) {
	mce := &mockCE{coverage: &ce.GetReservationCoverageOutput{
		Total: &cetypes.Coverage{
			CoverageHours: &cetypes.CoverageHours{
				CoverageHoursPercentage: aws.String("35.0"),
				OnDemandHours:           aws.String("650"),
				ReservedHours:           aws.String("350"),
			},
			CoverageCost: &cetypes.CoverageCost{OnDemandCost: aws.String("123.45")},
		},
	}}
	c := newTestCollector(&costClients{CE: mce})

	got, err := c.ReservationCoverage(context.Background(), aws.Config{}, 7)
	require.NoError(t, err)
	assert.Equal(t, 35.0, got.CoveragePercent)
	assert.Equal(t, 650.0, got.OnDemandHours)
	assert.Equal(t, 123.45, got.OnDemandCostUSD)
	assert.Equal(t, "2026-03-08", got.PeriodStart)
}

func TestSavingsPlanCoverage_PerRegion(t *testing.T) {
	mce := &mockCE{spCoverage: &ce.GetSavingsPlansCoverageOutput{
		SavingsPlansCoverages: []cetypes.SavingsPlansCoverage{
			{
				Attributes: map[string]string{"REGION": "us-west-2"},
				Coverage:   &cetypes.SavingsPlansCoverageData{OnDemandCost: aws.String("75"), SpendCoveredBySavingsPlans: aws.String("25")},
			},
			{
				Attributes: map[string]string{"region": "eu-west-1"},
				Coverage:   &cetypes.SavingsPlansCoverageData{OnDemandCost: aws.String("0"), SpendCoveredBySavingsPlans: aws.String("0")},
			},
			{Attributes: map[string]string{}},
		},
	}}
	c := newTestCollector(&costClients{CE: mce})

	got, err := c.SavingsPlanCoverage(context.Background(), aws.Config{}, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "eu-west-1", got[0].Region)
	assert.Zero(t, got[0].CoveragePercent)
	assert.Equal(t, "us-west-2", got[1].Region)
	assert.Equal(t, 25.0, got[1].CoveragePercent)
}

func TestParseCostFloat(t *testing.T) {
	assert.Equal(t, 0.0, parseCostFloat(nil))
	assert.Equal(t, 0.0, parseCostFloat(aws.String("n/a")))
	assert.Equal(t, 1234.5678, parseCostFloat(aws.String("1234.5678")))
}
