package cost

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	budgetstypes "github.com/aws/aws-sdk-go-v2/service/budgets/types"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	taggingtypes "github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountCosts(amounts map[string]string) *ce.GetCostAndUsageOutput {
	var groups []cetypes.Group
	for id, amount := range amounts {
		groups = append(groups, cetypes.Group{
			Keys:    []string{id},
			Metrics: map[string]cetypes.MetricValue{blendedCost: {Amount: aws.String(amount)}},
		})
	}
	return &ce.GetCostAndUsageOutput{ResultsByTime: []cetypes.ResultByTime{{Groups: groups}}}
}

func TestOrgAccounts_CurrentAndPreviousWindows(t *testing.T) {
	orgs := &mockOrgs{out: &organizations.ListAccountsOutput{Accounts: []orgtypes.Account{
		{Id: aws.String("111111111111"), Name: aws.String("prod"), Status: orgtypes.AccountStatusActive},
		{Id: aws.String("222222222222"), Name: aws.String("sandbox"), Status: orgtypes.AccountStatusActive},
	}}}
	mce := &mockCE{costByWindow: map[string]*ce.GetCostAndUsageOutput{
		"2026-02-13": accountCosts(map[string]string{"111111111111": "1200.50", "222222222222": "80"}),
		"2026-01-14": accountCosts(map[string]string{"111111111111": "1000"}),
	}}
	c := newTestCollector(&costClients{Orgs: orgs, CE: mce})

	got, err := c.OrgAccounts(context.Background(), regional, 30)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "prod", got[0].Name)
	assert.Equal(t, 1200.5, got[0].CurrentCostUSD)
	assert.Equal(t, 1000.0, got[0].PreviousCostUSD)
	assert.Equal(t, 80.0, got[1].CurrentCostUSD)
	assert.Zero(t, got[1].PreviousCostUSD)
	assert.Equal(t, 2, mce.costCalls)
}

func TestOrgAccounts_NoAccountsSkipsCostExplorer(t *testing.T) {
	mce := &mockCE{}
	c := newTestCollector(&costClients{Orgs: &mockOrgs{}, CE: mce})

	got, err := c.OrgAccounts(context.Background(), regional, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, mce.costCalls)
}

func TestBudgets_CalculatedSpend(t *testing.T) {
	mb := &mockBudgets{out: &budgets.DescribeBudgetsOutput{Budgets: []budgetstypes.Budget{
		{
			BudgetName:  aws.String("monthly"),
			BudgetType:  budgetstypes.BudgetTypeCost,
			TimeUnit:    budgetstypes.TimeUnitMonthly,
			BudgetLimit: &budgetstypes.Spend{Amount: aws.String("1000"), Unit: aws.String("USD")},
			CalculatedSpend: &budgetstypes.CalculatedSpend{
				ActualSpend:     &budgetstypes.Spend{Amount: aws.String("850.25"), Unit: aws.String("USD")},
				ForecastedSpend: &budgetstypes.Spend{Amount: aws.String("1100"), Unit: aws.String("USD")},
			},
		},
		{
			BudgetName:  aws.String("fresh"),
			BudgetLimit: &budgetstypes.Spend{Amount: aws.String("50"), Unit: aws.String("USD")},
		},
	}}}
	c := newTestCollector(&costClients{Budgets: mb})

	got, err := c.Budgets(context.Background(), regional, "123456789012")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "123456789012", mb.accountID)

	assert.Equal(t, 1000.0, got[0].LimitUSD)
	assert.Equal(t, 850.25, got[0].ActualSpendUSD)
	assert.Equal(t, 1100.0, got[0].ForecastSpendUSD)
	assert.True(t, got[0].HasCalculatedData)
	assert.Equal(t, "COST", got[0].Type)

	assert.False(t, got[1].HasCalculatedData)
}

func TestTaggingCompliance(t *testing.T) {
	tag := func(k string) taggingtypes.Tag { return taggingtypes.Tag{Key: aws.String(k), Value: aws.String("x")} }
	mt := &mockTagging{out: &resourcegroupstaggingapi.GetResourcesOutput{ResourceTagMappingList: []taggingtypes.ResourceTagMapping{
		{ResourceARN: aws.String("arn:1"), Tags: []taggingtypes.Tag{tag("Environment"), tag("Owner")}},
		{ResourceARN: aws.String("arn:2"), Tags: []taggingtypes.Tag{tag("Environment")}},
		{ResourceARN: aws.String("arn:3"), Tags: []taggingtypes.Tag{tag("Name")}},
	}}}
	c := newTestCollector(&costClients{Tagging: mt})

	got, err := c.TaggingCompliance(context.Background(), regional, []string{"Environment", "Owner"})
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResourcesEvaluated)
	assert.Equal(t, 1, got.Compliant)
	assert.Equal(t, 33.3, got.CompliancePercent)
	assert.Equal(t, map[string]int{"Environment": 1, "Owner": 2}, got.MissingByTag)
}

func TestTaggingCompliance_NoResources(t *testing.T) {
	c := newTestCollector(&costClients{Tagging: &mockTagging{}})

	got, err := c.TaggingCompliance(context.Background(), regional, []string{"Owner"})
	require.NoError(t, err)
	assert.Zero(t, got.ResourcesEvaluated)
	assert.Zero(t, got.CompliancePercent)
}
