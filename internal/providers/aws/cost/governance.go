package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/organizations"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// OrgAccounts lists every account in the organization with its BlendedCost
// for the current window [now-windowDays, now) and the previous window
// [now-2*windowDays, now-windowDays). Each window is one Cost Explorer
// query grouped by LINKED_ACCOUNT, summed over every returned period.
func (d *DefaultCostCollector) OrgAccounts(ctx context.Context, cfg aws.Config, windowDays int) ([]models.AWSOrgAccount, error) {
	clients := d.factory(globalConfig(cfg))
	days := effectiveDaysBack(windowDays)

	var accounts []models.AWSOrgAccount
	paginator := organizations.NewListAccountsPaginator(clients.Orgs, &organizations.ListAccountsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("OrgAccounts: %w", common.Classify("organizations", "ListAccounts", "", err))
		}
		for _, a := range page.Accounts {
			accounts = append(accounts, models.AWSOrgAccount{
				ID:     aws.ToString(a.Id),
				Name:   aws.ToString(a.Name),
				Email:  aws.ToString(a.Email),
				Status: string(a.Status),
			})
		}
	}
	if len(accounts) == 0 {
		return accounts, nil
	}

	now := d.now()
	curStart, curEnd := now.AddDate(0, 0, -days).Format("2006-01-02"), now.Format("2006-01-02")
	prevStart := now.AddDate(0, 0, -2*days).Format("2006-01-02")

	current, err := groupedCosts(ctx, clients.CE, curStart, curEnd, "LINKED_ACCOUNT", blendedCost)
	if err != nil {
		return nil, fmt.Errorf("OrgAccounts: current window: %w", err)
	}
	previous, err := groupedCosts(ctx, clients.CE, prevStart, curStart, "LINKED_ACCOUNT", blendedCost)
	if err != nil {
		return nil, fmt.Errorf("OrgAccounts: previous window: %w", err)
	}

	for i := range accounts {
		accounts[i].CurrentCostUSD = current[accounts[i].ID]
		accounts[i].PreviousCostUSD = previous[accounts[i].ID]
	}
	return accounts, nil
}

// Budgets returns every budget of accountID with the actual and forecasted
// spend AWS Budgets has calculated for the current period.
func (d *DefaultCostCollector) Budgets(ctx context.Context, cfg aws.Config, accountID string) ([]models.AWSBudget, error) {
	clients := d.factory(globalConfig(cfg))
	paginator := budgets.NewDescribeBudgetsPaginator(clients.Budgets, &budgets.DescribeBudgetsInput{
		AccountId: aws.String(accountID),
	})

	var result []models.AWSBudget
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Budgets: %w", common.Classify("budgets", "DescribeBudgets", accountID, err))
		}
		for _, b := range page.Budgets {
			budget := models.AWSBudget{
				Name:     aws.ToString(b.BudgetName),
				Type:     string(b.BudgetType),
				TimeUnit: string(b.TimeUnit),
			}
			if b.BudgetLimit != nil {
				budget.LimitUSD = parseCostFloat(b.BudgetLimit.Amount)
			}
			if cs := b.CalculatedSpend; cs != nil {
				budget.HasCalculatedData = true
				if cs.ActualSpend != nil {
					budget.ActualSpendUSD = parseCostFloat(cs.ActualSpend.Amount)
				}
				if cs.ForecastedSpend != nil {
					budget.ForecastSpendUSD = parseCostFloat(cs.ForecastedSpend.Amount)
				}
			}
			result = append(result, budget)
		}
	}
	return result, nil
}
