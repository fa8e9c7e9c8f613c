package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/governance"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

const governanceWindowDays = 30

// Cost trends reported per account.
const (
	TrendIncreasing = "INCREASING"
	TrendStable     = "STABLE"
)

// AccountAnalysis is the spend of one organization member account.
type AccountAnalysis struct {
	AccountID    string  `json:"account_id"`
	AccountName  string  `json:"account_name"`
	MonthlyCost  float64 `json:"monthly_cost"`
	PreviousCost float64 `json:"previous_month_cost"`
	CostTrend    string  `json:"cost_trend"`
}

// GovernanceBody is the governance response body.
type GovernanceBody struct {
	AccountAnalysis   []AccountAnalysis         `json:"account_analysis"`
	CostAnomalies     []models.Finding          `json:"cost_anomalies"`
	BudgetViolations  []models.Finding          `json:"budget_violations"`
	TaggingCompliance *models.TaggingCompliance `json:"tagging_compliance"`
}

// Governance reviews organization account spend, budgets and tagging.
type Governance struct {
	env          *Env
	gov          GovernanceCollector
	requiredTags []string
}

// NewGovernance returns the governance function. requiredTags are the tag
// keys every resource must carry.
func NewGovernance(env *Env, gov GovernanceCollector, requiredTags []string) *Governance {
	return &Governance{env: env, gov: gov, requiredTags: requiredTags}
}

func (f *Governance) ID() string          { return FunctionGovernance }
func (f *Governance) Description() string { return "Review account spend growth, budgets and tagging compliance" }

// Run treats each source independently. An account that is not part of an
// organization, or may not read one, yields an empty account analysis.
func (f *Governance) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.openProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	cfg := s.global()

	window := governanceWindowDays
	if req.DaysBack > 0 {
		window = req.DaysBack
	}

	account := &models.AWSAccountData{}

	account.Accounts, err = f.gov.OrgAccounts(ctx, cfg, window)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("organization accounts: %w", err)
	}
	account.Budgets, err = f.gov.Budgets(ctx, cfg, s.profile.AccountID)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	if len(f.requiredTags) > 0 {
		account.Tagging, err = f.gov.TaggingCompliance(ctx, cfg, f.requiredTags)
		if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
			return nil, fmt.Errorf("tagging compliance: %w", err)
		}
	}

	rc := f.env.ruleContext(s)
	rc.Account = account
	findings := f.env.evaluate(f.ID(), governance.New(), rc)

	analysis := make([]AccountAnalysis, 0, len(account.Accounts))
	for _, a := range account.Accounts {
		trend := TrendStable
		if a.CurrentCostUSD > a.PreviousCostUSD {
			trend = TrendIncreasing
		}
		analysis = append(analysis, AccountAnalysis{
			AccountID:    a.ID,
			AccountName:  a.Name,
			MonthlyCost:  roundCents(a.CurrentCostUSD),
			PreviousCost: roundCents(a.PreviousCostUSD),
			CostTrend:    trend,
		})
	}

	return &Result{
		FunctionID: f.ID(),
		Body: GovernanceBody{
			AccountAnalysis:   analysis,
			CostAnomalies:     byRule(findings, rules.AccountCostSpikeRule{}.ID()),
			BudgetViolations:  byRule(findings, rules.BudgetThresholdRule{}.ID()),
			TaggingCompliance: account.Tagging,
		},
		Findings: findings,
	}, nil
}
