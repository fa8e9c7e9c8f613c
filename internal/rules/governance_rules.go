package rules

import (
	"fmt"
	"sort"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	accountCostSpikeRuleID = "ACCOUNT_COST_SPIKE"
	budgetThresholdRuleID  = "BUDGET_THRESHOLD"
	taggingRuleID          = "TAGGING_NONCOMPLIANT"

	accountSpikeMinCostUSD    = 10000.0
	accountSpikeGrowthPct     = 50.0
	accountSpikeHighGrowth    = 100.0
	budgetWarningPercent      = 80.0
	budgetExceededPercent     = 100.0
	taggingHighBelowPercent   = 50.0
	taggingMediumBelowPercent = 80.0
)

// Budget statuses reported in finding metadata.
const (
	BudgetStatusWarning  = "WARNING"
	BudgetStatusExceeded = "EXCEEDED"
)

// ── ACCOUNT_COST_SPIKE ────────────────────────────────────────────────────────

// AccountCostSpikeRule flags member accounts with significant spend that
// grew sharply against the previous 30-day window. Accounts without prior
// spend are skipped; growth is undefined for them.
type AccountCostSpikeRule struct{}

func (r AccountCostSpikeRule) ID() string   { return accountCostSpikeRuleID }
func (r AccountCostSpikeRule) Name() string { return "Account Cost Spike" }

// Evaluate returns HIGH above 100% growth and MEDIUM otherwise.
func (r AccountCostSpikeRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	minCost := ctx.threshold(accountCostSpikeRuleID, "min_cost_usd", accountSpikeMinCostUSD)
	minGrowth := ctx.threshold(accountCostSpikeRuleID, "growth_percent", accountSpikeGrowthPct)

	var findings []models.Finding
	for _, acct := range ctx.Account.Accounts {
		if acct.CurrentCostUSD <= minCost || acct.PreviousCostUSD <= 0 {
			continue
		}
		growth := (acct.CurrentCostUSD - acct.PreviousCostUSD) / acct.PreviousCostUSD * 100
		if growth <= minGrowth {
			continue
		}

		sev := models.SeverityMedium
		if growth > accountSpikeHighGrowth {
			sev = models.SeverityHigh
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", accountCostSpikeRuleID, acct.ID),
			RuleID:         accountCostSpikeRuleID,
			ResourceID:     acct.ID,
			ResourceType:   models.ResourceAWSAccount,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       sev,
			Explanation:    fmt.Sprintf("Spend grew %.1f%% to $%.2f over the last 30 days.", growth, acct.CurrentCostUSD),
			Recommendation: "Review the account's new resources and usage with its owner.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"account_name":        acct.Name,
				"current_month_cost":  cents(acct.CurrentCostUSD),
				"previous_month_cost": cents(acct.PreviousCostUSD),
				"growth_rate":         cents(growth),
			},
		})
	}
	return findings
}

// ── BUDGET_THRESHOLD ──────────────────────────────────────────────────────────

// BudgetThresholdRule flags budgets whose actual spend passed 80% of the
// limit. Budgets without calculated spend are skipped.
type BudgetThresholdRule struct{}

func (r BudgetThresholdRule) ID() string   { return budgetThresholdRuleID }
func (r BudgetThresholdRule) Name() string { return "Budget Threshold" }

func (r BudgetThresholdRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	warn := ctx.threshold(budgetThresholdRuleID, "warning_percent", budgetWarningPercent)

	var findings []models.Finding
	for _, b := range ctx.Account.Budgets {
		if !b.HasCalculatedData || b.LimitUSD <= 0 {
			continue
		}
		pct := b.ActualSpendUSD / b.LimitUSD * 100
		if pct <= warn {
			continue
		}

		sev, status := models.SeverityMedium, BudgetStatusWarning
		if pct > budgetExceededPercent {
			sev, status = models.SeverityHigh, BudgetStatusExceeded
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", budgetThresholdRuleID, b.Name),
			RuleID:         budgetThresholdRuleID,
			ResourceID:     b.Name,
			ResourceType:   models.ResourceAWSBudget,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       sev,
			Explanation:    fmt.Sprintf("Budget is at %.1f%% of its $%.2f limit.", pct, b.LimitUSD),
			Recommendation: "Review spend against the budget owner's plan.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"budget_limit":     b.LimitUSD,
				"actual_spend":     b.ActualSpendUSD,
				"forecasted_spend": b.ForecastSpendUSD,
				"utilization":      cents(pct),
				"status":           status,
				"budget_time_unit": b.TimeUnit,
			},
		})
	}
	return findings
}

// ── TAGGING_NONCOMPLIANT ──────────────────────────────────────────────────────

// TaggingNoncompliantRule reports one account-level finding when some tagged
// resources miss a required tag key.
type TaggingNoncompliantRule struct{}

func (r TaggingNoncompliantRule) ID() string   { return taggingRuleID }
func (r TaggingNoncompliantRule) Name() string { return "Tagging Noncompliance" }

// Evaluate grades severity by the compliance percentage: HIGH below 50,
// MEDIUM below 80, LOW otherwise.
func (r TaggingNoncompliantRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil || ctx.Account.Tagging == nil {
		return nil
	}
	tc := ctx.Account.Tagging
	if tc.ResourcesEvaluated == 0 || tc.Compliant == tc.ResourcesEvaluated {
		return nil
	}

	sev := models.SeverityLow
	switch {
	case tc.CompliancePercent < taggingHighBelowPercent:
		sev = models.SeverityHigh
	case tc.CompliancePercent < taggingMediumBelowPercent:
		sev = models.SeverityMedium
	}

	keys := make([]string, 0, len(tc.MissingByTag))
	for k := range tc.MissingByTag {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return []models.Finding{{
		ID:             fmt.Sprintf("%s-%s", taggingRuleID, ctx.AccountID),
		RuleID:         taggingRuleID,
		ResourceID:     ctx.AccountID,
		ResourceType:   models.ResourceAWSAccount,
		AccountID:      ctx.AccountID,
		Profile:        ctx.Profile,
		Severity:       sev,
		Explanation:    fmt.Sprintf("%d of %d resources carry every required tag (%.1f%%).", tc.Compliant, tc.ResourcesEvaluated, tc.CompliancePercent),
		Recommendation: "Tag resources with the missing keys or enforce them with a tag policy.",
		DetectedAt:     ctx.now(),
		Metadata: map[string]any{
			"required_tags":  tc.RequiredTags,
			"missing_tags":   keys,
			"missing_by_tag": tc.MissingByTag,
		},
	}}
}
