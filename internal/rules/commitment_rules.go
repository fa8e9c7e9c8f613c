package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	riUnderutilizedRuleID = "RI_UNDERUTILIZED"
	ceRightsizingRuleID   = "CE_RIGHTSIZING"
	spLowCoverageRuleID   = "SAVINGS_PLAN_LOW_COVERAGE"

	riUtilizationThreshold = 80.0
	riUtilizationHigh      = 50.0

	spCoverageThreshold   = 60.0
	spCoverageHighBelow   = 40.0
	spMinOnDemandUSD      = 100.0
	spSavingsRateEstimate = 0.10
)

// ── RI_UNDERUTILIZED ──────────────────────────────────────────────────────────

// RIUnderutilizedRule flags reserved instance subscriptions whose
// utilization is below the threshold. Unused reserved hours are already paid
// for, so no savings are estimated.
type RIUnderutilizedRule struct{}

func (r RIUnderutilizedRule) ID() string   { return riUnderutilizedRuleID }
func (r RIUnderutilizedRule) Name() string { return "Underutilized Reserved Instance" }

// Evaluate returns HIGH below 50% utilization and MEDIUM otherwise.
func (r RIUnderutilizedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	threshold := ctx.threshold(riUnderutilizedRuleID, "utilization_threshold", riUtilizationThreshold)

	var findings []models.Finding
	for _, ri := range ctx.Account.RIUtilization {
		if ri.UtilizationPercent >= threshold {
			continue
		}

		sev := models.SeverityMedium
		if ri.UtilizationPercent < riUtilizationHigh {
			sev = models.SeverityHigh
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", riUnderutilizedRuleID, ri.SubscriptionID),
			RuleID:         riUnderutilizedRuleID,
			ResourceID:     ri.SubscriptionID,
			ResourceType:   models.ResourceAWSReservedInstance,
			Region:         ri.Region,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       sev,
			Explanation:    fmt.Sprintf("Reservation utilization is %.1f%%.", ri.UtilizationPercent),
			Recommendation: "Modify or exchange the reservation, or move workloads onto it.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"instance_type":          ri.InstanceType,
				"utilization_percentage": ri.UtilizationPercent,
				"unused_hours":           ri.UnusedHours,
				"purchased_hours":        ri.PurchasedHours,
			},
		})
	}
	return findings
}

// ── CE_RIGHTSIZING ────────────────────────────────────────────────────────────

// CERightsizingRule surfaces Cost Explorer rightsizing recommendations.
// TERMINATE recommendations are dropped; they belong to unused-resource
// review, not to commitment planning.
type CERightsizingRule struct{}

func (r CERightsizingRule) ID() string   { return ceRightsizingRuleID }
func (r CERightsizingRule) Name() string { return "Cost Explorer Rightsizing" }

func (r CERightsizingRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	var findings []models.Finding
	for _, rec := range ctx.Account.Rightsizing {
		if rec.Action == "TERMINATE" {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ceRightsizingRuleID, rec.ResourceID),
			RuleID:                  ceRightsizingRuleID,
			ResourceID:              rec.ResourceID,
			ResourceType:            models.ResourceAWSEC2,
			Region:                  rec.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents(rec.EstimatedMonthlySavings),
			Explanation:             fmt.Sprintf("Cost Explorer recommends %s for this %s instance.", rec.Action, rec.InstanceType),
			Recommendation:          fmt.Sprintf("Change the instance type to %s.", rec.TargetInstanceType),
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"current_instance_type":     rec.InstanceType,
				"target_instance_type":      rec.TargetInstanceType,
				"recommended_action":        rec.Action,
				"estimated_annual_savings":  cents(rec.EstimatedMonthlySavings * 12),
				"recommendation_account_id": rec.AccountID,
			},
		})
	}
	return findings
}

// ── SAVINGS_PLAN_LOW_COVERAGE ─────────────────────────────────────────────────

// SavingsPlanLowCoverageRule flags regions with meaningful on-demand spend
// that Savings Plans barely cover. It reads RegionData.SavingsPlanCoverage.
type SavingsPlanLowCoverageRule struct{}

func (r SavingsPlanLowCoverageRule) ID() string   { return spLowCoverageRuleID }
func (r SavingsPlanLowCoverageRule) Name() string { return "Low Savings Plan Coverage" }

// Evaluate returns HIGH below 40% coverage and MEDIUM otherwise. Savings
// assume a 10% discount on the uncovered on-demand spend.
func (r SavingsPlanLowCoverageRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	threshold := ctx.threshold(spLowCoverageRuleID, "coverage_threshold", spCoverageThreshold)
	minSpend := ctx.threshold(spLowCoverageRuleID, "min_on_demand_usd", spMinOnDemandUSD)

	var findings []models.Finding
	for _, sp := range ctx.RegionData.SavingsPlanCoverage {
		if sp.CoveragePercent >= threshold || sp.OnDemandCostUSD <= minSpend {
			continue
		}

		sev := models.SeverityMedium
		if sp.CoveragePercent < spCoverageHighBelow {
			sev = models.SeverityHigh
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", spLowCoverageRuleID, sp.Region),
			RuleID:                  spLowCoverageRuleID,
			ResourceID:              sp.Region,
			ResourceType:            models.ResourceAWSSavingsPlan,
			Region:                  sp.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                sev,
			EstimatedMonthlySavings: cents(sp.OnDemandCostUSD * spSavingsRateEstimate),
			Explanation:             fmt.Sprintf("Savings Plans cover %.1f%% of compute spend; $%.2f ran on demand.", sp.CoveragePercent, sp.OnDemandCostUSD),
			Recommendation:          "Purchase a Compute Savings Plan sized to the steady on-demand baseline.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"coverage_percent":   sp.CoveragePercent,
				"on_demand_cost_usd": sp.OnDemandCostUSD,
				"covered_cost_usd":   sp.CoveredCostUSD,
			},
		})
	}
	return findings
}
