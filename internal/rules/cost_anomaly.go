package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	costAnomalyRuleID = "COST_ANOMALY_HIGH_IMPACT"

	// costAnomalyMinImpactUSD matches the high-impact cut used by the risk
	// classifier.
	costAnomalyMinImpactUSD = 100.0
	costAnomalyHighUSD      = 1000.0
)

// CostAnomalyHighImpactRule turns each Cost Anomaly Detection finding with
// MaxImpact above $100 into a Finding. HIGH above $1000.
type CostAnomalyHighImpactRule struct{}

func (r CostAnomalyHighImpactRule) ID() string   { return costAnomalyRuleID }
func (r CostAnomalyHighImpactRule) Name() string { return "High Impact Cost Anomaly" }

func (r CostAnomalyHighImpactRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	minImpact := ctx.threshold(costAnomalyRuleID, "min_impact_usd", costAnomalyMinImpactUSD)

	var findings []models.Finding
	for _, a := range ctx.Account.Anomalies {
		if a.MaxImpact <= minImpact {
			continue
		}
		sev := models.SeverityMedium
		if a.MaxImpact > costAnomalyHighUSD {
			sev = models.SeverityHigh
		}
		service := a.Service
		if service == "" {
			service = "unknown service"
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", costAnomalyRuleID, a.ID),
			RuleID:         costAnomalyRuleID,
			ResourceID:     a.ID,
			ResourceType:   models.ResourceAWSCostAnomaly,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       sev,
			Explanation:    fmt.Sprintf("Anomaly on %s peaked at $%.2f (total impact $%.2f).", service, a.MaxImpact, a.TotalImpact),
			Recommendation: "Investigate the root cause in Cost Anomaly Detection.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"service":      a.Service,
				"start_date":   a.StartDate,
				"end_date":     a.EndDate,
				"max_impact":   a.MaxImpact,
				"total_impact": a.TotalImpact,
			},
		})
	}
	return findings
}
