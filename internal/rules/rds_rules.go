package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	rdsIdleRuleID      = "RDS_IDLE"
	rdsOversizedRuleID = "RDS_OVERSIZED"

	rdsIdleCPUPercent      = 5.0
	rdsIdleConnections     = 1.0
	rdsOversizedCPUPercent = 20.0
	rdsOversizedConns      = 10.0

	// rdsIdleSavingsFraction is the share of the monthly instance cost
	// recovered by stopping or deleting an idle database.
	rdsIdleSavingsFraction = 0.8
)

// rdsCandidate reports whether inst is available and has metric data.
func rdsCandidate(inst models.AWSRDSInstance) bool {
	return inst.Status == "available" && inst.CPUDatapoints > 0
}

// rdsIdle reports whether inst falls under the idle thresholds of ctx.
func rdsIdle(ctx RuleContext, inst models.AWSRDSInstance) bool {
	cpu := ctx.threshold(rdsIdleRuleID, "cpu_threshold", rdsIdleCPUPercent)
	conns := ctx.threshold(rdsIdleRuleID, "connections_threshold", rdsIdleConnections)
	return inst.AvgCPUPercent < cpu && inst.AvgConnections < conns
}

// ── RDS_IDLE ──────────────────────────────────────────────────────────────────

// RDSIdleRule flags databases with almost no CPU and no connections.
type RDSIdleRule struct{}

func (r RDSIdleRule) ID() string   { return rdsIdleRuleID }
func (r RDSIdleRule) Name() string { return "Idle RDS Instance" }

// Evaluate returns one HIGH Finding per idle database. Savings are 80% of
// the class's monthly on-demand cost.
func (r RDSIdleRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	var findings []models.Finding
	for _, inst := range ctx.RegionData.RDSInstances {
		if !rdsCandidate(inst) || !rdsIdle(ctx, inst) {
			continue
		}

		monthly := pricing.MonthlyCost(p, inst.DBInstanceClass)
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", rdsIdleRuleID, inst.DBInstanceID),
			RuleID:                  rdsIdleRuleID,
			ResourceID:              inst.DBInstanceID,
			ResourceType:            models.ResourceAWSRDS,
			Region:                  inst.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityHigh,
			EstimatedMonthlySavings: cents(monthly * rdsIdleSavingsFraction),
			Explanation:             fmt.Sprintf("Database averages %.1f%% CPU and %.1f connections.", inst.AvgCPUPercent, inst.AvgConnections),
			Recommendation:          "Snapshot and stop or delete the database.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"db_instance_class": inst.DBInstanceClass,
				"engine":            inst.Engine,
				"avg_cpu_percent":   inst.AvgCPUPercent,
				"avg_connections":   inst.AvgConnections,
				"monthly_cost":      cents(monthly),
			},
		})
	}
	return findings
}

// ── RDS_OVERSIZED ─────────────────────────────────────────────────────────────

// RDSOversizedRule flags lightly used databases that have a smaller class.
// Idle databases are left to RDS_IDLE.
type RDSOversizedRule struct{}

func (r RDSOversizedRule) ID() string   { return rdsOversizedRuleID }
func (r RDSOversizedRule) Name() string { return "Oversized RDS Instance" }

func (r RDSOversizedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	cpu := ctx.threshold(rdsOversizedRuleID, "cpu_threshold", rdsOversizedCPUPercent)
	conns := ctx.threshold(rdsOversizedRuleID, "connections_threshold", rdsOversizedConns)

	var findings []models.Finding
	for _, inst := range ctx.RegionData.RDSInstances {
		if !rdsCandidate(inst) || rdsIdle(ctx, inst) {
			continue
		}
		if inst.AvgCPUPercent >= cpu || inst.AvgConnections >= conns {
			continue
		}
		target, ok := p.SmallerClass(inst.DBInstanceClass)
		if !ok {
			continue
		}

		current, _ := p.HourlyCost(inst.DBInstanceClass)
		next, _ := p.HourlyCost(target)
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", rdsOversizedRuleID, inst.DBInstanceID),
			RuleID:                  rdsOversizedRuleID,
			ResourceID:              inst.DBInstanceID,
			ResourceType:            models.ResourceAWSRDS,
			Region:                  inst.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents((current - next) * pricing.HoursPerMonth),
			Explanation:             fmt.Sprintf("Database averages %.1f%% CPU and %.1f connections.", inst.AvgCPUPercent, inst.AvgConnections),
			Recommendation:          fmt.Sprintf("Modify the instance class from %s to %s.", inst.DBInstanceClass, target),
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"db_instance_class": inst.DBInstanceClass,
				"recommended_class": target,
				"avg_cpu_percent":   inst.AvgCPUPercent,
				"avg_connections":   inst.AvgConnections,
			},
		})
	}
	return findings
}
