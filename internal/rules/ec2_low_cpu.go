package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	ec2LowCPURuleID = "EC2_LOW_CPU"

	// ec2LowCPUThresholdPercent is the 7-day average CPU below which a
	// running instance is considered oversized.
	ec2LowCPUThresholdPercent = 20.0
)

// EC2LowCPURule flags running instances whose average CPU is below the
// threshold and for which a smaller instance class is known.
//
// Instances with CPUDatapoints == 0 are skipped: no datapoints means
// CloudWatch data was unavailable, not that the instance is idle.
type EC2LowCPURule struct{}

func (r EC2LowCPURule) ID() string   { return ec2LowCPURuleID }
func (r EC2LowCPURule) Name() string { return "Low CPU EC2 Instance" }

// Evaluate returns one Finding per running instance below the CPU threshold.
// Savings are the hourly price difference to the smaller class times 730.
func (r EC2LowCPURule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	threshold := ctx.threshold(ec2LowCPURuleID, "cpu_threshold", ec2LowCPUThresholdPercent)

	var findings []models.Finding
	for _, inst := range ctx.RegionData.EC2Instances {
		if inst.State != "running" || inst.CPUDatapoints == 0 {
			continue
		}
		if inst.AvgCPUPercent >= threshold {
			continue
		}
		target, ok := p.SmallerClass(inst.InstanceType)
		if !ok {
			continue
		}

		current, _ := p.HourlyCost(inst.InstanceType)
		next, _ := p.HourlyCost(target)
		savings := (current - next) * pricing.HoursPerMonth
		if savings <= 0 {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ec2LowCPURuleID, inst.InstanceID),
			RuleID:                  ec2LowCPURuleID,
			ResourceID:              inst.InstanceID,
			ResourceType:            models.ResourceAWSEC2,
			Region:                  inst.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents(savings),
			Explanation:             fmt.Sprintf("Average CPU is %.1f%% over the lookback window.", inst.AvgCPUPercent),
			Recommendation:          fmt.Sprintf("Downsize from %s to %s.", inst.InstanceType, target),
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"instance_type":    inst.InstanceType,
				"recommended_type": target,
				"avg_cpu_percent":  inst.AvgCPUPercent,
				"current_monthly":  cents(current * pricing.HoursPerMonth),
			},
		})
	}
	return findings
}
