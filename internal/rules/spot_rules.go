package rules

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	ec2SpotCandidateRuleID = "EC2_SPOT_CANDIDATE"
	asgNoMixedRuleID       = "ASG_NO_MIXED_INSTANCES"

	// spotMaxPriceRatio is the spot/on-demand ratio below which a switch is
	// worth recommending.
	spotMaxPriceRatio = 0.7
)

var (
	spotEnvironments  = []string{"dev", "test", "staging"}
	spotWorkloadTypes = []string{"batch", "analytics", "processing"}
)

// spotTolerant reports whether the instance tags mark an interruption
// tolerant workload.
func spotTolerant(tags map[string]string) bool {
	return containsAny(tags["Environment"], spotEnvironments) ||
		containsAny(tags["WorkloadType"], spotWorkloadTypes)
}

func containsAny(value string, needles []string) bool {
	value = strings.ToLower(value)
	if value == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(value, n) {
			return true
		}
	}
	return false
}

// ── EC2_SPOT_CANDIDATE ────────────────────────────────────────────────────────

// EC2SpotCandidateRule flags running on-demand instances of tolerant
// workloads whose current spot price is well under the on-demand price.
type EC2SpotCandidateRule struct{}

func (r EC2SpotCandidateRule) ID() string   { return ec2SpotCandidateRuleID }
func (r EC2SpotCandidateRule) Name() string { return "Spot Candidate EC2 Instance" }

// Evaluate skips instances without a known spot price. Savings are
// (on-demand - spot) * 730.
func (r EC2SpotCandidateRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	ratio := ctx.threshold(ec2SpotCandidateRuleID, "max_price_ratio", spotMaxPriceRatio)

	var findings []models.Finding
	for _, inst := range ctx.RegionData.EC2Instances {
		if inst.State != "running" || !inst.OnDemand() || !spotTolerant(inst.Tags) {
			continue
		}
		if inst.SpotPrice <= 0 {
			continue
		}
		onDemand, _ := p.HourlyCost(inst.InstanceType)
		if inst.SpotPrice >= onDemand*ratio {
			continue
		}

		savingsPct := (onDemand - inst.SpotPrice) / onDemand * 100
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ec2SpotCandidateRuleID, inst.InstanceID),
			RuleID:                  ec2SpotCandidateRuleID,
			ResourceID:              inst.InstanceID,
			ResourceType:            models.ResourceAWSEC2,
			Region:                  inst.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents((onDemand - inst.SpotPrice) * pricing.HoursPerMonth),
			Explanation:             fmt.Sprintf("Spot price is %.0f%% below on-demand for %s in %s.", savingsPct, inst.InstanceType, inst.AvailabilityZone),
			Recommendation:          "Run this workload on Spot capacity.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"instance_type":      inst.InstanceType,
				"availability_zone":  inst.AvailabilityZone,
				"on_demand_price":    onDemand,
				"spot_price":         inst.SpotPrice,
				"savings_percentage": cents(savingsPct),
				"environment":        inst.Tags["Environment"],
				"workload_type":      inst.Tags["WorkloadType"],
			},
		})
	}
	return findings
}

// ── ASG_NO_MIXED_INSTANCES ────────────────────────────────────────────────────

// ASGNoMixedInstancesRule flags Auto Scaling groups launched from a single
// template or configuration with no MixedInstancesPolicy, so they cannot
// draw on Spot capacity.
type ASGNoMixedInstancesRule struct{}

func (r ASGNoMixedInstancesRule) ID() string   { return asgNoMixedRuleID }
func (r ASGNoMixedInstancesRule) Name() string { return "ASG Without Mixed Instances" }

func (r ASGNoMixedInstancesRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	var findings []models.Finding
	for _, asg := range ctx.RegionData.AutoScalingGroups {
		if asg.HasMixedInstancesPolicy {
			continue
		}
		if asg.LaunchTemplate == "" && asg.LaunchConfiguration == "" {
			continue
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", asgNoMixedRuleID, asg.Name),
			RuleID:         asgNoMixedRuleID,
			ResourceID:     asg.Name,
			ResourceType:   models.ResourceAWSAutoScalingGroup,
			Region:         asg.Region,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       models.SeverityLow,
			Explanation:    "Auto Scaling group uses a single purchase option.",
			Recommendation: "Add a MixedInstancesPolicy with a Spot allocation.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"launch_template":      asg.LaunchTemplate,
				"launch_configuration": asg.LaunchConfiguration,
				"desired_capacity":     asg.DesiredCapacity,
				"instance_count":       asg.InstanceCount,
			},
		})
	}
	return findings
}
