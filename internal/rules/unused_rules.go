package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	sgUnusedRuleID       = "SG_UNUSED"
	eipUnattachedRuleID  = "EIP_UNATTACHED"
	lbNoHealthyTargetsID = "LB_NO_HEALTHY_TARGETS"
)

// ── SG_UNUSED ─────────────────────────────────────────────────────────────────

// SGUnusedRule flags non-default security groups that no network interface
// references. Security groups are free; the finding is housekeeping.
type SGUnusedRule struct{}

func (r SGUnusedRule) ID() string   { return sgUnusedRuleID }
func (r SGUnusedRule) Name() string { return "Unused Security Group" }

func (r SGUnusedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	var findings []models.Finding
	for _, sg := range ctx.RegionData.SecurityGroups {
		if sg.GroupName == "default" || sg.InUse {
			continue
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s", sgUnusedRuleID, sg.GroupID),
			RuleID:         sgUnusedRuleID,
			ResourceID:     sg.GroupID,
			ResourceType:   models.ResourceAWSSecurityGroup,
			Region:         sg.Region,
			AccountID:      ctx.AccountID,
			Profile:        ctx.Profile,
			Severity:       models.SeverityInfo,
			Explanation:    fmt.Sprintf("Security group %q is not attached to any network interface.", sg.GroupName),
			Recommendation: "Delete the security group.",
			DetectedAt:     ctx.now(),
			Metadata: map[string]any{
				"group_name": sg.GroupName,
				"vpc_id":     sg.VPCID,
			},
		})
	}
	return findings
}

// ── EIP_UNATTACHED ────────────────────────────────────────────────────────────

// EIPUnattachedRule flags Elastic IPs that are not associated with anything.
// Idle addresses are billed hourly.
type EIPUnattachedRule struct{}

func (r EIPUnattachedRule) ID() string   { return eipUnattachedRuleID }
func (r EIPUnattachedRule) Name() string { return "Unattached Elastic IP" }

func (r EIPUnattachedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	monthly := pricing.MonthlyUnitCost(ctx.prices(), "eip:idle-hourly")

	var findings []models.Finding
	for _, eip := range ctx.RegionData.ElasticIPs {
		if eip.Attached() {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", eipUnattachedRuleID, eip.AllocationID),
			RuleID:                  eipUnattachedRuleID,
			ResourceID:              eip.AllocationID,
			ResourceType:            models.ResourceAWSElasticIP,
			Region:                  eip.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: cents(monthly),
			Explanation:             fmt.Sprintf("Elastic IP %s is not associated.", eip.PublicIP),
			Recommendation:          "Release the address.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"public_ip": eip.PublicIP,
			},
		})
	}
	return findings
}

// ── LB_NO_HEALTHY_TARGETS ─────────────────────────────────────────────────────

// LBNoHealthyTargetsRule flags active load balancers whose target groups
// report no healthy targets. Load balancers whose target health could not be
// read are skipped.
type LBNoHealthyTargetsRule struct{}

func (r LBNoHealthyTargetsRule) ID() string   { return lbNoHealthyTargetsID }
func (r LBNoHealthyTargetsRule) Name() string { return "Load Balancer Without Healthy Targets" }

func (r LBNoHealthyTargetsRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	monthly := pricing.MonthlyUnitCost(ctx.prices(), "elb:hourly")

	var findings []models.Finding
	for _, lb := range ctx.RegionData.LoadBalancers {
		if lb.State != "active" || !lb.TargetHealthKnown || lb.HealthyTargets > 0 {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", lbNoHealthyTargetsID, lb.LoadBalancerName),
			RuleID:                  lbNoHealthyTargetsID,
			ResourceID:              lb.LoadBalancerARN,
			ResourceType:            models.ResourceAWSLoadBalancer,
			Region:                  lb.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents(monthly),
			Explanation:             fmt.Sprintf("Load balancer has %d target groups and no healthy targets.", lb.TargetGroups),
			Recommendation:          "Delete the load balancer if it no longer serves traffic.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"load_balancer_name": lb.LoadBalancerName,
				"type":               lb.Type,
				"target_groups":      lb.TargetGroups,
			},
		})
	}
	return findings
}
