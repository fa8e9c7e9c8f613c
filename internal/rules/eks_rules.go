package rules

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	// eksSpotSavingsFraction is the typical Spot discount applied to the
	// on-demand nodegroup cost.
	eksSpotSavingsFraction = 0.7

	// eksMinSupportedVersion is the oldest Kubernetes minor version still in
	// standard support.
	eksMinSupportedVersion = "1.28"

	// eksFargateMaxNodes is the node count below which Fargate is usually
	// cheaper than managed nodegroups.
	eksFargateMaxNodes = 5
)

// nodegroupHourly returns the on-demand hourly price of ng's first instance
// type, or the provider default when ng lists none.
func nodegroupHourly(p pricing.Provider, ng models.EKSNodegroup) float64 {
	class := ""
	if len(ng.InstanceTypes) > 0 {
		class = ng.InstanceTypes[0]
	}
	v, _ := p.HourlyCost(class)
	return v
}

func nodegroupFinding(ctx RuleContext, ruleID string, ng models.EKSNodegroup) models.Finding {
	return models.Finding{
		ID:           fmt.Sprintf("%s:%s/%s", ruleID, ng.ClusterName, ng.Name),
		RuleID:       ruleID,
		ResourceID:   ng.ClusterName + "/" + ng.Name,
		ResourceType: models.ResourceAWSEKSNodegroup,
		Region:       ctx.Cluster.Region,
		AccountID:    ctx.AccountID,
		Profile:      ctx.Profile,
		DetectedAt:   ctx.now(),
		Metadata: map[string]any{
			"capacity_type":  ng.CapacityType,
			"instance_types": ng.InstanceTypes,
			"min_size":       ng.MinSize,
			"max_size":       ng.MaxSize,
			"desired_size":   ng.DesiredSize,
		},
	}
}

func clusterFinding(ctx RuleContext, ruleID string) models.Finding {
	c := ctx.Cluster
	return models.Finding{
		ID:           fmt.Sprintf("%s:%s", ruleID, c.Name),
		RuleID:       ruleID,
		ResourceID:   c.Name,
		ResourceType: models.ResourceAWSEKSCluster,
		Region:       c.Region,
		AccountID:    ctx.AccountID,
		Profile:      ctx.Profile,
		DetectedAt:   ctx.now(),
		Metadata: map[string]any{
			"version":    c.Version,
			"nodegroups": len(c.Nodegroups),
			"nodes":      c.TotalDesiredNodes(),
		},
	}
}

// ── EKS_NODEGROUP_ON_DEMAND ───────────────────────────────────────────────────

// EKSNodegroupOnDemandRule fires for each nodegroup running on-demand
// capacity. Savings are 70% of desired * hourly * 730.
type EKSNodegroupOnDemandRule struct{}

func (r EKSNodegroupOnDemandRule) ID() string   { return "EKS_NODEGROUP_ON_DEMAND" }
func (r EKSNodegroupOnDemandRule) Name() string { return "EKS Nodegroup On On-Demand Capacity" }

func (r EKSNodegroupOnDemandRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}
	p := ctx.prices()
	fraction := ctx.threshold(r.ID(), "spot_savings_fraction", eksSpotSavingsFraction)

	var findings []models.Finding
	for _, ng := range ctx.Cluster.Nodegroups {
		// EKS reports an empty capacity type for nodegroups created before
		// Spot support; those are on-demand.
		if ng.CapacityType != "" && ng.CapacityType != "ON_DEMAND" {
			continue
		}
		monthly := float64(ng.DesiredSize) * nodegroupHourly(p, ng) * pricing.HoursPerMonth

		f := nodegroupFinding(ctx, r.ID(), ng)
		f.Severity = models.SeverityMedium
		f.EstimatedMonthlySavings = cents(monthly * fraction)
		f.Explanation = fmt.Sprintf("Nodegroup %q runs %d on-demand nodes.", ng.Name, ng.DesiredSize)
		f.Recommendation = "Move interruption tolerant workloads to a SPOT nodegroup."
		f.Metadata["optimization_type"] = "SPOT"
		f.Metadata["current_monthly_cost"] = cents(monthly)
		findings = append(findings, f)
	}
	return findings
}

// ── EKS_NODEGROUP_AT_MAX ──────────────────────────────────────────────────────

// EKSNodegroupAtMaxRule fires when a scalable nodegroup sits at its maximum
// size, which usually means the maximum was set as a fixed size.
type EKSNodegroupAtMaxRule struct{}

func (r EKSNodegroupAtMaxRule) ID() string   { return "EKS_NODEGROUP_AT_MAX" }
func (r EKSNodegroupAtMaxRule) Name() string { return "EKS Nodegroup Pinned At Max Size" }

func (r EKSNodegroupAtMaxRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}
	var findings []models.Finding
	for _, ng := range ctx.Cluster.Nodegroups {
		if ng.DesiredSize != ng.MaxSize || ng.MaxSize <= ng.MinSize {
			continue
		}
		f := nodegroupFinding(ctx, r.ID(), ng)
		f.Severity = models.SeverityMedium
		f.Explanation = fmt.Sprintf("Nodegroup %q runs at its maximum of %d nodes.", ng.Name, ng.MaxSize)
		f.Recommendation = "Check node utilization and let the cluster autoscaler scale the group down."
		f.Metadata["optimization_type"] = "RIGHT_SIZING"
		findings = append(findings, f)
	}
	return findings
}

// ── EKS_NODEGROUP_SINGLE_TYPE ─────────────────────────────────────────────────

// EKSNodegroupSingleTypeRule fires for nodegroups with exactly one instance
// type. A single type limits Spot pool depth and bin packing.
type EKSNodegroupSingleTypeRule struct{}

func (r EKSNodegroupSingleTypeRule) ID() string   { return "EKS_NODEGROUP_SINGLE_TYPE" }
func (r EKSNodegroupSingleTypeRule) Name() string { return "EKS Nodegroup Single Instance Type" }

func (r EKSNodegroupSingleTypeRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}
	var findings []models.Finding
	for _, ng := range ctx.Cluster.Nodegroups {
		if len(ng.InstanceTypes) != 1 {
			continue
		}
		f := nodegroupFinding(ctx, r.ID(), ng)
		f.Severity = models.SeverityLow
		f.Explanation = fmt.Sprintf("Nodegroup %q uses only %s.", ng.Name, ng.InstanceTypes[0])
		f.Recommendation = "Add several similarly sized instance types to the nodegroup."
		f.Metadata["optimization_type"] = "DIVERSIFICATION"
		findings = append(findings, f)
	}
	return findings
}

// ── EKS_VERSION_OUTDATED ──────────────────────────────────────────────────────

// EKSVersionOutdatedRule fires when the cluster's Kubernetes version is
// older than eksMinSupportedVersion. Clusters past standard support are
// billed extended support fees.
type EKSVersionOutdatedRule struct{}

func (r EKSVersionOutdatedRule) ID() string   { return "EKS_VERSION_OUTDATED" }
func (r EKSVersionOutdatedRule) Name() string { return "EKS Version Outdated" }

func (r EKSVersionOutdatedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}
	v := "v" + strings.TrimPrefix(ctx.Cluster.Version, "v")
	if !semver.IsValid(v) || semver.Compare(v, "v"+eksMinSupportedVersion) >= 0 {
		return nil
	}
	f := clusterFinding(ctx, r.ID())
	f.Severity = models.SeverityMedium
	f.Explanation = fmt.Sprintf("Cluster runs Kubernetes %s; %s or newer is in standard support.", ctx.Cluster.Version, eksMinSupportedVersion)
	f.Recommendation = "Upgrade the control plane and nodegroups to a supported version."
	return []models.Finding{f}
}

// ── EKS_NO_AUTOSCALING_HEADROOM ───────────────────────────────────────────────

// EKSNoAutoscalingHeadroomRule fires when every nodegroup has a fixed size
// (min == max), so the cluster cannot scale down off-peak.
type EKSNoAutoscalingHeadroomRule struct{}

func (r EKSNoAutoscalingHeadroomRule) ID() string   { return "EKS_NO_AUTOSCALING_HEADROOM" }
func (r EKSNoAutoscalingHeadroomRule) Name() string { return "EKS Cluster Without Autoscaling" }

func (r EKSNoAutoscalingHeadroomRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil || len(ctx.Cluster.Nodegroups) == 0 {
		return nil
	}
	for _, ng := range ctx.Cluster.Nodegroups {
		if ng.MinSize != ng.MaxSize {
			return nil
		}
	}
	f := clusterFinding(ctx, r.ID())
	f.Severity = models.SeverityMedium
	f.Explanation = "Every nodegroup has a fixed size."
	f.Recommendation = "Widen nodegroup min/max and run the cluster autoscaler or Karpenter."
	return []models.Finding{f}
}

// ── EKS_FARGATE_CANDIDATE ─────────────────────────────────────────────────────

// EKSFargateCandidateRule fires for small clusters without Fargate profiles.
type EKSFargateCandidateRule struct{}

func (r EKSFargateCandidateRule) ID() string   { return "EKS_FARGATE_CANDIDATE" }
func (r EKSFargateCandidateRule) Name() string { return "EKS Fargate Candidate" }

func (r EKSFargateCandidateRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil || len(ctx.Cluster.Nodegroups) == 0 || ctx.Cluster.FargateProfiles > 0 {
		return nil
	}
	nodes := ctx.Cluster.TotalDesiredNodes()
	if float64(nodes) >= ctx.threshold(r.ID(), "max_nodes", eksFargateMaxNodes) {
		return nil
	}
	f := clusterFinding(ctx, r.ID())
	f.Severity = models.SeverityInfo
	f.Explanation = fmt.Sprintf("Cluster runs %d nodes and no Fargate profiles.", nodes)
	f.Recommendation = "Consider Fargate for small or bursty workloads."
	return []models.Finding{f}
}
