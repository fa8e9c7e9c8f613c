package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

const (
	natMissingEndpointsRuleID = "NAT_MISSING_VPC_ENDPOINTS"
	natLowTrafficRuleID       = "NAT_LOW_TRAFFIC"
	albNoCloudFrontRuleID     = "ALB_NO_CLOUDFRONT"
	crossRegionRuleID         = "CROSS_REGION_FOOTPRINT"

	natLowTrafficThresholdGB = 1.0
)

// endpointServices are the services whose traffic most often flows through
// a NAT gateway when no VPC endpoint exists.
var endpointServices = []string{"s3", "dynamodb", "ec2", "ssm"}

// missingEndpoints returns the entries of endpointServices with no endpoint
// in vpcID, in endpointServices order.
func missingEndpoints(region, vpcID string, endpoints []models.AWSVPCEndpoint) []string {
	have := make(map[string]bool)
	for _, ep := range endpoints {
		if ep.VPCID == vpcID {
			have[ep.ServiceName] = true
		}
	}
	var missing []string
	for _, svc := range endpointServices {
		if !have[fmt.Sprintf("com.amazonaws.%s.%s", region, svc)] {
			missing = append(missing, svc)
		}
	}
	return missing
}

// ── NAT_MISSING_VPC_ENDPOINTS ─────────────────────────────────────────────────

// NATMissingEndpointsRule flags available NAT gateways whose VPC lacks
// gateway or interface endpoints for common AWS services.
type NATMissingEndpointsRule struct{}

func (r NATMissingEndpointsRule) ID() string   { return natMissingEndpointsRuleID }
func (r NATMissingEndpointsRule) Name() string { return "NAT Gateway Without VPC Endpoints" }

// Evaluate uses the estimate:vpc-endpoint unit as the per-gateway saving.
func (r NATMissingEndpointsRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	estimate, _ := p.UnitCost("estimate:vpc-endpoint")
	perGB, _ := p.UnitCost("nat:per-gb")

	var findings []models.Finding
	for _, ng := range ctx.RegionData.NATGateways {
		if ng.State != "available" {
			continue
		}
		missing := missingEndpoints(ng.Region, ng.VPCID, ctx.RegionData.VPCEndpoints)
		if len(missing) == 0 {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", natMissingEndpointsRuleID, ng.NATGatewayID),
			RuleID:                  natMissingEndpointsRuleID,
			ResourceID:              ng.NATGatewayID,
			ResourceType:            models.ResourceAWSNATGateway,
			Region:                  ng.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents(estimate),
			Explanation:             fmt.Sprintf("VPC %s has no endpoints for %s.", ng.VPCID, strings.Join(missing, ", ")),
			Recommendation:          "Create VPC endpoints so AWS service traffic bypasses the NAT gateway.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"vpc_id":             ng.VPCID,
				"missing_endpoints":  missing,
				"bytes_processed_gb": ng.BytesProcessedGB,
				"processing_cost":    cents(ng.BytesProcessedGB * perGB),
			},
		})
	}
	return findings
}

// ── NAT_LOW_TRAFFIC ───────────────────────────────────────────────────────────

// NATLowTrafficRule flags available NAT Gateways whose outbound traffic is
// below 1 GB over the lookback period.
//
// The rule fires even when BytesProcessedGB == 0 because 0 bytes genuinely
// means no traffic passed through, unlike EC2 CPU where 0 means CloudWatch
// had no data.
type NATLowTrafficRule struct{}

func (r NATLowTrafficRule) ID() string   { return natLowTrafficRuleID }
func (r NATLowTrafficRule) Name() string { return "NAT Gateway Low Traffic" }

// Evaluate returns one Finding per idle NAT Gateway. Savings are the
// gateway's fixed hourly charge for a month.
func (r NATLowTrafficRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	threshold := ctx.threshold(natLowTrafficRuleID, "traffic_threshold_gb", natLowTrafficThresholdGB)
	monthly := pricing.MonthlyUnitCost(ctx.prices(), "nat:hourly")

	var findings []models.Finding
	for _, ng := range ctx.RegionData.NATGateways {
		if ng.State != "available" {
			continue
		}
		if ng.BytesProcessedGB >= threshold {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", natLowTrafficRuleID, ng.NATGatewayID),
			RuleID:                  natLowTrafficRuleID,
			ResourceID:              ng.NATGatewayID,
			ResourceType:            models.ResourceAWSNATGateway,
			Region:                  ng.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityHigh,
			EstimatedMonthlySavings: cents(monthly),
			Explanation:             "NAT Gateway has negligible traffic.",
			Recommendation:          "Delete NAT or consolidate egress via shared NAT.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"bytes_processed_gb": ng.BytesProcessedGB,
			},
		})
	}
	return findings
}

// ── ALB_NO_CLOUDFRONT ─────────────────────────────────────────────────────────

// ALBNoCloudFrontRule flags application load balancers that no CloudFront
// distribution uses as an origin. It needs both RegionData and Account.
type ALBNoCloudFrontRule struct{}

func (r ALBNoCloudFrontRule) ID() string   { return albNoCloudFrontRuleID }
func (r ALBNoCloudFrontRule) Name() string { return "ALB Not Behind CloudFront" }

func (r ALBNoCloudFrontRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil || ctx.Account == nil {
		return nil
	}

	origins := make(map[string]bool, len(ctx.Account.CloudFrontOrigins))
	for _, o := range ctx.Account.CloudFrontOrigins {
		origins[strings.ToLower(o)] = true
	}
	estimate, _ := ctx.prices().UnitCost("estimate:cloudfront")

	var findings []models.Finding
	for _, lb := range ctx.RegionData.LoadBalancers {
		if lb.Type != "application" || lb.State != "active" {
			continue
		}
		if origins[strings.ToLower(lb.DNSName)] {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", albNoCloudFrontRuleID, lb.LoadBalancerName),
			RuleID:                  albNoCloudFrontRuleID,
			ResourceID:              lb.LoadBalancerARN,
			ResourceType:            models.ResourceAWSLoadBalancer,
			Region:                  lb.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: cents(estimate),
			Explanation:             "Application load balancer serves traffic directly to the internet.",
			Recommendation:          "Put a CloudFront distribution in front to cut data transfer out cost.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"load_balancer_name": lb.LoadBalancerName,
				"dns_name":           lb.DNSName,
			},
		})
	}
	return findings
}

// ── CROSS_REGION_FOOTPRINT ────────────────────────────────────────────────────

// CrossRegionFootprintRule flags every region with running instances when
// more than one region has them. Spreading workloads across regions incurs
// inter-region transfer charges.
type CrossRegionFootprintRule struct{}

func (r CrossRegionFootprintRule) ID() string   { return crossRegionRuleID }
func (r CrossRegionFootprintRule) Name() string { return "Cross-Region Footprint" }

// Evaluate emits findings in region name order. When RegionData is set only
// that region is considered, so a per-region evaluation loop reports each
// region once.
func (r CrossRegionFootprintRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Account == nil {
		return nil
	}

	var active []string
	for region, n := range ctx.Account.RegionInstanceCounts {
		if n > 0 {
			active = append(active, region)
		}
	}
	if len(active) < 2 {
		return nil
	}
	sort.Strings(active)
	estimate, _ := ctx.prices().UnitCost("estimate:cross-region")

	var findings []models.Finding
	for _, region := range active {
		if ctx.RegionData != nil && ctx.RegionData.Region != region {
			continue
		}
		n := ctx.Account.RegionInstanceCounts[region]
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", crossRegionRuleID, region),
			RuleID:                  crossRegionRuleID,
			ResourceID:              region,
			ResourceType:            models.ResourceAWSRegion,
			Region:                  region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityInfo,
			EstimatedMonthlySavings: cents(estimate),
			Explanation:             fmt.Sprintf("%d running instances; workloads span %d regions.", n, len(active)),
			Recommendation:          "Consolidate workloads to reduce cross-region transfer.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"instance_count": n,
				"active_regions": len(active),
			},
		})
	}
	return findings
}
