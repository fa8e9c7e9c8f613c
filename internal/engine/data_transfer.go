package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/data_transfer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

const natLookbackDays = 30

// NATGatewayCost is the monthly cost picture of one NAT gateway.
type NATGatewayCost struct {
	NATGatewayID     string  `json:"nat_gateway_id"`
	Region           string  `json:"region"`
	VPCID            string  `json:"vpc_id"`
	BytesProcessedGB float64 `json:"bytes_processed_gb"`
	MonthlyFixedCost float64 `json:"monthly_fixed_cost"`
	ProcessingCost   float64 `json:"processing_cost"`
	LowTraffic       bool    `json:"low_traffic"`
}

// DataTransferBody is the data-transfer response body.
type DataTransferBody struct {
	NATGatewayOptimization     []NATGatewayCost `json:"nat_gateway_optimization"`
	VPCEndpointRecommendations []models.Finding `json:"vpc_endpoint_recommendations"`
	CloudFrontOpportunities    []models.Finding `json:"cloudfront_opportunities"`
	CrossRegionAnalysis        []models.Finding `json:"cross_region_analysis"`
	PotentialSavings           float64          `json:"potential_savings"`
}

// DataTransfer looks for data transfer savings: NAT traffic that could use
// VPC endpoints, ALBs without CloudFront, and workloads spread across
// regions.
type DataTransfer struct {
	env *Env
	net DataTransferCollector
}

func NewDataTransfer(env *Env, net DataTransferCollector) *DataTransfer {
	return &DataTransfer{env: env, net: net}
}

func (f *DataTransfer) ID() string          { return FunctionDataTransfer }
func (f *DataTransfer) Description() string { return "Find NAT, CloudFront and cross-region data transfer savings" }

// Run collects every region first, sequentially, so the cross-region rule
// sees the instance counts of all of them. A region whose collection fails
// with a recoverable error is skipped.
func (f *DataTransfer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}

	days := natLookbackDays
	if req.DaysBack > 0 {
		days = req.DaysBack
	}

	account := &models.AWSAccountData{RegionInstanceCounts: make(map[string]int, len(s.regions))}
	account.CloudFrontOrigins, err = f.net.CloudFrontOrigins(ctx, s.global())
	if err := f.env.tolerate(f.ID(), "", err); err != nil {
		return nil, fmt.Errorf("cloudfront origins: %w", err)
	}

	var collected []*models.AWSRegionData
	for _, region := range s.regions {
		data, count, err := f.collectRegion(ctx, s, region, days)
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("collect %s: %w", region, err)
			}
			continue
		}
		account.RegionInstanceCounts[region] = count
		collected = append(collected, data)
	}

	var all []models.Finding
	for _, data := range collected {
		rc := f.env.ruleContext(s)
		rc.RegionData = data
		rc.Account = account
		all = append(all, f.env.evaluate(f.ID(), data_transfer.New(), rc)...)
	}

	lowTraffic := byRule(all, rules.NATLowTrafficRule{}.ID())
	endpoints := byRule(all, rules.NATMissingEndpointsRule{}.ID())
	cloudfront := byRule(all, rules.ALBNoCloudFrontRule{}.ID())
	crossRegion := byRule(all, rules.CrossRegionFootprintRule{}.ID())

	return &Result{
		FunctionID: f.ID(),
		Body: DataTransferBody{
			NATGatewayOptimization:     f.natCosts(collected, lowTraffic),
			VPCEndpointRecommendations: endpoints,
			CloudFrontOpportunities:    cloudfront,
			CrossRegionAnalysis:        crossRegion,
			PotentialSavings:           totalSavings(lowTraffic, endpoints, cloudfront, crossRegion),
		},
		Findings: all,
	}, nil
}

func (f *DataTransfer) collectRegion(ctx context.Context, s *session, region string, days int) (*models.AWSRegionData, int, error) {
	cfg := s.config(region)
	data := &models.AWSRegionData{Region: region}

	var err error
	if data.NATGateways, err = f.net.NATGateways(ctx, cfg, days); err != nil {
		return nil, 0, err
	}
	if data.VPCEndpoints, err = f.net.VPCEndpoints(ctx, cfg); err != nil {
		return nil, 0, err
	}
	if data.LoadBalancers, err = f.net.LoadBalancers(ctx, cfg, false); err != nil {
		return nil, 0, err
	}
	count, err := f.net.InstanceCount(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	return data, count, nil
}

// natCosts prices every available NAT gateway.
func (f *DataTransfer) natCosts(collected []*models.AWSRegionData, lowTraffic []models.Finding) []NATGatewayCost {
	low := make(map[string]bool, len(lowTraffic))
	for _, finding := range lowTraffic {
		low[finding.ResourceID] = true
	}

	p := f.env.prices()
	perGB, _ := p.UnitCost("nat:per-gb")
	fixed := pricing.MonthlyUnitCost(p, "nat:hourly")

	out := []NATGatewayCost{}
	for _, data := range collected {
		for _, ng := range data.NATGateways {
			if ng.State != "available" {
				continue
			}
			out = append(out, NATGatewayCost{
				NATGatewayID:     ng.NATGatewayID,
				Region:           ng.Region,
				VPCID:            ng.VPCID,
				BytesProcessedGB: roundCents(ng.BytesProcessedGB),
				MonthlyFixedCost: roundCents(fixed),
				ProcessingCost:   roundCents(ng.BytesProcessedGB * perGB),
				LowTraffic:       low[ng.NATGatewayID],
			})
		}
	}
	return out
}
