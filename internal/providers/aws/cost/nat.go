package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

const bytesPerGB = 1024 * 1024 * 1024

// NATGateways pages through all available NAT Gateways in cfg.Region and
// enriches each with its total outbound bytes over the lookback window from
// CloudWatch (BytesOutToDestination metric).
//
// CloudWatch failures are non-fatal: affected gateways retain
// BytesProcessedGB == 0.
func (d *DefaultCostCollector) NATGateways(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSNATGateway, error) {
	clients := d.factory(cfg)
	input := &ec2svc.DescribeNatGatewaysInput{
		Filter: []ec2types.Filter{
			{
				Name:   aws.String("state"),
				Values: []string{"available"},
			},
		},
	}

	paginator := ec2svc.NewDescribeNatGatewaysPaginator(clients.EC2, input)

	var gateways []models.AWSNATGateway
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("NATGateways: %w", common.Classify("ec2", "DescribeNatGateways", cfg.Region, err))
		}
		for _, ng := range page.NatGateways {
			gateways = append(gateways, toNATGateway(ng, cfg.Region))
		}
	}

	start, end := d.metricWindow(daysBack)
	for i := range gateways {
		gateways[i].BytesProcessedGB = fetchMetricSum(ctx, clients.CW, metricQuery{
			namespace: "AWS/NATGateway",
			metric:    "BytesOutToDestination",
			dimension: "NatGatewayId",
			value:     gateways[i].NATGatewayID,
			period:    86400,
		}, start, end) / bytesPerGB
	}

	return gateways, nil
}

// VPCEndpoints returns every VPC endpoint in cfg.Region.
func (d *DefaultCostCollector) VPCEndpoints(ctx context.Context, cfg aws.Config) ([]models.AWSVPCEndpoint, error) {
	clients := d.factory(cfg)
	paginator := ec2svc.NewDescribeVpcEndpointsPaginator(clients.EC2, &ec2svc.DescribeVpcEndpointsInput{})

	var endpoints []models.AWSVPCEndpoint
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("VPCEndpoints: %w", common.Classify("ec2", "DescribeVpcEndpoints", cfg.Region, err))
		}
		for _, ep := range page.VpcEndpoints {
			endpoints = append(endpoints, models.AWSVPCEndpoint{
				EndpointID:  aws.ToString(ep.VpcEndpointId),
				VPCID:       aws.ToString(ep.VpcId),
				ServiceName: aws.ToString(ep.ServiceName),
				Type:        string(ep.VpcEndpointType),
			})
		}
	}
	return endpoints, nil
}

// toNATGateway converts an SDK NAT Gateway to the internal model.
func toNATGateway(ng ec2types.NatGateway, region string) models.AWSNATGateway {
	return models.AWSNATGateway{
		NATGatewayID: aws.ToString(ng.NatGatewayId),
		Region:       region,
		State:        string(ng.State),
		VPCID:        aws.ToString(ng.VpcId),
		SubnetID:     aws.ToString(ng.SubnetId),
		Tags:         tagsFromEC2(ng.Tags),
	}
}
