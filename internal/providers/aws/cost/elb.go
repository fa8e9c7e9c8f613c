package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// LoadBalancers pages through all ELBv2 load balancers (Application,
// Network, Gateway) in cfg.Region. With withTargetHealth set, each load
// balancer's target groups are walked and healthy targets counted.
//
// A failed target health lookup leaves TargetHealthKnown false for that load
// balancer; it is logged and never reported as unused.
func (d *DefaultCostCollector) LoadBalancers(ctx context.Context, cfg aws.Config, withTargetHealth bool) ([]models.AWSLoadBalancer, error) {
	clients := d.factory(cfg)
	paginator := elbv2svc.NewDescribeLoadBalancersPaginator(clients.ELB, &elbv2svc.DescribeLoadBalancersInput{})

	var lbs []models.AWSLoadBalancer
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("LoadBalancers: %w", common.Classify("elbv2", "DescribeLoadBalancers", cfg.Region, err))
		}
		for _, lb := range page.LoadBalancers {
			lbs = append(lbs, toLoadBalancer(lb, cfg.Region))
		}
	}

	if !withTargetHealth {
		return lbs, nil
	}

	for i := range lbs {
		groups, healthy, err := countHealthyTargets(ctx, clients.ELB, lbs[i].LoadBalancerARN)
		if err != nil {
			if !common.IsRecoverable(err) {
				return nil, fmt.Errorf("LoadBalancers: %w", err)
			}
			d.logger.Warn("target health unavailable",
				"region", cfg.Region, "resource_id", lbs[i].LoadBalancerName, "error", err)
			continue
		}
		lbs[i].TargetGroups = groups
		lbs[i].HealthyTargets = healthy
		lbs[i].TargetHealthKnown = true
	}

	return lbs, nil
}

// countHealthyTargets returns the number of target groups attached to lbARN
// and the total number of healthy targets across them.
func countHealthyTargets(ctx context.Context, client costELBv2Client, lbARN string) (groups, healthy int, err error) {
	paginator := elbv2svc.NewDescribeTargetGroupsPaginator(client, &elbv2svc.DescribeTargetGroupsInput{
		LoadBalancerArn: aws.String(lbARN),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, 0, common.Classify("elbv2", "DescribeTargetGroups", lbARN, err)
		}
		for _, tg := range page.TargetGroups {
			groups++
			out, err := client.DescribeTargetHealth(ctx, &elbv2svc.DescribeTargetHealthInput{
				TargetGroupArn: tg.TargetGroupArn,
			})
			if err != nil {
				return 0, 0, common.Classify("elbv2", "DescribeTargetHealth", aws.ToString(tg.TargetGroupArn), err)
			}
			for _, th := range out.TargetHealthDescriptions {
				if th.TargetHealth != nil && th.TargetHealth.State == elbv2types.TargetHealthStateEnumHealthy {
					healthy++
				}
			}
		}
	}
	return groups, healthy, nil
}

// toLoadBalancer converts an SDK ELBv2 LoadBalancer to the internal model.
func toLoadBalancer(lb elbv2types.LoadBalancer, region string) models.AWSLoadBalancer {
	var state string
	if lb.State != nil {
		state = string(lb.State.Code)
	}

	return models.AWSLoadBalancer{
		LoadBalancerARN:  aws.ToString(lb.LoadBalancerArn),
		LoadBalancerName: aws.ToString(lb.LoadBalancerName),
		DNSName:          aws.ToString(lb.DNSName),
		Region:           region,
		Type:             string(lb.Type),
		State:            state,
	}
}
