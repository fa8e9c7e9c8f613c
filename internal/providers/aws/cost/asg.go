package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// AutoScalingGroups returns every Auto Scaling group in cfg.Region.
func (d *DefaultCostCollector) AutoScalingGroups(ctx context.Context, cfg aws.Config) ([]models.AWSAutoScalingGroup, error) {
	clients := d.factory(cfg)
	paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(clients.ASG, &autoscaling.DescribeAutoScalingGroupsInput{})

	var groups []models.AWSAutoScalingGroup
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("AutoScalingGroups: %w", common.Classify("autoscaling", "DescribeAutoScalingGroups", cfg.Region, err))
		}
		for _, g := range page.AutoScalingGroups {
			asg := models.AWSAutoScalingGroup{
				Name:                    aws.ToString(g.AutoScalingGroupName),
				Region:                  cfg.Region,
				HasMixedInstancesPolicy: g.MixedInstancesPolicy != nil,
				LaunchConfiguration:     aws.ToString(g.LaunchConfigurationName),
				MinSize:                 aws.ToInt32(g.MinSize),
				MaxSize:                 aws.ToInt32(g.MaxSize),
				DesiredCapacity:         aws.ToInt32(g.DesiredCapacity),
				InstanceCount:           len(g.Instances),
			}
			if g.LaunchTemplate != nil {
				asg.LaunchTemplate = aws.ToString(g.LaunchTemplate.LaunchTemplateName)
			}
			groups = append(groups, asg)
		}
	}
	return groups, nil
}
