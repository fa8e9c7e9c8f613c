package cost

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// Instance states accepted by EC2Instances.
var (
	StatesRunning = []string{"running"}
	StatesLive    = []string{"pending", "running", "stopping", "stopped"}
)

// EC2Instances pages through every instance in cfg.Region whose state is in
// states. CPU and spot price fields are left empty; see EnrichCPU and
// EnrichSpotPrices.
func (d *DefaultCostCollector) EC2Instances(ctx context.Context, cfg aws.Config, states []string) ([]models.AWSEC2Instance, error) {
	clients := d.factory(cfg)

	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: states,
			},
		},
	}

	paginator := ec2svc.NewDescribeInstancesPaginator(clients.EC2, input)

	var instances []models.AWSEC2Instance
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("EC2Instances: %w", common.Classify("ec2", "DescribeInstances", cfg.Region, err))
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, toEC2Instance(inst, cfg.Region))
			}
		}
	}
	return instances, nil
}

// InstanceCount returns the number of running instances in cfg.Region.
func (d *DefaultCostCollector) InstanceCount(ctx context.Context, cfg aws.Config) (int, error) {
	instances, err := d.EC2Instances(ctx, cfg, StatesRunning)
	if err != nil {
		return 0, err
	}
	return len(instances), nil
}

// EnrichCPU sets AvgCPUPercent and CPUDatapoints on every running instance
// from CloudWatch CPUUtilization over the last daysBack days, sampled every
// period seconds.
//
// CloudWatch failures are non-fatal: affected instances keep
// CPUDatapoints == 0, which rules treat as "no data" rather than "idle".
func (d *DefaultCostCollector) EnrichCPU(ctx context.Context, cfg aws.Config, instances []models.AWSEC2Instance, daysBack int, period int32) {
	clients := d.factory(cfg)
	start, end := d.metricWindow(daysBack)
	for i := range instances {
		if instances[i].State != "running" {
			continue
		}
		instances[i].AvgCPUPercent, instances[i].CPUDatapoints = fetchMetricAverage(ctx, clients.CW, metricQuery{
			namespace: "AWS/EC2",
			metric:    "CPUUtilization",
			dimension: "InstanceId",
			value:     instances[i].InstanceID,
			period:    period,
		}, start, end)
	}
}

// EnrichSpotPrices sets SpotPrice on every on-demand instance to the most
// recent Linux/UNIX spot price for its type in its availability zone.
// Lookups are cached per (type, AZ). Failures leave SpotPrice at 0.
func (d *DefaultCostCollector) EnrichSpotPrices(ctx context.Context, cfg aws.Config, instances []models.AWSEC2Instance) {
	clients := d.factory(cfg)
	cache := make(map[string]float64)
	for i := range instances {
		inst := &instances[i]
		if !inst.OnDemand() || inst.AvailabilityZone == "" {
			continue
		}
		key := inst.InstanceType + "/" + inst.AvailabilityZone
		price, ok := cache[key]
		if !ok {
			var err error
			price, err = d.latestSpotPrice(ctx, clients.EC2, inst.InstanceType, inst.AvailabilityZone)
			if err != nil {
				d.logger.Warn("spot price unavailable",
					"region", cfg.Region, "instance_type", inst.InstanceType, "az", inst.AvailabilityZone, "error", err)
			}
			cache[key] = price
		}
		inst.SpotPrice = price
	}
}

// latestSpotPrice returns the newest price point from the last day of spot
// price history, or 0 when there is none.
func (d *DefaultCostCollector) latestSpotPrice(ctx context.Context, client costEC2Client, instanceType, az string) (float64, error) {
	out, err := client.DescribeSpotPriceHistory(ctx, &ec2svc.DescribeSpotPriceHistoryInput{
		InstanceTypes:       []ec2types.InstanceType{ec2types.InstanceType(instanceType)},
		ProductDescriptions: []string{"Linux/UNIX"},
		AvailabilityZone:    aws.String(az),
		StartTime:           aws.Time(d.now().Add(-24 * time.Hour)),
		MaxResults:          aws.Int32(10),
	})
	if err != nil {
		return 0, common.Classify("ec2", "DescribeSpotPriceHistory", instanceType, err)
	}
	if len(out.SpotPriceHistory) == 0 {
		return 0, nil
	}

	history := out.SpotPriceHistory
	sort.Slice(history, func(i, j int) bool {
		return aws.ToTime(history[i].Timestamp).After(aws.ToTime(history[j].Timestamp))
	})
	return parseCostFloat(history[0].SpotPrice), nil
}

// toEC2Instance converts an SDK EC2 instance to the internal model.
func toEC2Instance(inst ec2types.Instance, region string) models.AWSEC2Instance {
	var state string
	if inst.State != nil {
		state = string(inst.State.Name)
	}

	var az string
	if inst.Placement != nil {
		az = aws.ToString(inst.Placement.AvailabilityZone)
	}

	groups := make([]string, 0, len(inst.SecurityGroups))
	for _, g := range inst.SecurityGroups {
		groups = append(groups, aws.ToString(g.GroupId))
	}

	return models.AWSEC2Instance{
		InstanceID:       aws.ToString(inst.InstanceId),
		Region:           region,
		AvailabilityZone: az,
		InstanceType:     string(inst.InstanceType),
		State:            state,
		LaunchTime:       aws.ToTime(inst.LaunchTime),
		Lifecycle:        string(inst.InstanceLifecycle),
		SecurityGroupIDs: groups,
		Tags:             tagsFromEC2(inst.Tags),
	}
}

// tagsFromEC2 converts EC2 SDK tags to a plain string map.
func tagsFromEC2(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil && t.Value != nil {
			m[*t.Key] = *t.Value
		}
	}
	return m
}
