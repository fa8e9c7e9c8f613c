package cost

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// newTestCollector returns a collector whose factory always hands out
// clients and whose clock is pinned to fixedNow.
func newTestCollector(clients *costClients) *DefaultCostCollector {
	c := NewDefaultCostCollectorWithFactory(func(aws.Config) *costClients { return clients },
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return fixedNow }
	return c
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// ---------------------------------------------------------------------------
// EC2
// ---------------------------------------------------------------------------

type mockEC2 struct {
	instances   *ec2svc.DescribeInstancesOutput
	volumes     *ec2svc.DescribeVolumesOutput
	snapshots   *ec2svc.DescribeSnapshotsOutput
	nats        *ec2svc.DescribeNatGatewaysOutput
	endpoints   *ec2svc.DescribeVpcEndpointsOutput
	groups      *ec2svc.DescribeSecurityGroupsOutput
	enis        *ec2svc.DescribeNetworkInterfacesOutput
	addresses   *ec2svc.DescribeAddressesOutput
	spotPrices  map[string]*ec2svc.DescribeSpotPriceHistoryOutput // keyed by instance type
	spotCalls   int
	instanceErr error
}

func (m *mockEC2) DescribeInstances(context.Context, *ec2svc.DescribeInstancesInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error) {
	if m.instanceErr != nil {
		return nil, m.instanceErr
	}
	if m.instances == nil {
		return &ec2svc.DescribeInstancesOutput{}, nil
	}
	return m.instances, nil
}

func (m *mockEC2) DescribeVolumes(context.Context, *ec2svc.DescribeVolumesInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error) {
	if m.volumes == nil {
		return &ec2svc.DescribeVolumesOutput{}, nil
	}
	return m.volumes, nil
}

func (m *mockEC2) DescribeSnapshots(context.Context, *ec2svc.DescribeSnapshotsInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotsOutput, error) {
	if m.snapshots == nil {
		return &ec2svc.DescribeSnapshotsOutput{}, nil
	}
	return m.snapshots, nil
}

func (m *mockEC2) DescribeNatGateways(context.Context, *ec2svc.DescribeNatGatewaysInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeNatGatewaysOutput, error) {
	if m.nats == nil {
		return &ec2svc.DescribeNatGatewaysOutput{}, nil
	}
	return m.nats, nil
}

func (m *mockEC2) DescribeVpcEndpoints(context.Context, *ec2svc.DescribeVpcEndpointsInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeVpcEndpointsOutput, error) {
	if m.endpoints == nil {
		return &ec2svc.DescribeVpcEndpointsOutput{}, nil
	}
	return m.endpoints, nil
}

func (m *mockEC2) DescribeSecurityGroups(context.Context, *ec2svc.DescribeSecurityGroupsInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error) {
	if m.groups == nil {
		return &ec2svc.DescribeSecurityGroupsOutput{}, nil
	}
	return m.groups, nil
}

func (m *mockEC2) DescribeNetworkInterfaces(context.Context, *ec2svc.DescribeNetworkInterfacesInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeNetworkInterfacesOutput, error) {
	if m.enis == nil {
		return &ec2svc.DescribeNetworkInterfacesOutput{}, nil
	}
	return m.enis, nil
}

func (m *mockEC2) DescribeAddresses(context.Context, *ec2svc.DescribeAddressesInput, ...func(*ec2svc.Options)) (*ec2svc.DescribeAddressesOutput, error) {
	if m.addresses == nil {
		return &ec2svc.DescribeAddressesOutput{}, nil
	}
	return m.addresses, nil
}

func (m *mockEC2) DescribeSpotPriceHistory(_ context.Context, in *ec2svc.DescribeSpotPriceHistoryInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSpotPriceHistoryOutput, error) {
	m.spotCalls++
	if len(in.InstanceTypes) == 0 {
		return &ec2svc.DescribeSpotPriceHistoryOutput{}, nil
	}
	if out, ok := m.spotPrices[string(in.InstanceTypes[0])]; ok {
		return out, nil
	}
	return &ec2svc.DescribeSpotPriceHistoryOutput{}, nil
}

// ---------------------------------------------------------------------------
// CloudWatch
// ---------------------------------------------------------------------------

// mockCW returns the same datapoints for every query of a metric name.
type mockCW struct {
	byMetric map[string]*cloudwatch.GetMetricStatisticsOutput
	err      error
	periods  []int32
}

func (m *mockCW) GetMetricStatistics(_ context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	m.periods = append(m.periods, aws.ToInt32(in.Period))
	if m.err != nil {
		return nil, m.err
	}
	if out, ok := m.byMetric[aws.ToString(in.MetricName)]; ok {
		return out, nil
	}
	return &cloudwatch.GetMetricStatisticsOutput{}, nil
}

// ---------------------------------------------------------------------------
// Cost Explorer
// ---------------------------------------------------------------------------

type mockCE struct {
	costPages    []*ce.GetCostAndUsageOutput
	costByWindow map[string]*ce.GetCostAndUsageOutput // keyed by TimePeriod.Start
	costCalls    int
	costErr      error
	anomalies    *ce.GetAnomaliesOutput
	spCoverage   *ce.GetSavingsPlansCoverageOutput
	utilization  *ce.GetReservationUtilizationOutput
	coverage     *ce.GetReservationCoverageOutput
	rightsizing  *ce.GetRightsizingRecommendationOutput
}

func (m *mockCE) GetCostAndUsage(_ context.Context, in *ce.GetCostAndUsageInput, _ ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error) {
	defer func() { m.costCalls++ }()
	if m.costErr != nil {
		return nil, m.costErr
	}
	if m.costByWindow != nil {
		if out, ok := m.costByWindow[aws.ToString(in.TimePeriod.Start)]; ok {
			return out, nil
		}
		return &ce.GetCostAndUsageOutput{}, nil
	}
	if m.costCalls < len(m.costPages) {
		return m.costPages[m.costCalls], nil
	}
	return &ce.GetCostAndUsageOutput{}, nil
}

func (m *mockCE) GetAnomalies(context.Context, *ce.GetAnomaliesInput, ...func(*ce.Options)) (*ce.GetAnomaliesOutput, error) {
	if m.anomalies == nil {
		return &ce.GetAnomaliesOutput{}, nil
	}
	return m.anomalies, nil
}

func (m *mockCE) GetSavingsPlansCoverage(context.Context, *ce.GetSavingsPlansCoverageInput, ...func(*ce.Options)) (*ce.GetSavingsPlansCoverageOutput, error) {
	if m.spCoverage == nil {
		return &ce.GetSavingsPlansCoverageOutput{}, nil
	}
	return m.spCoverage, nil
}

func (m *mockCE) GetReservationUtilization(context.Context, *ce.GetReservationUtilizationInput, ...func(*ce.Options)) (*ce.GetReservationUtilizationOutput, error) {
	if m.utilization == nil {
		return &ce.GetReservationUtilizationOutput{}, nil
	}
	return m.utilization, nil
}

func (m *mockCE) GetReservationCoverage(context.Context, *ce.GetReservationCoverageInput, ...func(*ce.Options)) (*ce.GetReservationCoverageOutput, error) {
	if m.coverage == nil {
		return &ce.GetReservationCoverageOutput{}, nil
	}
	return m.coverage, nil
}

func (m *mockCE) GetRightsizingRecommendation(context.Context, *ce.GetRightsizingRecommendationInput, ...func(*ce.Options)) (*ce.GetRightsizingRecommendationOutput, error) {
	if m.rightsizing == nil {
		return &ce.GetRightsizingRecommendationOutput{}, nil
	}
	return m.rightsizing, nil
}

// ---------------------------------------------------------------------------
// Other services
// ---------------------------------------------------------------------------

type mockRDS struct{ out *rds.DescribeDBInstancesOutput }

func (m *mockRDS) DescribeDBInstances(context.Context, *rds.DescribeDBInstancesInput, ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	if m.out == nil {
		return &rds.DescribeDBInstancesOutput{}, nil
	}
	return m.out, nil
}

// mockELB keys target groups by load balancer ARN and target health by
// target group ARN.
type mockELB struct {
	lbs       *elbv2.DescribeLoadBalancersOutput
	groups    map[string]*elbv2.DescribeTargetGroupsOutput
	health    map[string]*elbv2.DescribeTargetHealthOutput
	healthErr map[string]error
}

func (m *mockELB) DescribeLoadBalancers(context.Context, *elbv2.DescribeLoadBalancersInput, ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error) {
	if m.lbs == nil {
		return &elbv2.DescribeLoadBalancersOutput{}, nil
	}
	return m.lbs, nil
}

func (m *mockELB) DescribeTargetGroups(_ context.Context, in *elbv2.DescribeTargetGroupsInput, _ ...func(*elbv2.Options)) (*elbv2.DescribeTargetGroupsOutput, error) {
	if out, ok := m.groups[aws.ToString(in.LoadBalancerArn)]; ok {
		return out, nil
	}
	return &elbv2.DescribeTargetGroupsOutput{}, nil
}

func (m *mockELB) DescribeTargetHealth(_ context.Context, in *elbv2.DescribeTargetHealthInput, _ ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error) {
	arn := aws.ToString(in.TargetGroupArn)
	if err, ok := m.healthErr[arn]; ok {
		return nil, err
	}
	if out, ok := m.health[arn]; ok {
		return out, nil
	}
	return &elbv2.DescribeTargetHealthOutput{}, nil
}

type mockS3Bucket struct {
	location     string
	lifecycleErr error // nil means a lifecycle configuration exists
	objects      *s3.ListObjectsV2Output
	locationErr  error
}

type mockS3 struct {
	buckets map[string]mockS3Bucket
	order   []string
	regions []string // region option seen by each ListObjectsV2 call
}

func (m *mockS3) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	out := &s3.ListBucketsOutput{}
	for _, name := range m.order {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: aws.String(name)})
	}
	return out, nil
}

func (m *mockS3) GetBucketLocation(_ context.Context, in *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	b := m.buckets[aws.ToString(in.Bucket)]
	if b.locationErr != nil {
		return nil, b.locationErr
	}
	return &s3.GetBucketLocationOutput{LocationConstraint: s3types.BucketLocationConstraint(b.location)}, nil
}

func (m *mockS3) GetBucketLifecycleConfiguration(_ context.Context, in *s3.GetBucketLifecycleConfigurationInput, _ ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	b := m.buckets[aws.ToString(in.Bucket)]
	if b.lifecycleErr != nil {
		return nil, b.lifecycleErr
	}
	return &s3.GetBucketLifecycleConfigurationOutput{}, nil
}

func (m *mockS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var o s3.Options
	for _, fn := range optFns {
		fn(&o)
	}
	m.regions = append(m.regions, o.Region)
	b := m.buckets[aws.ToString(in.Bucket)]
	if b.objects == nil {
		return &s3.ListObjectsV2Output{}, nil
	}
	return b.objects, nil
}

type mockASG struct{ out *autoscaling.DescribeAutoScalingGroupsOutput }

func (m *mockASG) DescribeAutoScalingGroups(context.Context, *autoscaling.DescribeAutoScalingGroupsInput, ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
	if m.out == nil {
		return &autoscaling.DescribeAutoScalingGroupsOutput{}, nil
	}
	return m.out, nil
}

type mockCloudFront struct{ out *cloudfront.ListDistributionsOutput }

func (m *mockCloudFront) ListDistributions(context.Context, *cloudfront.ListDistributionsInput, ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error) {
	return m.out, nil
}

type mockOrgs struct{ out *organizations.ListAccountsOutput }

func (m *mockOrgs) ListAccounts(context.Context, *organizations.ListAccountsInput, ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	if m.out == nil {
		return &organizations.ListAccountsOutput{}, nil
	}
	return m.out, nil
}

type mockBudgets struct {
	out       *budgets.DescribeBudgetsOutput
	accountID string
}

func (m *mockBudgets) DescribeBudgets(_ context.Context, in *budgets.DescribeBudgetsInput, _ ...func(*budgets.Options)) (*budgets.DescribeBudgetsOutput, error) {
	m.accountID = aws.ToString(in.AccountId)
	if m.out == nil {
		return &budgets.DescribeBudgetsOutput{}, nil
	}
	return m.out, nil
}

type mockTagging struct{ out *resourcegroupstaggingapi.GetResourcesOutput }

func (m *mockTagging) GetResources(context.Context, *resourcegroupstaggingapi.GetResourcesInput, ...func(*resourcegroupstaggingapi.Options)) (*resourcegroupstaggingapi.GetResourcesOutput, error) {
	if m.out == nil {
		return &resourcegroupstaggingapi.GetResourcesOutput{}, nil
	}
	return m.out, nil
}
