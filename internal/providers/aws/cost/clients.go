package cost

import (
	"context"

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
)

// ---------------------------------------------------------------------------
// Narrow client interfaces
//
// Each interface lists only the SDK operations used by this package.
// The real *ec2.Client, *rds.Client, etc. satisfy these automatically.
// Replace any field in costClients with a stub struct in unit tests.
// ---------------------------------------------------------------------------

// costEC2Client covers the EC2 operations required for cost collection.
// Each describe method also satisfies the matching ec2.Describe*APIClient,
// enabling SDK v2 paginators.
type costEC2Client interface {
	DescribeInstances(ctx context.Context, params *ec2svc.DescribeInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error)
	DescribeVolumes(ctx context.Context, params *ec2svc.DescribeVolumesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error)
	DescribeSnapshots(ctx context.Context, params *ec2svc.DescribeSnapshotsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotsOutput, error)
	DescribeNatGateways(ctx context.Context, params *ec2svc.DescribeNatGatewaysInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeNatGatewaysOutput, error)
	DescribeVpcEndpoints(ctx context.Context, params *ec2svc.DescribeVpcEndpointsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeVpcEndpointsOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2svc.DescribeSecurityGroupsInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSecurityGroupsOutput, error)
	DescribeNetworkInterfaces(ctx context.Context, params *ec2svc.DescribeNetworkInterfacesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeNetworkInterfacesOutput, error)
	DescribeAddresses(ctx context.Context, params *ec2svc.DescribeAddressesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeAddressesOutput, error)
	DescribeSpotPriceHistory(ctx context.Context, params *ec2svc.DescribeSpotPriceHistoryInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeSpotPriceHistoryOutput, error)
}

// costRDSClient covers the RDS operations required for cost collection.
// Satisfies rds.DescribeDBInstancesAPIClient for the SDK v2 paginator.
type costRDSClient interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// costELBv2Client covers the ELBv2 operations required for cost collection.
type costELBv2Client interface {
	DescribeLoadBalancers(ctx context.Context, params *elbv2.DescribeLoadBalancersInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error)
	DescribeTargetGroups(ctx context.Context, params *elbv2.DescribeTargetGroupsInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetGroupsOutput, error)
	DescribeTargetHealth(ctx context.Context, params *elbv2.DescribeTargetHealthInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTargetHealthOutput, error)
}

// costCWClient covers the CloudWatch operations required for metric collection.
// Metrics are fetched per-region; the client must be initialised with a
// regional aws.Config (unlike Cost Explorer which requires us-east-1).
type costCWClient interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// costCEClient covers the Cost Explorer operations required for cost
// collection. Cost Explorer is a global service; always use us-east-1.
type costCEClient interface {
	GetCostAndUsage(ctx context.Context, params *ce.GetCostAndUsageInput, optFns ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error)
	GetAnomalies(ctx context.Context, params *ce.GetAnomaliesInput, optFns ...func(*ce.Options)) (*ce.GetAnomaliesOutput, error)
	GetSavingsPlansCoverage(ctx context.Context, params *ce.GetSavingsPlansCoverageInput, optFns ...func(*ce.Options)) (*ce.GetSavingsPlansCoverageOutput, error)
	GetReservationUtilization(ctx context.Context, params *ce.GetReservationUtilizationInput, optFns ...func(*ce.Options)) (*ce.GetReservationUtilizationOutput, error)
	GetReservationCoverage(ctx context.Context, params *ce.GetReservationCoverageInput, optFns ...func(*ce.Options)) (*ce.GetReservationCoverageOutput, error)
	GetRightsizingRecommendation(ctx context.Context, params *ce.GetRightsizingRecommendationInput, optFns ...func(*ce.Options)) (*ce.GetRightsizingRecommendationOutput, error)
}

// costS3Client covers bucket listing, lifecycle lookup and object scans.
// Per-bucket calls pass an optFn that pins the bucket's own region.
type costS3Client interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketLifecycleConfiguration(ctx context.Context, params *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type costASGClient interface {
	DescribeAutoScalingGroups(ctx context.Context, params *autoscaling.DescribeAutoScalingGroupsInput, optFns ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error)
}

type costCloudFrontClient interface {
	ListDistributions(ctx context.Context, params *cloudfront.ListDistributionsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

type costOrgClient interface {
	ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error)
}

type costBudgetsClient interface {
	DescribeBudgets(ctx context.Context, params *budgets.DescribeBudgetsInput, optFns ...func(*budgets.Options)) (*budgets.DescribeBudgetsOutput, error)
}

type costTaggingClient interface {
	GetResources(ctx context.Context, params *resourcegroupstaggingapi.GetResourcesInput, optFns ...func(*resourcegroupstaggingapi.Options)) (*resourcegroupstaggingapi.GetResourcesOutput, error)
}

// ---------------------------------------------------------------------------
// costClients and factory
// ---------------------------------------------------------------------------

// costClients holds all service clients needed for one collection run.
// All fields are interfaces; swap any with a mock in tests.
type costClients struct {
	EC2        costEC2Client
	RDS        costRDSClient
	ELB        costELBv2Client
	CE         costCEClient // always pointed at us-east-1 by the factory
	CW         costCWClient // regional; used for CloudWatch metric queries
	S3         costS3Client
	ASG        costASGClient
	CloudFront costCloudFrontClient
	Orgs       costOrgClient
	Budgets    costBudgetsClient
	Tagging    costTaggingClient
}

// costClientFactory creates a costClients from an aws.Config.
type costClientFactory func(cfg aws.Config) *costClients

// newDefaultCostClients is the production costClientFactory. Cost Explorer,
// Organizations, Budgets and CloudFront are global and pinned to us-east-1.
// Everything else uses the regional cfg.
func newDefaultCostClients(cfg aws.Config) *costClients {
	global := cfg
	global.Region = globalRegion
	return &costClients{
		EC2:        ec2svc.NewFromConfig(cfg),
		RDS:        rds.NewFromConfig(cfg),
		ELB:        elbv2.NewFromConfig(cfg),
		CE:         ce.NewFromConfig(global),
		CW:         cloudwatch.NewFromConfig(cfg),
		S3:         s3.NewFromConfig(cfg),
		ASG:        autoscaling.NewFromConfig(cfg),
		CloudFront: cloudfront.NewFromConfig(global),
		Orgs:       organizations.NewFromConfig(global),
		Budgets:    budgets.NewFromConfig(global),
		Tagging:    resourcegroupstaggingapi.NewFromConfig(cfg),
	}
}
