package engine

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
)

// The interfaces below are the slices of *cost.DefaultCostCollector each
// function reads. Tests substitute stubs.

type ForecastCollector interface {
	DailyCosts(ctx context.Context, cfg aws.Config, daysBack int) ([]float64, error)
	Anomalies(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSCostAnomaly, error)
}

type EBSCollector interface {
	EBSVolumes(ctx context.Context, cfg aws.Config) ([]models.AWSEBSVolume, error)
	EBSSnapshots(ctx context.Context, cfg aws.Config, volumes []models.AWSEBSVolume) ([]models.AWSEBSSnapshot, error)
}

type EC2Collector interface {
	EC2Instances(ctx context.Context, cfg aws.Config, states []string) ([]models.AWSEC2Instance, error)
	EnrichCPU(ctx context.Context, cfg aws.Config, instances []models.AWSEC2Instance, daysBack int, period int32)
}

type RDSCollector interface {
	RDSInstances(ctx context.Context, cfg aws.Config, daysBack int, period int32) ([]models.AWSRDSInstance, error)
}

type CommitmentCollector interface {
	RIUtilization(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSRIUtilization, error)
	Rightsizing(ctx context.Context, cfg aws.Config) ([]models.AWSRightsizingRecommendation, error)
	ReservationCoverage(ctx context.Context, cfg aws.Config, daysBack int) (*models.AWSReservationCoverage, error)
	SavingsPlanCoverage(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSSavingsPlanCoverage, error)
}

type SpotCollector interface {
	EC2Instances(ctx context.Context, cfg aws.Config, states []string) ([]models.AWSEC2Instance, error)
	EnrichSpotPrices(ctx context.Context, cfg aws.Config, instances []models.AWSEC2Instance)
	AutoScalingGroups(ctx context.Context, cfg aws.Config) ([]models.AWSAutoScalingGroup, error)
}

type S3Collector interface {
	S3Buckets(ctx context.Context, cfg aws.Config, opts awscost.S3ScanOptions) ([]models.AWSS3Bucket, error)
}

type UnusedCollector interface {
	SecurityGroups(ctx context.Context, cfg aws.Config) ([]models.AWSSecurityGroup, error)
	ElasticIPs(ctx context.Context, cfg aws.Config) ([]models.AWSElasticIP, error)
	LoadBalancers(ctx context.Context, cfg aws.Config, withTargetHealth bool) ([]models.AWSLoadBalancer, error)
}

type DataTransferCollector interface {
	NATGateways(ctx context.Context, cfg aws.Config, daysBack int) ([]models.AWSNATGateway, error)
	VPCEndpoints(ctx context.Context, cfg aws.Config) ([]models.AWSVPCEndpoint, error)
	LoadBalancers(ctx context.Context, cfg aws.Config, withTargetHealth bool) ([]models.AWSLoadBalancer, error)
	CloudFrontOrigins(ctx context.Context, cfg aws.Config) ([]string, error)
	InstanceCount(ctx context.Context, cfg aws.Config) (int, error)
}

type GovernanceCollector interface {
	OrgAccounts(ctx context.Context, cfg aws.Config, windowDays int) ([]models.AWSOrgAccount, error)
	Budgets(ctx context.Context, cfg aws.Config, accountID string) ([]models.AWSBudget, error)
	TaggingCompliance(ctx context.Context, cfg aws.Config, required []string) (*models.TaggingCompliance, error)
}

// Compile-time check that the production collector serves every function.
var (
	_ ForecastCollector     = (*awscost.DefaultCostCollector)(nil)
	_ EBSCollector          = (*awscost.DefaultCostCollector)(nil)
	_ EC2Collector          = (*awscost.DefaultCostCollector)(nil)
	_ RDSCollector          = (*awscost.DefaultCostCollector)(nil)
	_ CommitmentCollector   = (*awscost.DefaultCostCollector)(nil)
	_ SpotCollector         = (*awscost.DefaultCostCollector)(nil)
	_ S3Collector           = (*awscost.DefaultCostCollector)(nil)
	_ UnusedCollector       = (*awscost.DefaultCostCollector)(nil)
	_ DataTransferCollector = (*awscost.DefaultCostCollector)(nil)
	_ GovernanceCollector   = (*awscost.DefaultCostCollector)(nil)
	_ CostCollector         = (*awscost.DefaultCostCollector)(nil)
)
