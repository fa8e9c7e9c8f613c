package eks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseks "github.com/aws/aws-sdk-go-v2/service/eks"
)

// eksAPIClient is the subset of EKS API operations used by the collector.
// Using a narrow interface instead of the full SDK client makes unit testing
// trivial: create a struct that satisfies the interface and return canned data.
type eksAPIClient interface {
	ListClusters(
		ctx context.Context,
		params *awseks.ListClustersInput,
		optFns ...func(*awseks.Options),
	) (*awseks.ListClustersOutput, error)

	DescribeCluster(
		ctx context.Context,
		params *awseks.DescribeClusterInput,
		optFns ...func(*awseks.Options),
	) (*awseks.DescribeClusterOutput, error)

	ListNodegroups(
		ctx context.Context,
		params *awseks.ListNodegroupsInput,
		optFns ...func(*awseks.Options),
	) (*awseks.ListNodegroupsOutput, error)

	DescribeNodegroup(
		ctx context.Context,
		params *awseks.DescribeNodegroupInput,
		optFns ...func(*awseks.Options),
	) (*awseks.DescribeNodegroupOutput, error)

	ListFargateProfiles(
		ctx context.Context,
		params *awseks.ListFargateProfilesInput,
		optFns ...func(*awseks.Options),
	) (*awseks.ListFargateProfilesOutput, error)
}

// eksClientFactory builds the EKS client for one regional config.
type eksClientFactory func(cfg aws.Config) eksAPIClient

func newDefaultEKSClient(cfg aws.Config) eksAPIClient {
	return awseks.NewFromConfig(cfg)
}
