package eks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseks "github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// DefaultEKSCollector implements EKSCollector using the AWS SDK v2.
type DefaultEKSCollector struct {
	factory eksClientFactory
	logger  *slog.Logger
}

// NewDefaultEKSCollector returns an EKSCollector backed by the real AWS SDK.
func NewDefaultEKSCollector(logger *slog.Logger) *DefaultEKSCollector {
	return NewDefaultEKSCollectorWithFactory(newDefaultEKSClient, logger)
}

// NewDefaultEKSCollectorWithFactory is used by tests to inject a stub client.
func NewDefaultEKSCollectorWithFactory(f eksClientFactory, logger *slog.Logger) *DefaultEKSCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultEKSCollector{factory: f, logger: logger}
}

// Clusters lists every cluster in cfg.Region and describes it together with
// its managed nodegroups and Fargate profile count.
func (d *DefaultEKSCollector) Clusters(ctx context.Context, cfg aws.Config) ([]models.EKSCluster, error) {
	client := d.factory(cfg)

	var names []string
	paginator := awseks.NewListClustersPaginator(client, &awseks.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Clusters: %w", common.Classify("eks", "ListClusters", cfg.Region, err))
		}
		names = append(names, page.Clusters...)
	}

	clusters := make([]models.EKSCluster, 0, len(names))
	for _, name := range names {
		c, err := describeCluster(ctx, client, name, cfg.Region)
		if err != nil {
			if !common.IsRecoverable(err) {
				return nil, fmt.Errorf("Clusters: %w", err)
			}
			d.logger.Warn("skipping EKS cluster", "region", cfg.Region, "resource_id", name, "error", err)
			continue
		}
		clusters = append(clusters, *c)
	}
	return clusters, nil
}

// describeCluster is the per-cluster core of Clusters.
func describeCluster(ctx context.Context, client eksAPIClient, name, region string) (*models.EKSCluster, error) {
	out, err := client.DescribeCluster(ctx, &awseks.DescribeClusterInput{Name: aws.String(name)})
	if err != nil {
		return nil, common.Classify("eks", "DescribeCluster", name, err)
	}
	if out.Cluster == nil {
		return nil, common.Classify("eks", "DescribeCluster", name, fmt.Errorf("empty response"))
	}

	cluster := &models.EKSCluster{
		Name:    name,
		ARN:     aws.ToString(out.Cluster.Arn),
		Region:  region,
		Version: aws.ToString(out.Cluster.Version),
		Status:  string(out.Cluster.Status),
	}

	ngPaginator := awseks.NewListNodegroupsPaginator(client, &awseks.ListNodegroupsInput{ClusterName: aws.String(name)})
	for ngPaginator.HasMorePages() {
		page, err := ngPaginator.NextPage(ctx)
		if err != nil {
			return nil, common.Classify("eks", "ListNodegroups", name, err)
		}
		for _, ngName := range page.Nodegroups {
			ng, err := client.DescribeNodegroup(ctx, &awseks.DescribeNodegroupInput{
				ClusterName:   aws.String(name),
				NodegroupName: aws.String(ngName),
			})
			if err != nil {
				return nil, common.Classify("eks", "DescribeNodegroup", ngName, err)
			}
			if ng.Nodegroup != nil {
				cluster.Nodegroups = append(cluster.Nodegroups, toNodegroup(name, ngName, ng))
			}
		}
	}

	fpPaginator := awseks.NewListFargateProfilesPaginator(client, &awseks.ListFargateProfilesInput{ClusterName: aws.String(name)})
	for fpPaginator.HasMorePages() {
		page, err := fpPaginator.NextPage(ctx)
		if err != nil {
			return nil, common.Classify("eks", "ListFargateProfiles", name, err)
		}
		cluster.FargateProfiles += len(page.FargateProfileNames)
	}

	return cluster, nil
}

func toNodegroup(cluster, name string, out *awseks.DescribeNodegroupOutput) models.EKSNodegroup {
	ng := out.Nodegroup
	result := models.EKSNodegroup{
		Name:          name,
		ClusterName:   cluster,
		Status:        string(ng.Status),
		CapacityType:  string(ng.CapacityType),
		InstanceTypes: ng.InstanceTypes,
	}
	if sc := ng.ScalingConfig; sc != nil {
		result.MinSize = aws.ToInt32(sc.MinSize)
		result.MaxSize = aws.ToInt32(sc.MaxSize)
		result.DesiredSize = aws.ToInt32(sc.DesiredSize)
	}
	return result
}
