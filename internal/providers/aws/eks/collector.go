package eks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// EKSCollector fetches EKS cluster and nodegroup configuration from the AWS
// EKS API. Implementations must be safe to call concurrently and must never
// apply business rules or produce findings.
type EKSCollector interface {
	// Clusters returns every cluster in cfg.Region with its managed
	// nodegroups. Returns a non-nil error only when listing fails; a
	// cluster that cannot be described is skipped.
	Clusters(ctx context.Context, cfg aws.Config) ([]models.EKSCluster, error)
}
