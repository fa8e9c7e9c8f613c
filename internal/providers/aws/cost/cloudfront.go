package cost

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// CloudFrontOrigins returns the sorted, de-duplicated origin domain names of
// every CloudFront distribution in the account.
func (d *DefaultCostCollector) CloudFrontOrigins(ctx context.Context, cfg aws.Config) ([]string, error) {
	clients := d.factory(globalConfig(cfg))
	paginator := cloudfront.NewListDistributionsPaginator(clients.CloudFront, &cloudfront.ListDistributionsInput{})

	seen := make(map[string]struct{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("CloudFrontOrigins: %w", common.Classify("cloudfront", "ListDistributions", "", err))
		}
		if page.DistributionList == nil {
			continue
		}
		for _, dist := range page.DistributionList.Items {
			if dist.Origins == nil {
				continue
			}
			for _, o := range dist.Origins.Items {
				if name := aws.ToString(o.DomainName); name != "" {
					seen[name] = struct{}{}
				}
			}
		}
	}

	origins := make([]string, 0, len(seen))
	for name := range seen {
		origins = append(origins, name)
	}
	sort.Strings(origins)
	return origins, nil
}
