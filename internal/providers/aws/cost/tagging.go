package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/resourcegroupstaggingapi"
	"github.com/shopspring/decimal"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// TaggingCompliance walks every resource the Resource Groups Tagging API
// knows about in cfg.Region and counts how many carry all of required.
// The API only returns resources that have, or once had, at least one tag.
func (d *DefaultCostCollector) TaggingCompliance(ctx context.Context, cfg aws.Config, required []string) (*models.TaggingCompliance, error) {
	clients := d.factory(cfg)
	tc := &models.TaggingCompliance{
		RequiredTags: required,
		MissingByTag: make(map[string]int, len(required)),
	}

	paginator := resourcegroupstaggingapi.NewGetResourcesPaginator(clients.Tagging, &resourcegroupstaggingapi.GetResourcesInput{
		ResourcesPerPage: aws.Int32(100),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("TaggingCompliance: %w", common.Classify("tagging", "GetResources", cfg.Region, err))
		}
		for _, res := range page.ResourceTagMappingList {
			keys := make(map[string]struct{}, len(res.Tags))
			for _, t := range res.Tags {
				keys[aws.ToString(t.Key)] = struct{}{}
			}
			tc.ResourcesEvaluated++
			compliant := true
			for _, want := range required {
				if _, ok := keys[want]; !ok {
					tc.MissingByTag[want]++
					compliant = false
				}
			}
			if compliant {
				tc.Compliant++
			}
		}
	}

	if tc.ResourcesEvaluated > 0 {
		tc.CompliancePercent = decimal.NewFromInt(int64(tc.Compliant)).
			Div(decimal.NewFromInt(int64(tc.ResourcesEvaluated))).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
	}
	return tc, nil
}
