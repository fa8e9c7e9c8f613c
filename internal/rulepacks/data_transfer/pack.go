// Package data_transfer provides the rule pack for the data-transfer function.
// Regional rules read RegionData; ALB_NO_CLOUDFRONT also needs Account for
// the CloudFront origin list, and CROSS_REGION_FOOTPRINT reads only Account.
package data_transfer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the data-transfer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.NATMissingEndpointsRule{},
		rules.NATLowTrafficRule{},
		rules.ALBNoCloudFrontRule{},
		rules.CrossRegionFootprintRule{},
	}
}
