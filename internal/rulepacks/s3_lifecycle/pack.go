// Package s3_lifecycle provides the rule pack for the s3-lifecycle function.
package s3_lifecycle

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the s3-lifecycle rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.S3NoLifecycleRule{},
	}
}
