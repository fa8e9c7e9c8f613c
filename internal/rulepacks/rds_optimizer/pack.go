// Package rds_optimizer provides the rule pack for the rds-optimizer function.
package rds_optimizer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the rds-optimizer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.RDSIdleRule{},
		rules.RDSOversizedRule{},
	}
}
