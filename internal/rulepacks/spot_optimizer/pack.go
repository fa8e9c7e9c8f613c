// Package spot_optimizer provides the rule pack for the spot-optimizer function.
package spot_optimizer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the spot-optimizer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.EC2SpotCandidateRule{},
		rules.ASGNoMixedInstancesRule{},
	}
}
