// Package ri_optimizer provides the rule pack for the ri-optimizer function.
package ri_optimizer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the ri-optimizer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.RIUnderutilizedRule{},
		rules.CERightsizingRule{},
		rules.SavingsPlanLowCoverageRule{},
	}
}
