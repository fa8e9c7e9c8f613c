// Package governance provides the rule pack for the governance function.
package governance

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the governance rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.AccountCostSpikeRule{},
		rules.BudgetThresholdRule{},
		rules.TaggingNoncompliantRule{},
	}
}
