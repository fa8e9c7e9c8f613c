// Package unused_cleanup provides the rule pack for the unused-cleanup function.
package unused_cleanup

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the unused-cleanup rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.SGUnusedRule{},
		rules.EIPUnattachedRule{},
		rules.LBNoHealthyTargetsRule{},
	}
}
