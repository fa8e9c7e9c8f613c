// Package ebs_optimizer provides the rule pack for the ebs-optimizer function.
// New returns every rule in evaluation order; callers register them into a
// RuleRegistry via a loop rather than listing each rule explicitly.
//
// Adding a rule to a function:
//  1. Implement the rule in internal/rules/ following the Rule interface.
//  2. Append it to the slice returned by the pack's New().
//  3. No other files need to change.
//
// Every function in internal/engine owns one pack following this convention.
package ebs_optimizer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the ebs-optimizer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.EBSGP2LegacyRule{},
		rules.EBSSnapshotOrphanedRule{},
		rules.EBSUnattachedRule{},
	}
}
