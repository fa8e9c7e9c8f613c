// Package ec2_rightsizing provides the rule pack for the ec2-rightsizing function.
package ec2_rightsizing

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the ec2-rightsizing rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.EC2LowCPURule{},
	}
}
