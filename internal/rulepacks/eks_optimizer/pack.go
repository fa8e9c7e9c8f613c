// Package eks_optimizer provides the rule pack for the eks-optimizer function.
// Cluster rules read RuleContext.Cluster; pod rules read Workloads and emit
// nothing when no kubeconfig context was available.
package eks_optimizer

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the eks-optimizer rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.EKSNodegroupOnDemandRule{},
		rules.EKSNodegroupAtMaxRule{},
		rules.EKSNodegroupSingleTypeRule{},
		rules.EKSVersionOutdatedRule{},
		rules.EKSNoAutoscalingHeadroomRule{},
		rules.EKSFargateCandidateRule{},
		rules.K8SPodNoRequestsRule{},
		rules.K8SPodNoMemoryLimitRule{},
	}
}
