// Package anomaly_forecast provides the rule pack for the anomaly-forecast function.
package anomaly_forecast

import "github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"

// New returns the anomaly-forecast rules in evaluation order.
func New() []rules.Rule {
	return []rules.Rule{
		rules.CostAnomalyHighImpactRule{},
	}
}
