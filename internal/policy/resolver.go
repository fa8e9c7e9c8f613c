package policy

import (
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// ApplyPolicy filters and rewrites the findings of one function. A disabled
// domain drops everything. Per-rule overrides run before the domain's
// min_severity filter, so an elevated finding can survive it.
func ApplyPolicy(findings []models.Finding, domain string, cfg *PolicyConfig) []models.Finding {
	if cfg == nil {
		return findings
	}

	minRank := 0
	if d, ok := cfg.Domains[domain]; ok {
		if !d.Enabled {
			return []models.Finding{}
		}
		if d.MinSeverity != "" {
			// Unknown values leave minRank at 0; nothing is filtered.
			minRank = severityRank[models.Severity(strings.ToUpper(d.MinSeverity))]
		}
	}

	var result []models.Finding

	for _, f := range findings {
		ruleCfg, hasRule := cfg.Rules[f.RuleID]

		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}

		if hasRule && ruleCfg.Severity != "" {
			f.Severity = models.Severity(strings.ToUpper(ruleCfg.Severity))
		}

		if minRank > 0 && severityRank[f.Severity] < minRank {
			continue
		}

		result = append(result, f)
	}

	return result
}

// RuleEnabled reports whether ruleID is switched on. Rules are enabled
// unless the policy says otherwise.
func RuleEnabled(ruleID string, cfg *PolicyConfig) bool {
	if cfg == nil {
		return true
	}
	rc, ok := cfg.Rules[ruleID]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}
