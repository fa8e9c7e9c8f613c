package policy

import (
	"slices"
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// ShouldFail reports whether findings from the function named fnID include
// one ranked at or above that function's enforcement fail_on_severity. A nil
// cfg, a function without an enforcement entry, or an unknown severity name
// never fails.
func ShouldFail(fnID string, findings []models.Finding, cfg *PolicyConfig) bool {
	if cfg == nil {
		return false
	}
	failOn := strings.ToUpper(cfg.Enforcement[fnID].FailOnSeverity)
	floor, known := severityRank[models.Severity(failOn)]
	if !known {
		return false
	}
	return slices.ContainsFunc(findings, func(f models.Finding) bool {
		return severityRank[f.Severity] >= floor
	})
}
