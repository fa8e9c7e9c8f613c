package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// severityRank maps Severity values to sort keys (lower = higher priority).
var severityRank = map[models.Severity]int{
	models.SeverityCritical: 0,
	models.SeverityHigh:     1,
	models.SeverityMedium:   2,
	models.SeverityLow:      3,
	models.SeverityInfo:     4,
}

// sortFindings sorts findings in-place: severity descending (CRITICAL first),
// then EstimatedMonthlySavings descending within the same severity.
func sortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri := severityRank[findings[i].Severity]
		rj := severityRank[findings[j].Severity]
		if ri != rj {
			return ri < rj
		}
		return findings[i].EstimatedMonthlySavings > findings[j].EstimatedMonthlySavings
	})
}

// ComputeSummary aggregates finding counts and total estimated savings across
// all severity levels.
func ComputeSummary(findings []models.Finding) models.Summary {
	var s models.Summary
	s.TotalFindings = len(findings)
	for _, f := range findings {
		s.TotalEstimatedMonthlySavings += f.EstimatedMonthlySavings
		switch f.Severity {
		case models.SeverityCritical:
			s.CriticalFindings++
		case models.SeverityHigh:
			s.HighFindings++
		case models.SeverityMedium:
			s.MediumFindings++
		case models.SeverityLow:
			s.LowFindings++
		}
	}
	s.TotalEstimatedMonthlySavings = roundCents(s.TotalEstimatedMonthlySavings)
	return s
}

// byRule returns the findings produced by ruleID, in order. The result is
// never nil so that empty sections marshal as [].
func byRule(findings []models.Finding, ruleID string) []models.Finding {
	out := []models.Finding{}
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

// totalSavings sums EstimatedMonthlySavings, rounded to cents.
func totalSavings(findings ...[]models.Finding) float64 {
	sum := decimal.Zero
	for _, group := range findings {
		for _, f := range group {
			sum = sum.Add(decimal.NewFromFloat(f.EstimatedMonthlySavings))
		}
	}
	return sum.Round(2).InexactFloat64()
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// metaString returns f.Metadata[key] when it is a string.
func metaString(f models.Finding, key string) string {
	s, _ := f.Metadata[key].(string)
	return s
}

// metaFloat returns f.Metadata[key] as a float64 for the numeric types rules
// store there.
func metaFloat(f models.Finding, key string) float64 {
	switch v := f.Metadata[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// nonNil returns s, or an empty slice when s is nil.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
