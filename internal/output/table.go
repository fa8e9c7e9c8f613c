// Package output renders function results for the terminal: a findings
// table, a per-function summary and indented JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls which columns RenderTable renders and how severity
// is coloured.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeFunction adds a FUNCTION column, useful when findings from
	// several functions share one table.
	IncludeFunction bool

	// IncludeProfile adds a PROFILE column.
	IncludeProfile bool

	// IncludeRecommendation prints the recommendation instead of the
	// explanation in the MESSAGE column.
	IncludeRecommendation bool
}

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	}
	return ""
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
func ColorSeverity(sev models.Severity, colored bool) string {
	code := severityColor(sev)
	if !colored || code == "" {
		return string(sev)
	}
	return code + string(sev) + ansiReset
}

// ShortenMessage truncates msg to at most max runes, appending "..." when
// truncated. max is treated as at least 4.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell pads the severity to width. ANSI codes wrap only the text so
// the padding stays aligned on terminals without colour support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityColor(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID and label columns.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderTable writes a findings table to w.
//
// Column order:
//
//	RESOURCE ID  [PROFILE]  REGION  SEVERITY  [FUNCTION]  RULE  MESSAGE  SAVINGS/MO
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	const (
		wResource = 32
		wProfile  = 12
		wRegion   = 14
		wSeverity = 9
		wFunction = 16
		wRule     = 26
		wMessage  = 60
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wResource, "RESOURCE ID"))
	if opts.IncludeProfile {
		hb.WriteString(fmt.Sprintf("  %-*s", wProfile, "PROFILE"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wRegion, "REGION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSeverity, "SEVERITY"))
	if opts.IncludeFunction {
		hb.WriteString(fmt.Sprintf("  %-*s", wFunction, "FUNCTION"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wRule, "RULE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wMessage, "MESSAGE"))
	hb.WriteString("  SAVINGS/MO")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	var total float64
	for _, f := range findings {
		msg := f.Explanation
		if opts.IncludeRecommendation && f.Recommendation != "" {
			msg = f.Recommendation
		}
		region := f.Region
		if region == "" {
			region = "-"
		}

		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wResource, truncateField(f.ResourceID, wResource)))
		if opts.IncludeProfile {
			rb.WriteString(fmt.Sprintf("  %-*s", wProfile, truncateField(f.Profile, wProfile)))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wRegion, truncateField(region, wRegion)))
		rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
		if opts.IncludeFunction {
			rb.WriteString(fmt.Sprintf("  %-*s", wFunction, truncateField(f.Domain, wFunction)))
		}
		rb.WriteString(fmt.Sprintf("  %-*s", wRule, truncateField(f.RuleID, wRule)))
		rb.WriteString(fmt.Sprintf("  %-*s", wMessage, ShortenMessage(msg, wMessage)))
		rb.WriteString(fmt.Sprintf("  $%.2f", f.EstimatedMonthlySavings))
		fmt.Fprintln(w, rb.String())

		total += f.EstimatedMonthlySavings
	}

	fmt.Fprintf(w, "\n%d findings, estimated savings $%.2f/month\n", len(findings), total)
}

// FunctionRow is one line of the per-function summary.
type FunctionRow struct {
	Function string
	Status   int
	Findings int
	Savings  float64
	Error    string
}

// RenderSummary writes one line per function run. Failed runs show their
// error instead of counts.
func RenderSummary(w io.Writer, rows []FunctionRow) {
	fmt.Fprintf(w, "%-18s  %-6s  %8s  %12s\n", "FUNCTION", "STATUS", "FINDINGS", "SAVINGS/MO")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(w, "%-18s  %-6d  %s\n", r.Function, r.Status, ShortenMessage(r.Error, 80))
			continue
		}
		fmt.Fprintf(w, "%-18s  %-6d  %8d  %12s\n", r.Function, r.Status, r.Findings, fmt.Sprintf("$%.2f", r.Savings))
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
