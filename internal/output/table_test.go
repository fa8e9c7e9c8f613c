package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/output"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func renderToString(findings []models.Finding, opts output.TableOptions) string {
	var buf bytes.Buffer
	output.RenderTable(&buf, findings, opts)
	return buf.String()
}

func oneFinding(overrides ...func(*models.Finding)) models.Finding {
	f := models.Finding{
		RuleID:                  "EC2_LOW_CPU",
		ResourceID:              "i-0123456789abcdef0",
		ResourceType:            models.ResourceAWSEC2,
		Region:                  "us-east-1",
		Profile:                 "prod",
		Domain:                  "ec2-rightsizing",
		Severity:                models.SeverityHigh,
		EstimatedMonthlySavings: 42.00,
		Explanation:             "Average CPU is 3.1% over the lookback window.",
		Recommendation:          "Downsize from m5.xlarge to m5.large.",
	}
	for _, fn := range overrides {
		fn(&f)
	}
	return f
}

// ── empty input ───────────────────────────────────────────────────────────────

func TestRenderTable_NoFindings(t *testing.T) {
	out := renderToString(nil, output.TableOptions{})
	if strings.TrimSpace(out) != "No findings." {
		t.Errorf("got %q; want %q", out, "No findings.")
	}
}

// ── optional columns ──────────────────────────────────────────────────────────

func TestRenderTable_ProfileColumn(t *testing.T) {
	with := renderToString([]models.Finding{oneFinding()}, output.TableOptions{IncludeProfile: true})
	if !strings.Contains(with, "PROFILE") || !strings.Contains(with, "prod") {
		t.Errorf("expected PROFILE column with 'prod'\ngot:\n%s", with)
	}
	without := renderToString([]models.Finding{oneFinding()}, output.TableOptions{})
	if strings.Contains(without, "PROFILE") {
		t.Errorf("PROFILE column must not appear when IncludeProfile=false\ngot:\n%s", without)
	}
}

func TestRenderTable_FunctionColumn(t *testing.T) {
	with := renderToString([]models.Finding{oneFinding()}, output.TableOptions{IncludeFunction: true})
	if !strings.Contains(with, "FUNCTION") || !strings.Contains(with, "ec2-rightsizing") {
		t.Errorf("expected FUNCTION column with 'ec2-rightsizing'\ngot:\n%s", with)
	}
	without := renderToString([]models.Finding{oneFinding()}, output.TableOptions{})
	if strings.Contains(without, "FUNCTION") {
		t.Errorf("FUNCTION column must not appear when IncludeFunction=false\ngot:\n%s", without)
	}
}

func TestRenderTable_RecommendationReplacesExplanation(t *testing.T) {
	out := renderToString([]models.Finding{oneFinding()}, output.TableOptions{IncludeRecommendation: true})
	if !strings.Contains(out, "Downsize from m5.xlarge") {
		t.Errorf("expected recommendation text\ngot:\n%s", out)
	}
	if strings.Contains(out, "Average CPU") {
		t.Errorf("explanation must be replaced\ngot:\n%s", out)
	}
}

// ── savings and totals ────────────────────────────────────────────────────────

func TestRenderTable_SavingsAndTotal(t *testing.T) {
	findings := []models.Finding{
		oneFinding(),
		oneFinding(func(f *models.Finding) {
			f.ResourceID = "i-2"
			f.EstimatedMonthlySavings = 8.5
		}),
	}
	out := renderToString(findings, output.TableOptions{})
	if !strings.Contains(out, "$42.00") || !strings.Contains(out, "$8.50") {
		t.Errorf("expected per-row savings\ngot:\n%s", out)
	}
	if !strings.Contains(out, "2 findings, estimated savings $50.50/month") {
		t.Errorf("expected total line\ngot:\n%s", out)
	}
}

func TestRenderTable_EmptyRegionShownAsDash(t *testing.T) {
	out := renderToString([]models.Finding{oneFinding(func(f *models.Finding) { f.Region = "" })}, output.TableOptions{})
	lines := strings.Split(out, "\n")
	if len(lines) < 3 || !strings.Contains(lines[2], " -  ") {
		t.Errorf("expected '-' in the region column\ngot:\n%s", out)
	}
}

// ── alignment ─────────────────────────────────────────────────────────────────

func TestRenderTable_SeparatorMatchesHeader(t *testing.T) {
	out := renderToString([]models.Finding{oneFinding()}, output.TableOptions{IncludeProfile: true, IncludeFunction: true})
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		t.Fatalf("too few lines:\n%s", out)
	}
	if len(lines[0]) != len(lines[1]) {
		t.Errorf("separator length %d != header length %d", len(lines[1]), len(lines[0]))
	}
}

func TestRenderTable_LongResourceIDTruncated(t *testing.T) {
	long := "arn:aws:elasticloadbalancing:us-east-1:111122223333:loadbalancer/app/very-long-name/50dc6c495c0c9188"
	out := renderToString([]models.Finding{oneFinding(func(f *models.Finding) { f.ResourceID = long })}, output.TableOptions{})
	if strings.Contains(out, long) {
		t.Errorf("long resource ID must be truncated\ngot:\n%s", out)
	}
	if !strings.Contains(out, "…") {
		t.Errorf("expected ellipsis in truncated ID\ngot:\n%s", out)
	}
}

// ── colour ────────────────────────────────────────────────────────────────────

func TestRenderTable_ColoredOnlyWhenRequested(t *testing.T) {
	plain := renderToString([]models.Finding{oneFinding()}, output.TableOptions{})
	if strings.Contains(plain, "\033[") {
		t.Errorf("plain output must not contain ANSI codes\ngot:\n%q", plain)
	}
	colored := renderToString([]models.Finding{oneFinding()}, output.TableOptions{Colored: true})
	if !strings.Contains(colored, "\033[0;31mHIGH\033[0m") {
		t.Errorf("expected red HIGH\ngot:\n%q", colored)
	}
}

func TestColorSeverity(t *testing.T) {
	tests := []struct {
		sev     models.Severity
		colored bool
		want    string
	}{
		{models.SeverityCritical, true, "\033[1;31mCRITICAL\033[0m"},
		{models.SeverityMedium, true, "\033[0;33mMEDIUM\033[0m"},
		{models.SeverityLow, true, "\033[0;34mLOW\033[0m"},
		{models.SeverityInfo, true, "INFO"},
		{models.SeverityHigh, false, "HIGH"},
	}
	for _, tc := range tests {
		if got := output.ColorSeverity(tc.sev, tc.colored); got != tc.want {
			t.Errorf("ColorSeverity(%s, %v) = %q; want %q", tc.sev, tc.colored, got, tc.want)
		}
	}
}

// ── ShortenMessage ────────────────────────────────────────────────────────────

func TestShortenMessage(t *testing.T) {
	tests := []struct {
		msg  string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 1, "a..."},
	}
	for _, tc := range tests {
		if got := output.ShortenMessage(tc.msg, tc.max); got != tc.want {
			t.Errorf("ShortenMessage(%q, %d) = %q; want %q", tc.msg, tc.max, got, tc.want)
		}
	}
}

// ── RenderSummary / WriteJSON ─────────────────────────────────────────────────

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	output.RenderSummary(&buf, []output.FunctionRow{
		{Function: "ebs-optimizer", Status: 200, Findings: 3, Savings: 12.5},
		{Function: "governance", Status: 500, Error: "organizations ListAccounts (AccessDenied)"},
	})
	out := buf.String()
	if !strings.Contains(out, "ebs-optimizer") || !strings.Contains(out, "$12.50") {
		t.Errorf("expected ebs-optimizer row\ngot:\n%s", out)
	}
	if !strings.Contains(out, "AccessDenied") {
		t.Errorf("expected error for governance\ngot:\n%s", out)
	}
}

func TestWriteJSON_Indented(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, map[string]int{"volumes_optimized": 2}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	want := "{\n  \"volumes_optimized\": 2\n}\n"
	if buf.String() != want {
		t.Errorf("got %q; want %q", buf.String(), want)
	}
}

func TestWriteJSON_Error(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}
