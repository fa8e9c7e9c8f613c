package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/app"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/engine"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
)

// ── test helpers ─────────────────────────────────────────────────────────────

// stubFunction returns fixed findings or a fixed error and records the
// request it was run with.
type stubFunction struct {
	id       string
	findings []models.Finding
	err      error
	lastReq  engine.Request
}

func (f *stubFunction) ID() string          { return f.id }
func (f *stubFunction) Description() string { return "stub " + f.id }

func (f *stubFunction) Run(_ context.Context, req engine.Request) (*engine.Result, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Result{Body: map[string]int{"count": len(f.findings)}, Findings: f.findings}, nil
}

func finding(domain, id string, sev models.Severity, savings float64) models.Finding {
	return models.Finding{
		ID:                      id,
		RuleID:                  "TEST_RULE",
		ResourceID:              id,
		Region:                  "us-east-1",
		Domain:                  domain,
		Severity:                sev,
		EstimatedMonthlySavings: savings,
		Explanation:             "test finding " + id,
	}
}

func testApp(pol *policy.PolicyConfig, fns ...engine.Function) *app.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &app.App{
		Logger:   logger,
		Policy:   pol,
		Registry: engine.NewRegistry(fns...),
		Runner:   engine.NewRunner(nil, logger),
	}
}

func makeReport(findings ...models.Finding) *engine.Report {
	return &engine.Report{
		RunID:       "run-test",
		GeneratedAt: time.Now().UTC(),
		Profile:     "staging",
		Outcomes: []engine.Outcome{{
			FunctionID: "ebs-optimizer",
			StatusCode: 200,
			Findings:   findings,
			Summary:    engine.ComputeSummary(findings),
		}},
		Summary: engine.ComputeSummary(findings),
	}
}

// ── selectFunctions ──────────────────────────────────────────────────────────

func TestSelectFunctions(t *testing.T) {
	reg := engine.NewRegistry(
		&stubFunction{id: "ebs-optimizer"},
		&stubFunction{id: "governance"},
		&stubFunction{id: "k8s-advisor"},
	)

	fns, err := selectFunctions(reg, []string{"k8s-advisor", "ebs-optimizer", "k8s-advisor"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fns) != 2 || fns[0].ID() != "k8s-advisor" || fns[1].ID() != "ebs-optimizer" {
		t.Errorf("expected command-line order without duplicates; got %v", ids(fns))
	}

	all, err := selectFunctions(reg, nil, true)
	if err != nil || len(all) != 3 {
		t.Errorf("expected all 3 functions; got %v, %v", ids(all), err)
	}

	if _, err := selectFunctions(reg, []string{"nightly-report"}, false); err == nil {
		t.Error("expected error for unknown function")
	}
}

func ids(fns []engine.Function) []string {
	var out []string
	for _, fn := range fns {
		out = append(out, fn.ID())
	}
	return out
}

// ── runFunctions ─────────────────────────────────────────────────────────────

func TestRunFunctions_TableOutput(t *testing.T) {
	ebs := &stubFunction{id: "ebs-optimizer", findings: []models.Finding{
		finding("ebs-optimizer", "vol-1", models.SeverityMedium, 12.5),
	}}
	gov := &stubFunction{id: "governance"}
	a := testApp(nil, ebs, gov)

	var buf bytes.Buffer
	req := engine.Request{Profile: "staging", DryRun: true, DaysBack: 7}
	err := runFunctions(context.Background(), a, nil, runOptions{all: true, reportFmt: "table"}, req, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ebs.lastReq.DryRun || ebs.lastReq.DaysBack != 7 || ebs.lastReq.Profile != "staging" {
		t.Errorf("request not forwarded: %+v", ebs.lastReq)
	}
	out := buf.String()
	for _, want := range []string{"Profile: staging", "Functions: 2", "vol-1", "$12.50", "FUNCTION"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
}

func TestRunFunctions_JSONOutputAndFile(t *testing.T) {
	a := testApp(nil, &stubFunction{id: "ebs-optimizer", findings: []models.Finding{
		finding("ebs-optimizer", "vol-1", models.SeverityLow, 3),
	}})
	path := filepath.Join(t.TempDir(), "report.json")

	var buf bytes.Buffer
	opts := runOptions{reportFmt: "json", output: path}
	if err := runFunctions(context.Background(), a, []string{"ebs-optimizer"}, opts, engine.Request{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stdout engine.Report
	if err := json.Unmarshal(buf.Bytes(), &stdout); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, buf.String())
	}
	if stdout.Summary.TotalFindings != 1 {
		t.Errorf("expected 1 finding; got %d", stdout.Summary.TotalFindings)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	var file engine.Report
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("report file is not JSON: %v", err)
	}
	if file.RunID != stdout.RunID {
		t.Errorf("file run ID %q != stdout run ID %q", file.RunID, stdout.RunID)
	}
}

func TestRunFunctions_FunctionFailure(t *testing.T) {
	a := testApp(nil,
		&stubFunction{id: "ebs-optimizer"},
		&stubFunction{id: "governance", err: errors.New("organizations ListAccounts (AccessDenied)")},
	)

	var buf bytes.Buffer
	err := runFunctions(context.Background(), a, nil, runOptions{all: true, reportFmt: "table"}, engine.Request{}, &buf)
	if err == nil || !strings.Contains(err.Error(), "1 function(s) failed: governance") {
		t.Fatalf("expected failure error; got %v", err)
	}
	if !strings.Contains(buf.String(), "AccessDenied") {
		t.Errorf("report must still be rendered;\ngot:\n%s", buf.String())
	}
}

func TestRunFunctions_PolicyEnforcement(t *testing.T) {
	pol := &policy.PolicyConfig{
		Version: 1,
		Enforcement: map[string]policy.EnforcementConfig{
			"ebs-optimizer": {FailOnSeverity: "HIGH"},
		},
	}
	high := &stubFunction{id: "ebs-optimizer", findings: []models.Finding{
		finding("ebs-optimizer", "vol-1", models.SeverityHigh, 10),
	}}
	a := testApp(pol, high)

	var buf bytes.Buffer
	err := runFunctions(context.Background(), a, []string{"ebs-optimizer"}, runOptions{reportFmt: "table"}, engine.Request{}, &buf)
	if err == nil || !strings.Contains(err.Error(), "policy enforcement failed for: ebs-optimizer") {
		t.Fatalf("expected enforcement error; got %v", err)
	}

	high.findings[0].Severity = models.SeverityMedium
	buf.Reset()
	if err := runFunctions(context.Background(), a, []string{"ebs-optimizer"}, runOptions{reportFmt: "table"}, engine.Request{}, &buf); err != nil {
		t.Errorf("MEDIUM finding must not breach HIGH enforcement: %v", err)
	}
}

func TestRunCmd_RequiresFunctionOrAll(t *testing.T) {
	for _, args := range [][]string{
		{"run"},
		{"run", "--all", "ebs-optimizer"},
	} {
		root := newRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)
		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "--all") {
			t.Errorf("%v: expected usage error; got %v", args, err)
		}
	}
}

func TestRunCmd_RejectsUnknownReportFormat(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"run", "--all", "--report", "xml"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("expected report format error; got %v", err)
	}
}

// ── enforcementBreaches ──────────────────────────────────────────────────────

func TestEnforcementBreaches_NoPolicy(t *testing.T) {
	report := makeReport(finding("ebs-optimizer", "vol-1", models.SeverityCritical, 1))
	if got := enforcementBreaches(report, nil); got != nil {
		t.Errorf("expected no breaches without policy; got %v", got)
	}
}

// ── printSummary ─────────────────────────────────────────────────────────────

func TestPrintSummary(t *testing.T) {
	report := makeReport(
		finding("ebs-optimizer", "vol-a", models.SeverityHigh, 5),
		finding("ebs-optimizer", "vol-b", models.SeverityLow, 50),
		finding("ebs-optimizer", "vol-c", models.SeverityMedium, 20),
	)

	var buf bytes.Buffer
	printSummary(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"Run:        run-test",
		"Profile:    staging",
		"Total Findings:        3",
		"Est. Monthly Savings:  $75.00",
		"Top Findings by Savings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q;\ngot:\n%s", want, out)
		}
	}
	if strings.Index(out, "vol-b") > strings.Index(out, "vol-c") || strings.Index(out, "vol-c") > strings.Index(out, "vol-a") {
		t.Errorf("top findings must be ordered by savings;\ngot:\n%s", out)
	}
}

func TestPrintSummary_NoFindings(t *testing.T) {
	report := makeReport()
	report.Profile = ""

	var buf bytes.Buffer
	printSummary(&buf, report)
	out := buf.String()
	if !strings.Contains(out, "Profile:    default") {
		t.Errorf("expected default profile label;\ngot:\n%s", out)
	}
	if strings.Contains(out, "Top Findings") {
		t.Errorf("top findings section must be omitted;\ngot:\n%s", out)
	}
}

func TestTopFindingsBySavings(t *testing.T) {
	in := []models.Finding{
		finding("x", "a", models.SeverityLow, 1),
		finding("x", "b", models.SeverityLow, 3),
		finding("x", "c", models.SeverityLow, 2),
	}
	top := topFindingsBySavings(in, 2)
	if len(top) != 2 || top[0].ID != "b" || top[1].ID != "c" {
		t.Errorf("unexpected top findings: %+v", top)
	}
	if in[0].ID != "a" {
		t.Error("input slice must not be modified")
	}
	if got := topFindingsBySavings(in, 10); len(got) != 3 {
		t.Errorf("expected all 3 findings; got %d", len(got))
	}
}

// ── list / version ───────────────────────────────────────────────────────────

func TestPrintFunctions(t *testing.T) {
	var buf bytes.Buffer
	printFunctions(&buf, []engine.Function{&stubFunction{id: "ebs-optimizer"}, &stubFunction{id: "governance"}})
	want := "ebs-optimizer       stub ebs-optimizer\ngovernance          stub governance\n"
	if buf.String() != want {
		t.Errorf("got %q; want %q", buf.String(), want)
	}
}

func TestWriteReportToFile_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "report.json")
	if err := writeReportToFile(path, makeReport()); err == nil {
		t.Error("expected error for unwritable path")
	}
}
