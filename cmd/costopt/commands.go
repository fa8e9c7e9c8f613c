package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/app"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/config"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/engine"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/logging"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/output"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/version"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	profile    string
	regions    []string
	policyFile string
	pricing    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "costopt",
		Short:         "AWS cost optimization functions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default: $FINOPS_CONFIG or ~/.config/finops-lambdas/config.yaml)")
	pf.StringVar(&g.profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	pf.StringSliceVar(&g.regions, "region", nil, "AWS region(s) to analyse (default: configured regions, then all active regions)")
	pf.StringVar(&g.policyFile, "policy", "", "Policy file with thresholds, severities and enforcement")
	pf.StringVar(&g.pricing, "pricing", "", "Pricing override file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(&g),
		newForecastCmd(&g),
		newListCmd(&g),
		newDoctorCmd(&g),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and applies the global flags on top.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.NewFileLoader(g.configPath).Load()
	if err != nil {
		return nil, err
	}
	if g.profile != "" {
		cfg.AWS.DefaultProfile = g.profile
	}
	if len(g.regions) > 0 {
		cfg.AWS.Regions = g.regions
	}
	if g.policyFile != "" {
		cfg.PolicyFile = g.policyFile
	}
	if g.pricing != "" {
		cfg.PricingFile = g.pricing
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

// build loads the config and wires the application. Logs go to stderr as
// text so stdout stays clean for reports.
func (g *globalFlags) build(ctx context.Context, stderr io.Writer, mutate func(*config.Config)) (*app.App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	logger, err := logging.New(cfg.Log.Level, logging.FormatText, stderr)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

// runOptions are the flags of the run command.
type runOptions struct {
	all       bool
	days      int
	dryRun    bool
	reportFmt string
	summary   bool
	output    string
	color     bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [function...]",
		Short: "Run one or more cost-optimization functions",
		Example: `  costopt run ebs-optimizer --dry-run
  costopt run --all --report json --output report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all == (len(args) > 0) {
				return errors.New("name at least one function or pass --all")
			}
			switch engine.ReportFormat(opts.reportFmt) {
			case engine.ReportFormatJSON, engine.ReportFormatTable:
			default:
				return fmt.Errorf("unknown report format %q; valid values: json, table", opts.reportFmt)
			}

			a, err := g.build(cmd.Context(), cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			req := engine.Request{
				Profile:  a.Config.AWS.DefaultProfile,
				Regions:  g.regions,
				DaysBack: opts.days,
				DryRun:   opts.dryRun || a.Config.DryRun,
			}
			return runFunctions(cmd.Context(), a, args, opts, req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Run every function")
	cmd.Flags().IntVar(&opts.days, "days", 0, "Lookback window in days (default: each function's own window)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report remediation actions without performing them")
	cmd.Flags().StringVar(&opts.reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print compact summary: totals, severity breakdown, top-5 findings by savings")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&opts.color, "color", false, "Colour severities in table output")

	return cmd
}

// runFunctions runs the named functions (or all of them), renders the report
// to w and applies policy enforcement. A failed function or an enforcement
// breach is returned as an error so the process exits non-zero.
func runFunctions(ctx context.Context, a *app.App, ids []string, opts runOptions, req engine.Request, w io.Writer) error {
	fns, err := selectFunctions(a.Registry, ids, opts.all)
	if err != nil {
		return err
	}

	report, err := a.Runner.RunAll(ctx, fns, req)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if opts.output != "" {
		if err := writeReportToFile(opts.output, report); err != nil {
			return err
		}
	}

	switch {
	case opts.summary:
		printSummary(w, report)
	case engine.ReportFormat(opts.reportFmt) == engine.ReportFormatJSON:
		if err := output.WriteJSON(w, report); err != nil {
			return err
		}
	default:
		printTable(w, report, opts.color)
	}

	var failed []string
	for _, o := range report.Outcomes {
		if o.Error != "" {
			failed = append(failed, o.FunctionID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d function(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}

	if breached := enforcementBreaches(report, a.Policy); len(breached) > 0 {
		return fmt.Errorf("policy enforcement failed for: %s", strings.Join(breached, ", "))
	}
	return nil
}

// selectFunctions resolves ids against the registry, keeping the order given
// on the command line. all returns every function in canonical order.
func selectFunctions(reg *engine.Registry, ids []string, all bool) ([]engine.Function, error) {
	if all {
		return reg.All(), nil
	}
	seen := make(map[string]bool, len(ids))
	fns := make([]engine.Function, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		fn, err := reg.Lookup(id)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// enforcementBreaches returns the functions whose findings meet the
// fail_on_severity configured for them.
func enforcementBreaches(report *engine.Report, pol *policy.PolicyConfig) []string {
	if pol == nil {
		return nil
	}
	var out []string
	for _, o := range report.Outcomes {
		if policy.ShouldFail(o.FunctionID, o.Findings, pol) {
			out = append(out, o.FunctionID)
		}
	}
	return out
}

// newForecastCmd is "run anomaly-forecast" with the forecast-only flags.
func newForecastCmd(g *globalFlags) *cobra.Command {
	opts := runOptions{reportFmt: string(engine.ReportFormatJSON)}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the next 30 days of spend and assess cost risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.build(cmd.Context(), cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			req := engine.Request{
				Profile:  a.Config.AWS.DefaultProfile,
				DaysBack: opts.days,
			}
			return runFunctions(cmd.Context(), a, []string{engine.FunctionAnomalyForecast}, opts, req, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&opts.days, "days", 0, "Days of daily cost history to fit (default: forecast.lookback_days)")
	cmd.Flags().StringVar(&opts.reportFmt, "report", opts.reportFmt, "Output format: json or table")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	return cmd
}

func newListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.build(cmd.Context(), cmd.ErrOrStderr(), func(cfg *config.Config) {
				cfg.Metrics.Sink = config.SinkNone
			})
			if err != nil {
				return err
			}
			printFunctions(cmd.OutOrStdout(), a.Registry.All())
			return nil
		},
	}
}

func printFunctions(w io.Writer, fns []engine.Function) {
	for _, fn := range fns {
		fmt.Fprintf(w, "%-18s  %s\n", fn.ID(), fn.Description())
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *engine.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// printSummary renders a compact summary view to w: run header, totals,
// per-severity counts and the top 5 findings by savings.
func printSummary(w io.Writer, report *engine.Report) {
	s := report.Summary

	fmt.Fprintf(w, "Run:        %s\n", report.RunID)
	fmt.Fprintf(w, "Profile:    %s\n", profileLabel(report.Profile))
	fmt.Fprintf(w, "Functions:  %d\n", len(report.Outcomes))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Findings:        %d\n", s.TotalFindings)
	fmt.Fprintf(w, "Est. Monthly Savings:  $%.2f\n", s.TotalEstimatedMonthlySavings)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Severity Breakdown")
	fmt.Fprintf(w, "  %-10s  %d\n", "CRITICAL", s.CriticalFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "HIGH", s.HighFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "MEDIUM", s.MediumFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "LOW", s.LowFindings)

	top := topFindingsBySavings(report.Findings(), 5)
	if len(top) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top Findings by Savings")
	fmt.Fprintf(w, "  %-42s  %-16s  %-10s  %s\n", "RESOURCE ID", "FUNCTION", "SEVERITY", "SAVINGS/MO")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 84))
	for _, f := range top {
		fmt.Fprintf(w, "  %-42s  %-16s  %-10s  $%.2f\n",
			f.ResourceID, f.Domain, string(f.Severity), f.EstimatedMonthlySavings)
	}
}

// topFindingsBySavings returns up to n findings from the provided slice,
// ordered by EstimatedMonthlySavings descending.
// The original slice is not modified.
func topFindingsBySavings(findings []models.Finding, n int) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EstimatedMonthlySavings > sorted[j].EstimatedMonthlySavings
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// printTable renders a one-line header, the per-function summary and the
// findings table.
func printTable(w io.Writer, report *engine.Report, colored bool) {
	s := report.Summary
	fmt.Fprintf(w,
		"Profile: %-20s  Functions: %d  Findings: %d  Est. Savings: $%.2f/mo\n\n",
		profileLabel(report.Profile),
		len(report.Outcomes),
		s.TotalFindings,
		s.TotalEstimatedMonthlySavings,
	)

	rows := make([]output.FunctionRow, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		row := output.FunctionRow{
			Function: o.FunctionID,
			Status:   o.StatusCode,
			Findings: len(o.Findings),
			Savings:  o.Summary.TotalEstimatedMonthlySavings,
			Error:    o.Error,
		}
		rows = append(rows, row)
	}
	output.RenderSummary(w, rows)
	fmt.Fprintln(w)

	output.RenderTable(w, report.Findings(), output.TableOptions{
		Colored:         colored,
		IncludeFunction: len(report.Outcomes) > 1,
	})
}

func profileLabel(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
