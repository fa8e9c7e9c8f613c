package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/app"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/engine"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
	kube "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/kubernetes"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/version"
)

// DoctorResult is the structured output of costopt doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable table
// (default).
type DoctorResult struct {
	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Regions     int    `json:"regions"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Kubernetes struct {
		Configured   bool   `json:"configured"`
		KubeconfigOK bool   `json:"kubeconfig_ok"`
		Context      string `json:"context,omitempty"`
		APIReachable bool   `json:"api_reachable"`
		Error        string `json:"error,omitempty"`
	} `json:"kubernetes"`

	Pricing struct {
		Path    string `json:"path,omitempty"`
		Present bool   `json:"present"`
		Valid   bool   `json:"valid"`
		Error   string `json:"error,omitempty"`
	} `json:"pricing"`

	Policy struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

// doctorTargets names what collectDoctorResult checks. Kube is nil when no
// kube context is configured. Empty file paths skip their checks.
type doctorTargets struct {
	AWS         common.AWSClientProvider
	Kube        kube.KubeClientProvider
	KubeContext string
	PolicyPath  string
	PricingPath string
	Profile     string
}

func newDoctorCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			targets := doctorTargets{
				AWS: common.NewDefaultAWSClientProvider(
					common.WithDefaultRegion(cfg.AWS.DefaultRegion),
					common.WithAppID(version.UserAgent()),
				),
				KubeContext: cfg.Kubernetes.Context,
				PolicyPath:  cfg.PolicyFile,
				PricingPath: cfg.PricingFile,
				Profile:     cfg.AWS.DefaultProfile,
			}
			if cfg.Kubernetes.Context != "" {
				targets.Kube = kube.NewDefaultKubeClientProvider(cfg.Kubernetes.Kubeconfig)
			}

			result, err := runDoctor(cmd.Context(), targets, cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text is printed after the report.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures. Callers must inspect
// result.OverallHealthy to decide whether the environment is healthy.
func runDoctor(ctx context.Context, t doctorTargets, w io.Writer, format string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, t)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
func collectDoctorResult(ctx context.Context, t doctorTargets) DoctorResult {
	var result DoctorResult

	// AWS: credentials, then STS account ID, then region discovery.
	result.AWS.Profile = t.Profile
	profileCfg, err := t.AWS.LoadProfile(ctx, t.Profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		regions, err := t.AWS.GetActiveRegions(ctx, profileCfg)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
			result.AWS.Regions = len(regions)
		}
	}

	// Kubernetes is only checked when eks-optimizer pod checks are enabled.
	if t.Kube != nil {
		result.Kubernetes.Configured = true
		clientset, info, err := t.Kube.ClientsetForContext(t.KubeContext)
		if err != nil {
			result.Kubernetes.Error = err.Error()
		} else {
			result.Kubernetes.KubeconfigOK = true
			result.Kubernetes.Context = info.ContextName
			_, err = clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
			if err != nil {
				result.Kubernetes.Error = err.Error()
			} else {
				result.Kubernetes.APIReachable = true
			}
		}
	}

	if t.PricingPath != "" {
		result.Pricing.Path = t.PricingPath
		result.Pricing.Present = true
		if _, err := pricing.LoadFile(t.PricingPath); err != nil {
			result.Pricing.Error = err.Error()
		} else {
			result.Pricing.Valid = true
		}
	}

	if t.PolicyPath != "" {
		result.Policy.Path = t.PolicyPath
		result.Policy.Present = true
		cfg, err := policy.LoadPolicy(t.PolicyPath)
		if err != nil {
			result.Policy.Errors = []string{err.Error()}
		} else {
			errs := policy.Validate(cfg, functionIDs(), app.RuleIDs())
			if len(errs) == 0 {
				result.Policy.Valid = true
			}
			for _, e := range errs {
				result.Policy.Errors = append(result.Policy.Errors, e.Error())
			}
		}
	}

	kubeOK := !result.Kubernetes.Configured ||
		(result.Kubernetes.KubeconfigOK && result.Kubernetes.APIReachable)

	result.OverallHealthy = result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		kubeOK &&
		(!result.Pricing.Present || result.Pricing.Valid) &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// functionIDs lists every function ID without wiring any collectors.
func functionIDs() []string {
	fns, err := engine.NewFunctions(&engine.Env{}, engine.Deps{}, engine.Options{})
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(fns))
	for _, fn := range fns {
		ids = append(ids, fn.ID())
	}
	return ids
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", fmt.Sprintf("%d active", result.AWS.Regions))
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nKubernetes:")
	switch {
	case !result.Kubernetes.Configured:
		doctorPrint(w, "Context", "Not configured (optional)", "")
	case !result.Kubernetes.KubeconfigOK:
		doctorPrint(w, "Kubeconfig", "FAIL", result.Kubernetes.Error)
		doctorPrint(w, "API Reachable", "FAIL", "skipped")
	default:
		doctorPrint(w, "Kubeconfig", "OK", "")
		doctorPrint(w, "Context", "OK", result.Kubernetes.Context)
		if result.Kubernetes.APIReachable {
			doctorPrint(w, "API Reachable", "OK", "")
		} else {
			doctorPrint(w, "API Reachable", "FAIL", result.Kubernetes.Error)
		}
	}

	fmt.Fprintln(w, "\nPricing:")
	switch {
	case !result.Pricing.Present:
		doctorPrint(w, "Pricing file", "Built-in defaults", "")
	case result.Pricing.Valid:
		doctorPrint(w, "Pricing file", "OK", result.Pricing.Path)
	default:
		doctorPrint(w, "Pricing file", "FAIL", result.Pricing.Error)
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, "Policy file", "Not configured (optional)", "")
		return
	}
	doctorPrint(w, "Policy file", "YES", result.Policy.Path)
	if result.Policy.Valid {
		doctorPrint(w, "Policy valid", "OK", "")
		return
	}
	for _, e := range result.Policy.Errors {
		doctorPrint(w, "Policy valid", "FAIL", e)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
