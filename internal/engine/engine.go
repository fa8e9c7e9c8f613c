// Package engine runs the cost-optimization functions. A Function collects
// data through the provider layer, evaluates its rule pack, optionally
// remediates, and returns a JSON-serialisable body. Runner wraps a run with
// panic recovery and metric publishing; Handle turns the outcome into the
// status/body pair returned by the Lambda and the CLI.
package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

// Function IDs.
const (
	FunctionAnomalyForecast = "anomaly-forecast"
	FunctionEBSOptimizer    = "ebs-optimizer"
	FunctionEC2Rightsizing  = "ec2-rightsizing"
	FunctionRDSOptimizer    = "rds-optimizer"
	FunctionRIOptimizer     = "ri-optimizer"
	FunctionSpotOptimizer   = "spot-optimizer"
	FunctionS3Lifecycle     = "s3-lifecycle"
	FunctionUnusedCleanup   = "unused-cleanup"
	FunctionDataTransfer    = "data-transfer"
	FunctionGovernance      = "governance"
	FunctionEKSOptimizer    = "eks-optimizer"
	FunctionK8sAdvisor      = "k8s-advisor"
)

// Metric namespaces.
const (
	NamespaceCost = "CostOptimization"
	NamespaceML   = "CostOptimization/ML"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// Request is the sole input to Function.Run.
type Request struct {
	// Profile is the named AWS profile to use. Empty means the default
	// credential chain, which is what Lambda uses.
	Profile string `json:"profile,omitempty"`

	// Regions restricts regional collection. When empty the function uses
	// the configured regions, then every region enabled for the account.
	Regions []string `json:"regions,omitempty"`

	// DaysBack overrides the function's default lookback window when
	// positive.
	DaysBack int `json:"days_back,omitempty"`

	// DryRun suppresses every mutating call.
	DryRun bool `json:"dry_run"`
}

// Result is what a successful run produces.
type Result struct {
	FunctionID string

	// Body is marshalled to JSON as the response body.
	Body any

	// Findings are the rule findings behind Body, with Domain set to
	// FunctionID and policy already applied.
	Findings []models.Finding

	// Metrics are published under MetricsNamespace after the run.
	Metrics          []metrics.Datum
	MetricsNamespace string
}

// Function is one cost-optimization function.
// Implementations must be safe to run concurrently with other functions.
type Function interface {
	// ID returns the stable function identifier (e.g. "ebs-optimizer").
	ID() string

	// Description returns a one-line summary shown by the CLI.
	Description() string

	// Run executes the function once.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Response is the status/body pair returned to the invoker. It mirrors the
// API Gateway proxy response shape.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
