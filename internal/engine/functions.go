package engine

import (
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/eks"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/kubernetes"
)

// CostCollector is everything the AWS-backed functions read.
// *cost.DefaultCostCollector implements it.
type CostCollector interface {
	ForecastCollector
	EBSCollector
	EC2Collector
	RDSCollector
	CommitmentCollector
	SpotCollector
	S3Collector
	UnusedCollector
	DataTransferCollector
	GovernanceCollector
}

// Options tunes the functions built by NewFunctions.
type Options struct {
	// ForecastLookbackDays is the default anomaly-forecast history.
	ForecastLookbackDays int

	// RequiredTags are checked by governance. Empty disables the check.
	RequiredTags []string

	// KubeContext enables pod checks in eks-optimizer when set together
	// with a KubeClientProvider.
	KubeContext string

	// Advisor replaces the embedded k8s-advisor catalog.
	Advisor *AdvisorCatalog
}

// Deps are the collectors the functions are built on. Kube may be nil.
type Deps struct {
	Costs    CostCollector
	Clusters eks.EKSCollector
	Kube     kubernetes.KubeClientProvider
}

// NewFunctions returns all twelve functions in their canonical order.
func NewFunctions(env *Env, deps Deps, opts Options) ([]Function, error) {
	advisor, err := NewK8sAdvisor(opts.Advisor)
	if err != nil {
		return nil, err
	}
	return []Function{
		NewAnomalyForecast(env, deps.Costs, opts.ForecastLookbackDays),
		NewEBSOptimizer(env, deps.Costs),
		NewEC2Rightsizing(env, deps.Costs),
		NewRDSOptimizer(env, deps.Costs),
		NewRIOptimizer(env, deps.Costs),
		NewSpotOptimizer(env, deps.Costs),
		NewS3Lifecycle(env, deps.Costs),
		NewUnusedCleanup(env, deps.Costs),
		NewDataTransfer(env, deps.Costs),
		NewGovernance(env, deps.Costs, opts.RequiredTags),
		NewEKSOptimizer(env, deps.Clusters, deps.Kube, opts.KubeContext),
		advisor,
	}, nil
}

// NewDefaultRegistry registers every function returned by NewFunctions.
func NewDefaultRegistry(env *Env, deps Deps, opts Options) (*Registry, error) {
	fns, err := NewFunctions(env, deps, opts)
	if err != nil {
		return nil, err
	}
	return NewRegistry(fns...), nil
}
