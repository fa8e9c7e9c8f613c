package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

// RuleContext carries all collected data for one function run. It is the
// sole input to Rule.Evaluate and must contain everything a rule needs;
// rules must never make network calls or read external state.
type RuleContext struct {
	// AccountID is the AWS account being evaluated.
	AccountID string

	// Profile is the AWS profile name for this evaluation run.
	Profile string

	// RegionData holds the resources collected from one region. Nil for
	// account-level evaluations.
	RegionData *models.AWSRegionData

	// Account holds account-wide Cost Explorer, Organizations, Budgets and
	// tagging data. Nil for regional evaluations.
	Account *models.AWSAccountData

	// Cluster is the EKS cluster under evaluation, if any.
	Cluster *models.EKSCluster

	// Workloads is the pod inventory read through a kubeconfig context.
	// Nil when no context is configured or the cluster was unreachable.
	Workloads *models.KubernetesWorkloads

	// Policy holds the active PolicyConfig for threshold overrides. May be nil
	// when no policy file is loaded; rules must treat nil as "use defaults".
	Policy *policy.PolicyConfig

	// Pricing supplies hourly and unit prices. Nil means pricing.Default().
	Pricing pricing.Provider

	// Now is the evaluation time. Zero means time.Now().
	Now time.Time
}

// prices returns ctx.Pricing or the built-in table.
func (ctx RuleContext) prices() pricing.Provider {
	if ctx.Pricing == nil {
		return pricing.Default()
	}
	return ctx.Pricing
}

// now returns ctx.Now in UTC, or the wall clock when unset.
func (ctx RuleContext) now() time.Time {
	if ctx.Now.IsZero() {
		return time.Now().UTC()
	}
	return ctx.Now.UTC()
}

// threshold resolves a policy parameter override for ruleID.
func (ctx RuleContext) threshold(ruleID, key string, def float64) float64 {
	return policy.GetThreshold(ruleID, key, def, ctx.Policy)
}

// Rule is a single deterministic waste-detection rule.
// Rules must be stateless and safe to call concurrently.
// They must never call the AWS SDK or any external service.
type Rule interface {
	// ID returns the unique, stable identifier for this rule (e.g. "EC2_LOW_CPU").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Evaluate inspects the provided context and returns zero or more findings.
	// An empty slice means no issue was detected.
	Evaluate(ctx RuleContext) []models.Finding
}

// RuleRegistry manages the set of active rules and drives evaluation.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// EvaluateAll runs every registered rule against ctx and merges results.
	EvaluateAll(ctx RuleContext) []models.Finding
}

// cents rounds a USD amount to two decimal places.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
