package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/remediate"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

// RemediatorFactory returns a Remediator for one run.
type RemediatorFactory func(dryRun bool) remediate.Remediator

// Env holds the dependencies shared by every function. It is built once
// (at Lambda cold start or CLI startup) and never mutated afterwards.
type Env struct {
	Provider  common.AWSClientProvider
	Pricing   pricing.Provider
	Policy    *policy.PolicyConfig
	Remediate RemediatorFactory

	// Regions is used when a Request names no regions. Empty means every
	// region enabled for the account.
	Regions []string

	Logger *slog.Logger

	// Now is the clock handed to rules. Nil means time.Now.
	Now func() time.Time
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

func (e *Env) prices() pricing.Provider {
	if e.Pricing == nil {
		return pricing.Default()
	}
	return e.Pricing
}

func (e *Env) remediator(dryRun bool) remediate.Remediator {
	if e.Remediate == nil {
		return remediate.NewDefaultRemediator(dryRun, e.logger())
	}
	return e.Remediate(dryRun)
}

// session is a loaded profile plus the regions a run covers.
type session struct {
	provider common.AWSClientProvider
	profile  *common.ProfileConfig
	regions  []string
}

// config returns the profile's SDK config pointed at region.
func (s *session) config(region string) aws.Config {
	return s.provider.ConfigForRegion(s.profile, region)
}

// global returns the profile's home-region SDK config, used for
// account-level APIs.
func (s *session) global() aws.Config {
	return s.profile.Config
}

// openProfile loads the request's profile without resolving regions.
func (e *Env) openProfile(ctx context.Context, req Request) (*session, error) {
	if e.Provider == nil {
		return nil, fmt.Errorf("no AWS client provider configured")
	}
	profile, err := e.Provider.LoadProfile(ctx, req.Profile)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", req.Profile, err)
	}
	return &session{provider: e.Provider, profile: profile}, nil
}

// open loads the request's profile and resolves the regions to collect.
func (e *Env) open(ctx context.Context, req Request) (*session, error) {
	s, err := e.openProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	requested := req.Regions
	if len(requested) == 0 {
		requested = e.Regions
	}
	s.regions, err = common.ResolveRegions(ctx, e.Provider, s.profile, requested)
	if err != nil {
		return nil, fmt.Errorf("resolve regions for profile %q: %w", s.profile.ProfileName, err)
	}
	return s, nil
}

// ruleContext returns a RuleContext carrying the session identity and the
// shared policy, pricing and clock.
func (e *Env) ruleContext(s *session) rules.RuleContext {
	return rules.RuleContext{
		AccountID: s.profile.AccountID,
		Profile:   s.profile.ProfileName,
		Policy:    e.Policy,
		Pricing:   e.prices(),
		Now:       e.now(),
	}
}

// evaluate runs pack against rc and applies the policy for functionID.
// Domain is stamped before the policy runs.
func (e *Env) evaluate(functionID string, pack []rules.Rule, rc rules.RuleContext) []models.Finding {
	findings := rules.NewDefaultRuleRegistry(pack...).EvaluateAll(rc)
	stampDomain(findings, functionID)
	return policy.ApplyPolicy(findings, functionID, e.Policy)
}

// tolerate logs a recoverable dependency error and returns nil, or returns
// err unchanged when it is fatal.
func (e *Env) tolerate(functionID, region string, err error) error {
	if err == nil {
		return nil
	}
	if !common.IsRecoverable(err) {
		return err
	}
	e.logger().Warn("skipping after recoverable error",
		"function", functionID, "region", region, "error", err)
	return nil
}

// stampDomain sets the Domain field on every finding in the slice.
func stampDomain(findings []models.Finding, domain string) {
	for i := range findings {
		findings[i].Domain = domain
	}
}

// isRecoverable reports whether a classified dependency error may be
// skipped.
func isRecoverable(err error) bool {
	return common.IsRecoverable(err)
}
