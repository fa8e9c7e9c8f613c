package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/unused_cleanup"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

// UnusedCleanupBody is the unused-cleanup response body.
type UnusedCleanupBody struct {
	UnusedSecurityGroups int     `json:"unused_security_groups"`
	UnattachedEIPs       int     `json:"unattached_eips"`
	UnusedLoadBalancers  int     `json:"unused_load_balancers"`
	EstimatedSavings     float64 `json:"estimated_savings"`
	DryRun               bool    `json:"dry_run"`
}

// UnusedCleanup deletes unused security groups, releases unattached Elastic
// IPs and reports load balancers with no healthy targets. Load balancers
// are never deleted.
type UnusedCleanup struct {
	env    *Env
	unused UnusedCollector
}

func NewUnusedCleanup(env *Env, unused UnusedCollector) *UnusedCleanup {
	return &UnusedCleanup{env: env, unused: unused}
}

func (f *UnusedCleanup) ID() string          { return FunctionUnusedCleanup }
func (f *UnusedCleanup) Description() string { return "Clean up unused security groups, Elastic IPs and load balancers" }

func (f *UnusedCleanup) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}
	rem := f.env.remediator(req.DryRun)
	log := f.env.logger().With("function", f.ID())

	sgRuleID := rules.SGUnusedRule{}.ID()
	eipRuleID := rules.EIPUnattachedRule{}.ID()
	lbRuleID := rules.LBNoHealthyTargetsRule{}.ID()

	body := UnusedCleanupBody{DryRun: req.DryRun}
	var all []models.Finding

	for _, region := range s.regions {
		cfg := s.config(region)
		data := &models.AWSRegionData{Region: region}

		if data.SecurityGroups, err = f.unused.SecurityGroups(ctx, cfg); err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("security groups in %s: %w", region, err)
			}
		}
		if data.ElasticIPs, err = f.unused.ElasticIPs(ctx, cfg); err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("elastic IPs in %s: %w", region, err)
			}
		}
		if data.LoadBalancers, err = f.unused.LoadBalancers(ctx, cfg, true); err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("load balancers in %s: %w", region, err)
			}
		}

		rc := f.env.ruleContext(s)
		rc.RegionData = data
		findings := f.env.evaluate(f.ID(), unused_cleanup.New(), rc)

		for _, finding := range findings {
			var actErr error
			switch finding.RuleID {
			case sgRuleID:
				if actErr = rem.DeleteSecurityGroup(ctx, cfg, finding.ResourceID); actErr == nil {
					body.UnusedSecurityGroups++
				}
			case eipRuleID:
				if actErr = rem.ReleaseAddress(ctx, cfg, finding.ResourceID); actErr == nil {
					body.UnattachedEIPs++
					body.EstimatedSavings += finding.EstimatedMonthlySavings
				}
			case lbRuleID:
				body.UnusedLoadBalancers++
				body.EstimatedSavings += finding.EstimatedMonthlySavings
			}
			if actErr != nil {
				if !isRecoverable(actErr) {
					return nil, fmt.Errorf("clean up %s: %w", finding.ResourceID, actErr)
				}
				log.Warn("cleanup skipped", "region", region, "resource_id", finding.ResourceID, "error", actErr)
			}
		}
		all = append(all, findings...)
	}
	body.EstimatedSavings = roundCents(body.EstimatedSavings)

	return &Result{FunctionID: f.ID(), Body: body, Findings: all}, nil
}
