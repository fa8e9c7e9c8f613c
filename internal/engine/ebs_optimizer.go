package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ebs_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

// EBSOptimizerBody is the ebs-optimizer response body. Counts and savings
// cover the actions taken, or the actions that would be taken in dry-run
// mode.
type EBSOptimizerBody struct {
	VolumesOptimized int              `json:"volumes_optimized"`
	SnapshotsDeleted int              `json:"snapshots_deleted"`
	EstimatedSavings float64          `json:"estimated_savings"`
	DryRun           bool             `json:"dry_run"`
	Findings         []models.Finding `json:"findings"`
}

// EBSOptimizer converts gp2 volumes to gp3 and deletes self-owned snapshots
// whose source volume is gone.
type EBSOptimizer struct {
	env *Env
	ebs EBSCollector
}

func NewEBSOptimizer(env *Env, ebs EBSCollector) *EBSOptimizer {
	return &EBSOptimizer{env: env, ebs: ebs}
}

func (f *EBSOptimizer) ID() string          { return FunctionEBSOptimizer }
func (f *EBSOptimizer) Description() string { return "Migrate gp2 volumes to gp3 and delete orphaned snapshots" }

func (f *EBSOptimizer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}
	rem := f.env.remediator(req.DryRun)
	log := f.env.logger().With("function", f.ID())

	gp2RuleID := rules.EBSGP2LegacyRule{}.ID()
	snapshotRuleID := rules.EBSSnapshotOrphanedRule{}.ID()

	body := EBSOptimizerBody{DryRun: req.DryRun}
	var all []models.Finding

	for _, region := range s.regions {
		cfg := s.config(region)

		volumes, err := f.ebs.EBSVolumes(ctx, cfg)
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("volumes in %s: %w", region, err)
			}
			continue
		}
		snapshots, err := f.ebs.EBSSnapshots(ctx, cfg, volumes)
		if err := f.env.tolerate(f.ID(), region, err); err != nil {
			return nil, fmt.Errorf("snapshots in %s: %w", region, err)
		}

		rc := f.env.ruleContext(s)
		rc.RegionData = &models.AWSRegionData{
			Region:       region,
			EBSVolumes:   volumes,
			EBSSnapshots: snapshots,
		}
		findings := f.env.evaluate(f.ID(), ebs_optimizer.New(), rc)

		for _, finding := range findings {
			var actErr error
			switch finding.RuleID {
			case gp2RuleID:
				if actErr = rem.ModifyVolumeToGP3(ctx, cfg, finding.ResourceID); actErr == nil {
					body.VolumesOptimized++
					body.EstimatedSavings += finding.EstimatedMonthlySavings
				}
			case snapshotRuleID:
				if actErr = rem.DeleteSnapshot(ctx, cfg, finding.ResourceID); actErr == nil {
					body.SnapshotsDeleted++
					body.EstimatedSavings += finding.EstimatedMonthlySavings
				}
			default:
				continue
			}
			if actErr != nil {
				if !isRecoverable(actErr) {
					return nil, fmt.Errorf("remediate %s: %w", finding.ResourceID, actErr)
				}
				log.Warn("remediation skipped", "region", region, "resource_id", finding.ResourceID, "error", actErr)
			}
		}
		all = append(all, findings...)
	}

	body.EstimatedSavings = roundCents(body.EstimatedSavings)
	body.Findings = nonNil(all)

	return &Result{
		FunctionID: f.ID(),
		Body:       body,
		Findings:   all,
		Metrics: []metrics.Datum{
			{Name: "VolumesOptimized", Value: float64(body.VolumesOptimized), Unit: metrics.UnitCount},
			{Name: "SnapshotsDeleted", Value: float64(body.SnapshotsDeleted), Unit: metrics.UnitCount},
			{Name: "EstimatedMonthlySavings", Value: body.EstimatedSavings, Unit: metrics.UnitNone},
		},
		MetricsNamespace: NamespaceCost,
	}, nil
}
