package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/spot_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

// SpotOptimizerBody is the spot-optimizer response body.
type SpotOptimizerBody struct {
	SpotOpportunities  []models.Finding `json:"spot_opportunities"`
	ASGRecommendations []models.Finding `json:"asg_recommendations"`
	PotentialSavings   float64          `json:"potential_savings"`
}

// SpotOptimizer finds interruption-tolerant on-demand instances that are
// cheaper on Spot, and Auto Scaling groups that cannot mix in Spot capacity.
type SpotOptimizer struct {
	env  *Env
	spot SpotCollector
}

func NewSpotOptimizer(env *Env, spot SpotCollector) *SpotOptimizer {
	return &SpotOptimizer{env: env, spot: spot}
}

func (f *SpotOptimizer) ID() string          { return FunctionSpotOptimizer }
func (f *SpotOptimizer) Description() string { return "Recommend Spot for tolerant workloads and mixed-instance ASGs" }

func (f *SpotOptimizer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}

	var all []models.Finding
	for _, region := range s.regions {
		cfg := s.config(region)

		instances, err := f.spot.EC2Instances(ctx, cfg, awscost.StatesRunning)
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("instances in %s: %w", region, err)
			}
			instances = nil
		}
		f.spot.EnrichSpotPrices(ctx, cfg, instances)

		groups, err := f.spot.AutoScalingGroups(ctx, cfg)
		if err := f.env.tolerate(f.ID(), region, err); err != nil {
			return nil, fmt.Errorf("auto scaling groups in %s: %w", region, err)
		}

		rc := f.env.ruleContext(s)
		rc.RegionData = &models.AWSRegionData{
			Region:            region,
			EC2Instances:      instances,
			AutoScalingGroups: groups,
		}
		all = append(all, f.env.evaluate(f.ID(), spot_optimizer.New(), rc)...)
	}

	spot := byRule(all, rules.EC2SpotCandidateRule{}.ID())
	asg := byRule(all, rules.ASGNoMixedInstancesRule{}.ID())

	return &Result{
		FunctionID: f.ID(),
		Body: SpotOptimizerBody{
			SpotOpportunities:  spot,
			ASGRecommendations: asg,
			PotentialSavings:   totalSavings(spot, asg),
		},
		Findings: all,
	}, nil
}
