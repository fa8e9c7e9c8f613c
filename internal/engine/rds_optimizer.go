package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/rds_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

const rdsLookbackDays = 7

// RDSOptimizerBody is the rds-optimizer response body.
type RDSOptimizerBody struct {
	IdleDatabases      []models.Finding `json:"idle_databases"`
	OversizedDatabases []models.Finding `json:"oversized_databases"`
	PotentialSavings   float64          `json:"potential_savings"`
}

// RDSOptimizer finds idle and oversized RDS instances.
type RDSOptimizer struct {
	env *Env
	rds RDSCollector
}

func NewRDSOptimizer(env *Env, rds RDSCollector) *RDSOptimizer {
	return &RDSOptimizer{env: env, rds: rds}
}

func (f *RDSOptimizer) ID() string          { return FunctionRDSOptimizer }
func (f *RDSOptimizer) Description() string { return "Find idle and oversized RDS instances" }

func (f *RDSOptimizer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}

	days := rdsLookbackDays
	if req.DaysBack > 0 {
		days = req.DaysBack
	}

	var all []models.Finding
	for _, region := range s.regions {
		instances, err := f.rds.RDSInstances(ctx, s.config(region), days, hourlyPeriod)
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("db instances in %s: %w", region, err)
			}
			continue
		}

		rc := f.env.ruleContext(s)
		rc.RegionData = &models.AWSRegionData{Region: region, RDSInstances: instances}
		all = append(all, f.env.evaluate(f.ID(), rds_optimizer.New(), rc)...)
	}

	idle := byRule(all, rules.RDSIdleRule{}.ID())
	oversized := byRule(all, rules.RDSOversizedRule{}.ID())

	return &Result{
		FunctionID: f.ID(),
		Body: RDSOptimizerBody{
			IdleDatabases:      idle,
			OversizedDatabases: oversized,
			PotentialSavings:   totalSavings(idle, oversized),
		},
		Findings: all,
	}, nil
}
