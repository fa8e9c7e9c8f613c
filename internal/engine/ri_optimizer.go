package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ri_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
)

const (
	riUtilizationDays = 30
	riCoverageDays    = 7
)

// RIOptimizerBody is the ri-optimizer response body.
type RIOptimizerBody struct {
	RIRecommendations   []models.Finding                `json:"ri_recommendations"`
	UnderutilizedRIs    []models.Finding                `json:"underutilized_ris"`
	CoverageAnalysis    *models.AWSReservationCoverage  `json:"coverage_analysis"`
	SavingsPlanCoverage []models.AWSSavingsPlanCoverage `json:"savings_plan_coverage"`
	PotentialSavings    float64                         `json:"potential_savings"`
}

// RIOptimizer reports reserved instance utilization and coverage, Cost
// Explorer rightsizing recommendations, and Savings Plan coverage per
// region.
type RIOptimizer struct {
	env   *Env
	costs CommitmentCollector
}

func NewRIOptimizer(env *Env, costs CommitmentCollector) *RIOptimizer {
	return &RIOptimizer{env: env, costs: costs}
}

func (f *RIOptimizer) ID() string          { return FunctionRIOptimizer }
func (f *RIOptimizer) Description() string { return "Analyse reserved instance and Savings Plan commitments" }

// Run treats each Cost Explorer query independently: a recoverable failure
// leaves that section empty.
func (f *RIOptimizer) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.openProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	cfg := s.global()

	utilDays, coverageDays := riUtilizationDays, riCoverageDays
	if req.DaysBack > 0 {
		utilDays, coverageDays = req.DaysBack, req.DaysBack
	}

	account := &models.AWSAccountData{}

	account.RIUtilization, err = f.costs.RIUtilization(ctx, cfg, utilDays)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("ri utilization: %w", err)
	}
	account.Rightsizing, err = f.costs.Rightsizing(ctx, cfg)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("rightsizing: %w", err)
	}
	account.ReservationCoverage, err = f.costs.ReservationCoverage(ctx, cfg, coverageDays)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("reservation coverage: %w", err)
	}
	spCoverage, err := f.costs.SavingsPlanCoverage(ctx, cfg, utilDays)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("savings plan coverage: %w", err)
	}

	rc := f.env.ruleContext(s)
	rc.Account = account
	rc.RegionData = &models.AWSRegionData{SavingsPlanCoverage: spCoverage}
	findings := f.env.evaluate(f.ID(), ri_optimizer.New(), rc)

	recs := byRule(findings, rules.CERightsizingRule{}.ID())
	spLow := byRule(findings, rules.SavingsPlanLowCoverageRule{}.ID())

	return &Result{
		FunctionID: f.ID(),
		Body: RIOptimizerBody{
			RIRecommendations:   recs,
			UnderutilizedRIs:    byRule(findings, rules.RIUnderutilizedRule{}.ID()),
			CoverageAnalysis:    account.ReservationCoverage,
			SavingsPlanCoverage: nonNil(spCoverage),
			PotentialSavings:    totalSavings(recs, spLow),
		},
		Findings: findings,
	}, nil
}
