package engine

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ec2_rightsizing"
)

const (
	ec2CPULookbackDays = 7
	hourlyPeriod       = 3600
)

// RightsizingRecommendation is one downsize suggestion.
type RightsizingRecommendation struct {
	InstanceID      string  `json:"instance_id"`
	Region          string  `json:"region"`
	CurrentType     string  `json:"current_type"`
	RecommendedType string  `json:"recommended_type"`
	AvgCPUPercent   float64 `json:"avg_cpu_utilization"`
	MonthlySavings  float64 `json:"monthly_savings"`
}

// EC2RightsizingBody is the ec2-rightsizing response body.
type EC2RightsizingBody struct {
	UnderutilizedInstances []models.Finding            `json:"underutilized_instances"`
	PotentialSavings       float64                     `json:"potential_savings"`
	Recommendations        []RightsizingRecommendation `json:"recommendations"`
}

// EC2Rightsizing recommends the next smaller instance class for running
// instances with low average CPU.
type EC2Rightsizing struct {
	env *Env
	ec2 EC2Collector
}

func NewEC2Rightsizing(env *Env, ec2 EC2Collector) *EC2Rightsizing {
	return &EC2Rightsizing{env: env, ec2: ec2}
}

func (f *EC2Rightsizing) ID() string          { return FunctionEC2Rightsizing }
func (f *EC2Rightsizing) Description() string { return "Recommend smaller classes for underutilized EC2 instances" }

func (f *EC2Rightsizing) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.open(ctx, req)
	if err != nil {
		return nil, err
	}

	days := ec2CPULookbackDays
	if req.DaysBack > 0 {
		days = req.DaysBack
	}

	var all []models.Finding
	for _, region := range s.regions {
		cfg := s.config(region)

		instances, err := f.ec2.EC2Instances(ctx, cfg, awscost.StatesRunning)
		if err != nil {
			if err := f.env.tolerate(f.ID(), region, err); err != nil {
				return nil, fmt.Errorf("instances in %s: %w", region, err)
			}
			continue
		}
		f.ec2.EnrichCPU(ctx, cfg, instances, days, hourlyPeriod)

		rc := f.env.ruleContext(s)
		rc.RegionData = &models.AWSRegionData{Region: region, EC2Instances: instances}
		all = append(all, f.env.evaluate(f.ID(), ec2_rightsizing.New(), rc)...)
	}

	body := EC2RightsizingBody{
		UnderutilizedInstances: nonNil(all),
		PotentialSavings:       totalSavings(all),
		Recommendations:        make([]RightsizingRecommendation, 0, len(all)),
	}
	for _, finding := range all {
		body.Recommendations = append(body.Recommendations, RightsizingRecommendation{
			InstanceID:      finding.ResourceID,
			Region:          finding.Region,
			CurrentType:     metaString(finding, "instance_type"),
			RecommendedType: metaString(finding, "recommended_type"),
			AvgCPUPercent:   metaFloat(finding, "avg_cpu_percent"),
			MonthlySavings:  finding.EstimatedMonthlySavings,
		})
	}

	return &Result{FunctionID: f.ID(), Body: body, Findings: all}, nil
}
