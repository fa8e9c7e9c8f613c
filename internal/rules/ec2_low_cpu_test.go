package rules

import (
	"testing"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
)

func TestEC2LowCPURule_IDAndName(t *testing.T) {
	r := EC2LowCPURule{}
	if r.ID() != "EC2_LOW_CPU" {
		t.Errorf("ID = %q; want EC2_LOW_CPU", r.ID())
	}
	if r.Name() == "" {
		t.Error("Name must not be empty")
	}
}

func TestEC2LowCPURule_NilRegionData(t *testing.T) {
	if got := (EC2LowCPURule{}).Evaluate(RuleContext{}); got != nil {
		t.Errorf("expected nil for nil RegionData, got len=%d", len(got))
	}
}

func TestEC2LowCPURule_Evaluate(t *testing.T) {
	instance := func(mod func(*models.AWSEC2Instance)) models.AWSEC2Instance {
		i := models.AWSEC2Instance{
			InstanceID:    "i-1",
			Region:        testRegion,
			InstanceType:  "m5.xlarge",
			State:         "running",
			AvgCPUPercent: 5,
			CPUDatapoints: 168,
		}
		if mod != nil {
			mod(&i)
		}
		return i
	}
	eval := func(insts ...models.AWSEC2Instance) []models.Finding {
		return EC2LowCPURule{}.Evaluate(regionCtx(models.AWSRegionData{EC2Instances: insts}))
	}

	t.Run("non-running states are not flagged", func(t *testing.T) {
		for _, state := range []string{"stopped", "terminated", "pending"} {
			got := eval(instance(func(i *models.AWSEC2Instance) { i.State = state }))
			if len(got) != 0 {
				t.Errorf("state=%q: expected 0 findings, got %d", state, len(got))
			}
		}
	})

	t.Run("no datapoints is skipped", func(t *testing.T) {
		got := eval(instance(func(i *models.AWSEC2Instance) { i.AvgCPUPercent, i.CPUDatapoints = 0, 0 }))
		if len(got) != 0 {
			t.Errorf("expected 0 findings without CloudWatch data, got %d", len(got))
		}
	})

	t.Run("zero CPU with datapoints is flagged", func(t *testing.T) {
		got := eval(instance(func(i *models.AWSEC2Instance) { i.AvgCPUPercent = 0 }))
		if len(got) != 1 {
			t.Errorf("expected 1 finding for a genuinely idle instance, got %d", len(got))
		}
	})

	t.Run("CPU at threshold is not flagged", func(t *testing.T) {
		got := eval(instance(func(i *models.AWSEC2Instance) { i.AvgCPUPercent = 20 }))
		if len(got) != 0 {
			t.Errorf("expected 0 findings at threshold, got %d", len(got))
		}
	})

	t.Run("no smaller class is skipped", func(t *testing.T) {
		got := eval(instance(func(i *models.AWSEC2Instance) { i.InstanceType = "t3.nano" }))
		if len(got) != 0 {
			t.Errorf("expected 0 findings without a downsize target, got %d", len(got))
		}
	})

	t.Run("savings from price difference", func(t *testing.T) {
		got := eval(instance(nil))
		if len(got) != 1 {
			t.Fatalf("expected 1 finding, got %d", len(got))
		}
		f := got[0]
		// (0.192 - 0.096) * 730
		if f.EstimatedMonthlySavings != 70.08 {
			t.Errorf("savings = %v; want 70.08", f.EstimatedMonthlySavings)
		}
		if f.Metadata["recommended_type"] != "m5.large" {
			t.Errorf("recommended_type = %v", f.Metadata["recommended_type"])
		}
		if f.ID != "EC2_LOW_CPU-i-1" {
			t.Errorf("ID = %q", f.ID)
		}
	})

	t.Run("injected pricing is used", func(t *testing.T) {
		ctx := regionCtx(models.AWSRegionData{EC2Instances: []models.AWSEC2Instance{instance(nil)}})
		ctx.Pricing = pricing.NewStaticProvider(pricing.Table{
			Hourly:   map[string]float64{"m5.xlarge": 1.0, "m5.large": 0.5},
			Downsize: map[string]string{"m5.xlarge": "m5.large"},
		})
		got := EC2LowCPURule{}.Evaluate(ctx)
		if len(got) != 1 || got[0].EstimatedMonthlySavings != 365 {
			t.Errorf("expected 365 savings from injected prices, got %+v", got)
		}
	})
}
