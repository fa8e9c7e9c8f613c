package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const ebsGP2LegacyRuleID = "EBS_GP2_LEGACY"

// EBSGP2LegacyRule flags gp2 volumes. gp3 gives the same baseline
// performance at a lower GB-month price and the change is online.
type EBSGP2LegacyRule struct{}

func (r EBSGP2LegacyRule) ID() string   { return ebsGP2LegacyRuleID }
func (r EBSGP2LegacyRule) Name() string { return "gp2 EBS Volume" }

// Evaluate returns one Finding per gp2 volume that is in-use or available.
// Savings are size * (gp2 - gp3) per GB-month.
func (r EBSGP2LegacyRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	gp2, _ := p.UnitCost("ebs:gp2")
	gp3, _ := p.UnitCost("ebs:gp3")

	var findings []models.Finding
	for _, vol := range ctx.RegionData.EBSVolumes {
		if vol.VolumeType != "gp2" {
			continue
		}
		if vol.State != "in-use" && vol.State != "available" {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ebsGP2LegacyRuleID, vol.VolumeID),
			RuleID:                  ebsGP2LegacyRuleID,
			ResourceID:              vol.VolumeID,
			ResourceType:            models.ResourceAWSEBS,
			Region:                  vol.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: cents(float64(vol.SizeGB) * (gp2 - gp3)),
			Explanation:             "Volume uses the gp2 type.",
			Recommendation:          "Modify the volume to gp3.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"size_gb":     vol.SizeGB,
				"state":       vol.State,
				"target_type": "gp3",
			},
		})
	}
	return findings
}
