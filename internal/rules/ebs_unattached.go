package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const ebsUnattachedRuleID = "EBS_UNATTACHED"

// EBSUnattachedRule flags EBS volumes that are not attached to any instance.
// An unattached volume in the "available" state incurs storage charges with
// no workload benefit. It is reported only; nothing deletes it.
type EBSUnattachedRule struct{}

func (r EBSUnattachedRule) ID() string   { return ebsUnattachedRuleID }
func (r EBSUnattachedRule) Name() string { return "Unattached EBS Volume" }

// Evaluate returns one Finding per volume where Attached == false and
// State == "available". Savings are the volume's full storage cost at its
// type's GB-month price, falling back to gp2.
func (r EBSUnattachedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	p := ctx.prices()
	var findings []models.Finding
	for _, vol := range ctx.RegionData.EBSVolumes {
		if vol.Attached || vol.State != "available" {
			continue
		}

		perGB, ok := p.UnitCost("ebs:" + vol.VolumeType)
		if !ok {
			perGB, _ = p.UnitCost("ebs:gp2")
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ebsUnattachedRuleID, vol.VolumeID),
			RuleID:                  ebsUnattachedRuleID,
			ResourceID:              vol.VolumeID,
			ResourceType:            models.ResourceAWSEBS,
			Region:                  vol.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityMedium,
			EstimatedMonthlySavings: cents(float64(vol.SizeGB) * perGB),
			Explanation:             "EBS volume is unattached.",
			Recommendation:          "Snapshot and delete the volume, or attach it to an instance.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"volume_type": vol.VolumeType,
				"size_gb":     vol.SizeGB,
			},
		})
	}
	return findings
}
