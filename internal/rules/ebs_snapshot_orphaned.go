package rules

import (
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	ebsSnapshotOrphanedRuleID = "EBS_SNAPSHOT_ORPHANED"

	// ebsSnapshotMinAgeDays is the age after which a snapshot of a deleted
	// volume is considered stale.
	ebsSnapshotMinAgeDays = 30.0
)

// EBSSnapshotOrphanedRule flags self-owned snapshots whose source volume no
// longer exists and which are older than min_age_days.
type EBSSnapshotOrphanedRule struct{}

func (r EBSSnapshotOrphanedRule) ID() string   { return ebsSnapshotOrphanedRuleID }
func (r EBSSnapshotOrphanedRule) Name() string { return "Orphaned EBS Snapshot" }

func (r EBSSnapshotOrphanedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	now := ctx.now()
	minAge := ctx.threshold(ebsSnapshotOrphanedRuleID, "min_age_days", ebsSnapshotMinAgeDays)
	cutoff := now.Add(-time.Duration(minAge * 24 * float64(time.Hour)))
	perGB, _ := ctx.prices().UnitCost("ebs:snapshot")

	var findings []models.Finding
	for _, snap := range ctx.RegionData.EBSSnapshots {
		if snap.SourceVolumeExists {
			continue
		}
		if snap.StartTime.IsZero() || !snap.StartTime.Before(cutoff) {
			continue
		}

		ageDays := int(now.Sub(snap.StartTime).Hours() / 24)
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", ebsSnapshotOrphanedRuleID, snap.SnapshotID),
			RuleID:                  ebsSnapshotOrphanedRuleID,
			ResourceID:              snap.SnapshotID,
			ResourceType:            models.ResourceAWSEBSSnapshot,
			Region:                  snap.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: cents(float64(snap.SizeGB) * perGB),
			Explanation:             fmt.Sprintf("Snapshot is %d days old and its source volume %s no longer exists.", ageDays, snap.VolumeID),
			Recommendation:          "Delete the snapshot if it is not needed for recovery.",
			DetectedAt:              now,
			Metadata: map[string]any{
				"volume_id": snap.VolumeID,
				"size_gb":   snap.SizeGB,
				"age_days":  ageDays,
			},
		})
	}
	return findings
}
