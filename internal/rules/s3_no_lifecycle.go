package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
)

const (
	s3NoLifecycleRuleID = "S3_NO_LIFECYCLE"

	// s3MinSizeMB is the bucket size below which a lifecycle policy is not
	// worth the transition request charges.
	s3MinSizeMB = 100.0

	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// S3NoLifecycleRule flags buckets with no lifecycle configuration that hold
// objects older than 30 days and more than s3MinSizeMB of data.
type S3NoLifecycleRule struct{}

func (r S3NoLifecycleRule) ID() string   { return s3NoLifecycleRuleID }
func (r S3NoLifecycleRule) Name() string { return "S3 Bucket Without Lifecycle" }

// Evaluate estimates savings as total GB times the s3:lifecycle-savings
// unit price.
func (r S3NoLifecycleRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.RegionData == nil {
		return nil
	}

	minMB := ctx.threshold(s3NoLifecycleRuleID, "min_size_mb", s3MinSizeMB)
	perGB, _ := ctx.prices().UnitCost("s3:lifecycle-savings")

	var findings []models.Finding
	for _, b := range ctx.RegionData.S3Buckets {
		if b.HasLifecycle || b.OldObjectCount == 0 {
			continue
		}
		sizeMB := float64(b.TotalSizeBytes) / bytesPerMB
		if sizeMB <= minMB {
			continue
		}

		sizeGB := float64(b.TotalSizeBytes) / bytesPerGB
		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", s3NoLifecycleRuleID, b.Name),
			RuleID:                  s3NoLifecycleRuleID,
			ResourceID:              b.Name,
			ResourceType:            models.ResourceAWSS3Bucket,
			Region:                  b.Region,
			AccountID:               ctx.AccountID,
			Profile:                 ctx.Profile,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: cents(sizeGB * perGB),
			Explanation:             fmt.Sprintf("%d of %d objects are older than 30 days and no lifecycle policy is set.", b.OldObjectCount, b.ObjectCount),
			Recommendation:          "Add a lifecycle policy that tiers objects to STANDARD_IA, GLACIER and DEEP_ARCHIVE.",
			DetectedAt:              ctx.now(),
			Metadata: map[string]any{
				"size_gb":          cents(sizeGB),
				"object_count":     b.ObjectCount,
				"old_object_count": b.OldObjectCount,
				"scan_truncated":   b.ScanTruncated,
			},
		})
	}
	return findings
}
