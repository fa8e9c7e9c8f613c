// Package remediate holds every mutating AWS call the functions make.
// Each call is gated by the remediator's dry-run flag: in dry-run mode the
// intended action is logged and no request is sent.
package remediate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// LifecycleRuleID is the ID of the lifecycle rule PutLifecycle installs.
const LifecycleRuleID = "CostOptimizationRule"

// Transition ages, in days, of the installed lifecycle rule.
const (
	TransitionIADays          = 30
	TransitionGlacierDays     = 90
	TransitionDeepArchiveDays = 365
)

// Remediator performs mutating AWS calls.
type Remediator interface {
	DryRun() bool
	ModifyVolumeToGP3(ctx context.Context, cfg aws.Config, volumeID string) error
	DeleteSnapshot(ctx context.Context, cfg aws.Config, snapshotID string) error
	DeleteSecurityGroup(ctx context.Context, cfg aws.Config, groupID string) error
	ReleaseAddress(ctx context.Context, cfg aws.Config, allocationID string) error
	PutLifecycle(ctx context.Context, cfg aws.Config, bucket, bucketRegion string) error
}

// DefaultRemediator implements Remediator with the AWS SDK v2.
type DefaultRemediator struct {
	factory clientFactory
	logger  *slog.Logger
	dryRun  bool
}

// NewDefaultRemediator returns a Remediator backed by the real AWS SDK.
func NewDefaultRemediator(dryRun bool, logger *slog.Logger) *DefaultRemediator {
	return NewDefaultRemediatorWithFactory(newDefaultClients, dryRun, logger)
}

// NewDefaultRemediatorWithFactory is used by tests to inject stub clients.
func NewDefaultRemediatorWithFactory(f clientFactory, dryRun bool, logger *slog.Logger) *DefaultRemediator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultRemediator{factory: f, logger: logger, dryRun: dryRun}
}

// DryRun reports whether mutating calls are suppressed.
func (r *DefaultRemediator) DryRun() bool { return r.dryRun }

// skip logs the action and reports true when running in dry-run mode.
func (r *DefaultRemediator) skip(action, region, resourceID string) bool {
	if !r.dryRun {
		return false
	}
	r.logger.Info("dry run: skipping "+action, "region", region, "resource_id", resourceID)
	return true
}

// ModifyVolumeToGP3 changes the volume type of volumeID to gp3.
func (r *DefaultRemediator) ModifyVolumeToGP3(ctx context.Context, cfg aws.Config, volumeID string) error {
	if r.skip("ModifyVolume", cfg.Region, volumeID) {
		return nil
	}
	_, err := r.factory(cfg).EC2.ModifyVolume(ctx, &ec2svc.ModifyVolumeInput{
		VolumeId:   aws.String(volumeID),
		VolumeType: ec2types.VolumeTypeGp3,
	})
	if err != nil {
		return fmt.Errorf("ModifyVolumeToGP3: %w", common.Classify("ec2", "ModifyVolume", volumeID, err))
	}
	r.logger.Info("volume converted to gp3", "region", cfg.Region, "resource_id", volumeID)
	return nil
}

// DeleteSnapshot deletes snapshotID.
func (r *DefaultRemediator) DeleteSnapshot(ctx context.Context, cfg aws.Config, snapshotID string) error {
	if r.skip("DeleteSnapshot", cfg.Region, snapshotID) {
		return nil
	}
	_, err := r.factory(cfg).EC2.DeleteSnapshot(ctx, &ec2svc.DeleteSnapshotInput{SnapshotId: aws.String(snapshotID)})
	if err != nil {
		return fmt.Errorf("DeleteSnapshot: %w", common.Classify("ec2", "DeleteSnapshot", snapshotID, err))
	}
	r.logger.Info("snapshot deleted", "region", cfg.Region, "resource_id", snapshotID)
	return nil
}

// DeleteSecurityGroup deletes groupID. A group still referenced elsewhere
// fails with DependencyViolation, which classifies as recoverable.
func (r *DefaultRemediator) DeleteSecurityGroup(ctx context.Context, cfg aws.Config, groupID string) error {
	if r.skip("DeleteSecurityGroup", cfg.Region, groupID) {
		return nil
	}
	_, err := r.factory(cfg).EC2.DeleteSecurityGroup(ctx, &ec2svc.DeleteSecurityGroupInput{GroupId: aws.String(groupID)})
	if err != nil {
		return fmt.Errorf("DeleteSecurityGroup: %w", common.Classify("ec2", "DeleteSecurityGroup", groupID, err))
	}
	r.logger.Info("security group deleted", "region", cfg.Region, "resource_id", groupID)
	return nil
}

// ReleaseAddress releases the Elastic IP allocationID.
func (r *DefaultRemediator) ReleaseAddress(ctx context.Context, cfg aws.Config, allocationID string) error {
	if r.skip("ReleaseAddress", cfg.Region, allocationID) {
		return nil
	}
	_, err := r.factory(cfg).EC2.ReleaseAddress(ctx, &ec2svc.ReleaseAddressInput{AllocationId: aws.String(allocationID)})
	if err != nil {
		return fmt.Errorf("ReleaseAddress: %w", common.Classify("ec2", "ReleaseAddress", allocationID, err))
	}
	r.logger.Info("elastic IP released", "region", cfg.Region, "resource_id", allocationID)
	return nil
}

// PutLifecycle installs LifecycleRule on bucket. The request is sent to
// bucketRegion, which may differ from cfg.Region.
func (r *DefaultRemediator) PutLifecycle(ctx context.Context, cfg aws.Config, bucket, bucketRegion string) error {
	if r.skip("PutBucketLifecycleConfiguration", bucketRegion, bucket) {
		return nil
	}
	_, err := r.factory(cfg).S3.PutBucketLifecycleConfiguration(ctx, &s3svc.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucket),
		LifecycleConfiguration: &s3types.BucketLifecycleConfiguration{
			Rules: []s3types.LifecycleRule{LifecycleRule()},
		},
	}, func(o *s3svc.Options) {
		if bucketRegion != "" {
			o.Region = bucketRegion
		}
	})
	if err != nil {
		return fmt.Errorf("PutLifecycle: %w", common.Classify("s3", "PutBucketLifecycleConfiguration", bucket, err))
	}
	r.logger.Info("lifecycle policy created", "region", bucketRegion, "resource_id", bucket)
	return nil
}

// LifecycleRule is the tiering rule applied to every object in a bucket:
// STANDARD_IA after 30 days, GLACIER after 90 and DEEP_ARCHIVE after 365.
func LifecycleRule() s3types.LifecycleRule {
	return s3types.LifecycleRule{
		ID:     aws.String(LifecycleRuleID),
		Status: s3types.ExpirationStatusEnabled,
		Filter: &s3types.LifecycleRuleFilter{Prefix: aws.String("")},
		Transitions: []s3types.Transition{
			{Days: aws.Int32(TransitionIADays), StorageClass: s3types.TransitionStorageClassStandardIa},
			{Days: aws.Int32(TransitionGlacierDays), StorageClass: s3types.TransitionStorageClassGlacier},
			{Days: aws.Int32(TransitionDeepArchiveDays), StorageClass: s3types.TransitionStorageClassDeepArchive},
		},
	}
}
