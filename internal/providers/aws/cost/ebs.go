package cost

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// EBSVolumes pages through all non-deleted EBS volumes in cfg.Region and
// converts them to internal models. The Attached flag is derived from the
// volume state ("in-use" means attached).
func (d *DefaultCostCollector) EBSVolumes(ctx context.Context, cfg aws.Config) ([]models.AWSEBSVolume, error) {
	clients := d.factory(cfg)
	input := &ec2svc.DescribeVolumesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("status"),
				Values: []string{"available", "in-use", "creating", "error"},
			},
		},
	}

	paginator := ec2svc.NewDescribeVolumesPaginator(clients.EC2, input)

	var volumes []models.AWSEBSVolume
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("EBSVolumes: %w", common.Classify("ec2", "DescribeVolumes", cfg.Region, err))
		}
		for _, v := range page.Volumes {
			volumes = append(volumes, toEBSVolume(v, cfg.Region))
		}
	}
	return volumes, nil
}

// EBSSnapshots pages through the snapshots owned by the caller in cfg.Region.
// SourceVolumeExists is resolved against volumes, the region's current
// volume list.
func (d *DefaultCostCollector) EBSSnapshots(ctx context.Context, cfg aws.Config, volumes []models.AWSEBSVolume) ([]models.AWSEBSSnapshot, error) {
	clients := d.factory(cfg)

	existing := make(map[string]struct{}, len(volumes))
	for _, v := range volumes {
		existing[v.VolumeID] = struct{}{}
	}

	paginator := ec2svc.NewDescribeSnapshotsPaginator(clients.EC2, &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
	})

	var snapshots []models.AWSEBSSnapshot
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("EBSSnapshots: %w", common.Classify("ec2", "DescribeSnapshots", cfg.Region, err))
		}
		for _, s := range page.Snapshots {
			snap := toEBSSnapshot(s, cfg.Region)
			_, snap.SourceVolumeExists = existing[snap.VolumeID]
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

// toEBSVolume converts an SDK EBS volume to the internal model.
func toEBSVolume(v ec2types.Volume, region string) models.AWSEBSVolume {
	// Derive the attached instance ID from the first attachment, if any.
	var instanceID string
	if len(v.Attachments) > 0 {
		instanceID = aws.ToString(v.Attachments[0].InstanceId)
	}

	return models.AWSEBSVolume{
		VolumeID:   aws.ToString(v.VolumeId),
		Region:     region,
		VolumeType: string(v.VolumeType),
		SizeGB:     aws.ToInt32(v.Size),
		State:      string(v.State),
		Attached:   v.State == ec2types.VolumeStateInUse,
		InstanceID: instanceID,
		Tags:       tagsFromEC2(v.Tags),
	}
}

func toEBSSnapshot(s ec2types.Snapshot, region string) models.AWSEBSSnapshot {
	return models.AWSEBSSnapshot{
		SnapshotID:  aws.ToString(s.SnapshotId),
		Region:      region,
		VolumeID:    aws.ToString(s.VolumeId),
		SizeGB:      aws.ToInt32(s.VolumeSize),
		StartTime:   aws.ToTime(s.StartTime),
		Description: aws.ToString(s.Description),
	}
}
