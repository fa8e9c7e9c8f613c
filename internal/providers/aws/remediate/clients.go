package remediate

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// ec2MutationClient is the subset of EC2 write operations used by the
// remediator.
type ec2MutationClient interface {
	ModifyVolume(ctx context.Context, params *ec2svc.ModifyVolumeInput, optFns ...func(*ec2svc.Options)) (*ec2svc.ModifyVolumeOutput, error)
	DeleteSnapshot(ctx context.Context, params *ec2svc.DeleteSnapshotInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DeleteSnapshotOutput, error)
	DeleteSecurityGroup(ctx context.Context, params *ec2svc.DeleteSecurityGroupInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DeleteSecurityGroupOutput, error)
	ReleaseAddress(ctx context.Context, params *ec2svc.ReleaseAddressInput, optFns ...func(*ec2svc.Options)) (*ec2svc.ReleaseAddressOutput, error)
}

// s3MutationClient is the subset of S3 write operations used by the
// remediator.
type s3MutationClient interface {
	PutBucketLifecycleConfiguration(ctx context.Context, params *s3svc.PutBucketLifecycleConfigurationInput, optFns ...func(*s3svc.Options)) (*s3svc.PutBucketLifecycleConfigurationOutput, error)
}

type remediateClients struct {
	EC2 ec2MutationClient
	S3  s3MutationClient
}

type clientFactory func(cfg aws.Config) *remediateClients

func newDefaultClients(cfg aws.Config) *remediateClients {
	return &remediateClients{
		EC2: ec2svc.NewFromConfig(cfg),
		S3:  s3svc.NewFromConfig(cfg),
	}
}
