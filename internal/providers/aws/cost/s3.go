package cost

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
)

// S3ScanOptions bounds the per-bucket object scan.
type S3ScanOptions struct {
	// OldAfter is the age past which an object counts as old.
	OldAfter time.Duration

	// MaxPages caps ListObjectsV2 pages per bucket; 0 means no cap.
	MaxPages int
}

// S3Buckets lists every bucket in the account and, for buckets without a
// lifecycle configuration, scans their objects for total size and the
// number of objects older than opts.OldAfter.
//
// Each bucket is handled independently: a recoverable error on one bucket
// is logged and the bucket skipped. Per-bucket calls are pinned to the
// bucket's own region.
func (d *DefaultCostCollector) S3Buckets(ctx context.Context, cfg aws.Config, opts S3ScanOptions) ([]models.AWSS3Bucket, error) {
	clients := d.factory(cfg)

	var names []string
	paginator := s3svc.NewListBucketsPaginator(clients.S3, &s3svc.ListBucketsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3Buckets: %w", common.Classify("s3", "ListBuckets", "", err))
		}
		for _, b := range page.Buckets {
			names = append(names, aws.ToString(b.Name))
		}
	}

	var buckets []models.AWSS3Bucket
	for _, name := range names {
		b, err := d.inspectBucket(ctx, clients.S3, name, opts)
		if err != nil {
			if !common.IsRecoverable(err) {
				return nil, fmt.Errorf("S3Buckets: %w", err)
			}
			d.logger.Warn("skipping bucket", "resource_id", name, "error", err)
			continue
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (d *DefaultCostCollector) inspectBucket(ctx context.Context, client costS3Client, name string, opts S3ScanOptions) (models.AWSS3Bucket, error) {
	b := models.AWSS3Bucket{Name: name}

	loc, err := client.GetBucketLocation(ctx, &s3svc.GetBucketLocationInput{Bucket: aws.String(name)})
	if err != nil {
		return b, common.Classify("s3", "GetBucketLocation", name, err)
	}
	b.Region = bucketRegion(string(loc.LocationConstraint))
	inRegion := func(o *s3svc.Options) { o.Region = b.Region }

	_, err = client.GetBucketLifecycleConfiguration(ctx, &s3svc.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(name),
	}, inRegion)
	switch {
	case err == nil:
		b.HasLifecycle = true
		return b, nil
	case common.ErrorCode(err) == "NoSuchLifecycleConfiguration":
	default:
		return b, common.Classify("s3", "GetBucketLifecycleConfiguration", name, err)
	}

	cutoff := d.now().Add(-opts.OldAfter)
	objects := s3svc.NewListObjectsV2Paginator(client, &s3svc.ListObjectsV2Input{Bucket: aws.String(name)})
	for pages := 0; objects.HasMorePages(); pages++ {
		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			b.ScanTruncated = true
			break
		}
		page, err := objects.NextPage(ctx, inRegion)
		if err != nil {
			return b, common.Classify("s3", "ListObjectsV2", name, err)
		}
		for _, obj := range page.Contents {
			b.ObjectCount++
			b.TotalSizeBytes += aws.ToInt64(obj.Size)
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
				b.OldObjectCount++
			}
		}
	}
	return b, nil
}

// bucketRegion maps a GetBucketLocation constraint to a region name. An
// empty constraint is us-east-1 and the legacy "EU" is eu-west-1.
func bucketRegion(constraint string) string {
	switch constraint {
	case "":
		return "us-east-1"
	case "EU":
		return "eu-west-1"
	default:
		return constraint
	}
}
