package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/s3_lifecycle"
)

const (
	s3OldObjectAge = 30 * 24 * time.Hour

	// s3MaxPagesPerBucket bounds the object scan so one huge bucket cannot
	// exhaust the Lambda timeout.
	s3MaxPagesPerBucket = 100
)

// S3LifecycleBody is the s3-lifecycle response body.
type S3LifecycleBody struct {
	BucketsOptimized         int     `json:"buckets_optimized"`
	LifecyclePoliciesCreated int     `json:"lifecycle_policies_created"`
	EstimatedSavings         float64 `json:"estimated_savings"`
	DryRun                   bool    `json:"dry_run"`
}

// S3Lifecycle installs a tiering lifecycle rule on large buckets that hold
// old objects and have no lifecycle configuration.
type S3Lifecycle struct {
	env *Env
	s3  S3Collector
}

func NewS3Lifecycle(env *Env, s3 S3Collector) *S3Lifecycle {
	return &S3Lifecycle{env: env, s3: s3}
}

func (f *S3Lifecycle) ID() string          { return FunctionS3Lifecycle }
func (f *S3Lifecycle) Description() string { return "Add tiering lifecycle policies to large S3 buckets" }

// Run handles each bucket independently; a bucket whose lifecycle cannot be
// written is logged and left out of the counts.
func (f *S3Lifecycle) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.openProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	cfg := s.global()
	log := f.env.logger().With("function", f.ID())

	buckets, err := f.s3.S3Buckets(ctx, cfg, awscost.S3ScanOptions{
		OldAfter: s3OldObjectAge,
		MaxPages: s3MaxPagesPerBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("buckets: %w", err)
	}

	rc := f.env.ruleContext(s)
	rc.RegionData = &models.AWSRegionData{Region: cfg.Region, S3Buckets: buckets}
	findings := f.env.evaluate(f.ID(), s3_lifecycle.New(), rc)

	rem := f.env.remediator(req.DryRun)
	body := S3LifecycleBody{DryRun: req.DryRun}
	for _, finding := range findings {
		if err := rem.PutLifecycle(ctx, cfg, finding.ResourceID, finding.Region); err != nil {
			if !isRecoverable(err) {
				return nil, fmt.Errorf("lifecycle for %s: %w", finding.ResourceID, err)
			}
			log.Warn("lifecycle skipped", "resource_id", finding.ResourceID, "region", finding.Region, "error", err)
			continue
		}
		body.BucketsOptimized++
		body.LifecyclePoliciesCreated++
		body.EstimatedSavings += finding.EstimatedMonthlySavings
	}
	body.EstimatedSavings = roundCents(body.EstimatedSavings)

	return &Result{FunctionID: f.ID(), Body: body, Findings: findings}, nil
}
