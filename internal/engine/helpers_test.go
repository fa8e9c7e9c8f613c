package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/remediate"
)

const testAccountID = "111122223333"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ── AWS client provider ──────────────────────────────────────────────────────

type stubProvider struct {
	regions []string
	loadErr error
}

func (p *stubProvider) LoadProfile(_ context.Context, profile string) (*common.ProfileConfig, error) {
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if profile == "" {
		profile = "default"
	}
	return &common.ProfileConfig{
		ProfileName: profile,
		AccountID:   testAccountID,
		Region:      "us-east-1",
		Config:      aws.Config{Region: "us-east-1"},
	}, nil
}

func (p *stubProvider) LoadAllProfiles(ctx context.Context) ([]*common.ProfileConfig, error) {
	pc, err := p.LoadProfile(ctx, "")
	if err != nil {
		return nil, err
	}
	return []*common.ProfileConfig{pc}, nil
}

func (p *stubProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return p.regions, nil
}

func (p *stubProvider) ConfigForRegion(_ *common.ProfileConfig, region string) aws.Config {
	return aws.Config{Region: region}
}

// ── remediator ───────────────────────────────────────────────────────────────

// recordingRemediator records every call as "<action>:<id>" and returns the
// error registered for that id, if any.
type recordingRemediator struct {
	mu      sync.Mutex
	dryRun  bool
	calls   []string
	regions map[string]string
	errs    map[string]error
}

func newRecordingRemediator() *recordingRemediator {
	return &recordingRemediator{regions: map[string]string{}, errs: map[string]error{}}
}

func (r *recordingRemediator) record(action, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, action+":"+id)
	return r.errs[id]
}

func (r *recordingRemediator) DryRun() bool { return r.dryRun }

func (r *recordingRemediator) ModifyVolumeToGP3(_ context.Context, _ aws.Config, id string) error {
	return r.record("modify-volume", id)
}

func (r *recordingRemediator) DeleteSnapshot(_ context.Context, _ aws.Config, id string) error {
	return r.record("delete-snapshot", id)
}

func (r *recordingRemediator) DeleteSecurityGroup(_ context.Context, _ aws.Config, id string) error {
	return r.record("delete-security-group", id)
}

func (r *recordingRemediator) ReleaseAddress(_ context.Context, _ aws.Config, id string) error {
	return r.record("release-address", id)
}

func (r *recordingRemediator) PutLifecycle(_ context.Context, _ aws.Config, bucket, bucketRegion string) error {
	r.mu.Lock()
	r.regions[bucket] = bucketRegion
	r.mu.Unlock()
	return r.record("put-lifecycle", bucket)
}

// ── cost collector ───────────────────────────────────────────────────────────

// stubCosts serves canned data. Regional data is keyed by cfg.Region.
type stubCosts struct {
	daily        []float64
	dailyErr     error
	anomalies    []models.AWSCostAnomaly
	anomaliesErr error

	volumes    map[string][]models.AWSEBSVolume
	volumesErr map[string]error
	snapshots  map[string][]models.AWSEBSSnapshot
	instances  map[string][]models.AWSEC2Instance
	rds        map[string][]models.AWSRDSInstance
	asgs       map[string][]models.AWSAutoScalingGroup
	sgs        map[string][]models.AWSSecurityGroup
	eips       map[string][]models.AWSElasticIP
	lbs        map[string][]models.AWSLoadBalancer
	nats       map[string][]models.AWSNATGateway
	endpoints  map[string][]models.AWSVPCEndpoint
	counts     map[string]int

	riUtil      []models.AWSRIUtilization
	rightsizing []models.AWSRightsizingRecommendation
	coverage    *models.AWSReservationCoverage
	sp          []models.AWSSavingsPlanCoverage

	buckets    []models.AWSS3Bucket
	bucketsErr error
	origins    []string

	accounts    []models.AWSOrgAccount
	accountsErr error
	budgets     []models.AWSBudget
	tagging     *models.TaggingCompliance
	taggingArgs []string
}

func (s *stubCosts) DailyCosts(_ context.Context, _ aws.Config, _ int) ([]float64, error) {
	return s.daily, s.dailyErr
}

func (s *stubCosts) Anomalies(_ context.Context, _ aws.Config, _ int) ([]models.AWSCostAnomaly, error) {
	return s.anomalies, s.anomaliesErr
}

func (s *stubCosts) EBSVolumes(_ context.Context, cfg aws.Config) ([]models.AWSEBSVolume, error) {
	if err := s.volumesErr[cfg.Region]; err != nil {
		return nil, err
	}
	return s.volumes[cfg.Region], nil
}

func (s *stubCosts) EBSSnapshots(_ context.Context, cfg aws.Config, _ []models.AWSEBSVolume) ([]models.AWSEBSSnapshot, error) {
	return s.snapshots[cfg.Region], nil
}

func (s *stubCosts) EC2Instances(_ context.Context, cfg aws.Config, _ []string) ([]models.AWSEC2Instance, error) {
	return s.instances[cfg.Region], nil
}

func (s *stubCosts) EnrichCPU(context.Context, aws.Config, []models.AWSEC2Instance, int, int32) {}

func (s *stubCosts) RDSInstances(_ context.Context, cfg aws.Config, _ int, _ int32) ([]models.AWSRDSInstance, error) {
	return s.rds[cfg.Region], nil
}

func (s *stubCosts) RIUtilization(context.Context, aws.Config, int) ([]models.AWSRIUtilization, error) {
	return s.riUtil, nil
}

func (s *stubCosts) Rightsizing(context.Context, aws.Config) ([]models.AWSRightsizingRecommendation, error) {
	return s.rightsizing, nil
}

func (s *stubCosts) ReservationCoverage(context.Context, aws.Config, int) (*models.AWSReservationCoverage, error) {
	return s.coverage, nil
}

func (s *stubCosts) SavingsPlanCoverage(context.Context, aws.Config, int) ([]models.AWSSavingsPlanCoverage, error) {
	return s.sp, nil
}

func (s *stubCosts) EnrichSpotPrices(context.Context, aws.Config, []models.AWSEC2Instance) {}

func (s *stubCosts) AutoScalingGroups(_ context.Context, cfg aws.Config) ([]models.AWSAutoScalingGroup, error) {
	return s.asgs[cfg.Region], nil
}

func (s *stubCosts) S3Buckets(context.Context, aws.Config, awscost.S3ScanOptions) ([]models.AWSS3Bucket, error) {
	return s.buckets, s.bucketsErr
}

func (s *stubCosts) SecurityGroups(_ context.Context, cfg aws.Config) ([]models.AWSSecurityGroup, error) {
	return s.sgs[cfg.Region], nil
}

func (s *stubCosts) ElasticIPs(_ context.Context, cfg aws.Config) ([]models.AWSElasticIP, error) {
	return s.eips[cfg.Region], nil
}

func (s *stubCosts) LoadBalancers(_ context.Context, cfg aws.Config, _ bool) ([]models.AWSLoadBalancer, error) {
	return s.lbs[cfg.Region], nil
}

func (s *stubCosts) NATGateways(_ context.Context, cfg aws.Config, _ int) ([]models.AWSNATGateway, error) {
	return s.nats[cfg.Region], nil
}

func (s *stubCosts) VPCEndpoints(_ context.Context, cfg aws.Config) ([]models.AWSVPCEndpoint, error) {
	return s.endpoints[cfg.Region], nil
}

func (s *stubCosts) CloudFrontOrigins(context.Context, aws.Config) ([]string, error) {
	return s.origins, nil
}

func (s *stubCosts) InstanceCount(_ context.Context, cfg aws.Config) (int, error) {
	return s.counts[cfg.Region], nil
}

func (s *stubCosts) OrgAccounts(context.Context, aws.Config, int) ([]models.AWSOrgAccount, error) {
	return s.accounts, s.accountsErr
}

func (s *stubCosts) Budgets(context.Context, aws.Config, string) ([]models.AWSBudget, error) {
	return s.budgets, nil
}

func (s *stubCosts) TaggingCompliance(_ context.Context, _ aws.Config, required []string) (*models.TaggingCompliance, error) {
	s.taggingArgs = required
	return s.tagging, nil
}

// summarizingCosts adds a per-service breakdown to stubCosts.
type summarizingCosts struct {
	*stubCosts
	summary *models.AWSCostSummary
}

func (s summarizingCosts) CostSummary(context.Context, aws.Config, int) (*models.AWSCostSummary, error) {
	return s.summary, nil
}

// ── metrics sink ─────────────────────────────────────────────────────────────

type stubSink struct {
	mu        sync.Mutex
	published map[string][]metrics.Datum
	err       error
}

func (s *stubSink) Publish(_ context.Context, namespace string, data []metrics.Datum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.published == nil {
		s.published = map[string][]metrics.Datum{}
	}
	s.published[namespace] = append(s.published[namespace], data...)
	return s.err
}

// ── helpers ──────────────────────────────────────────────────────────────────

// newTestEnv returns an Env over a single region, us-east-1 unless regions
// are given, with a recording remediator.
func newTestEnv(regions ...string) (*Env, *recordingRemediator) {
	if len(regions) == 0 {
		regions = []string{"us-east-1"}
	}
	rec := newRecordingRemediator()
	env := &Env{
		Provider: &stubProvider{regions: regions},
		Remediate: func(dryRun bool) remediate.Remediator {
			rec.dryRun = dryRun
			return rec
		},
		Now: func() time.Time { return testNow },
	}
	return env, rec
}

func recoverableErr(op string) error {
	return &common.DependencyError{Service: "ec2", Operation: op, Recoverable: true, Err: errors.New("throttled")}
}

func fatalErr(op string) error {
	return &common.DependencyError{Service: "ec2", Operation: op, Code: "UnauthorizedOperation", Err: errors.New("denied")}
}

// bodyKeys returns the sorted top-level JSON keys of body.
func bodyKeys(t *testing.T, body any) []string {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func run(t *testing.T, fn Function, req Request) *Result {
	t.Helper()
	res, err := fn.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", fn.ID(), err)
	}
	if res == nil {
		t.Fatalf("%s: nil result", fn.ID())
	}
	return res
}
