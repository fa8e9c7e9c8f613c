// Package app wires configuration into a ready-to-run function registry. The
// Lambda bootstrap and the costopt CLI both build their dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/config"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/engine"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/policy"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/pricing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/common"
	awscost "github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/eks"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/aws/remediate"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/providers/kubernetes"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/anomaly_forecast"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/data_transfer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ebs_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ec2_rightsizing"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/eks_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/governance"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/rds_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/ri_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/s3_lifecycle"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/spot_optimizer"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/unused_cleanup"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rules"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/version"
)

// pushgatewayJob is the job label of pushed metric groups.
const pushgatewayJob = "finops-lambdas"

// App holds everything a run needs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Provider common.AWSClientProvider
	Kube     kubernetes.KubeClientProvider
	Policy   *policy.PolicyConfig
	Sink     metrics.Sink
	Env      *engine.Env
	Registry *engine.Registry
	Runner   *engine.Runner
}

// Build creates the provider layer, loads the pricing and policy files named
// in cfg, selects the metric sink and registers every function.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider := common.NewDefaultAWSClientProvider(
		common.WithRetry(common.RetryOptions{
			MaxAttempts: cfg.AWS.Retry.MaxAttempts,
			MaxBackoff:  cfg.AWS.Retry.MaxBackoff,
		}),
		common.WithDefaultRegion(cfg.AWS.DefaultRegion),
		common.WithAppID(version.UserAgent()),
		common.WithLogger(logger),
	)

	prices, err := loadPricing(cfg.PricingFile)
	if err != nil {
		return nil, err
	}

	var kube kubernetes.KubeClientProvider
	if cfg.Kubernetes.Context != "" {
		kube = kubernetes.NewDefaultKubeClientProvider(cfg.Kubernetes.Kubeconfig)
	}

	env := &engine.Env{
		Provider: provider,
		Pricing:  prices,
		Regions:  cfg.AWS.Regions,
		Logger:   logger,
		Remediate: func(dryRun bool) remediate.Remediator {
			return remediate.NewDefaultRemediator(dryRun, logger)
		},
	}

	registry, err := engine.NewDefaultRegistry(env, engine.Deps{
		Costs:    awscost.NewDefaultCostCollector(logger),
		Clusters: eks.NewDefaultEKSCollector(logger),
		Kube:     kube,
	}, engine.Options{
		ForecastLookbackDays: cfg.Forecast.LookbackDays,
		RequiredTags:         cfg.Governance.RequiredTags,
		KubeContext:          cfg.Kubernetes.Context,
	})
	if err != nil {
		return nil, err
	}

	pol, err := LoadPolicy(cfg.PolicyFile, registry.IDs())
	if err != nil {
		return nil, err
	}
	env.Policy = pol

	sink, err := NewSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
		Kube:     kube,
		Policy:   pol,
		Sink:     sink,
		Env:      env,
		Registry: registry,
		Runner:   engine.NewRunner(sink, logger),
	}, nil
}

func loadPricing(path string) (pricing.Provider, error) {
	if path == "" {
		return pricing.Default(), nil
	}
	p, err := pricing.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPolicy reads and validates the policy file at path against the given
// function IDs and every known rule ID. An empty path means no policy.
func LoadPolicy(path string, functionIDs []string) (*policy.PolicyConfig, error) {
	if path == "" {
		return nil, nil
	}
	pol, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	if errs := policy.Validate(pol, functionIDs, RuleIDs()); len(errs) > 0 {
		return nil, fmt.Errorf("policy %s: %w", path, errors.Join(errs...))
	}
	return pol, nil
}

// NewSink returns the metric sink selected by cfg.Metrics.Sink.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Sink, error) {
	switch cfg.Metrics.Sink {
	case config.SinkNone:
		return metrics.Nop{}, nil
	case config.SinkPushgateway:
		return metrics.NewPushgatewaySink(cfg.Metrics.PushgatewayURL, pushgatewayJob, logger), nil
	case config.SinkCloudWatch, config.SinkBoth:
		opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWS.DefaultRegion)}
		if cfg.AWS.DefaultProfile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.AWS.DefaultProfile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config for metrics: %w", err)
		}
		cw := metrics.NewCloudWatchSink(awsCfg, logger)
		if cfg.Metrics.Sink == config.SinkCloudWatch {
			return cw, nil
		}
		return metrics.Fanout{cw, metrics.NewPushgatewaySink(cfg.Metrics.PushgatewayURL, pushgatewayJob, logger)}, nil
	}
	return nil, fmt.Errorf("unknown metrics sink %q", cfg.Metrics.Sink)
}

// RuleIDs returns the sorted, de-duplicated IDs of every rule in every pack.
func RuleIDs() []string {
	packs := [][]rules.Rule{
		anomaly_forecast.New(),
		ebs_optimizer.New(),
		ec2_rightsizing.New(),
		rds_optimizer.New(),
		ri_optimizer.New(),
		spot_optimizer.New(),
		s3_lifecycle.New(),
		unused_cleanup.New(),
		data_transfer.New(),
		governance.New(),
		eks_optimizer.New(),
	}
	seen := make(map[string]bool)
	var ids []string
	for _, pack := range packs {
		for _, r := range pack {
			if !seen[r.ID()] {
				seen[r.ID()] = true
				ids = append(ids, r.ID())
			}
		}
	}
	sort.Strings(ids)
	return ids
}
