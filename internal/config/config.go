package config

import "time"

// Config is the top-level application configuration.
// It is loaded from ~/.config/finops-lambdas/config.yaml and then
// overridden from the environment, which is how Lambda deployments set it.
type Config struct {
	AWS        AWSConfig        `yaml:"aws"        json:"aws"`
	DryRun     bool             `yaml:"dry_run"    json:"dry_run"`
	Log        LogConfig        `yaml:"log"        json:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"    json:"metrics"`
	Forecast   ForecastConfig   `yaml:"forecast"   json:"forecast"`
	Governance GovernanceConfig `yaml:"governance" json:"governance"`
	Kubernetes KubernetesConfig `yaml:"kubernetes" json:"kubernetes"`

	// PolicyFile is an optional policy YAML (thresholds, severities,
	// enforcement).
	PolicyFile string `yaml:"policy_file" json:"policy_file"`

	// PricingFile is an optional pricing override YAML.
	PricingFile string `yaml:"pricing_file" json:"pricing_file"`
}

// AWSConfig holds AWS-specific defaults used when flags are not provided.
type AWSConfig struct {
	// DefaultRegion is used when no region flag or profile region is set.
	DefaultRegion string `yaml:"default_region" json:"default_region"`

	// DefaultProfile is used when no --profile flag is provided.
	DefaultProfile string `yaml:"default_profile" json:"default_profile"`

	// Regions limits collection to these regions. Empty means every region
	// enabled for the account.
	Regions []string `yaml:"regions" json:"regions"`

	Retry RetryConfig `yaml:"retry" json:"retry"`
}

// RetryConfig bounds the SDK standard retryer.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	MaxBackoff  time.Duration `yaml:"max_backoff"  json:"max_backoff"`
}

type LogConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig selects where run metrics are published.
type MetricsConfig struct {
	// Sink is one of cloudwatch, pushgateway, both or none.
	Sink           string `yaml:"sink"            json:"sink"`
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url"`
}

type ForecastConfig struct {
	// LookbackDays is how many days of daily cost history feed the forecast.
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

type GovernanceConfig struct {
	RequiredTags []string `yaml:"required_tags" json:"required_tags"`
}

type KubernetesConfig struct {
	// Context is the kubeconfig context used for pod checks by
	// eks-optimizer. Empty disables them.
	Context    string `yaml:"context"    json:"context"`
	Kubeconfig string `yaml:"kubeconfig" json:"kubeconfig"`
}

// Metrics sink names.
const (
	SinkCloudWatch  = "cloudwatch"
	SinkPushgateway = "pushgateway"
	SinkBoth        = "both"
	SinkNone        = "none"
)

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{
			DefaultRegion: "us-east-1",
			Retry: RetryConfig{
				MaxAttempts: 5,
				MaxBackoff:  20 * time.Second,
			},
		},
		Log:        LogConfig{Level: "info", Format: "json"},
		Metrics:    MetricsConfig{Sink: SinkCloudWatch},
		Forecast:   ForecastConfig{LookbackDays: 60},
		Governance: GovernanceConfig{RequiredTags: []string{"Environment", "Owner"}},
	}
}

// Loader is the interface for reading Config.
// The default implementation reads ~/.config/finops-lambdas/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}
