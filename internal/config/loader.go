package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileLoader reads a YAML config file and applies environment overrides.
// A missing file is not an error; defaults and the environment still apply.
type FileLoader struct {
	path string
}

// NewFileLoader returns a loader for path. Empty path means DefaultPath().
func NewFileLoader(path string) *FileLoader {
	if path == "" {
		path = DefaultPath()
	}
	return &FileLoader{path: path}
}

// DefaultPath returns $FINOPS_CONFIG or ~/.config/finops-lambdas/config.yaml.
func DefaultPath() string {
	if p := getEnv("FINOPS_CONFIG", ""); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "finops-lambdas", "config.yaml")
	}
	return filepath.Join(home, ".config", "finops-lambdas", "config.yaml")
}

func (l *FileLoader) ConfigPath() string { return l.path }

// Load merges defaults, the file and the environment, in that order, and
// validates the result.
func (l *FileLoader) Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from the environment. Unset or empty variables
// leave the current value in place.
func applyEnv(cfg *Config) error {
	cfg.AWS.DefaultProfile = getEnv("AWS_PROFILE", cfg.AWS.DefaultProfile)
	cfg.AWS.DefaultRegion = getEnv("AWS_REGION", cfg.AWS.DefaultRegion)
	cfg.AWS.Regions = getEnvList("REGIONS", cfg.AWS.Regions)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Metrics.Sink = getEnv("METRICS_SINK", cfg.Metrics.Sink)
	cfg.Metrics.PushgatewayURL = getEnv("PUSHGATEWAY_URL", cfg.Metrics.PushgatewayURL)
	cfg.PolicyFile = getEnv("POLICY_FILE", cfg.PolicyFile)
	cfg.PricingFile = getEnv("PRICING_FILE", cfg.PricingFile)
	cfg.Governance.RequiredTags = getEnvList("REQUIRED_TAGS", cfg.Governance.RequiredTags)
	cfg.Kubernetes.Context = getEnv("KUBE_CONTEXT", cfg.Kubernetes.Context)

	if v := getEnv("DRY_RUN", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DRY_RUN: %w", err)
		}
		cfg.DryRun = b
	}
	if v := getEnv("AWS_MAX_ATTEMPTS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AWS_MAX_ATTEMPTS: %w", err)
		}
		cfg.AWS.Retry.MaxAttempts = n
	}
	return nil
}

// Validate checks enumerated values and numeric bounds.
func (c *Config) Validate() error {
	switch c.Metrics.Sink {
	case SinkCloudWatch, SinkNone, SinkBoth, SinkPushgateway:
	default:
		return fmt.Errorf("metrics.sink: invalid value %q; valid values: cloudwatch, pushgateway, both, none", c.Metrics.Sink)
	}
	if (c.Metrics.Sink == SinkPushgateway || c.Metrics.Sink == SinkBoth) && c.Metrics.PushgatewayURL == "" {
		return fmt.Errorf("metrics.pushgateway_url: required when metrics.sink is %q", c.Metrics.Sink)
	}
	if c.AWS.Retry.MaxAttempts < 0 {
		return fmt.Errorf("aws.retry.max_attempts: must not be negative")
	}
	if c.Forecast.LookbackDays < 14 {
		return fmt.Errorf("forecast.lookback_days: %d is below the 14 days a forecast needs", c.Forecast.LookbackDays)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
