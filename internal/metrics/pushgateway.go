package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// metricPrefix namespaces every pushed gauge.
const metricPrefix = "finops_"

// PushgatewaySink exposes each datum as a gauge named finops_<snake_name>
// and pushes them to a Prometheus Pushgateway. The CloudWatch namespace is
// sent as the "namespace" grouping label so functions do not overwrite each
// other's groups.
type PushgatewaySink struct {
	url    string
	job    string
	logger *slog.Logger
}

// NewPushgatewaySink returns a sink pushing to url under job.
func NewPushgatewaySink(url, job string, logger *slog.Logger) *PushgatewaySink {
	if logger == nil {
		logger = slog.Default()
	}
	if job == "" {
		job = "finops"
	}
	return &PushgatewaySink{url: url, job: job, logger: logger}
}

// Publish replaces the group for namespace with data. Each call builds a
// fresh registry, so gauges never carry over between runs.
func (s *PushgatewaySink) Publish(ctx context.Context, namespace string, data []Datum) error {
	if len(data) == 0 {
		return nil
	}

	reg := prometheus.NewRegistry()
	vecs := make(map[string]*prometheus.GaugeVec)
	for _, d := range data {
		name := metricPrefix + snakeCase(d.Name)
		labels := sortedKeys(d.Dimensions)

		vec, ok := vecs[name]
		if !ok {
			vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: name,
				Help: fmt.Sprintf("%s (%s)", d.Name, unitOrNone(d.Unit)),
			}, labels)
			if err := reg.Register(vec); err != nil {
				return fmt.Errorf("register %s: %w", name, err)
			}
			vecs[name] = vec
		}

		g, err := vec.GetMetricWith(prometheus.Labels(d.Dimensions))
		if err != nil {
			return fmt.Errorf("gauge %s: %w", name, err)
		}
		g.Set(d.Value)
	}

	if err := push.New(s.url, s.job).
		Gatherer(reg).
		Grouping("namespace", namespace).
		PushContext(ctx); err != nil {
		return fmt.Errorf("push to %s: %w", s.url, err)
	}
	s.logger.Debug("published metrics",
		slog.String("sink", "pushgateway"),
		slog.String("namespace", namespace),
		slog.Int("count", len(data)),
	)
	return nil
}

// snakeCase converts a CloudWatch style metric name such as
// "MLConfidenceScore" into "ml_confidence_score".
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unitOrNone(u string) string {
	if u == "" {
		return UnitNone
	}
	return u
}
