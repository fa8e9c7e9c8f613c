package cost

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/shopspring/decimal"
)

// globalRegion is where Cost Explorer, Organizations, Budgets and CloudFront
// are served from.
const globalRegion = "us-east-1"

// DefaultCostCollector gathers raw cost-related resource data from AWS and
// converts it into internal models. It must not apply business rules.
//
// Every method takes a regional aws.Config; the collected region is
// cfg.Region. Global services ignore the region.
//
// Inject a custom costClientFactory via NewDefaultCostCollectorWithFactory
// to replace real SDK clients with mocks in unit tests.
type DefaultCostCollector struct {
	factory costClientFactory
	logger  *slog.Logger
	now     func() time.Time
}

// NewDefaultCostCollector returns a collector backed by the real AWS SDK.
func NewDefaultCostCollector(logger *slog.Logger) *DefaultCostCollector {
	return NewDefaultCostCollectorWithFactory(newDefaultCostClients, logger)
}

// NewDefaultCostCollectorWithFactory returns a collector that uses f to
// create its service clients. Pass a mock factory in tests.
func NewDefaultCostCollectorWithFactory(f costClientFactory, logger *slog.Logger) *DefaultCostCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultCostCollector{
		factory: f,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

// effectiveDaysBack returns daysBack if positive, otherwise the default of 30.
func effectiveDaysBack(daysBack int) int {
	if daysBack > 0 {
		return daysBack
	}
	return 30
}

// billingDateRange returns start and end dates for a Cost Explorer query.
// end is today (UTC); start is daysBack days ago. Format: "2006-01-02".
func (d *DefaultCostCollector) billingDateRange(daysBack int) (start, end string) {
	now := d.now()
	end = now.Format("2006-01-02")
	start = now.AddDate(0, 0, -daysBack).Format("2006-01-02")
	return
}

// metricWindow returns [now-daysBack, now) for CloudWatch queries.
func (d *DefaultCostCollector) metricWindow(daysBack int) (start, end time.Time) {
	end = d.now()
	start = end.AddDate(0, 0, -effectiveDaysBack(daysBack))
	return
}

// globalConfig returns cfg pointed at the region that serves global APIs.
func globalConfig(cfg aws.Config) aws.Config {
	g := cfg
	g.Region = globalRegion
	return g
}

// parseCostFloat parses a cost string returned by the Cost Explorer API
// (e.g. "1234.5678"). Returns 0 on parse failure; CE strings should always
// be valid decimals, so 0 is a safe sentinel.
func parseCostFloat(s *string) float64 {
	if s == nil {
		return 0
	}
	v, err := decimal.NewFromString(*s)
	if err != nil {
		return 0
	}
	return v.InexactFloat64()
}
