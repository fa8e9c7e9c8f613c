package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/forecast"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/metrics"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/models"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/risk"
	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/rulepacks/anomaly_forecast"
)

const (
	defaultForecastLookbackDays = 60
	anomalyWindowDays           = 30
	topServices                 = 5
)

// CostSummarizer is optionally implemented by a ForecastCollector to add a
// per-service breakdown to the forecast body.
type CostSummarizer interface {
	CostSummary(ctx context.Context, cfg aws.Config, daysBack int) (*models.AWSCostSummary, error)
}

// AnomalyForecastBody is the anomaly-forecast response body.
type AnomalyForecastBody struct {
	AnomaliesDetected int                     `json:"anomalies_detected"`
	MLForecast        forecast.Result         `json:"ml_forecast"`
	RiskAssessment    risk.Assessment         `json:"risk_assessment"`
	Recommendations   []risk.Recommendation   `json:"recommendations"`
	ServiceBreakdown  []models.AWSServiceCost `json:"service_breakdown,omitempty"`
}

// AnomalyForecast projects the next 30 days of spend from daily Cost
// Explorer data and scores the risk of a cost overrun.
type AnomalyForecast struct {
	env          *Env
	costs        ForecastCollector
	lookbackDays int
}

// NewAnomalyForecast returns the anomaly-forecast function. lookbackDays is
// the default history length; values below forecast.MinPoints use 60.
func NewAnomalyForecast(env *Env, costs ForecastCollector, lookbackDays int) *AnomalyForecast {
	if lookbackDays < forecast.MinPoints {
		lookbackDays = defaultForecastLookbackDays
	}
	return &AnomalyForecast{env: env, costs: costs, lookbackDays: lookbackDays}
}

func (f *AnomalyForecast) ID() string { return FunctionAnomalyForecast }
func (f *AnomalyForecast) Description() string {
	return "Forecast 30 days of spend and classify cost-overrun risk"
}

// Run fails when the daily series is too short or degenerate for a
// forecast; anomaly lookup failures that are recoverable only drop the
// anomaly input.
func (f *AnomalyForecast) Run(ctx context.Context, req Request) (*Result, error) {
	s, err := f.env.openProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	cfg := s.global()

	days := f.lookbackDays
	if req.DaysBack > 0 {
		days = req.DaysBack
	}

	amounts, err := f.costs.DailyCosts(ctx, cfg, days)
	if err != nil {
		return nil, fmt.Errorf("daily costs: %w", err)
	}

	anomalies, err := f.costs.Anomalies(ctx, cfg, anomalyWindowDays)
	if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
		return nil, fmt.Errorf("anomalies: %w", err)
	}

	result, err := forecast.Forecast(forecast.NewCostSeries(amounts))
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	assessment := risk.Classify(result, toRiskAnomalies(anomalies))

	rc := f.env.ruleContext(s)
	rc.Account = &models.AWSAccountData{Anomalies: anomalies}
	findings := f.env.evaluate(f.ID(), anomaly_forecast.New(), rc)

	body := AnomalyForecastBody{
		AnomaliesDetected: len(anomalies),
		MLForecast:        result,
		RiskAssessment:    assessment,
		Recommendations:   nonNil(risk.Recommend(assessment)),
	}

	if cs, ok := f.costs.(CostSummarizer); ok {
		summary, err := cs.CostSummary(ctx, cfg, days)
		if err := f.env.tolerate(f.ID(), cfg.Region, err); err != nil {
			return nil, fmt.Errorf("cost summary: %w", err)
		}
		if summary != nil {
			body.ServiceBreakdown = summary.ServiceBreakdown
			if len(body.ServiceBreakdown) > topServices {
				body.ServiceBreakdown = body.ServiceBreakdown[:topServices]
			}
		}
	}

	return &Result{
		FunctionID: f.ID(),
		Body:       body,
		Findings:   findings,
		Metrics: []metrics.Datum{
			{Name: "MLRiskLevel", Value: float64(assessment.Level.Rank()), Unit: metrics.UnitNone},
			{Name: "MLConfidenceScore", Value: assessment.ConfidenceScore, Unit: metrics.UnitNone},
			{Name: "AnomalyFrequency", Value: float64(assessment.AnomalyFrequency), Unit: metrics.UnitCount},
			{Name: "PredictedMonthlyCost", Value: assessment.PredictedMonthlyCost, Unit: metrics.UnitNone},
		},
		MetricsNamespace: NamespaceML,
	}, nil
}

// toRiskAnomalies converts collected anomalies to the classifier's input.
// Unparseable dates are left zero.
func toRiskAnomalies(in []models.AWSCostAnomaly) []risk.Anomaly {
	out := make([]risk.Anomaly, 0, len(in))
	for _, a := range in {
		out = append(out, risk.Anomaly{
			ID:          a.ID,
			Service:     a.Service,
			MaxImpact:   a.MaxImpact,
			TotalImpact: a.TotalImpact,
			Start:       parseCEDate(a.StartDate),
			End:         parseCEDate(a.EndDate),
		})
	}
	return out
}

// parseCEDate accepts the date and timestamp forms Cost Explorer returns.
func parseCEDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
