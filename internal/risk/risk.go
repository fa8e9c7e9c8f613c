// Package risk turns a spend forecast and a list of Cost Explorer anomalies
// into a coarse risk level and a short list of recommended actions.
package risk

import (
	"math"
	"time"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/forecast"
)

// Level is the coarse risk classification.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank returns 1 for low, 2 for medium and 3 for high. It is the value
// published as the MLRiskLevel metric.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	default:
		return 1
	}
}

// Stability describes how erratic recent spend has been.
type Stability string

const (
	StabilityStable   Stability = "stable"
	StabilityVolatile Stability = "volatile"
)

const (
	// HighImpactThreshold is the MaxImpact in USD above which an anomaly
	// counts toward the risk level.
	HighImpactThreshold = 100.0

	highAnomalyCount   = 5 // more than this is high
	mediumAnomalyCount = 3 // at least this is medium

	highTrendPercent   = 25.0
	mediumTrendPercent = 10.0

	highVolatility      = 50.0
	highVolatilityCap   = 0.6
	mediumVolatility    = 25.0
	mediumVolatilityCap = 0.75
)

// Anomaly is a spend deviation flagged by Cost Explorer anomaly detection.
type Anomaly struct {
	ID          string    `json:"id"`
	Service     string    `json:"service,omitempty"`
	MaxImpact   float64   `json:"max_impact"`
	TotalImpact float64   `json:"total_impact"`
	Start       time.Time `json:"start,omitempty"`
	End         time.Time `json:"end,omitempty"`
}

// Assessment is the risk classification of one forecast.
type Assessment struct {
	Level                Level     `json:"risk_level"`
	Stability            Stability `json:"cost_stability"`
	AnomalyFrequency     int       `json:"anomaly_frequency"`
	PredictedMonthlyCost float64   `json:"predicted_monthly_cost"`
	ConfidenceScore      float64   `json:"confidence_score"`
}

// CountHighImpact returns the number of anomalies whose MaxImpact exceeds
// HighImpactThreshold.
func CountHighImpact(anomalies []Anomaly) int {
	var n int
	for _, a := range anomalies {
		if a.MaxImpact > HighImpactThreshold {
			n++
		}
	}
	return n
}

// Classify derives an Assessment from a forecast and the anomalies seen
// over the same period.
//
// Anomaly counts are checked first, then the trend. Each step may only
// raise the level set by an earlier step.
func Classify(result forecast.Result, anomalies []Anomaly) Assessment {
	highImpact := CountHighImpact(anomalies)

	a := Assessment{
		Level:                LevelLow,
		Stability:            StabilityStable,
		AnomalyFrequency:     highImpact,
		PredictedMonthlyCost: result.PredictedTotal(),
		ConfidenceScore:      result.ConfidenceScore,
	}

	switch {
	case highImpact > highAnomalyCount:
		a.Level = LevelHigh
	case highImpact >= mediumAnomalyCount:
		a.Level = LevelMedium
	}

	switch {
	case result.TrendChangePercent > highTrendPercent:
		a.Level = LevelHigh
		a.Stability = StabilityVolatile
	case result.TrendChangePercent > mediumTrendPercent:
		if a.Level == LevelLow {
			a.Level = LevelMedium
		}
	}

	switch {
	case result.VolatilityScore > highVolatility:
		a.ConfidenceScore = math.Min(a.ConfidenceScore, highVolatilityCap)
	case result.VolatilityScore > mediumVolatility:
		a.ConfidenceScore = math.Min(a.ConfidenceScore, mediumVolatilityCap)
	}

	return a
}
