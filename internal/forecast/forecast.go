// Package forecast projects daily AWS spend forward with a least-squares
// trend line and summarises how the recent week compares to the rest of
// the series.
package forecast

import (
	"fmt"
)

const (
	// MinPoints is the shortest series Forecast accepts.
	MinPoints = 14

	// RecentWindow is the number of trailing days averaged as "recent".
	RecentWindow = 7

	// RegressionWindow is the number of trailing days the trend line is fit to.
	RegressionWindow = 14

	// Horizon is the number of future days projected.
	Horizon = 30

	// sufficiencyDays is the series length at which the data-sufficiency
	// term of the confidence score saturates.
	sufficiencyDays = 30

	sufficiencyWeight = 0.4
	stabilityWeight   = 0.6
)

// Result is the outcome of one forecast. It is never mutated after Forecast
// returns it.
type Result struct {
	CurrentDailyAverage float64   `json:"current_daily_avg"`
	TrendChangePercent  float64   `json:"trend_change"`
	VolatilityScore     float64   `json:"volatility_score"`
	Forecast            []float64 `json:"forecast_30_days"`
	ConfidenceScore     float64   `json:"confidence_score"`
}

// Forecast computes trend statistics and a Horizon-day projection for
// series. It is a pure function of its input.
//
// Errors:
//   - *InsufficientDataError when series has fewer than MinPoints points
//   - ErrNegativeAmount when any amount is below zero
//   - ErrDivisionByZero when the historical average is zero
func Forecast(series CostSeries) (Result, error) {
	if series.Len() < MinPoints {
		return Result{}, &InsufficientDataError{Got: series.Len(), Need: MinPoints}
	}

	values := series.Amounts()
	for i, v := range values {
		if v < 0 {
			return Result{}, fmt.Errorf("%w: day %d is %.2f", ErrNegativeAmount, series[i].Day, v)
		}
	}

	split := len(values) - RecentWindow
	recentAvg := mean(values[split:])
	historicalAvg := mean(values[:split])
	if historicalAvg == 0 {
		return Result{}, fmt.Errorf("trend change: historical average is zero: %w", ErrDivisionByZero)
	}
	trend := (recentAvg - historicalAvg) / historicalAvg * 100

	stdev := populationStdDev(values)
	var volatility float64
	if recentAvg != 0 {
		volatility = stdev / recentAvg * 100
	}

	window := values[len(values)-RegressionWindow:]
	slope, intercept, ok := LinearFit(window)
	projected := project(slope, intercept, ok, RegressionWindow, Horizon, window[len(window)-1])

	confidence, err := confidenceScore(len(values), stdev, mean(values))
	if err != nil {
		return Result{}, err
	}

	return Result{
		CurrentDailyAverage: round2(recentAvg),
		TrendChangePercent:  round2(trend),
		VolatilityScore:     round2(volatility),
		Forecast:            projected,
		ConfidenceScore:     confidence,
	}, nil
}

// confidenceScore weighs how much data there is against how stable it is.
// The result is rounded to two decimals and kept within [0, 1].
func confidenceScore(points int, stdev, seriesMean float64) (float64, error) {
	if seriesMean == 0 {
		return 0, fmt.Errorf("confidence: series mean is zero: %w", ErrDivisionByZero)
	}
	sufficiency := clamp(float64(points)/sufficiencyDays, 0, 1)
	stability := StabilityTerm(stdev, seriesMean)
	return clamp(round2(sufficiencyWeight*sufficiency+stabilityWeight*stability), 0, 1), nil
}

// StabilityTerm returns max(0, 1 - stdev/mean). A mean of zero yields 0.
func StabilityTerm(stdev, seriesMean float64) float64 {
	if seriesMean == 0 {
		return 0
	}
	s := 1 - stdev/seriesMean
	if s < 0 {
		return 0
	}
	return s
}

// PredictedTotal sums the projected daily amounts, rounded to cents.
func (r Result) PredictedTotal() float64 {
	var sum float64
	for _, v := range r.Forecast {
		sum += v
	}
	return round2(sum)
}
