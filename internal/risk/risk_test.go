package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/finops-lambdas/internal/forecast"
)

func anomalies(n int, impact float64) []Anomaly {
	out := make([]Anomaly, n)
	for i := range out {
		out[i] = Anomaly{ID: "a", MaxImpact: impact}
	}
	return out
}

func flatForecast(daily float64) []float64 {
	out := make([]float64, forecast.Horizon)
	for i := range out {
		out[i] = daily
	}
	return out
}

func result(trend, volatility, confidence float64) forecast.Result {
	return forecast.Result{
		CurrentDailyAverage: 100,
		TrendChangePercent:  trend,
		VolatilityScore:     volatility,
		Forecast:            flatForecast(100),
		ConfidenceScore:     confidence,
	}
}

func TestClassify_Levels(t *testing.T) {
	tests := []struct {
		name      string
		anomalies []Anomaly
		trend     float64
		wantLevel Level
		wantStab  Stability
		wantFreq  int
	}{
		{"quiet", nil, 0, LevelLow, StabilityStable, 0},
		{"six high impact anomalies dominate flat trend", anomalies(6, 150), 5, LevelHigh, StabilityStable, 6},
		{"five high impact is medium", anomalies(5, 101), 0, LevelMedium, StabilityStable, 5},
		{"three high impact is medium", anomalies(3, 500), 0, LevelMedium, StabilityStable, 3},
		{"two high impact stays low", anomalies(2, 500), 0, LevelLow, StabilityStable, 2},
		{"impact at threshold does not count", anomalies(9, 100), 0, LevelLow, StabilityStable, 0},
		{"steep trend without anomalies", nil, 30, LevelHigh, StabilityVolatile, 0},
		{"moderate trend raises low", nil, 12, LevelMedium, StabilityStable, 0},
		{"trend at 10 does not raise", nil, 10, LevelLow, StabilityStable, 0},
		{"trend at 25 is only medium", nil, 25, LevelMedium, StabilityStable, 0},
		{"moderate trend keeps high", anomalies(7, 200), 15, LevelHigh, StabilityStable, 7},
		{"steep trend escalates medium", anomalies(4, 200), 40, LevelHigh, StabilityVolatile, 4},
		{"falling trend never de-escalates", anomalies(6, 200), -60, LevelHigh, StabilityStable, 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(result(tc.trend, 0, 0.8), tc.anomalies)
			assert.Equal(t, tc.wantLevel, got.Level)
			assert.Equal(t, tc.wantStab, got.Stability)
			assert.Equal(t, tc.wantFreq, got.AnomalyFrequency)
		})
	}
}

func TestClassify_PredictedMonthlyCost(t *testing.T) {
	got := Classify(result(0, 0, 0.8), nil)
	assert.Equal(t, 3000.0, got.PredictedMonthlyCost)
}

func TestClassify_ConfidenceCaps(t *testing.T) {
	tests := []struct {
		volatility float64
		confidence float64
		want       float64
	}{
		{volatility: 80, confidence: 0.95, want: 0.6},
		{volatility: 50.01, confidence: 0.95, want: 0.6},
		{volatility: 50, confidence: 0.95, want: 0.75},
		{volatility: 30, confidence: 0.95, want: 0.75},
		{volatility: 25, confidence: 0.95, want: 0.95},
		{volatility: 80, confidence: 0.4, want: 0.4},
		{volatility: 30, confidence: 0.7, want: 0.7},
	}
	for _, tc := range tests {
		got := Classify(result(0, tc.volatility, tc.confidence), nil)
		assert.Equal(t, tc.want, got.ConfidenceScore, "volatility=%v confidence=%v", tc.volatility, tc.confidence)
	}
}

func TestClassify_FromForecastEngine(t *testing.T) {
	amounts := make([]float64, 30)
	for i := range amounts {
		amounts[i] = 100 + 10*float64(i)
	}
	res, err := forecast.Forecast(forecast.NewCostSeries(amounts))
	require.NoError(t, err)

	got := Classify(res, nil)
	assert.Equal(t, LevelHigh, got.Level)
	assert.Equal(t, StabilityVolatile, got.Stability)
	assert.Equal(t, res.PredictedTotal(), got.PredictedMonthlyCost)
}

func TestLevel_Rank(t *testing.T) {
	assert.Equal(t, 1, LevelLow.Rank())
	assert.Equal(t, 2, LevelMedium.Rank())
	assert.Equal(t, 3, LevelHigh.Rank())
	assert.Equal(t, 1, Level("").Rank())
}
