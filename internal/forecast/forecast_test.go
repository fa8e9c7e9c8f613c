package forecast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearSeries(n int, intercept, slope float64) CostSeries {
	amounts := make([]float64, n)
	for i := range amounts {
		amounts[i] = intercept + slope*float64(i)
	}
	return NewCostSeries(amounts)
}

func flatSeries(n int, v float64) CostSeries {
	amounts := make([]float64, n)
	for i := range amounts {
		amounts[i] = v
	}
	return NewCostSeries(amounts)
}

func TestForecast_ReturnsHorizonNonNegativeValues(t *testing.T) {
	cases := map[string]CostSeries{
		"flat":       flatSeries(20, 42),
		"increasing": linearSeries(30, 100, 10),
		"decreasing": linearSeries(60, 500, -8),
		"minimum":    linearSeries(MinPoints, 5, 1),
	}
	for name, series := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Forecast(series)
			require.NoError(t, err)
			require.Len(t, res.Forecast, Horizon)
			for i, v := range res.Forecast {
				assert.GreaterOrEqual(t, v, 0.0, "forecast[%d]", i)
			}
		})
	}
}

func TestForecast_DecreasingTrendClampsAtZero(t *testing.T) {
	// Falls by 30/day over the regression window; the line crosses zero
	// within the horizon.
	res, err := Forecast(linearSeries(20, 600, -30))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Forecast[Horizon-1])
}

func TestForecast_FlatSeries(t *testing.T) {
	const v = 250.0
	res, err := Forecast(flatSeries(MinPoints, v))
	require.NoError(t, err)

	for i, got := range res.Forecast {
		assert.Equal(t, v, got, "forecast[%d]", i)
	}
	assert.Equal(t, 0.0, res.VolatilityScore)
	assert.Equal(t, 0.0, res.TrendChangePercent)
	assert.Equal(t, v, res.CurrentDailyAverage)
	assert.Equal(t, 1.0, StabilityTerm(populationStdDev(flatSeries(MinPoints, v).Amounts()), v))
	// 0.4 * 14/30 + 0.6 * 1.0
	assert.Equal(t, 0.79, res.ConfidenceScore)

	slope, intercept, ok := LinearFit(flatSeries(MinPoints, v).Amounts())
	require.True(t, ok)
	assert.InDelta(t, 0.0, slope, 1e-9)
	assert.InDelta(t, v, intercept, 1e-9)
}

func TestForecast_LinearSeries(t *testing.T) {
	series := linearSeries(MinPoints, 100, 10)

	slope, intercept, ok := LinearFit(series.Amounts())
	require.True(t, ok)
	assert.InDelta(t, 10.0, slope, 1e-9)
	assert.InDelta(t, 100.0, intercept, 1e-9)

	res, err := Forecast(series)
	require.NoError(t, err)
	assert.InDelta(t, 240.0, res.Forecast[0], 1e-9)
	assert.InDelta(t, 100+10*float64(MinPoints+Horizon-1), res.Forecast[Horizon-1], 1e-9)
	// recent = mean(170..230) = 200, historical = mean(100..160) = 130
	assert.Equal(t, 200.0, res.CurrentDailyAverage)
	assert.InDelta(t, 53.85, res.TrendChangePercent, 1e-9)
}

func TestForecast_RegressionUsesTrailingWindowOnly(t *testing.T) {
	// 16 flat days at 1000 followed by a 14-day ramp; only the ramp is fit.
	amounts := make([]float64, 0, 30)
	for i := 0; i < 16; i++ {
		amounts = append(amounts, 1000)
	}
	for i := 0; i < RegressionWindow; i++ {
		amounts = append(amounts, 100+10*float64(i))
	}
	res, err := Forecast(NewCostSeries(amounts))
	require.NoError(t, err)
	assert.InDelta(t, 240.0, res.Forecast[0], 1e-9)
}

func TestForecast_InsufficientData(t *testing.T) {
	_, err := Forecast(linearSeries(MinPoints-1, 100, 1))
	require.Error(t, err)

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, MinPoints-1, insufficient.Got)
	assert.Equal(t, MinPoints, insufficient.Need)

	_, err = Forecast(nil)
	assert.True(t, errors.As(err, &insufficient))

	_, err = Forecast(linearSeries(MinPoints, 100, 1))
	assert.NoError(t, err)
}

func TestForecast_ZeroHistoricalAverage(t *testing.T) {
	amounts := make([]float64, MinPoints)
	for i := MinPoints - RecentWindow; i < MinPoints; i++ {
		amounts[i] = 50
	}
	_, err := Forecast(NewCostSeries(amounts))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Forecast(flatSeries(MinPoints, 0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestForecast_NegativeAmountRejected(t *testing.T) {
	series := flatSeries(MinPoints, 10)
	series[3].Amount = -1
	_, err := Forecast(series)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestForecast_ZeroRecentAverageHasZeroVolatility(t *testing.T) {
	amounts := make([]float64, MinPoints)
	for i := 0; i < MinPoints-RecentWindow; i++ {
		amounts[i] = 80
	}
	res, err := Forecast(NewCostSeries(amounts))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.VolatilityScore)
	assert.Equal(t, -100.0, res.TrendChangePercent)
}

func TestForecast_ConfidenceClampedForOscillatingSeries(t *testing.T) {
	for _, n := range []int{MinPoints, 30, 61} {
		amounts := make([]float64, n)
		for i := range amounts {
			if i%2 == 1 {
				amounts[i] = 1000
			}
		}
		res, err := Forecast(NewCostSeries(amounts))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, res.ConfidenceScore, 1.0)
		assert.Greater(t, res.VolatilityScore, 50.0)
	}
}

func TestForecast_ConfidenceSaturatesWithLongStableSeries(t *testing.T) {
	res, err := Forecast(flatSeries(90, 12.5))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.ConfidenceScore)
}

func TestForecast_Idempotent(t *testing.T) {
	series := NewCostSeries([]float64{
		12.31, 15.02, 9.87, 20.44, 18.91, 17.2, 14.05,
		22.6, 25.13, 19.99, 30.01, 28.47, 26.5, 31.72,
		27.3, 29.9, 33.01,
	})
	first, err := Forecast(series)
	require.NoError(t, err)
	second, err := Forecast(series)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLinearFit_Degenerate(t *testing.T) {
	_, _, ok := LinearFit([]float64{7})
	assert.False(t, ok)
	_, _, ok = LinearFit(nil)
	assert.False(t, ok)

	got := project(0, 0, false, RegressionWindow, 3, 17.5)
	assert.Equal(t, []float64{17.5, 17.5, 17.5}, got)
}

func TestResult_PredictedTotal(t *testing.T) {
	res, err := Forecast(flatSeries(MinPoints, 10))
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.PredictedTotal())
}
