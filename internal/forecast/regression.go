package forecast

// LinearFit computes the ordinary least-squares line through ys, using each
// value's index (0..n-1) as x. ok is false when the closed-form denominator
// n*Σx² - (Σx)² is zero, which happens for fewer than two points.
func LinearFit(ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

// project extends the fitted line past the last index of a window of size
// window, clamping each value at zero. When fit is false every projected
// value repeats last.
func project(slope, intercept float64, fit bool, window, horizon int, last float64) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		v := last
		if fit {
			v = intercept + slope*float64(window+i)
		}
		if v < 0 {
			v = 0
		}
		out[i] = round2(v)
	}
	return out
}
