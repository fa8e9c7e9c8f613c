package forecast

// Point is one day of spend. Day is the zero-based index of the day within
// the series; Amount is in USD.
type Point struct {
	Day    int     `json:"day"`
	Amount float64 `json:"amount"`
}

// CostSeries is an ordered, gap-free sequence of daily cost points.
// Index order is chronological order.
type CostSeries []Point

// NewCostSeries builds a CostSeries from chronologically ordered daily
// amounts, assigning day indexes 0..n-1.
func NewCostSeries(amounts []float64) CostSeries {
	series := make(CostSeries, len(amounts))
	for i, a := range amounts {
		series[i] = Point{Day: i, Amount: a}
	}
	return series
}

// Amounts returns the series values in order.
func (s CostSeries) Amounts() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Amount
	}
	return out
}

// Len returns the number of points.
func (s CostSeries) Len() int { return len(s) }
