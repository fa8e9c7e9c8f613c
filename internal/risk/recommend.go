package risk

import "fmt"

// Priority orders recommendations for the reader.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Recommendation is one advisory action derived from an Assessment.
type Recommendation struct {
	Priority   Priority `json:"priority"`
	Action     string   `json:"action"`
	Confidence float64  `json:"ml_confidence"`
	Impact     string   `json:"impact"`
}

const (
	anomalyAlertFrequency  = 3
	anomalyAlertConfidence = 0.9
)

// Recommend maps an Assessment to an ordered list of recommendations.
// The result is empty only for a low-risk assessment with no anomalies
// and no predicted spend.
func Recommend(a Assessment) []Recommendation {
	var recs []Recommendation

	if a.Level == LevelHigh {
		recs = append(recs, Recommendation{
			Priority:   PriorityCritical,
			Action:     "Implement immediate cost controls and budget alerts",
			Confidence: a.ConfidenceScore,
			Impact:     "Prevent potential cost overruns",
		})
	}

	if a.AnomalyFrequency > anomalyAlertFrequency {
		recs = append(recs, Recommendation{
			Priority:   PriorityHigh,
			Action:     "Enable AWS Cost Anomaly Detection with automated alerts",
			Confidence: anomalyAlertConfidence,
			Impact:     "Early detection of cost spikes",
		})
	}

	if a.PredictedMonthlyCost > 0 {
		recs = append(recs, Recommendation{
			Priority:   PriorityMedium,
			Action:     fmt.Sprintf("Budget planning: forecast predicts $%.2f monthly cost", a.PredictedMonthlyCost),
			Confidence: a.ConfidenceScore,
			Impact:     "Accurate budget forecasting",
		})
	}

	return recs
}
