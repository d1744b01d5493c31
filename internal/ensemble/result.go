package ensemble

import "time"

// Label is the binary outcome of a prediction.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
)

// RiskLevel buckets a confidence score.
type RiskLevel string

const (
	VeryLow RiskLevel = "very_low"
	Low     RiskLevel = "low"
	Medium  RiskLevel = "medium"
	High    RiskLevel = "high"
)

// Cut points for RiskLevelFor, ascending.
const (
	LowThreshold      = 0.25
	MediumThreshold   = 0.50
	HighThreshold     = 0.75
	DecisionThreshold = 0.50
)

// RiskLevelFor maps a probability of the positive class to a risk level.
func RiskLevelFor(p float64) RiskLevel {
	switch {
	case p >= HighThreshold:
		return High
	case p >= MediumThreshold:
		return Medium
	case p >= LowThreshold:
		return Low
	default:
		return VeryLow
	}
}

// Rank orders risk levels from 0 (very_low) to 3 (high); unknown levels rank -1.
func (r RiskLevel) Rank() int {
	switch r {
	case VeryLow:
		return 0
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	default:
		return -1
	}
}

// Result is the outcome of scoring one feature vector.
type Result struct {
	Disease           Disease            `json:"disease_type"`
	Prediction        Label              `json:"prediction"`
	Confidence        float64            `json:"confidence"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Parameters        FeatureVector      `json:"parameters"`
	BaseScores        map[Kind]float64   `json:"base_scores"`
	ModelUsed         string             `json:"model_used"`
	Timestamp         time.Time          `json:"timestamp"`
}
