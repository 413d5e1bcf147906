package models

import "time"

// NoFailureType is the failure label recorded when the binary model
// predicts normal operation and the type model is never consulted.
const NoFailureType = "No Failure"

// Prediction is the classifier's verdict for exactly one sensor
// reading. The reading_id is unique in storage, so a reading can never
// accumulate more than one prediction even if it is reprocessed.
type Prediction struct {
	ID              string                 `json:"prediction_id"`
	ReadingID       string                 `json:"reading_id"`
	MachineID       string                 `json:"machine_id"`
	IsFailure       bool                   `json:"is_failure"`
	FailureType     *string                `json:"failure_type,omitempty"`
	ConfidenceScore float64                `json:"confidence_score"`
	Explanation     map[string]interface{} `json:"explanation_data,omitempty"`
	Reason          string                 `json:"natural_language_reason"`
	CreatedAt       time.Time              `json:"created_at"`
}

func (p *Prediction) IsHighConfidence(threshold float64) bool {
	return p.ConfidenceScore >= threshold
}
