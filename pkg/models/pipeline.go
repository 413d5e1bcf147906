package models

import "time"

// ItemResult captures the outcome of classifying a single reading.
type ItemResult struct {
	ReadingID    string `json:"reading_id"`
	MachineID    string `json:"machine_id"`
	Success      bool   `json:"success"`
	PredictionID string `json:"prediction_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchResult summarizes one batch-processing run. Total is always
// Successful + Failed.
type BatchResult struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Results    []ItemResult  `json:"results"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// GenerationResult summarizes one synthetic-data generation run.
type GenerationResult struct {
	MachinesTotal   int           `json:"machines_total"`
	ReadingsCreated int           `json:"readings_created"`
	Failed          int           `json:"failed"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}
