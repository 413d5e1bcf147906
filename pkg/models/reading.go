package models

import "time"

// SensorReading is one timestamped sample of a machine's operating
// metrics. A reading is created unprocessed and flipped to processed
// exactly once, when a prediction for it has been durably stored.
type SensorReading struct {
	ID                  string     `json:"reading_id"`
	MachineID           string     `json:"machine_id"`
	AirTemperatureK     float64    `json:"air_temperature_k"`
	ProcessTemperatureK float64    `json:"process_temperature_k"`
	RotationalSpeedRPM  int        `json:"rotational_speed_rpm"`
	TorqueNm            float64    `json:"torque_nm"`
	ToolWearMin         int        `json:"tool_wear_min"`
	IsProcessed         bool       `json:"is_processed"`
	ProcessedAt         *time.Time `json:"processed_at,omitempty"`
	CapturedAt          time.Time  `json:"captured_at"`
}
