package models

import "time"

type MachineStatus string

const (
	MachineStatusActive         MachineStatus = "ACTIVE"
	MachineStatusMaintenance    MachineStatus = "MAINTENANCE"
	MachineStatusDecommissioned MachineStatus = "DECOMMISSIONED"
)

// MachineType is the quality variant of a machine (L, M or H). The
// classifier service selects its behavior based on this single character.
type MachineType string

const (
	MachineTypeLow    MachineType = "L"
	MachineTypeMedium MachineType = "M"
	MachineTypeHigh   MachineType = "H"
)

func (t MachineType) Valid() bool {
	switch t {
	case MachineTypeLow, MachineTypeMedium, MachineTypeHigh:
		return true
	}
	return false
}

// Machine is reference data for one monitored industrial machine.
// The pipeline only ever reads machines; they are created and managed
// through the API.
type Machine struct {
	ID        string                 `json:"machine_id"`
	Code      string                 `json:"code"`
	Name      string                 `json:"name"`
	Type      MachineType            `json:"type"`
	Location  string                 `json:"location"`
	Status    MachineStatus          `json:"status"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func (m *Machine) IsActive() bool {
	return m.Status == MachineStatusActive
}

// Label is the human-facing identity used in explanations, e.g. "CNC Mill 3 (M-014)".
func (m *Machine) Label() string {
	return m.Name + " (" + m.Code + ")"
}
