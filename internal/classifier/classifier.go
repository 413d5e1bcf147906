// Package classifier talks to the external failure-classification
// service. The service exposes a health endpoint plus two prediction
// endpoints: a binary failed/not-failed model, and a failure-type model
// consulted only when the binary model predicts a failure.
package classifier

import (
	"context"
	"errors"

	"github.com/machinemind/predictive-maintenance/pkg/models"
)

var (
	// ErrServiceUnavailable covers transport failures and non-2xx
	// responses from the classifier service.
	ErrServiceUnavailable = errors.New("classifier service unavailable")

	// ErrInvalidResponse means the service answered but the payload did
	// not match the documented envelope. Treated as a hard error, never
	// passed through.
	ErrInvalidResponse = errors.New("invalid response from classifier service")

	// ErrTimeout is returned when a call exceeds its deadline.
	ErrTimeout = errors.New("classifier request timed out")
)

// HealthStatus reports which models the classifier service has loaded.
type HealthStatus struct {
	BinaryModelLoaded bool
	TypeModelLoaded   bool
}

// Ready reports whether both models required by the pipeline are loaded.
func (h HealthStatus) Ready() bool {
	return h.BinaryModelLoaded && h.TypeModelLoaded
}

// BinaryPrediction is the failed/not-failed verdict for one reading.
type BinaryPrediction struct {
	IsFailure   bool
	Label       string
	Probability float64
	Confidence  float64
}

// ClassProb is one entry of the type model's top-k candidate list.
type ClassProb struct {
	Label       string  `json:"label"`
	Probability float64 `json:"prob"`
}

// TypePrediction is the failure-type verdict. Ambiguous is set when the
// model reports low separation between its top classes.
type TypePrediction struct {
	FailureType   string
	Probabilities map[string]float64
	Confidence    float64
	Ambiguous     bool
	TopK          []ClassProb
}

// Client is the transport-level interface to the classifier service.
type Client interface {
	CheckHealth(ctx context.Context) (HealthStatus, error)
	PredictBinary(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*BinaryPrediction, error)
	PredictType(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*TypePrediction, error)
	Close() error
}
