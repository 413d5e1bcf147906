package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/cache"
	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// MachineSource resolves machine reference data on cache misses.
type MachineSource interface {
	GetByID(ctx context.Context, machineID string) (*models.Machine, error)
}

// Result is a full combined prediction for one reading, ready to be
// persisted as a Prediction row.
type Result struct {
	IsFailure       bool
	FailureType     string
	ConfidenceScore float64
	Probability     float64
	Explanation     map[string]interface{}
	Reason          string
}

// Service orchestrates the two-stage prediction: resolve the machine
// (cached), get the binary verdict, and only when a failure is
// predicted consult the type model and build the failure narrative.
type Service struct {
	client     Client
	machines   MachineSource
	cache      *cache.Cache
	machineTTL time.Duration
}

type ServiceConfig struct {
	Client     Client
	Machines   MachineSource
	Cache      *cache.Cache
	MachineTTL time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.MachineTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	return &Service{
		client:     cfg.Client,
		machines:   cfg.Machines,
		cache:      cfg.Cache,
		machineTTL: ttl,
	}
}

func (s *Service) CheckHealth(ctx context.Context) (HealthStatus, error) {
	return s.client.CheckHealth(ctx)
}

// Predict runs the combined two-stage prediction for one reading.
func (s *Service) Predict(ctx context.Context, reading *models.SensorReading) (*Result, error) {
	machine, err := s.resolveMachine(ctx, reading.MachineID)
	if err != nil {
		return nil, err
	}

	binary, err := s.client.PredictBinary(ctx, reading, machine.Type)
	if err != nil {
		return nil, fmt.Errorf("binary prediction for reading %s: %w", reading.ID, err)
	}

	explanation := map[string]interface{}{
		"binary_prediction": binary,
		"machine_info": map[string]interface{}{
			"machine_id":   machine.ID,
			"machine_code": machine.Code,
			"machine_name": machine.Name,
			"machine_type": string(machine.Type),
		},
	}

	if !binary.IsFailure {
		return &Result{
			IsFailure:       false,
			FailureType:     models.NoFailureType,
			ConfidenceScore: binary.Confidence,
			Probability:     binary.Probability,
			Explanation:     explanation,
			Reason:          normalReason(machine, binary),
		}, nil
	}

	typed, err := s.client.PredictType(ctx, reading, machine.Type)
	if err != nil {
		return nil, fmt.Errorf("type prediction for reading %s: %w", reading.ID, err)
	}

	explanation["type_prediction"] = typed

	return &Result{
		IsFailure:       true,
		FailureType:     typed.FailureType,
		ConfidenceScore: typed.Confidence,
		Probability:     binary.Probability,
		Explanation:     explanation,
		Reason:          failureReason(machine, reading, binary, typed),
	}, nil
}

func (s *Service) resolveMachine(ctx context.Context, machineID string) (*models.Machine, error) {
	cacheKey := "machine:" + machineID

	if cached, ok := s.cache.Get(cacheKey); ok {
		if machine, ok := cached.(*models.Machine); ok {
			return machine, nil
		}
	}

	machine, err := s.machines.GetByID(ctx, machineID)
	if err != nil {
		return nil, err
	}

	// Machines rarely change, so a stale entry is harmless.
	s.cache.Set(cacheKey, machine, s.machineTTL)
	logger.WithMachine(machineID).Debug("Machine cached for prediction lookups")

	return machine, nil
}
