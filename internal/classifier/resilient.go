package classifier

import (
	"context"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/internal/resilience"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// ResilientClient wraps a Client with a circuit breaker and bounded
// retry. Prediction calls for different readings share one breaker, so
// a dead classifier service trips fast for the whole pipeline.
type ResilientClient struct {
	client         Client
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientClientConfig struct {
	Client        Client
	MaxFailures   int
	Cooldown      time.Duration
	ProbeQuota    int
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientClient(cfg ResilientClientConfig) *ResilientClient {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "classifier",
		MaxFailures:   cfg.MaxFailures,
		Cooldown:      cfg.Cooldown,
		ProbeQuota:    cfg.ProbeQuota,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientClient{
		client:         cfg.Client,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (c *ResilientClient) CheckHealth(ctx context.Context) (HealthStatus, error) {
	// Health checks bypass retry; a slow preflight delays the whole run.
	var health HealthStatus
	err := c.circuitBreaker.Execute(func() error {
		var err error
		health, err = c.client.CheckHealth(ctx)
		return err
	})
	return health, err
}

func (c *ResilientClient) PredictBinary(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*BinaryPrediction, error) {
	var pred *BinaryPrediction
	err := c.execute(ctx, reading.ID, func() error {
		var err error
		pred, err = c.client.PredictBinary(ctx, reading, machineType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pred, nil
}

func (c *ResilientClient) PredictType(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*TypePrediction, error) {
	var pred *TypePrediction
	err := c.execute(ctx, reading.ID, func() error {
		var err error
		pred, err = c.client.PredictType(ctx, reading, machineType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pred, nil
}

func (c *ResilientClient) execute(ctx context.Context, readingID string, fn func() error) error {
	var lastErr error

	return c.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= c.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err := fn(); err == nil {
				return nil
			} else {
				lastErr = err
			}

			logger.WithReading(readingID).Warnf(
				"Classifier call attempt %d/%d failed: %v",
				attempt, c.retryAttempts, lastErr,
			)

			if attempt < c.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.retryDelay):
				}
			}
		}
		return lastErr
	})
}

func (c *ResilientClient) CircuitState() resilience.State {
	return c.circuitBreaker.State()
}

func (c *ResilientClient) Close() error {
	return c.client.Close()
}
