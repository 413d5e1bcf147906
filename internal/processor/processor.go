package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/classifier"
	"github.com/machinemind/predictive-maintenance/internal/events"
	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// ErrAlreadyRunning is returned when a batch run is requested while a
// previous run has not finished yet.
var ErrAlreadyRunning = errors.New("batch processing already running")

// Predictor produces combined failure predictions for readings.
type Predictor interface {
	CheckHealth(ctx context.Context) (classifier.HealthStatus, error)
	Predict(ctx context.Context, reading *models.SensorReading) (*classifier.Result, error)
}

// ReadingSource supplies the unprocessed backlog.
type ReadingSource interface {
	GetUnprocessed(ctx context.Context) ([]*models.SensorReading, error)
}

// PredictionStore persists a prediction and marks its reading processed
// in one atomic step.
type PredictionStore interface {
	Save(ctx context.Context, prediction *models.Prediction) error
}

type Config struct {
	BatchSize  int
	BatchDelay time.Duration
	Predictor  Predictor
	Readings   ReadingSource
	Store      PredictionStore
	Publisher  *events.Publisher
}

// Processor drains the unprocessed-readings backlog in small concurrent
// batches. Failures are isolated per reading: one bad reading never
// aborts the rest of the run.
type Processor struct {
	config  Config
	mu      sync.Mutex
	running bool
}

func New(cfg Config) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 200 * time.Millisecond
	}
	return &Processor{config: cfg}
}

// IsRunning reports whether a batch run is currently in flight.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run executes one full batch-processing pass. Only one run may be in
// flight at a time; overlapping calls get ErrAlreadyRunning.
func (p *Processor) Run(ctx context.Context) (*models.BatchResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	started := time.Now()
	result := &models.BatchResult{
		StartedAt: started,
		Results:   []models.ItemResult{},
	}

	health, err := p.config.Predictor.CheckHealth(ctx)
	if err != nil {
		logger.Warnf("Classifier unavailable, skipping batch run: %v", err)
		result.Duration = time.Since(started)
		return result, nil
	}
	if !health.Ready() {
		logger.Warn("Classifier models not loaded, skipping batch run")
		result.Duration = time.Since(started)
		return result, nil
	}

	readings, err := p.config.Readings.GetUnprocessed(ctx)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		logger.Debug("No unprocessed readings found")
		result.Duration = time.Since(started)
		return result, nil
	}

	logger.Infof("Processing %d unprocessed readings in batches of %d",
		len(readings), p.config.BatchSize)
	p.config.Publisher.BatchStarted(len(readings))

	result.Total = len(readings)
	result.Results = make([]models.ItemResult, len(readings))

	for offset := 0; offset < len(readings); offset += p.config.BatchSize {
		if ctx.Err() != nil {
			result.Total = offset
			result.Results = result.Results[:offset]
			return p.finish(result, started), ctx.Err()
		}

		end := offset + p.config.BatchSize
		if end > len(readings) {
			end = len(readings)
		}

		p.runBatch(ctx, readings[offset:end], result.Results[offset:end])

		// Pace calls to the classifier between batches, but not
		// after the final one.
		if end < len(readings) {
			select {
			case <-ctx.Done():
				result.Total = end
				result.Results = result.Results[:end]
				return p.finish(result, started), ctx.Err()
			case <-time.After(p.config.BatchDelay):
			}
		}
	}

	p.finish(result, started)
	p.config.Publisher.BatchCompleted(result)

	logger.Infof("Batch run complete: %d total, %d successful, %d failed",
		result.Total, result.Successful, result.Failed)

	return result, nil
}

func (p *Processor) runBatch(ctx context.Context, readings []*models.SensorReading, out []models.ItemResult) {
	var wg sync.WaitGroup
	for i, reading := range readings {
		wg.Add(1)
		go func(i int, reading *models.SensorReading) {
			defer wg.Done()
			out[i] = p.processOne(ctx, reading)
		}(i, reading)
	}
	wg.Wait()
}

func (p *Processor) processOne(ctx context.Context, reading *models.SensorReading) models.ItemResult {
	item := models.ItemResult{
		ReadingID: reading.ID,
		MachineID: reading.MachineID,
	}

	prediction, err := p.predict(ctx, reading)
	if err != nil {
		logger.WithReading(reading.ID).Errorf("Prediction failed: %v", err)
		p.config.Publisher.PredictionFailed(reading.MachineID, reading.ID, err)
		item.Error = err.Error()
		return item
	}

	item.Success = true
	item.PredictionID = prediction.ID
	p.config.Publisher.PredictionCreated(prediction)
	return item
}

func (p *Processor) predict(ctx context.Context, reading *models.SensorReading) (*models.Prediction, error) {
	result, err := p.config.Predictor.Predict(ctx, reading)
	if err != nil {
		return nil, err
	}

	prediction := &models.Prediction{
		ReadingID:       reading.ID,
		MachineID:       reading.MachineID,
		IsFailure:       result.IsFailure,
		ConfidenceScore: result.ConfidenceScore,
		Explanation:     result.Explanation,
		Reason:          result.Reason,
	}
	if result.FailureType != "" {
		failureType := result.FailureType
		prediction.FailureType = &failureType
	}

	if err := p.config.Store.Save(ctx, prediction); err != nil {
		return nil, err
	}

	return prediction, nil
}

func (p *Processor) finish(result *models.BatchResult, started time.Time) *models.BatchResult {
	for _, item := range result.Results {
		if item.Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}
	result.Duration = time.Since(started)
	return result
}
