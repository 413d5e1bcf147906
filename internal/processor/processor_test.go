package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinemind/predictive-maintenance/internal/classifier"
	"github.com/machinemind/predictive-maintenance/internal/events"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type fakePredictor struct {
	mu          sync.Mutex
	health      classifier.HealthStatus
	healthErr   error
	predictErr  map[string]error
	calls       int
	inFlight    int
	maxInFlight int
	block       chan struct{}
}

func (f *fakePredictor) CheckHealth(ctx context.Context) (classifier.HealthStatus, error) {
	return f.health, f.healthErr
}

func (f *fakePredictor) Predict(ctx context.Context, reading *models.SensorReading) (*classifier.Result, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if err, ok := f.predictErr[reading.ID]; ok {
		return nil, err
	}

	return &classifier.Result{
		IsFailure:       false,
		FailureType:     models.NoFailureType,
		ConfidenceScore: 0.95,
		Reason:          "normal operation",
	}, nil
}

type fakeReadings struct {
	readings []*models.SensorReading
	err      error
	calls    int
}

func (f *fakeReadings) GetUnprocessed(ctx context.Context) ([]*models.SensorReading, error) {
	f.calls++
	return f.readings, f.err
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*models.Prediction
	fail  map[string]error
}

// Save upserts keyed on ReadingID, as the real store does: saving for
// an already-predicted reading replaces the row and keeps its ID.
func (f *fakeStore) Save(ctx context.Context, prediction *models.Prediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.fail[prediction.ReadingID]; ok {
		return err
	}

	for i, existing := range f.saved {
		if existing.ReadingID == prediction.ReadingID {
			prediction.ID = existing.ID
			f.saved[i] = prediction
			return nil
		}
	}

	prediction.ID = models.NewUUID()
	f.saved = append(f.saved, prediction)
	return nil
}

func healthyStatus() classifier.HealthStatus {
	return classifier.HealthStatus{BinaryModelLoaded: true, TypeModelLoaded: true}
}

func makeReadings(n int) []*models.SensorReading {
	readings := make([]*models.SensorReading, n)
	for i := range readings {
		readings[i] = &models.SensorReading{
			ID:        fmt.Sprintf("reading-%02d", i),
			MachineID: "machine-1",
		}
	}
	return readings
}

func newTestProcessor(cfg Config) *Processor {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NewPublisher(events.NewEventBus(256))
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = time.Millisecond
	}
	return New(cfg)
}

func TestRunProcessesAllReadings(t *testing.T) {
	predictor := &fakePredictor{health: healthyStatus()}
	store := &fakeStore{}
	source := &fakeReadings{readings: makeReadings(12)}

	p := newTestProcessor(Config{
		BatchSize: 5,
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, result.Total)
	assert.Equal(t, 12, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, result.Total, result.Successful+result.Failed)
	assert.Len(t, store.saved, 12)

	for _, item := range result.Results {
		assert.True(t, item.Success)
		assert.NotEmpty(t, item.PredictionID)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	predictor := &fakePredictor{health: healthyStatus()}
	store := &fakeStore{}
	source := &fakeReadings{readings: makeReadings(20)}

	p := newTestProcessor(Config{
		BatchSize: 5,
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, predictor.calls)
	assert.LessOrEqual(t, predictor.maxInFlight, 5)
}

func TestRunSkipsWhenClassifierUnavailable(t *testing.T) {
	predictor := &fakePredictor{healthErr: errors.New("connection refused")}
	store := &fakeStore{}
	source := &fakeReadings{readings: makeReadings(3)}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, source.calls, "backlog should not be touched when the classifier is down")
	assert.Empty(t, store.saved)
	assert.NotNil(t, result.Results)
}

func TestRunSkipsWhenModelsNotLoaded(t *testing.T) {
	predictor := &fakePredictor{health: classifier.HealthStatus{BinaryModelLoaded: true}}
	source := &fakeReadings{readings: makeReadings(3)}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  source,
		Store:     &fakeStore{},
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, source.calls)
}

func TestRunEmptyBacklog(t *testing.T) {
	predictor := &fakePredictor{health: healthyStatus()}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  &fakeReadings{},
		Store:     &fakeStore{},
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, predictor.calls)

	// Zero-result runs still render an empty results array, not null.
	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"results":[]`)
}

func TestRunIsolatesPerReadingFailures(t *testing.T) {
	predictor := &fakePredictor{
		health: healthyStatus(),
		predictErr: map[string]error{
			"reading-01": classifier.ErrServiceUnavailable,
		},
	}
	store := &fakeStore{
		fail: map[string]error{
			"reading-03": errors.New("constraint violation"),
		},
	}
	source := &fakeReadings{readings: makeReadings(5)}

	p := newTestProcessor(Config{
		BatchSize: 5,
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, store.saved, 3)

	byReading := make(map[string]models.ItemResult)
	for _, item := range result.Results {
		byReading[item.ReadingID] = item
	}

	assert.False(t, byReading["reading-01"].Success)
	assert.NotEmpty(t, byReading["reading-01"].Error)
	assert.False(t, byReading["reading-03"].Success)
	assert.True(t, byReading["reading-00"].Success)
}

func TestRunRejectsOverlappingRuns(t *testing.T) {
	block := make(chan struct{})
	predictor := &fakePredictor{health: healthyStatus(), block: block}
	source := &fakeReadings{readings: makeReadings(2)}

	p := newTestProcessor(Config{
		BatchSize: 5,
		Predictor: predictor,
		Readings:  source,
		Store:     &fakeStore{},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Run(context.Background())
		assert.NoError(t, err)
	}()

	// Wait until the first run is inside Predict.
	require.Eventually(t, func() bool {
		predictor.mu.Lock()
		defer predictor.mu.Unlock()
		return predictor.inFlight > 0
	}, time.Second, time.Millisecond)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	<-done

	// A fresh run is allowed once the first one finishes.
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestRunReprocessingKeepsOnePredictionPerReading(t *testing.T) {
	predictor := &fakePredictor{health: healthyStatus()}
	store := &fakeStore{}
	// The source keeps returning the same backlog, the way a reading
	// that was never marked processed would come back on the next tick.
	source := &fakeReadings{readings: makeReadings(1)}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Successful)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, second.Successful)

	require.Len(t, store.saved, 1, "a reading must never accumulate more than one prediction")
	assert.Equal(t, "reading-00", store.saved[0].ReadingID)
	assert.Equal(t, second.Results[0].PredictionID, store.saved[0].ID)
}

func TestRunPropagatesBacklogError(t *testing.T) {
	predictor := &fakePredictor{health: healthyStatus()}
	source := &fakeReadings{err: errors.New("database unavailable")}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  source,
		Store:     &fakeStore{},
	})

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRunStoresFailureType(t *testing.T) {
	predictor := &failurePredictor{}
	store := &fakeStore{}
	source := &fakeReadings{readings: makeReadings(1)}

	p := newTestProcessor(Config{
		Predictor: predictor,
		Readings:  source,
		Store:     store,
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Successful)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.True(t, saved.IsFailure)
	require.NotNil(t, saved.FailureType)
	assert.Equal(t, "Heat Dissipation Failure", *saved.FailureType)
}

type failurePredictor struct{}

func (f *failurePredictor) CheckHealth(ctx context.Context) (classifier.HealthStatus, error) {
	return healthyStatus(), nil
}

func (f *failurePredictor) Predict(ctx context.Context, reading *models.SensorReading) (*classifier.Result, error) {
	return &classifier.Result{
		IsFailure:       true,
		FailureType:     "Heat Dissipation Failure",
		ConfidenceScore: 0.88,
		Reason:          "elevated temperatures",
	}, nil
}
