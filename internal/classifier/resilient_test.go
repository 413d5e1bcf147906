package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinemind/predictive-maintenance/internal/resilience"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type flakyClient struct {
	err   error
	calls int
}

func (f *flakyClient) CheckHealth(ctx context.Context) (HealthStatus, error) {
	f.calls++
	if f.err != nil {
		return HealthStatus{}, f.err
	}
	return HealthStatus{BinaryModelLoaded: true, TypeModelLoaded: true}, nil
}

func (f *flakyClient) PredictBinary(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*BinaryPrediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &BinaryPrediction{Confidence: 0.9}, nil
}

func (f *flakyClient) PredictType(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*TypePrediction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &TypePrediction{FailureType: "Power Failure", Confidence: 0.8}, nil
}

func (f *flakyClient) Close() error { return nil }

func TestResilientClient_ExhaustsRetriesBeforeFailing(t *testing.T) {
	inner := &flakyClient{err: ErrServiceUnavailable}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   5,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})

	_, err := client.PredictBinary(context.Background(), testReading(), models.MachineTypeLow)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestResilientClient_OpensAfterMaxFailures(t *testing.T) {
	inner := &flakyClient{err: ErrServiceUnavailable}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   2,
		Cooldown:      time.Hour,
		RetryAttempts: 1,
	})

	for i := 0; i < 2; i++ {
		_, err := client.CheckHealth(context.Background())
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	}
	assert.Equal(t, resilience.StateOpen, client.CircuitState())

	_, err := client.CheckHealth(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls, "open circuit must not reach the service")
}

func TestResilientClient_ProbeQuotaGovernsRecovery(t *testing.T) {
	inner := &flakyClient{err: ErrServiceUnavailable}
	client := NewResilientClient(ResilientClientConfig{
		Client:        inner,
		MaxFailures:   1,
		Cooldown:      time.Millisecond,
		ProbeQuota:    2,
		RetryAttempts: 1,
	})

	_, err := client.CheckHealth(context.Background())
	require.ErrorIs(t, err, ErrServiceUnavailable)
	require.Equal(t, resilience.StateOpen, client.CircuitState())

	inner.err = nil
	time.Sleep(5 * time.Millisecond)

	// One successful probe is not enough to close at quota 2.
	_, err = client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resilience.StateHalfOpen, client.CircuitState())

	_, err = client.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resilience.StateClosed, client.CircuitState())
}
