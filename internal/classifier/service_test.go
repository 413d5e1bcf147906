package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinemind/predictive-maintenance/internal/cache"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type fakeClient struct {
	health      HealthStatus
	healthErr   error
	binary      *BinaryPrediction
	binaryErr   error
	typed       *TypePrediction
	typedErr    error
	binaryCalls int
	typeCalls   int
}

func (f *fakeClient) CheckHealth(ctx context.Context) (HealthStatus, error) {
	return f.health, f.healthErr
}

func (f *fakeClient) PredictBinary(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*BinaryPrediction, error) {
	f.binaryCalls++
	return f.binary, f.binaryErr
}

func (f *fakeClient) PredictType(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*TypePrediction, error) {
	f.typeCalls++
	return f.typed, f.typedErr
}

func (f *fakeClient) Close() error { return nil }

type fakeMachineSource struct {
	machine *models.Machine
	err     error
	calls   int
}

func (f *fakeMachineSource) GetByID(ctx context.Context, machineID string) (*models.Machine, error) {
	f.calls++
	return f.machine, f.err
}

func testMachine() *models.Machine {
	return &models.Machine{
		ID:     "6f1c2b3a-0000-7000-8000-00000000000a",
		Code:   "M-014",
		Name:   "CNC Mill 3",
		Type:   models.MachineTypeMedium,
		Status: models.MachineStatusActive,
	}
}

func newTestService(client Client, machines MachineSource) *Service {
	return NewService(ServiceConfig{
		Client:     client,
		Machines:   machines,
		Cache:      cache.New(),
		MachineTTL: 10 * time.Minute,
	})
}

func TestService_Predict_NoFailure(t *testing.T) {
	client := &fakeClient{
		binary: &BinaryPrediction{IsFailure: false, Probability: 0.04, Confidence: 0.96},
	}
	machines := &fakeMachineSource{machine: testMachine()}
	svc := newTestService(client, machines)

	result, err := svc.Predict(context.Background(), testReading())
	require.NoError(t, err)

	assert.False(t, result.IsFailure)
	assert.Equal(t, models.NoFailureType, result.FailureType)
	assert.Equal(t, 0.96, result.ConfidenceScore)
	assert.Equal(t, 0, client.typeCalls, "type model must not be consulted without a failure verdict")
	assert.Contains(t, result.Reason, "CNC Mill 3 (M-014)")
	assert.Contains(t, result.Reason, "operating normally")
	assert.Contains(t, result.Explanation, "binary_prediction")
	assert.NotContains(t, result.Explanation, "type_prediction")
}

func TestService_Predict_FailureMentionsToolWearRiskFactor(t *testing.T) {
	client := &fakeClient{
		binary: &BinaryPrediction{IsFailure: true, Probability: 0.88, Confidence: 0.9},
		typed:  &TypePrediction{FailureType: "Tool Wear Failure", Confidence: 0.82},
	}
	machines := &fakeMachineSource{machine: testMachine()}
	svc := newTestService(client, machines)

	reading := testReading()
	reading.ToolWearMin = 210

	result, err := svc.Predict(context.Background(), reading)
	require.NoError(t, err)

	assert.True(t, result.IsFailure)
	assert.Equal(t, "Tool Wear Failure", result.FailureType)
	assert.Equal(t, 0.82, result.ConfidenceScore)
	assert.Equal(t, 1, client.typeCalls)
	assert.Contains(t, result.Reason, "Tool Wear Failure")
	assert.Contains(t, result.Reason, "high tool wear (210 min)")
	assert.Contains(t, result.Explanation, "type_prediction")
}

func TestService_Predict_AmbiguousAddsCaveat(t *testing.T) {
	client := &fakeClient{
		binary: &BinaryPrediction{IsFailure: true, Probability: 0.7, Confidence: 0.7},
		typed:  &TypePrediction{FailureType: "Power Failure", Confidence: 0.41, Ambiguous: true},
	}
	svc := newTestService(client, &fakeMachineSource{machine: testMachine()})

	result, err := svc.Predict(context.Background(), testReading())
	require.NoError(t, err)

	assert.Contains(t, result.Reason, "ambiguous")
	assert.Contains(t, result.Reason, "manual verification")
}

func TestService_Predict_MachineCached(t *testing.T) {
	client := &fakeClient{
		binary: &BinaryPrediction{IsFailure: false, Probability: 0.1, Confidence: 0.9},
	}
	machines := &fakeMachineSource{machine: testMachine()}
	svc := newTestService(client, machines)

	_, err := svc.Predict(context.Background(), testReading())
	require.NoError(t, err)
	_, err = svc.Predict(context.Background(), testReading())
	require.NoError(t, err)

	assert.Equal(t, 1, machines.calls, "second prediction should hit the machine cache")
}

func TestService_Predict_MachineLookupFails(t *testing.T) {
	notFound := errors.New("machine not found")
	svc := newTestService(&fakeClient{}, &fakeMachineSource{err: notFound})

	_, err := svc.Predict(context.Background(), testReading())
	assert.ErrorIs(t, err, notFound)
}

func TestService_Predict_BinaryCallFails(t *testing.T) {
	client := &fakeClient{binaryErr: ErrServiceUnavailable}
	svc := newTestService(client, &fakeMachineSource{machine: testMachine()})

	_, err := svc.Predict(context.Background(), testReading())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 0, client.typeCalls)
}

func TestRiskFactors_AllThresholds(t *testing.T) {
	reading := &models.SensorReading{
		AirTemperatureK:     304.2,
		ProcessTemperatureK: 314.1,
		RotationalSpeedRPM:  1250,
		TorqueNm:            63.5,
		ToolWearMin:         215,
	}

	factors := riskFactors(reading)

	require.Len(t, factors, 5)
	assert.Contains(t, factors[0], "air temperature")
	assert.Contains(t, factors[1], "process temperature")
	assert.Contains(t, factors[2], "tool wear")
	assert.Contains(t, factors[3], "torque")
	assert.Contains(t, factors[4], "rotational speed")
}

func TestRiskFactors_NoneWithinLimits(t *testing.T) {
	assert.Empty(t, riskFactors(testReading()))
}
