package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

const (
	healthPath        = "/api/v1/failure/health"
	predictBinaryPath = "/api/v1/failure/predict/binary"
	predictTypePath   = "/api/v1/failure/predict/type"
)

type HTTPClient struct {
	client  *http.Client
	baseURL string
}

type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
	}
}

// envelope is the typed JSON wrapper every classifier endpoint returns.
type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type healthData struct {
	BinaryModelLoaded      bool `json:"binary_model_loaded"`
	FailureTypeModelLoaded bool `json:"failure_type_model_loaded"`
}

// predictRequest is the body both prediction endpoints accept.
type predictRequest struct {
	ProductID          string  `json:"product_id"`
	Type               string  `json:"type"`
	AirTemperature     float64 `json:"air_temperature"`
	ProcessTemperature float64 `json:"process_temperature"`
	RotationalSpeed    int     `json:"rotational_speed"`
	Torque             float64 `json:"torque"`
	ToolWear           int     `json:"tool_wear"`
}

type binaryData struct {
	Prediction      *int    `json:"prediction"`
	PredictionLabel string  `json:"prediction_label"`
	Probability     float64 `json:"probability"`
	Confidence      float64 `json:"confidence"`
}

type typeData struct {
	Prediction    string             `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`
	Ambiguous     bool               `json:"ambiguous"`
	TopK          []ClassProb        `json:"top_k"`
}

func newPredictRequest(reading *models.SensorReading, machineType models.MachineType) predictRequest {
	return predictRequest{
		ProductID:          reading.ID,
		Type:               string(machineType),
		AirTemperature:     reading.AirTemperatureK,
		ProcessTemperature: reading.ProcessTemperatureK,
		RotationalSpeed:    reading.RotationalSpeedRPM,
		Torque:             reading.TorqueNm,
		ToolWear:           reading.ToolWearMin,
	}
}

func (c *HTTPClient) CheckHealth(ctx context.Context) (HealthStatus, error) {
	var data healthData
	if err := c.get(ctx, healthPath, &data); err != nil {
		return HealthStatus{}, err
	}

	return HealthStatus{
		BinaryModelLoaded: data.BinaryModelLoaded,
		TypeModelLoaded:   data.FailureTypeModelLoaded,
	}, nil
}

func (c *HTTPClient) PredictBinary(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*BinaryPrediction, error) {
	logger.WithReading(reading.ID).Debug("Requesting binary prediction")

	var data binaryData
	if err := c.post(ctx, predictBinaryPath, newPredictRequest(reading, machineType), &data); err != nil {
		return nil, err
	}

	if data.Prediction == nil || (*data.Prediction != 0 && *data.Prediction != 1) {
		return nil, fmt.Errorf("%w: binary prediction field missing or out of range", ErrInvalidResponse)
	}

	return &BinaryPrediction{
		IsFailure:   *data.Prediction == 1,
		Label:       data.PredictionLabel,
		Probability: data.Probability,
		Confidence:  data.Confidence,
	}, nil
}

func (c *HTTPClient) PredictType(ctx context.Context, reading *models.SensorReading, machineType models.MachineType) (*TypePrediction, error) {
	logger.WithReading(reading.ID).Debug("Requesting failure type prediction")

	var data typeData
	if err := c.post(ctx, predictTypePath, newPredictRequest(reading, machineType), &data); err != nil {
		return nil, err
	}

	if data.Prediction == "" {
		return nil, fmt.Errorf("%w: type prediction field missing", ErrInvalidResponse)
	}

	return &TypePrediction{
		FailureType:   data.Prediction,
		Probabilities: data.Probabilities,
		Confidence:    data.Confidence,
		Ambiguous:     data.Ambiguous,
		TopK:          data.TopK,
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", ErrServiceUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		if req.Context().Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status code %d", ErrServiceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrServiceUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if env.Data == nil {
		return fmt.Errorf("%w: envelope has no data", ErrInvalidResponse)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return nil
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
