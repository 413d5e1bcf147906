package events

import (
	"fmt"

	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) BatchStarted(pending int) {
	msg := fmt.Sprintf("Batch processing started: %d readings pending", pending)
	event := models.NewEvent(models.EventTypeBatchStarted, "", msg).
		WithData(map[string]interface{}{"pending": pending})
	p.publish(event)
}

func (p *Publisher) BatchCompleted(result *models.BatchResult) {
	msg := fmt.Sprintf("Batch processing complete: %d/%d succeeded", result.Successful, result.Total)
	event := models.NewEvent(models.EventTypeBatchCompleted, "", msg).
		WithData(result)

	if result.Failed > 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) PredictionCreated(prediction *models.Prediction) {
	msg := "Prediction created"
	event := models.NewEvent(models.EventTypePredictionCreated, prediction.MachineID, msg).
		WithData(prediction)

	if prediction.IsFailure {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) PredictionFailed(machineID, readingID string, err error) {
	msg := "Prediction failed for reading " + readingID
	event := models.NewEvent(models.EventTypePredictionFailed, machineID, msg).
		WithSeverity(models.SeverityWarning).
		WithData(map[string]interface{}{
			"reading_id": readingID,
			"error":      err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) ReadingGenerated(reading *models.SensorReading) {
	event := models.NewEvent(models.EventTypeReadingGenerated, reading.MachineID, "Reading generated").
		WithData(reading)
	p.publish(event)
}

func (p *Publisher) GenerationCompleted(result *models.GenerationResult) {
	msg := fmt.Sprintf("Data generation complete: %d readings for %d machines",
		result.ReadingsCreated, result.MachinesTotal)
	event := models.NewEvent(models.EventTypeGenerationCompleted, "", msg).
		WithData(result)

	if result.Failed > 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) Alert(machineID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, machineID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(machineID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, machineID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
