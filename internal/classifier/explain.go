package classifier

import (
	"fmt"
	"strings"

	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// Operating thresholds beyond which a sensor value is called out as a
// risk factor in the prediction narrative.
const (
	airTemperatureHighK     = 303.0
	processTemperatureHighK = 313.0
	toolWearHighMin         = 200
	torqueHighNm            = 60.0
	rotationalSpeedLowRPM   = 1300
)

func normalReason(machine *models.Machine, binary *BinaryPrediction) string {
	return fmt.Sprintf(
		"Machine %s is operating normally. Failure probability is low (%.2f%%). All sensor parameters are within safe limits.",
		machine.Label(), binary.Probability*100,
	)
}

func failureReason(machine *models.Machine, reading *models.SensorReading, binary *BinaryPrediction, typed *TypePrediction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Machine %s is predicted to experience %s with %.2f%% confidence. ",
		machine.Label(), typed.FailureType, typed.Confidence*100)
	fmt.Fprintf(&b, "Failure probability: %.2f%%. ", binary.Probability*100)

	if factors := riskFactors(reading); len(factors) > 0 {
		fmt.Fprintf(&b, "Risk factors: %s.", strings.Join(factors, ", "))
	}

	if typed.Ambiguous {
		b.WriteString(" Caution: the failure type prediction is ambiguous; manual verification is recommended.")
	}

	return b.String()
}

// riskFactors lists the sensor values outside their safe operating
// thresholds, in a fixed order.
func riskFactors(reading *models.SensorReading) []string {
	var factors []string

	if reading.AirTemperatureK > airTemperatureHighK {
		factors = append(factors, fmt.Sprintf("high air temperature (%.1fK)", reading.AirTemperatureK))
	}
	if reading.ProcessTemperatureK > processTemperatureHighK {
		factors = append(factors, fmt.Sprintf("high process temperature (%.1fK)", reading.ProcessTemperatureK))
	}
	if reading.ToolWearMin > toolWearHighMin {
		factors = append(factors, fmt.Sprintf("high tool wear (%d min)", reading.ToolWearMin))
	}
	if reading.TorqueNm > torqueHighNm {
		factors = append(factors, fmt.Sprintf("high torque (%.1f Nm)", reading.TorqueNm))
	}
	if reading.RotationalSpeedRPM < rotationalSpeedLowRPM {
		factors = append(factors, fmt.Sprintf("low rotational speed (%d RPM)", reading.RotationalSpeedRPM))
	}

	return factors
}
