package generator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/events"
	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// MachineLister supplies the machines to generate readings for.
type MachineLister interface {
	ListActive(ctx context.Context) ([]*models.Machine, error)
}

// ReadingWriter persists generated readings.
type ReadingWriter interface {
	Create(ctx context.Context, reading *models.SensorReading) error
}

// Operating ranges for synthetic sensor values.
const (
	airTempMinK  = 295.0
	airTempMaxK  = 305.0
	procTempMinK = 305.0
	procTempMaxK = 315.0
	speedMinRPM  = 1200
	speedMaxRPM  = 2000
	torqueMinNm  = 20.0
	torqueMaxNm  = 70.0
	toolWearMax  = 250
)

// stressChance is the fraction of readings skewed toward the top of
// their ranges so that the classifier sees failure-like inputs too.
const stressChance = 0.1

type Config struct {
	Machines  MachineLister
	Readings  ReadingWriter
	Publisher *events.Publisher
}

// Generator produces one synthetic sensor reading per active machine.
// A write failure for one machine never aborts the rest of the run.
type Generator struct {
	config Config
	mu     sync.Mutex
	rng    *rand.Rand
}

func New(cfg Config) *Generator {
	return &Generator{
		config: cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run generates a reading for every active machine.
func (g *Generator) Run(ctx context.Context) (*models.GenerationResult, error) {
	started := time.Now()

	machines, err := g.config.Machines.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		MachinesTotal: len(machines),
		StartedAt:     started,
	}

	for _, machine := range machines {
		if ctx.Err() != nil {
			result.Duration = time.Since(started)
			return result, ctx.Err()
		}

		reading := g.makeReading(machine)
		if err := g.config.Readings.Create(ctx, reading); err != nil {
			logger.WithMachine(machine.ID).Errorf("Failed to store generated reading: %v", err)
			g.config.Publisher.Error(machine.ID, "Failed to store generated reading", err)
			result.Failed++
			continue
		}

		result.ReadingsCreated++
		g.config.Publisher.ReadingGenerated(reading)
	}

	result.Duration = time.Since(started)
	g.config.Publisher.GenerationCompleted(result)

	logger.Infof("Generated %d readings for %d machines (%d failed)",
		result.ReadingsCreated, result.MachinesTotal, result.Failed)

	return result, nil
}

func (g *Generator) makeReading(machine *models.Machine) *models.SensorReading {
	g.mu.Lock()
	defer g.mu.Unlock()

	stressed := g.rng.Float64() < stressChance

	speed := g.intValue(speedMinRPM, speedMaxRPM, false)
	if stressed {
		// Stress shows up as low rotational speed, not high.
		speed = speedMinRPM + g.rng.Intn((speedMaxRPM-speedMinRPM)/4+1)
	}

	return &models.SensorReading{
		MachineID:           machine.ID,
		AirTemperatureK:     g.value(airTempMinK, airTempMaxK, stressed),
		ProcessTemperatureK: g.value(procTempMinK, procTempMaxK, stressed),
		RotationalSpeedRPM:  speed,
		TorqueNm:            g.value(torqueMinNm, torqueMaxNm, stressed),
		ToolWearMin:         g.intValue(0, toolWearMax, stressed),
	}
}

func (g *Generator) value(min, max float64, stressed bool) float64 {
	lo := min
	if stressed {
		// Sample from the top quarter of the range.
		lo = min + (max-min)*0.75
	}
	v := lo + g.rng.Float64()*(max-lo)
	return math.Round(v*100) / 100
}

func (g *Generator) intValue(min, max int, stressed bool) int {
	lo := min
	if stressed {
		lo = min + (max-min)*3/4
	}
	return lo + g.rng.Intn(max-lo+1)
}
