package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinemind/predictive-maintenance/pkg/models"
)

type countingRunner struct {
	runs atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context) (*models.BatchResult, error) {
	r.runs.Add(1)
	return &models.BatchResult{}, nil
}

type countingGenerator struct {
	runs atomic.Int32
}

func (g *countingGenerator) Run(ctx context.Context) (*models.GenerationResult, error) {
	g.runs.Add(1)
	return &models.GenerationResult{}, nil
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	runner := &countingRunner{}
	gen := &countingGenerator{}

	s := New(Config{
		ProcessInterval:  time.Hour,
		GenerateInterval: time.Hour,
		Processor:        runner,
		Generator:        gen,
	})

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runner.runs.Load() == 1 && gen.runs.Load() == 1
	}, time.Second, time.Millisecond)
}

func TestSchedulerTicks(t *testing.T) {
	runner := &countingRunner{}

	s := New(Config{
		ProcessInterval: 10 * time.Millisecond,
		Processor:       runner,
	})

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runner.runs.Load() >= 3
	}, time.Second, time.Millisecond)
}

func TestSchedulerStopWaitsForLoops(t *testing.T) {
	runner := &countingRunner{}

	s := New(Config{
		ProcessInterval: time.Hour,
		Processor:       runner,
	})

	s.Start()
	require.Eventually(t, func() bool {
		return runner.runs.Load() == 1
	}, time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	// No more runs once stopped.
	count := runner.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, count, runner.runs.Load())
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	runner := &countingRunner{}

	s := New(Config{
		ProcessInterval: time.Hour,
		Processor:       runner,
	})

	s.Start()
	s.Start()
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}
