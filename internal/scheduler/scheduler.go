package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/machinemind/predictive-maintenance/internal/logger"
	"github.com/machinemind/predictive-maintenance/internal/processor"
	"github.com/machinemind/predictive-maintenance/pkg/models"
)

// BatchRunner runs one batch-processing pass.
type BatchRunner interface {
	Run(ctx context.Context) (*models.BatchResult, error)
}

// DataGenerator runs one synthetic-data generation pass.
type DataGenerator interface {
	Run(ctx context.Context) (*models.GenerationResult, error)
}

type Config struct {
	ProcessInterval  time.Duration
	GenerateInterval time.Duration
	Processor        BatchRunner
	Generator        DataGenerator
}

// Scheduler drives the pipeline: a fast loop for batch processing and a
// slow loop for data generation. Both fire once immediately on start.
type Scheduler struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func New(cfg Config) *Scheduler {
	if cfg.ProcessInterval == 0 {
		cfg.ProcessInterval = 5 * time.Minute
	}
	if cfg.GenerateInterval == 0 {
		cfg.GenerateInterval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.wg.Add(1)
	go s.processLoop()

	if s.config.Generator != nil {
		s.wg.Add(1)
		go s.generateLoop()
	}

	logger.Infof("Scheduler started (process every %s, generate every %s)",
		s.config.ProcessInterval, s.config.GenerateInterval)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	logger.Info("Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) processLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.ProcessInterval)
	defer ticker.Stop()

	// Run immediately on start
	s.runProcessor()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runProcessor()
		}
	}
}

func (s *Scheduler) generateLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.GenerateInterval)
	defer ticker.Stop()

	s.runGenerator()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runGenerator()
		}
	}
}

func (s *Scheduler) runProcessor() {
	if _, err := s.config.Processor.Run(s.ctx); err != nil {
		if errors.Is(err, processor.ErrAlreadyRunning) {
			logger.Warn("Skipping scheduled batch run, previous run still in flight")
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Errorf("Scheduled batch run failed: %v", err)
	}
}

func (s *Scheduler) runGenerator() {
	if _, err := s.config.Generator.Run(s.ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Errorf("Scheduled data generation failed: %v", err)
	}
}
