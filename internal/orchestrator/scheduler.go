package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/pkg/models"
)

var ErrSchedulerStopped = errors.New("scheduler is stopped")

// RunFunc executes one run. *Runner.Run satisfies it.
type RunFunc func(ctx context.Context) *models.RunResult

type SchedulerConfig struct {
	Interval   time.Duration
	RunTimeout time.Duration
	// Enabled false keeps the scheduler idle; manual triggers still run
	Enabled bool
	Run     RunFunc
	// OnResult is called after every run, scheduled or manual
	OnResult func(result *models.RunResult)
}

// Scheduler triggers runs on a fixed interval and serializes them with
// manual triggers, so at most one run is in flight.
type Scheduler struct {
	config SchedulerConfig
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	runMu sync.Mutex

	mu      sync.RWMutex
	running bool
	last    *models.RunResult
	count   int
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.RunTimeout <= 0 || cfg.RunTimeout >= cfg.Interval {
		cfg.RunTimeout = cfg.Interval - cfg.Interval/10
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return ErrSchedulerStopped
	}
	if s.running || !s.config.Enabled {
		return nil
	}

	s.running = true
	s.wg.Add(1)
	go s.loop()

	logger.Infof("Scheduler started (interval %s, run timeout %s)", s.config.Interval, s.config.RunTimeout)
	return nil
}

// Stop cancels any in-flight run and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	if wasRunning {
		logger.Info("Scheduler stopped")
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.runScheduled()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled()
		}
	}
}

func (s *Scheduler) runScheduled() {
	traceID := models.NewUUID()
	ctx := logger.WithTraceID(s.ctx, traceID)
	if _, err := s.Trigger(ctx); err != nil && !errors.Is(err, ErrSchedulerStopped) {
		logger.Errorf("Scheduled run failed to start: %v", err)
	}
}

// Trigger runs now, waiting for any in-flight run to finish first. The run is
// bounded by the configured run timeout and by ctx.
func (s *Scheduler) Trigger(ctx context.Context) (*models.RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.ctx.Err() != nil {
		return nil, ErrSchedulerStopped
	}

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	result := s.config.Run(runCtx)

	s.mu.Lock()
	s.last = result
	s.count++
	s.mu.Unlock()

	if s.config.OnResult != nil {
		s.config.OnResult(result)
	}

	return result, nil
}

// LastResult returns the most recent completed run, or nil before the first
func (s *Scheduler) LastResult() *models.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
