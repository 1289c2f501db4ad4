package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("sync scheduler is not running")
	// ErrJobQueueFull means a manual job is already waiting to start
	ErrJobQueueFull   = errors.New("a manual sync is already queued")
	ErrSyncInProgress = errors.New("a sync job is already in progress")
	ErrInvalidConfig  = errors.New("invalid scheduler configuration")
)

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Enabled indicates if periodic runs are enabled; manual triggers work either way
	Enabled bool
	// Interval between full cycles of every sync type
	Interval time.Duration
	// StockInterval between stock-only runs, 0 disables them
	StockInterval time.Duration
	// InitialDelay before the startup cycle
	InitialDelay time.Duration
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// FullOnStartup ignores the stored windows for the startup cycle
	FullOnStartup bool
}

// SyncSchedulerConfigFrom maps the application configuration
func SyncSchedulerConfigFrom(cfg config.SchedulerConfig) SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:       cfg.Enabled,
		Interval:      cfg.Interval,
		StockInterval: cfg.StockInterval,
		InitialDelay:  cfg.InitialDelay,
		JobTimeout:    cfg.RunTimeout,
		FullOnStartup: cfg.FullOnStartup,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	switch {
	case c.Interval <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	case c.StockInterval < 0:
		return fmt.Errorf("%w: negative stock interval", ErrInvalidConfig)
	case c.InitialDelay < 0:
		return fmt.Errorf("%w: negative initial delay", ErrInvalidConfig)
	}
	return nil
}

// SyncScheduler runs sync jobs one at a time on a single goroutine. Ticks that
// arrive while a job runs are coalesced by the tickers; manual triggers are
// rejected while a job runs.
type SyncScheduler struct {
	config   SyncSchedulerConfig
	executor SyncExecutor
	logger   *zap.Logger

	manual    chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	busy      bool
	current   *SyncJob

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, executor SyncExecutor, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		manual:     make(chan *SyncJob, 1),
		history:    make([]*SyncJob, 0, 50),
		maxHistory: 50,
	}, nil
}

// Start starts the scheduler loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Bool("periodic", s.config.Enabled),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("stock_interval", s.config.StockInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels the running job and waits for the loop to exit
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger queues a manual job and returns a snapshot of it as queued.
// Empty types run the full cycle.
func (s *SyncScheduler) Trigger(types []integration.SyncType, full bool) (*SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil, ErrSchedulerNotRunning
	}
	if s.busy {
		return nil, ErrSyncInProgress
	}

	job := NewSyncJob(TriggerManual, types, full)
	queued := *job
	select {
	case s.manual <- job:
		s.logger.Debug("Manual sync job queued", zap.String("job_id", job.ID.String()))
		return &queued, nil
	default:
		return nil, ErrJobQueueFull
	}
}

// Current returns a snapshot of the running job, nil when idle
func (s *SyncScheduler) Current() *SyncJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *SyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	var (
		startup  <-chan time.Time
		interval <-chan time.Time
		stock    <-chan time.Time
	)
	if s.config.Enabled {
		startupTimer := time.NewTimer(s.config.InitialDelay)
		defer startupTimer.Stop()
		startup = startupTimer.C

		intervalTicker := time.NewTicker(s.config.Interval)
		defer intervalTicker.Stop()
		interval = intervalTicker.C

		if s.config.StockInterval > 0 {
			stockTicker := time.NewTicker(s.config.StockInterval)
			defer stockTicker.Stop()
			stock = stockTicker.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-startup:
			s.runJob(ctx, NewSyncJob(TriggerStartup, nil, s.config.FullOnStartup))
		case <-interval:
			s.runJob(ctx, NewSyncJob(TriggerInterval, nil, false))
		case <-stock:
			s.runJob(ctx, NewSyncJob(TriggerStock, []integration.SyncType{integration.SyncTypeStock}, false))
		case job := <-s.manual:
			s.runJob(ctx, job)
		}
	}
}

// setCurrent publishes a snapshot of the started job; the loop keeps mutating
// the original.
func (s *SyncScheduler) setCurrent(job *SyncJob) {
	var snapshot *SyncJob
	if job != nil {
		copied := *job
		snapshot = &copied
	}
	s.mu.Lock()
	s.busy = job != nil
	s.current = snapshot
	s.mu.Unlock()
}

// runJob executes a single job on the loop goroutine
func (s *SyncScheduler) runJob(ctx context.Context, job *SyncJob) {
	job.Start()
	s.setCurrent(job)
	defer s.setCurrent(nil)

	log := s.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", string(job.Trigger)),
		zap.Bool("full", job.Full),
	)
	log.Info("Processing sync job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	results, err := s.executor.Execute(jobCtx, job)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		job.Skip(err.Error())
		log.Info("Sync job skipped, another sync is running")
	case err != nil:
		job.Fail(results, err.Error())
		log.Error("Sync job failed", zap.Error(err))
	default:
		job.Complete(results)
		log.Info("Sync job completed",
			zap.String("status", string(job.Status)),
			zap.Int("total_items", job.TotalItems),
			zap.Int("failed_items", job.FailedItems),
			zap.Duration("duration", job.Duration()),
		)
	}

	s.addToHistory(job)
}

// addToHistory adds a finished job to history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent jobs, newest first
func (s *SyncScheduler) GetJobHistory(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}
