// Package scheduler runs maintenance jobs such as the nightly ledger reconciliation sweep.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrJobRunning is returned by RunNow while a run of the same job is in progress
var ErrJobRunning = errors.New("job is already running")

// Job is the unit of work a DailyTrigger runs
type Job func(ctx context.Context) error

// DailyTriggerConfig holds the wall-clock time of the daily run
type DailyTriggerConfig struct {
	Hour   int
	Minute int

	// CheckInterval is how often the clock is compared with Hour:Minute
	CheckInterval time.Duration
}

// DefaultDailyTriggerConfig returns a 03:00 schedule checked every minute
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          3,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// RunInfo describes the last completed run
type RunInfo struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Err         error
}

// DailyTrigger runs a job once per day at a fixed wall-clock time
type DailyTrigger struct {
	name   string
	config DailyTriggerConfig
	job    Job
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	jobActive   bool
	lastRunDate string
	lastRun     RunInfo
}

// NewDailyTrigger creates a new trigger for job
func NewDailyTrigger(name string, config DailyTriggerConfig, job Job, logger *zap.Logger) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultDailyTriggerConfig().CheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		name:   name,
		config: config,
		job:    job,
		logger: logger.With(zap.String("job", name)),
		now:    time.Now,
	}
}

// Start launches the check loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily trigger started",
		zap.Int("hour", d.config.Hour),
		zap.Int("minute", d.config.Minute),
		zap.Duration("check_interval", d.config.CheckInterval),
	)
	return nil
}

// Stop cancels the loop and waits for an in-flight run, bounded by ctx
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs the job immediately, outside the schedule
func (d *DailyTrigger) RunNow(ctx context.Context) error {
	d.mu.Lock()
	if d.jobActive {
		d.mu.Unlock()
		return ErrJobRunning
	}
	d.jobActive = true
	d.mu.Unlock()

	return d.execute(ctx)
}

// LastRun returns the outcome of the most recent run
func (d *DailyTrigger) LastRun() RunInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRun
}

func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the job when the clock reaches Hour:Minute, at most once per date
func (d *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := d.now()
	currentDate := now.Format("2006-01-02")

	d.mu.Lock()
	if d.lastRunDate == currentDate || d.jobActive {
		d.mu.Unlock()
		return false
	}
	if now.Hour() != d.config.Hour || now.Minute() != d.config.Minute {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = currentDate
	d.jobActive = true
	d.mu.Unlock()

	d.logger.Info("Triggering scheduled run")
	_ = d.execute(ctx)
	return true
}

// execute runs the job; the caller has set jobActive
func (d *DailyTrigger) execute(ctx context.Context) error {
	info := RunInfo{StartedAt: d.now()}
	err := d.job(ctx)
	info.CompletedAt = d.now()
	info.Err = err

	d.mu.Lock()
	d.jobActive = false
	d.lastRun = info
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("Scheduled job failed",
			zap.Duration("duration", info.CompletedAt.Sub(info.StartedAt)),
			zap.Error(err),
		)
		return err
	}
	d.logger.Info("Scheduled job completed",
		zap.Duration("duration", info.CompletedAt.Sub(info.StartedAt)),
	)
	return nil
}
