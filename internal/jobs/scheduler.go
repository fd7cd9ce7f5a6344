package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	cleanupJob    *CleanupJob
	checkpointJob *CheckpointJob

	cleanupInterval    time.Duration
	checkpointInterval time.Duration
}

// NewScheduler creates a scheduler. A zero interval disables that job.
func NewScheduler(cleanup *CleanupJob, cleanupInterval time.Duration, checkpoint *CheckpointJob, checkpointInterval time.Duration, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:             logger,
		ctx:                ctx,
		cancel:             cancel,
		cleanupJob:         cleanup,
		checkpointJob:      checkpoint,
		cleanupInterval:    cleanupInterval,
		checkpointInterval: checkpointInterval,
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// scheduledJob is a job bound to its interval.
type scheduledJob struct {
	name     string
	interval time.Duration
	run      func() error
}

// Start begins all background jobs. Every enabled job runs once right away,
// one after another, and then on its own ticker.
func (s *Scheduler) Start() error {
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}
	s.isRunning = true

	var scheduled []scheduledJob
	if s.cleanupJob != nil && s.cleanupInterval > 0 {
		scheduled = append(scheduled, scheduledJob{"cleanup", s.cleanupInterval, func() error {
			_, err := s.cleanupJob.Run(s.ctx)
			return err
		}})
	}
	if s.checkpointJob != nil && s.checkpointInterval > 0 {
		scheduled = append(scheduled, scheduledJob{"checkpoint", s.checkpointInterval, s.checkpointJob.Run})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, job := range scheduled {
			if s.ctx.Err() != nil {
				return
			}
			s.executeJobSafely(job.name, job.run)
		}
	}()
	for _, job := range scheduled {
		s.every(job)
	}

	s.logger.Info("Background jobs started",
		slog.Duration("cleanup_interval", s.cleanupInterval),
		slog.Duration("checkpoint_interval", s.checkpointInterval))
	return nil
}

// every runs job on each tick until Stop.
func (s *Scheduler) every(job scheduledJob) {
	ticker := time.NewTicker(job.interval)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(job.name, job.run)
			case <-s.ctx.Done():
				s.logger.Debug("Background job stopped", slog.String("job", job.name))
				return
			}
		}
	}()
}

// Stop halts all background jobs and waits for a running one to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}
