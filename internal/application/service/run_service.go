package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
)

// JobStatus represents the current state of a reconcile job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// DefaultJobRetention is how long finished jobs stay queryable before the
// background cleanup removes them.
const DefaultJobRetention = 24 * time.Hour

// ErrRunInProgress is returned when a run is requested while another one
// holds the single-flight lock.
var ErrRunInProgress = errors.New("a reconcile run is already in progress")

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// Runner starts one reconcile pass. *reconcile.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.RunSummary, error)
}

// Job is one reconcile run tracked by the service.
type Job struct {
	ID          string
	Status      JobStatus
	Options     reconcile.Options
	StartedAt   time.Time
	CompletedAt *time.Time
	Summary     *reconcile.RunSummary
	Error       string

	cancel context.CancelFunc
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed || j.Status == StatusCancelled
}

// RunService manages background reconcile jobs for the API.
//
// The dedup tracker is single-writer for the duration of a run, so the
// service admits one job at a time; a second request fails fast with
// ErrRunInProgress instead of queueing.
type RunService struct {
	runner Runner
	logger *slog.Logger

	jobs   map[string]*Job
	jobsMu sync.RWMutex

	runMu sync.Mutex

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewRunService creates a run service around the given runner.
func NewRunService(runner Runner, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{
		runner: runner,
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// StartRun launches a reconcile run in the background and returns its job id.
// The request context is NOT the job's parent: the job keeps running after
// the HTTP request completes, and CancelRun is the way to stop it.
func (s *RunService) StartRun(_ context.Context, opts reconcile.Options) (string, error) {
	if !s.runMu.TryLock() {
		return "", ErrRunInProgress
	}

	jobID := uuid.NewString()
	jobCtx, cancel := context.WithCancel(context.Background())

	job := &Job{
		ID:        jobID,
		Status:    StatusPending,
		Options:   opts,
		StartedAt: time.Now(),
		cancel:    cancel,
	}

	s.jobsMu.Lock()
	s.jobs[jobID] = job
	s.jobsMu.Unlock()

	go s.execute(jobCtx, jobID, opts)

	s.logger.Info("reconcile job started",
		"job_id", jobID,
		"retailer", opts.Retailer,
		"dry_run", opts.DryRun,
		"lookback_days", opts.LookbackDays,
	)

	return jobID, nil
}

// GetJob returns a snapshot of a job by id.
func (s *RunService) GetJob(jobID string) (Job, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *job, nil
}

// ListJobs returns snapshots of all tracked jobs, newest first.
func (s *RunService) ListJobs() []Job {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.After(jobs[j].StartedAt) })
	return jobs
}

// CancelRun cancels a pending or running job.
func (s *RunService) CancelRun(jobID string) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Finished() {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancel()
	now := time.Now()
	job.Status = StatusCancelled
	job.CompletedAt = &now

	s.logger.Info("reconcile job cancelled", "job_id", jobID)
	return nil
}

// execute runs the job in a background goroutine.
func (s *RunService) execute(ctx context.Context, jobID string, opts reconcile.Options) {
	defer s.runMu.Unlock()

	s.setStatus(jobID, StatusRunning)

	summary, err := s.runner.Run(ctx, opts)
	if err != nil {
		if ctx.Err() == context.Canceled {
			// CancelRun already marked the job
			return
		}
		s.failJob(jobID, err, summary)
		return
	}

	s.completeJob(jobID, summary)
}

// setStatus moves a job to a non-terminal status. A job that already
// finished (cancelled between StartRun and here) keeps its terminal status.
func (s *RunService) setStatus(jobID string, status JobStatus) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if job, exists := s.jobs[jobID]; exists && !job.Finished() {
		job.Status = status
	}
}

func (s *RunService) completeJob(jobID string, summary *reconcile.RunSummary) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if job, exists := s.jobs[jobID]; exists && !job.Finished() {
		now := time.Now()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.Summary = summary
		s.logger.Info("reconcile job completed",
			"job_id", jobID,
			"updated", summary.Stats.Updated,
			"skipped_already_processed", summary.Stats.SkippedAlreadyProcessed,
			"skipped_low_confidence", summary.Stats.SkippedLowConfidence,
			"failed", summary.Stats.Failed,
		)
	}
}

// failJob marks a job as failed. A partial summary, when the run produced
// one before aborting, stays attached for inspection.
func (s *RunService) failJob(jobID string, runErr error, summary *reconcile.RunSummary) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if job, exists := s.jobs[jobID]; exists && !job.Finished() {
		now := time.Now()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = runErr.Error()
		job.Summary = summary
		s.logger.Error("reconcile job failed", "job_id", jobID, "error", runErr)
	}
}

// CleanupOldJobs removes finished jobs older than maxAge and returns how
// many were dropped.
func (s *RunService) CleanupOldJobs(maxAge time.Duration) int {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, job := range s.jobs {
		if job.Finished() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up old reconcile jobs", "removed", removed)
	}
	return removed
}

// StartBackgroundCleanup starts a goroutine that periodically drops old
// finished jobs. Call StopBackgroundCleanup to stop it.
func (s *RunService) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.cleanupStop:
				return
			case <-ticker.C:
				s.CleanupOldJobs(DefaultJobRetention)
			}
		}
	}()
}

// StopBackgroundCleanup stops the cleanup goroutine and waits for it to exit.
func (s *RunService) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}
	close(s.cleanupStop)
	<-s.cleanupDone
}
