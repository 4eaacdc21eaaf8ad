package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/email"
	"github.com/dukerupert/boutique/internal/events"
	"github.com/dukerupert/boutique/internal/jobs"
	"github.com/dukerupert/boutique/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for new jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int

	// Queue name to process (empty string = all queues)
	Queue string

	// JobTimeout bounds a single job run
	JobTimeout time.Duration

	// CleanupInterval schedules session cleanup (0 disables it)
	CleanupInterval time.Duration
}

// Worker processes background jobs
type Worker struct {
	config    Config
	store     domain.JobStore
	email     *email.Service
	publisher events.Publisher
	sessions  jobs.SessionCleaner
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger

	wg sync.WaitGroup
}

// Deps are the collaborators a worker dispatches to.
type Deps struct {
	Store     domain.JobStore
	Email     *email.Service
	Publisher events.Publisher
	Sessions  jobs.SessionCleaner
	Metrics   *telemetry.BusinessMetrics
}

// NewWorker creates a new background job worker
func NewWorker(deps Deps, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:    config,
		store:     deps.Store,
		email:     deps.Email,
		publisher: deps.Publisher,
		sessions:  deps.Sessions,
		metrics:   deps.Metrics,
		logger:    logger.With("worker_id", config.WorkerID),
	}
}

// Start processes jobs until ctx is cancelled, then waits for in-flight jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"queue", w.config.Queue,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	var cleanup <-chan time.Time
	if w.config.CleanupInterval > 0 && w.sessions != nil {
		t := time.NewTicker(w.config.CleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			w.wg.Wait()
			return ctx.Err()

		case <-cleanup:
			if err := w.store.EnqueueJob(ctx, jobs.NewCleanupExpiredSessionsJob()); err != nil {
				w.logger.Error("failed to schedule session cleanup", "error", err)
			}

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.claimAndProcess(ctx)
				}()
			default:
				// at max concurrency, skip this poll
			}
		}
	}
}

// claimAndProcess claims and processes a single job. It reports whether a job was found.
func (w *Worker) claimAndProcess(ctx context.Context) bool {
	job, err := w.store.ClaimJob(ctx, w.config.WorkerID, w.config.Queue)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("failed to claim job", "error", err)
		}
		return false
	}
	if job == nil {
		return false
	}

	w.logger.Info("processing job",
		"job_id", job.ID,
		"job_type", job.Type,
		"attempt", job.Attempts,
	)

	start := time.Now()
	err = w.processJob(ctx, job)
	if w.metrics != nil {
		w.metrics.JobDuration.WithLabelValues(job.Type).Observe(time.Since(start).Seconds())
	}

	// Finish bookkeeping even if the worker is shutting down.
	doneCtx := context.WithoutCancel(ctx)

	if err != nil {
		w.logger.Error("job failed",
			"job_id", job.ID,
			"job_type", job.Type,
			"error", err,
		)
		if w.metrics != nil {
			w.metrics.JobsFailed.WithLabelValues(job.Type).Inc()
		}
		if ferr := w.store.FailJob(doneCtx, job.ID, err); ferr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", ferr)
		}
		return true
	}

	w.logger.Info("job completed", "job_id", job.ID, "job_type", job.Type)
	if w.metrics != nil {
		w.metrics.JobsProcessed.WithLabelValues(job.Type).Inc()
	}
	if cerr := w.store.CompleteJob(doneCtx, job.ID); cerr != nil {
		w.logger.Error("failed to complete job", "job_id", job.ID, "error", cerr)
	}
	return true
}

// processJob processes a single job
func (w *Worker) processJob(ctx context.Context, job *domain.Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()

	switch {
	case jobs.IsEmailJob(job.Type):
		if w.email == nil {
			return fmt.Errorf("email service not configured")
		}
		err := jobs.ProcessEmailJob(jobCtx, job, w.email, w.logger)
		w.countEmail(job.Type, err)
		return err

	case jobs.IsEventJob(job.Type):
		if w.publisher == nil {
			return fmt.Errorf("event publisher not configured")
		}
		return jobs.ProcessEventJob(jobCtx, job, w.publisher)

	case jobs.IsCleanupJob(job.Type):
		if w.sessions == nil {
			return fmt.Errorf("session cleaner not configured")
		}
		result, err := jobs.ProcessCleanupJob(jobCtx, job, w.sessions)
		if err != nil {
			return err
		}
		w.logger.Info("expired sessions removed", "count", result.SessionsDeleted)
		return nil
	}

	return fmt.Errorf("unknown job type: %s", job.Type)
}

func (w *Worker) countEmail(jobType string, err error) {
	if w.metrics == nil {
		return
	}
	if err != nil {
		w.metrics.EmailFailed.WithLabelValues(jobType).Inc()
		return
	}
	w.metrics.EmailSent.WithLabelValues(jobType).Inc()
}
