package postgres

import (
	"context"
	"time"

	"github.com/dukerupert/boutique/internal/domain"
)

// JobStore implements domain.JobStore on the jobs table.
type JobStore struct {
	db DBTX
}

var _ domain.JobStore = (*JobStore)(nil)

func NewJobStore(db DBTX) *JobStore {
	return &JobStore{db: db}
}

// retryBackoff is the delay before attempt n+1.
func retryBackoff(attempts int) time.Duration {
	d := time.Duration(attempts*attempts) * 30 * time.Second
	if d > time.Hour {
		return time.Hour
	}
	return d
}

func enqueueJob(ctx context.Context, db DBTX, job *domain.Job) error {
	if job.Queue == "" {
		job.Queue = "default"
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = 3
	}
	if len(job.Payload) == 0 {
		job.Payload = []byte("{}")
	}
	if job.RunAt.IsZero() {
		job.RunAt = time.Now()
	}

	err := db.QueryRow(ctx, `
		INSERT INTO jobs (job_type, queue, payload, max_attempts, run_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		job.Type, job.Queue, []byte(job.Payload), job.MaxAttempts, job.RunAt,
	).Scan(&job.ID)
	if err != nil {
		return domain.Internal(err, "job.enqueue", "failed to enqueue job")
	}
	return nil
}

// EnqueueJob adds a job outside any checkout transaction.
func (s *JobStore) EnqueueJob(ctx context.Context, job *domain.Job) error {
	return enqueueJob(ctx, s.db, job)
}

// ClaimJob locks the oldest runnable job. Concurrent workers skip rows
// another worker already holds.
func (s *JobStore) ClaimJob(ctx context.Context, workerID, queue string) (*domain.Job, error) {
	var (
		job     domain.Job
		payload []byte
	)
	err := s.db.QueryRow(ctx, `
		UPDATE jobs
		SET status = 'processing', locked_by = $1, locked_at = NOW(),
		    attempts = attempts + 1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM jobs
			WHERE queue = $2 AND status = 'pending' AND run_at <= NOW()
			ORDER BY run_at, id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, job_type, queue, payload, attempts, max_attempts, run_at`,
		workerID, queue,
	).Scan(&job.ID, &job.Type, &job.Queue, &payload, &job.Attempts, &job.MaxAttempts, &job.RunAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, domain.Internal(err, "job.claim", "failed to claim job")
	}
	job.Payload = payload
	return &job, nil
}

func (s *JobStore) CompleteJob(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE jobs SET status = 'completed', locked_by = NULL, locked_at = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "job.complete", "failed to complete job")
	}
	return nil
}

// FailJob reschedules the job with a growing delay until max_attempts is reached.
func (s *JobStore) FailJob(ctx context.Context, id int64, jobErr error) error {
	var attempts, maxAttempts int
	err := s.db.QueryRow(ctx, `SELECT attempts, max_attempts FROM jobs WHERE id = $1`, id).
		Scan(&attempts, &maxAttempts)
	if err != nil {
		if isNoRows(err) {
			return domain.NotFound("job.fail", "job", "")
		}
		return domain.Internal(err, "job.fail", "failed to load job")
	}

	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}

	if attempts >= maxAttempts {
		_, err = s.db.Exec(ctx, `
			UPDATE jobs SET status = 'failed', last_error = $2, locked_by = NULL, locked_at = NULL, updated_at = NOW()
			WHERE id = $1`, id, msg)
	} else {
		_, err = s.db.Exec(ctx, `
			UPDATE jobs SET status = 'pending', last_error = $2, run_at = $3,
			                locked_by = NULL, locked_at = NULL, updated_at = NOW()
			WHERE id = $1`, id, msg, time.Now().Add(retryBackoff(attempts)))
	}
	if err != nil {
		return domain.Internal(err, "job.fail", "failed to record job failure")
	}
	return nil
}
