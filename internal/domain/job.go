package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Job is a unit of background work. Jobs enqueued inside a checkout
// transaction only become visible once the order commits.
type Job struct {
	ID          int64
	Type        string
	Queue       string
	Payload     json.RawMessage
	Attempts    int
	MaxAttempts int
	RunAt       time.Time
}

// JobStore is the queue the worker drains.
type JobStore interface {
	EnqueueJob(ctx context.Context, job *Job) error

	// ClaimJob locks the next runnable job for workerID. It returns nil, nil when
	// the queue is empty.
	ClaimJob(ctx context.Context, workerID, queue string) (*Job, error)

	CompleteJob(ctx context.Context, id int64) error

	// FailJob records the error and either reschedules the job or marks it failed
	// once its attempts are exhausted.
	FailJob(ctx context.Context, id int64, jobErr error) error
}
