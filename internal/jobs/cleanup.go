package jobs

import (
	"context"
	"fmt"

	"github.com/dukerupert/boutique/internal/domain"
)

// Job type constants for cleanup jobs
const (
	JobTypeCleanupExpiredSessions = "cleanup:expired_sessions"
)

// Queue names.
const (
	QueueEmail   = "email"
	QueueEvents  = "events"
	QueueCleanup = "cleanup"
)

// SessionCleaner removes sessions past their expiry.
type SessionCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewCleanupExpiredSessionsJob builds a session cleanup job. It is not retried;
// the next scheduled run picks up anything it missed.
func NewCleanupExpiredSessionsJob() *domain.Job {
	return &domain.Job{
		Type:        JobTypeCleanupExpiredSessions,
		Queue:       QueueCleanup,
		Payload:     []byte("{}"),
		MaxAttempts: 1,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	SessionsDeleted int64 `json:"sessions_deleted"`
}

// ProcessCleanupJob processes a cleanup job based on its type
func ProcessCleanupJob(ctx context.Context, job *domain.Job, sessions SessionCleaner) (*CleanupResult, error) {
	switch job.Type {
	case JobTypeCleanupExpiredSessions:
		n, err := sessions.DeleteExpired(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		return &CleanupResult{SessionsDeleted: n}, nil
	default:
		return nil, fmt.Errorf("unknown cleanup job type: %s", job.Type)
	}
}

// IsCleanupJob checks if a job type is a cleanup job
func IsCleanupJob(jobType string) bool {
	return jobType == JobTypeCleanupExpiredSessions
}
