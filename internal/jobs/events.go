package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/events"
)

// Job type constants for event jobs
const (
	JobTypeOrderPlaced = "event:order_placed"
)

// NewOrderPlacedJob builds the job that publishes events.OrderPlaced once the
// order is committed.
func NewOrderPlacedJob(order *domain.Order) (*domain.Job, error) {
	evt := events.OrderPlaced{
		OrderID: order.ID,
		UserID:  order.UserID,
		Total:   order.Total().StringFixed(2),
	}
	for _, item := range order.Items {
		evt.Units += item.Quantity
		if item.VariantID != nil {
			evt.VariantIDs = append(evt.VariantIDs, *item.VariantID)
		}
	}

	payloadJSON, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &domain.Job{
		Type:        JobTypeOrderPlaced,
		Queue:       QueueEvents,
		Payload:     payloadJSON,
		MaxAttempts: 10,
	}, nil
}

// ProcessEventJob publishes the event carried by job.
func ProcessEventJob(ctx context.Context, job *domain.Job, publisher events.Publisher) error {
	switch job.Type {
	case JobTypeOrderPlaced:
		var evt events.OrderPlaced
		if err := json.Unmarshal(job.Payload, &evt); err != nil {
			return fmt.Errorf("failed to unmarshal order placed payload: %w", err)
		}
		return events.PublishJSON(ctx, publisher, events.SubjectOrderPlaced, evt)

	default:
		return fmt.Errorf("unknown event job type: %s", job.Type)
	}
}

// IsEventJob checks if a job type is an event job
func IsEventJob(jobType string) bool {
	return jobType == JobTypeOrderPlaced
}
