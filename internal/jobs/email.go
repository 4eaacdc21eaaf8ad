package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/email"
)

// Job type constants for email jobs
const (
	JobTypeOrderConfirmation = "email:order_confirmation"
)

// OrderConfirmationPayload represents the payload for an order confirmation email job.
// Money is carried as two-decimal strings.
type OrderConfirmationPayload struct {
	OrderID       int64              `json:"order_id"`
	Email         string             `json:"email"`
	Deliver       bool               `json:"deliver"` // false when the customer left no address
	CustomerName  string             `json:"customer_name"`
	OrderDate     time.Time          `json:"order_date"`
	Items         []OrderItemPayload `json:"items"`
	Subtotal      string             `json:"subtotal"`
	Shipping      string             `json:"shipping"`
	Tax           string             `json:"tax"`
	Total         string             `json:"total"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	Country       string             `json:"country"`
	PaymentMethod string             `json:"payment_method"`
}

// OrderItemPayload is one line of the confirmation.
type OrderItemPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// NewOrderConfirmationJob builds the confirmation job for a freshly created
// order. order.Items must already be populated.
func NewOrderConfirmationJob(order *domain.Order, deliver bool) (*domain.Job, error) {
	payload := OrderConfirmationPayload{
		OrderID:       order.ID,
		Email:         order.Email,
		Deliver:       deliver,
		CustomerName:  order.FullName,
		OrderDate:     order.CreatedAt,
		Subtotal:      order.TotalPrice.StringFixed(2),
		Shipping:      order.ShippingCost.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Total:         order.Total().StringFixed(2),
		Address:       order.Address,
		City:          order.City,
		Country:       order.Country,
		PaymentMethod: order.PaymentMethod,
	}
	if payload.OrderDate.IsZero() {
		payload.OrderDate = time.Now()
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, OrderItemPayload{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Total:    item.LineTotal().StringFixed(2),
		})
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &domain.Job{
		Type:        JobTypeOrderConfirmation,
		Queue:       QueueEmail,
		Payload:     payloadJSON,
		MaxAttempts: 5,
	}, nil
}

// ProcessEmailJob processes an email job based on its type
func ProcessEmailJob(ctx context.Context, job *domain.Job, emailService *email.Service, logger *slog.Logger) error {
	switch job.Type {
	case JobTypeOrderConfirmation:
		var payload OrderConfirmationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal order confirmation payload: %w", err)
		}

		if !payload.Deliver {
			logger.InfoContext(ctx, "order confirmation skipped, no customer email", "order_id", payload.OrderID)
			return nil
		}

		items := make([]email.OrderItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, email.OrderItem{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
				Total:    item.Total,
			})
		}

		return emailService.SendOrderConfirmation(ctx, email.OrderConfirmationEmail{
			OrderID:      payload.OrderID,
			Email:        payload.Email,
			CustomerName: payload.CustomerName,
			OrderDate:    payload.OrderDate,
			Items:        items,
			Subtotal:     payload.Subtotal,
			Shipping:     payload.Shipping,
			Tax:          payload.Tax,
			Total:        payload.Total,
			Address:      payload.Address,
			City:         payload.City,
			Country:      payload.Country,
			Payment:      payload.PaymentMethod,
		})

	default:
		return fmt.Errorf("unknown email job type: %s", job.Type)
	}
}

// IsEmailJob checks if a job type is an email job
func IsEmailJob(jobType string) bool {
	return jobType == JobTypeOrderConfirmation
}
