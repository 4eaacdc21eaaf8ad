package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/email"
	"github.com/dukerupert/boutique/internal/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dressOrder() *domain.Order {
	productID, variantID := int64(1), int64(4)
	return &domain.Order{
		ID:            42,
		FullName:      "Amani",
		Email:         "amani@example.com",
		Address:       "12 Avenue du Commerce",
		City:          "Kinshasa",
		Country:       "RDC",
		TotalPrice:    decimal.RequireFromString("75.00"),
		ShippingCost:  decimal.RequireFromString("10.00"),
		Tax:           decimal.RequireFromString("12.00"),
		PaymentMethod: "Cash",
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{{
			ProductID:   &productID,
			VariantID:   &variantID,
			ProductName: "Dress (M)",
			Size:        "M",
			Quantity:    3,
			Price:       decimal.RequireFromString("25.00"),
		}},
	}
}

type captureSender struct {
	sent []*email.Email
}

func (c *captureSender) Send(ctx context.Context, e *email.Email) (string, error) {
	c.sent = append(c.sent, e)
	return "", nil
}

type fakeCleaner struct {
	n   int64
	err error
}

func (f fakeCleaner) DeleteExpired(ctx context.Context) (int64, error) { return f.n, f.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewOrderConfirmationJob(t *testing.T) {
	job, err := NewOrderConfirmationJob(dressOrder(), true)
	require.NoError(t, err)

	assert.Equal(t, JobTypeOrderConfirmation, job.Type)
	assert.Equal(t, QueueEmail, job.Queue)

	var payload OrderConfirmationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, int64(42), payload.OrderID)
	assert.Equal(t, "75.00", payload.Subtotal)
	assert.Equal(t, "12.00", payload.Tax)
	assert.Equal(t, "10.00", payload.Shipping)
	assert.Equal(t, "97.00", payload.Total)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "75.00", payload.Items[0].Total)
}

func TestProcessEmailJob(t *testing.T) {
	t.Run("sends confirmation", func(t *testing.T) {
		sender := &captureSender{}
		svc, err := email.NewService(sender, "shop@example.com", "La Rose")
		require.NoError(t, err)

		job, err := NewOrderConfirmationJob(dressOrder(), true)
		require.NoError(t, err)

		require.NoError(t, ProcessEmailJob(context.Background(), job, svc, discardLogger()))
		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"amani@example.com"}, sender.sent[0].To)
	})

	t.Run("skips placeholder address", func(t *testing.T) {
		sender := &captureSender{}
		svc, err := email.NewService(sender, "shop@example.com", "La Rose")
		require.NoError(t, err)

		job, err := NewOrderConfirmationJob(dressOrder(), false)
		require.NoError(t, err)

		require.NoError(t, ProcessEmailJob(context.Background(), job, svc, discardLogger()))
		assert.Empty(t, sender.sent)
	})

	t.Run("bad payload", func(t *testing.T) {
		job := &domain.Job{Type: JobTypeOrderConfirmation, Payload: []byte(`not json`)}
		assert.Error(t, ProcessEmailJob(context.Background(), job, nil, discardLogger()))
	})

	t.Run("unknown type", func(t *testing.T) {
		job := &domain.Job{Type: "email:nope", Payload: []byte(`{}`)}
		assert.Error(t, ProcessEmailJob(context.Background(), job, nil, discardLogger()))
	})
}

func TestProcessEventJob(t *testing.T) {
	job, err := NewOrderPlacedJob(dressOrder())
	require.NoError(t, err)
	assert.Equal(t, QueueEvents, job.Queue)

	pub := &events.MemoryPublisher{}
	require.NoError(t, ProcessEventJob(context.Background(), job, pub))

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.SubjectOrderPlaced, msgs[0].Subject)

	var evt events.OrderPlaced
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &evt))
	assert.Equal(t, int64(42), evt.OrderID)
	assert.Equal(t, "97.00", evt.Total)
	assert.Equal(t, 3, evt.Units)
	assert.Equal(t, []int64{4}, evt.VariantIDs)
}

func TestProcessCleanupJob(t *testing.T) {
	job := NewCleanupExpiredSessionsJob()

	res, err := ProcessCleanupJob(context.Background(), job, fakeCleaner{n: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.SessionsDeleted)

	_, err = ProcessCleanupJob(context.Background(), job, fakeCleaner{err: errors.New("db down")})
	assert.Error(t, err)
}

func TestJobTypeClassification(t *testing.T) {
	assert.True(t, IsEmailJob(JobTypeOrderConfirmation))
	assert.True(t, IsEventJob(JobTypeOrderPlaced))
	assert.True(t, IsCleanupJob(JobTypeCleanupExpiredSessions))
	assert.False(t, IsEmailJob(JobTypeOrderPlaced))
}
