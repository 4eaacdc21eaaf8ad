package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/boutique/internal/domain"
)

// DefaultOrderPageSize bounds the admin order listing when no limit is given.
const DefaultOrderPageSize = 50

// OrderService provides business logic for committed orders.
type OrderService interface {
	// ListOrders returns orders newest first plus the total matching count.
	ListOrders(ctx context.Context, status string, limit, offset int) ([]domain.Order, int, error)

	// GetOrder retrieves a single order with its items.
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	// GetOrderFor returns the order only when userID owns it or sessionOrders
	// contains it. Anyone else gets ErrOrderNotFound.
	GetOrderFor(ctx context.Context, id int64, userID *int64, staff bool, sessionOrders []int64) (*domain.Order, error)

	// UpdateStatus validates status against the known set before writing.
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)

	DeleteOrder(ctx context.Context, id int64) error
}

type orderService struct {
	store  domain.OrderStore
	logger *slog.Logger
}

// NewOrderService creates a new OrderService instance
func NewOrderService(store domain.OrderStore, logger *slog.Logger) (OrderService, error) {
	if store == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{store: store, logger: logger.With("service", "order")}, nil
}

func (s *orderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]domain.Order, int, error) {
	filter := domain.OrderFilter{Limit: limit, Offset: offset}
	if status != "" {
		st, err := domain.ParseOrderStatus(status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = st
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultOrderPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListOrders(ctx, filter)
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *orderService) GetOrderFor(ctx context.Context, id int64, userID *int64, staff bool, sessionOrders []int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if staff {
		return order, nil
	}
	if userID != nil && order.UserID != nil && *order.UserID == *userID {
		return order, nil
	}
	for _, oid := range sessionOrders {
		if oid == id {
			return order, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (s *orderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateOrderStatus(ctx, id, st); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "order status updated", "order_id", id, "status", st)
	return s.store.GetOrder(ctx, id)
}

func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "order deleted", "order_id", id)
	return nil
}
