package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/domain/mocks"
)

func int64Ptr(v int64) *int64 { return &v }

func TestOrderService_GetOrderFor(t *testing.T) {
	ctx := context.Background()
	owner := int64(7)
	order := &domain.Order{ID: 42, UserID: &owner}

	tests := []struct {
		name          string
		userID        *int64
		staff         bool
		sessionOrders []int64
		wantErr       error
	}{
		{name: "staff", staff: true},
		{name: "owner", userID: int64Ptr(7)},
		{name: "placed in this session", sessionOrders: []int64{3, 42}},
		{name: "another user", userID: int64Ptr(8), wantErr: domain.ErrOrderNotFound},
		{name: "anonymous stranger", wantErr: domain.ErrOrderNotFound},
		{name: "other session orders", sessionOrders: []int64{41}, wantErr: domain.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockOrderStore(ctrl)
			store.EXPECT().GetOrder(gomock.Any(), int64(42)).Return(order, nil)

			svc, err := NewOrderService(store, discardLogger())
			require.NoError(t, err)

			got, err := svc.GetOrderFor(ctx, 42, tt.userID, tt.staff, tt.sessionOrders)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), got.ID)
		})
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults page size", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockOrderStore(ctrl)
		store.EXPECT().
			ListOrders(gomock.Any(), domain.OrderFilter{Status: domain.OrderStatusShipped, Limit: DefaultOrderPageSize}).
			Return([]domain.Order{{ID: 1}}, 1, nil)

		svc, err := NewOrderService(store, discardLogger())
		require.NoError(t, err)

		orders, total, err := svc.ListOrders(ctx, "shipped", 0, -5)
		require.NoError(t, err)
		assert.Len(t, orders, 1)
		assert.Equal(t, 1, total)
	})

	t.Run("unknown status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, err := NewOrderService(mocks.NewMockOrderStore(ctrl), discardLogger())
		require.NoError(t, err)

		_, _, err = svc.ListOrders(ctx, "lost", 10, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("valid status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockOrderStore(ctrl)
		gomock.InOrder(
			store.EXPECT().UpdateOrderStatus(gomock.Any(), int64(3), domain.OrderStatusCompleted).Return(nil),
			store.EXPECT().GetOrder(gomock.Any(), int64(3)).Return(&domain.Order{ID: 3, Status: domain.OrderStatusCompleted}, nil),
		)

		svc, err := NewOrderService(store, discardLogger())
		require.NoError(t, err)

		order, err := svc.UpdateStatus(ctx, 3, "completed")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	})

	t.Run("invalid status never reaches the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, err := NewOrderService(mocks.NewMockOrderStore(ctrl), discardLogger())
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, 3, "refunded")
		assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)
	})

	t.Run("missing order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockOrderStore(ctrl)
		store.EXPECT().UpdateOrderStatus(gomock.Any(), int64(9), domain.OrderStatusCancelled).Return(domain.ErrOrderNotFound)

		svc, err := NewOrderService(store, discardLogger())
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, 9, "cancelled")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestOrderService_DeleteKeepsCheckoutHistoryIntact(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	_, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 5}, "M")
	checkout, _ := newTestCheckout(t, store)

	order, err := checkout.Checkout(ctx, cartWith(t, store, variants[0], 2), validRequest())
	require.NoError(t, err)

	svc, err := NewOrderService(store, discardLogger())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	assert.Equal(t, 3, store.stock(variants[0]), "deleting an order does not restock")
	assert.ErrorIs(t, svc.DeleteOrder(ctx, order.ID), domain.ErrOrderNotFound)
}
