package service

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/boutique/internal/domain"
)

func newTestCart(t *testing.T, store *memStore) CartService {
	t.Helper()
	svc, err := NewCartService(store, testMetrics(), discardLogger())
	require.NoError(t, err)
	return svc
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		productID func(productID int64) int64
		variantID func(variantIDs []int64) int64
		existing  int
		quantity  int
		wantErr   error
		wantTotal int
	}{
		{
			name:      "new line",
			quantity:  2,
			wantTotal: 2,
		},
		{
			name:      "merges into existing line",
			existing:  2,
			quantity:  3,
			wantTotal: 5,
		},
		{
			name:     "exceeds stock with existing line",
			existing: 4,
			quantity: 2,
			wantErr:  domain.ErrInsufficientStock,
		},
		{
			name:      "no size selected",
			variantID: func([]int64) int64 { return 0 },
			quantity:  1,
			wantErr:   domain.ErrNoSizeSelected,
		},
		{
			name:     "overflowing quantity on existing line",
			existing: 1,
			quantity: math.MaxInt,
			wantErr:  domain.ErrQuantityTooLarge,
		},
		{
			name:      "fills remaining stock exactly",
			existing:  4,
			quantity:  1,
			wantTotal: 5,
		},
		{
			name:     "zero quantity",
			quantity: 0,
		},
		{
			name:      "out of stock size",
			variantID: func(ids []int64) int64 { return ids[1] },
			quantity:  1,
			wantErr:   domain.ErrOutOfStock,
		},
		{
			name:      "variant of another product",
			productID: func(id int64) int64 { return id + 1000 },
			quantity:  1,
			wantErr:   domain.ErrVariantNotFound,
		},
		{
			name:      "unknown variant",
			variantID: func([]int64) int64 { return 99999 },
			quantity:  1,
			wantErr:   domain.ErrVariantNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 5, "L": 0}, "M", "L")
			svc := newTestCart(t, store)

			cart := domain.NewCart()
			if tt.existing > 0 {
				addLine(t, store, cart, variants[0], tt.existing)
			}

			pid := productID
			if tt.productID != nil {
				pid = tt.productID(productID)
			}
			vid := variants[0]
			if tt.variantID != nil {
				vid = tt.variantID(variants)
			}

			total, err := svc.AddItem(ctx, cart, pid, vid, tt.quantity)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.existing, cart.TotalQuantity(), "cart unchanged on error")
			case tt.quantity < 1:
				assert.True(t, domain.IsValidationError(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, total)
			}
		})
	}
}

func TestCartService_AddItemKeepsCapturedPrice(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 5}, "M")
	svc := newTestCart(t, store)

	cart := domain.NewCart()
	_, err := svc.AddItem(ctx, cart, productID, variants[0], 1)
	require.NoError(t, err)

	store.mu.Lock()
	p := store.products[productID]
	p.Price = dec("30.00")
	store.products[productID] = p
	store.mu.Unlock()

	_, err = svc.AddItem(ctx, cart, productID, variants[0], 1)
	require.NoError(t, err)

	line, ok := cart.Line(domain.CartKey{ProductID: productID, VariantID: variants[0]})
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "25.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "Dress", line.Name)
	assert.Equal(t, "M", line.Size)
}

func TestCartService_ViewCartPrunesStaleLines(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	dressID, dress := store.seedProduct("Dress", "25.00", map[string]int{"M": 5, "S": 2}, "M", "S")
	svc, err := NewCartService(store, testMetrics(), discardLogger())
	require.NoError(t, err)

	cart := cartWith(t, store, dress[0], 2)
	addLine(t, store, cart, dress[1], 1)
	require.NoError(t, store.DeleteVariant(ctx, dressID, dress[1]))

	view, err := svc.ViewCart(ctx, cart)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, "dress", view.Lines[0].ProductSlug)
	assert.Equal(t, 5, view.Lines[0].Stock)
	assert.Equal(t, "50.00", view.Total.StringFixed(2))
	assert.Equal(t, 2, view.TotalQuantity)
	assert.Equal(t, []domain.CartKey{{ProductID: dressID, VariantID: dress[1]}}, view.Pruned)
	assert.Equal(t, 1, cart.Len())
}

func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("sets quantity", func(t *testing.T) {
		store := newMemStore()
		productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 5}, "M")
		svc := newTestCart(t, store)
		cart := cartWith(t, store, variants[0], 1)
		key := domain.CartKey{ProductID: productID, VariantID: variants[0]}

		update, err := svc.UpdateQuantity(ctx, cart, key, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, update.Quantity)
		assert.Equal(t, "100.00", update.LineSubtotal.StringFixed(2))
		assert.Equal(t, "100.00", update.Total.StringFixed(2))
		assert.Equal(t, 4, update.TotalQuantity)
	})

	t.Run("clamps to stock", func(t *testing.T) {
		store := newMemStore()
		productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 3}, "M")
		svc := newTestCart(t, store)
		cart := cartWith(t, store, variants[0], 1)
		key := domain.CartKey{ProductID: productID, VariantID: variants[0]}

		update, err := svc.UpdateQuantity(ctx, cart, key, 10)

		var stockErr *domain.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 3, stockErr.Available)
		require.NotNil(t, update)
		assert.Equal(t, 3, update.Quantity)
		assert.Equal(t, 3, cart.Quantity(key))
	})

	t.Run("zero removes line", func(t *testing.T) {
		store := newMemStore()
		productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 3}, "M")
		svc := newTestCart(t, store)
		cart := cartWith(t, store, variants[0], 2)
		key := domain.CartKey{ProductID: productID, VariantID: variants[0]}

		update, err := svc.UpdateQuantity(ctx, cart, key, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, update.Quantity)
		assert.True(t, cart.IsEmpty())
		assert.Equal(t, 3, store.stock(variants[0]), "stock is never touched by the cart")
	})

	t.Run("deactivated product drops line", func(t *testing.T) {
		store := newMemStore()
		productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 5}, "M")
		svc := newTestCart(t, store)
		cart := cartWith(t, store, variants[0], 1)

		store.mu.Lock()
		p := store.products[productID]
		p.IsActive = false
		store.products[productID] = p
		store.mu.Unlock()

		update, err := svc.UpdateQuantity(ctx, cart, domain.CartKey{ProductID: productID, VariantID: variants[0]}, 3)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Nil(t, update)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("unknown line", func(t *testing.T) {
		store := newMemStore()
		svc := newTestCart(t, store)
		_, err := svc.UpdateQuantity(ctx, domain.NewCart(), domain.CartKey{ProductID: 1, VariantID: 2}, 1)
		assert.ErrorIs(t, err, domain.ErrCartLineNotFound)
	})

	t.Run("variant gone drops line", func(t *testing.T) {
		store := newMemStore()
		productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 3}, "M")
		svc := newTestCart(t, store)
		cart := cartWith(t, store, variants[0], 1)
		require.NoError(t, store.DeleteVariant(ctx, productID, variants[0]))

		_, err := svc.UpdateQuantity(ctx, cart, domain.CartKey{ProductID: productID, VariantID: variants[0]}, 2)
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)
		assert.True(t, cart.IsEmpty())
	})
}

func TestCartService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	productID, variants := store.seedProduct("Dress", "25.00", map[string]int{"M": 3, "L": 3}, "M", "L")
	metrics := testMetrics()
	svc, err := NewCartService(store, metrics, discardLogger())
	require.NoError(t, err)

	cart := cartWith(t, store, variants[0], 1)
	addLine(t, store, cart, variants[1], 2)

	update, err := svc.RemoveItem(ctx, cart, domain.CartKey{ProductID: productID, VariantID: variants[0]})
	require.NoError(t, err)
	assert.Equal(t, 2, update.TotalQuantity)
	assert.Equal(t, "50.00", update.Total.StringFixed(2))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CartUpdated.WithLabelValues("remove")))

	_, err = svc.RemoveItem(ctx, cart, domain.CartKey{ProductID: productID, VariantID: variants[0]})
	assert.ErrorIs(t, err, domain.ErrCartLineNotFound)
}
