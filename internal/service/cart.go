package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/telemetry"
	"github.com/shopspring/decimal"
)

// CartService provides business logic for the session cart. The cart itself
// is loaded and saved by the caller; every method here only mutates it and
// consults the catalog for live stock.
type CartService interface {
	AddItem(ctx context.Context, cart *domain.Cart, productID, variantID int64, quantity int) (int, error)
	ViewCart(ctx context.Context, cart *domain.Cart) (*CartView, error)
	UpdateQuantity(ctx context.Context, cart *domain.Cart, key domain.CartKey, quantity int) (*CartUpdate, error)
	RemoveItem(ctx context.Context, cart *domain.Cart, key domain.CartKey) (*CartUpdate, error)
}

// CartView is the cart as shown to the customer, resolved against the catalog.
type CartView struct {
	Lines         []CartViewLine
	Total         decimal.Decimal
	TotalQuantity int

	// Pruned lists lines dropped because their product or size is gone.
	Pruned []domain.CartKey
}

// CartViewLine is one displayed line.
type CartViewLine struct {
	Key         domain.CartKey
	ProductSlug string
	Name        string
	Size        string
	ImageKey    string
	UnitPrice   decimal.Decimal
	Quantity    int
	Stock       int
	Subtotal    decimal.Decimal
}

// CartUpdate is returned by quantity changes and removals.
type CartUpdate struct {
	Key           domain.CartKey
	Quantity      int // 0 when the line was removed
	LineSubtotal  decimal.Decimal
	Total         decimal.Decimal
	TotalQuantity int
}

type cartService struct {
	catalog domain.CatalogReader
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(catalog domain.CatalogReader, metrics *telemetry.BusinessMetrics, logger *slog.Logger) (CartService, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		catalog: catalog,
		metrics: metrics,
		logger:  logger.With("service", "cart"),
	}, nil
}

// AddItem adds quantity units of a variant and returns the cart's total quantity.
// The unit price is captured only when the line is created.
func (s *cartService) AddItem(ctx context.Context, cart *domain.Cart, productID, variantID int64, quantity int) (int, error) {
	const op = "cart.add_item"

	if variantID <= 0 {
		return 0, domain.ErrNoSizeSelected
	}
	if quantity < 1 {
		return 0, domain.NewValidationError(op, "quantity", "Quantity must be at least 1")
	}
	if quantity > domain.MaxLineQuantity {
		return 0, domain.ErrQuantityTooLarge
	}

	variant, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	if productID != 0 && variant.ProductID != productID {
		return 0, domain.ErrVariantNotFound
	}
	if !variant.IsActive {
		return 0, domain.ErrProductNotFound
	}
	if variant.Stock <= 0 {
		return 0, domain.ErrOutOfStock
	}

	key := domain.CartKey{ProductID: variant.ProductID, VariantID: variant.ID}
	existing := cart.Quantity(key)
	if quantity > variant.Stock-existing {
		return 0, &domain.InsufficientStockError{Key: key, Available: variant.Stock}
	}

	if line, ok := cart.Line(key); ok {
		line.Quantity += quantity
		cart.Put(line)
	} else {
		cart.Put(domain.CartLine{
			Key:       key,
			Name:      variant.ProductName,
			Size:      variant.Size,
			UnitPrice: variant.Price,
			Quantity:  quantity,
		})
	}

	if s.metrics != nil {
		s.metrics.CartItemsAdded.Add(float64(quantity))
	}
	s.metrics.CartAction("add")

	return cart.TotalQuantity(), nil
}

// ViewCart resolves every line with one batched lookup. Lines whose variant
// no longer exists, or moved to another product, are pruned from the cart.
func (s *cartService) ViewCart(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	variants, err := s.catalog.VariantsByIDs(ctx, cart.VariantIDs())
	if err != nil {
		return nil, err
	}

	view := &CartView{Total: decimal.Zero}
	for _, line := range cart.Lines() {
		v, ok := variants[line.Key.VariantID]
		if !ok || v.ProductID != line.Key.ProductID {
			cart.Remove(line.Key)
			view.Pruned = append(view.Pruned, line.Key)
			continue
		}

		subtotal := line.Subtotal()
		view.Lines = append(view.Lines, CartViewLine{
			Key:         line.Key,
			ProductSlug: v.ProductSlug,
			Name:        line.Name,
			Size:        line.Size,
			ImageKey:    v.ImageKey,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Stock:       v.Stock,
			Subtotal:    subtotal,
		})
		view.Total = view.Total.Add(subtotal)
		view.TotalQuantity += line.Quantity
	}

	if len(view.Pruned) > 0 {
		s.logger.InfoContext(ctx, "pruned stale cart lines", "count", len(view.Pruned))
		if s.metrics != nil {
			s.metrics.CartPruned.Add(float64(len(view.Pruned)))
		}
	}

	return view, nil
}

// UpdateQuantity sets the quantity of a line. A quantity above live stock is
// clamped and reported as an *InsufficientStockError; the returned update then
// carries the clamped quantity.
func (s *cartService) UpdateQuantity(ctx context.Context, cart *domain.Cart, key domain.CartKey, quantity int) (*CartUpdate, error) {
	line, ok := cart.Line(key)
	if !ok {
		return nil, domain.ErrCartLineNotFound
	}

	if quantity <= 0 {
		cart.Remove(key)
		s.metrics.CartAction("remove")
		return s.summarize(cart, key), nil
	}

	variant, err := s.catalog.GetVariant(ctx, key.VariantID)
	if err == nil && variant.ProductID != key.ProductID {
		err = domain.ErrVariantNotFound
	}
	if err != nil {
		if errors.Is(err, domain.ErrVariantNotFound) {
			cart.Remove(key)
			return nil, domain.ErrVariantNotFound
		}
		return nil, err
	}
	if !variant.IsActive {
		cart.Remove(key)
		s.metrics.CartAction("remove")
		return nil, domain.ErrProductNotFound
	}

	if quantity > variant.Stock {
		cart.SetQuantity(key, variant.Stock)
		s.metrics.CartAction("clamp")
		return s.summarize(cart, key), &domain.InsufficientStockError{Key: key, Available: variant.Stock}
	}

	line.Quantity = quantity
	cart.Put(line)
	s.metrics.CartAction("update_quantity")
	return s.summarize(cart, key), nil
}

// RemoveItem deletes a line. Persisted stock is never touched.
func (s *cartService) RemoveItem(ctx context.Context, cart *domain.Cart, key domain.CartKey) (*CartUpdate, error) {
	if !cart.Remove(key) {
		return nil, domain.ErrCartLineNotFound
	}
	s.metrics.CartAction("remove")
	return s.summarize(cart, key), nil
}

func (s *cartService) summarize(cart *domain.Cart, key domain.CartKey) *CartUpdate {
	u := &CartUpdate{
		Key:           key,
		LineSubtotal:  decimal.Zero,
		Total:         cart.Total(),
		TotalQuantity: cart.TotalQuantity(),
	}
	if line, ok := cart.Line(key); ok {
		u.Quantity = line.Quantity
		u.LineSubtotal = line.Subtotal()
	}
	return u
}
