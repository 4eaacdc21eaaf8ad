package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/jobs"
	"github.com/dukerupert/boutique/internal/shipping"
	"github.com/dukerupert/boutique/internal/tax"
	"github.com/dukerupert/boutique/internal/telemetry"
	"github.com/dukerupert/boutique/internal/validate"
)

// CheckoutService turns a session cart into a committed order.
type CheckoutService interface {
	// Summarize re-validates the cart and prices it without writing anything.
	Summarize(ctx context.Context, cart *domain.Cart) (*CheckoutSummary, error)

	// Checkout re-validates the cart, creates the order with its items,
	// decrements stock and enqueues follow-up jobs in one transaction. On
	// success the cart is cleared. Lines whose product or size vanished are
	// dropped from cart before the error is returned.
	Checkout(ctx context.Context, cart *domain.Cart, req CheckoutRequest) (*domain.Order, error)
}

// CheckoutRequest is the submitted checkout form plus request context.
type CheckoutRequest struct {
	FullName      string `form:"full_name" validate:"required,max=200"`
	Phone         string `form:"phone" validate:"required,max=30"`
	Address       string `form:"address" validate:"required,max=255"`
	PaymentMethod string `form:"payment_method" validate:"max=50"`

	// Set by the handler, not the form.
	UserID         *int64 `form:"-"`
	Email          string `form:"email" validate:"omitempty,email,max=250"`
	IdempotencyKey string `form:"idempotency_key" validate:"omitempty,max=64"`

	// SessionToken is the checkout token the server issued to this session and
	// PlacedOrderIDs the orders it already placed. Together with UserID they
	// decide whether a known idempotency key may replay its order.
	SessionToken   string  `form:"-"`
	PlacedOrderIDs []int64 `form:"-"`
}

// owns reports whether the requester may see o through an idempotency replay.
func (req CheckoutRequest) owns(o *domain.Order) bool {
	if req.SessionToken != "" && req.SessionToken == o.IdempotencyKey {
		return true
	}
	if req.UserID != nil && o.UserID != nil && *req.UserID == *o.UserID {
		return true
	}
	return slices.Contains(req.PlacedOrderIDs, o.ID)
}

// CheckoutConfig holds the fixed order fields the storefront does not ask for.
type CheckoutConfig struct {
	City                 string
	PostalCode           string
	Country              string
	DefaultPaymentMethod string
	EmailPlaceholder     string
}

// DefaultCheckoutConfig returns the shop's stock defaults.
func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		City:                 "Kinshasa",
		PostalCode:           "00243",
		Country:              "RDC",
		DefaultPaymentMethod: "Cash",
		EmailPlaceholder:     "email-not-provided@example.com",
	}
}

// CheckoutSummary is the priced, re-validated cart.
type CheckoutSummary struct {
	Lines    []CheckoutLine
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CheckoutLine is one priced line.
type CheckoutLine struct {
	Key       domain.CartKey
	Name      string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// NewIdempotencyKey returns a fresh token for one checkout attempt.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

type checkoutService struct {
	catalog  domain.CatalogReader
	orders   domain.OrderStore
	tx       domain.TxManager
	shipping shipping.Provider
	tax      tax.Calculator
	config   CheckoutConfig
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(
	catalog domain.CatalogReader,
	orders domain.OrderStore,
	txManager domain.TxManager,
	shippingProvider shipping.Provider,
	taxCalculator tax.Calculator,
	config CheckoutConfig,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) (CheckoutService, error) {
	if catalog == nil || orders == nil || txManager == nil {
		return nil, fmt.Errorf("catalog, order store and transaction manager are required")
	}
	if shippingProvider == nil || taxCalculator == nil {
		return nil, fmt.Errorf("shipping provider and tax calculator are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultCheckoutConfig()
	if config.City == "" {
		config.City = defaults.City
	}
	if config.PostalCode == "" {
		config.PostalCode = defaults.PostalCode
	}
	if config.Country == "" {
		config.Country = defaults.Country
	}
	if config.DefaultPaymentMethod == "" {
		config.DefaultPaymentMethod = defaults.DefaultPaymentMethod
	}
	if config.EmailPlaceholder == "" {
		config.EmailPlaceholder = defaults.EmailPlaceholder
	}

	return &checkoutService{
		catalog:  catalog,
		orders:   orders,
		tx:       txManager,
		shipping: shippingProvider,
		tax:      taxCalculator,
		config:   config,
		metrics:  metrics,
		logger:   logger.With("service", "checkout"),
	}, nil
}

// Summarize prices the cart for the checkout page.
func (s *checkoutService) Summarize(ctx context.Context, cart *domain.Cart) (*CheckoutSummary, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines, err := s.revalidate(ctx, cart)
	if err != nil {
		return nil, err
	}

	return s.price(ctx, lines, shipping.ShippingAddress{
		City:       s.config.City,
		PostalCode: s.config.PostalCode,
		Country:    s.config.Country,
	})
}

func (s *checkoutService) Checkout(ctx context.Context, cart *domain.Cart, req CheckoutRequest) (*domain.Order, error) {
	const op = "checkout.checkout"

	if s.metrics != nil {
		s.metrics.CheckoutStarted.Inc()
	}

	if cart.IsEmpty() {
		s.metrics.RejectCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.PaymentMethod == "" {
		req.PaymentMethod = s.config.DefaultPaymentMethod
	}

	// A resubmitted form returns the order it already created.
	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			if !req.owns(existing) {
				s.logger.WarnContext(ctx, "checkout key belongs to another session", "order_id", existing.ID)
				s.metrics.RejectCheckout("foreign_key")
				return nil, domain.ErrDuplicateCheckout
			}
			s.logger.InfoContext(ctx, "checkout replayed", "order_id", existing.ID)
			cart.Clear()
			return existing, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}

	lines, err := s.revalidate(ctx, cart)
	if err != nil {
		s.metrics.RejectCheckout(rejectReason(err))
		return nil, err
	}

	addr := shipping.ShippingAddress{
		Name:       req.FullName,
		Line1:      req.Address,
		City:       s.config.City,
		PostalCode: s.config.PostalCode,
		Country:    s.config.Country,
		Phone:      req.Phone,
	}
	summary, err := s.price(ctx, lines, addr)
	if err != nil {
		return nil, err
	}

	if err := validate.Struct(op, &req); err != nil {
		s.metrics.RejectCheckout("invalid")
		return nil, err
	}

	email := req.Email
	deliver := email != ""
	if !deliver {
		email = s.config.EmailPlaceholder
	}

	order := &domain.Order{
		UserID:         req.UserID,
		Status:         domain.OrderStatusPending,
		FullName:       req.FullName,
		Email:          email,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           s.config.City,
		PostalCode:     s.config.PostalCode,
		Country:        s.config.Country,
		TotalPrice:     summary.Subtotal,
		ShippingCost:   summary.Shipping,
		Tax:            summary.Tax,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
	}

	err = s.tx.WithinTx(ctx, func(tx domain.OrderTx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		order.Items = make([]domain.OrderItem, 0, len(lines))
		for _, cl := range lines {
			item := orderItemFor(order.ID, cl)
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)

			if cl.line.Key.VariantID == 0 {
				s.logger.ErrorContext(ctx, "order line has no variant, stock not decremented",
					"order_id", order.ID,
					"product_id", cl.line.Key.ProductID,
				)
				telemetry.CaptureMessage("order line without variant", sentry.LevelError, map[string]interface{}{
					"order_id":   order.ID,
					"product_id": cl.line.Key.ProductID,
				})
				continue
			}

			if err := tx.DecrementStock(ctx, cl.line.Key.ProductID, cl.line.Key.VariantID, cl.line.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return &stockConflictError{key: cl.line.Key}
				}
				return err
			}
		}

		confirmation, err := jobs.NewOrderConfirmationJob(order, deliver)
		if err != nil {
			return err
		}
		if err := tx.EnqueueJob(ctx, confirmation); err != nil {
			return err
		}

		placed, err := jobs.NewOrderPlacedJob(order)
		if err != nil {
			return err
		}
		return tx.EnqueueJob(ctx, placed)
	})
	if err != nil {
		return s.handleTxError(ctx, cart, req, err)
	}

	cart.Clear()

	units := 0
	for _, item := range order.Items {
		units += item.Quantity
	}
	s.metrics.ObserveOrder(order.Total(), units)

	s.logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"total", order.Total().StringFixed(2),
		"units", units,
	)

	return order, nil
}

// handleTxError maps a rolled-back transaction onto what the customer sees.
// A duplicate idempotency key resolves to the order that won.
func (s *checkoutService) handleTxError(ctx context.Context, cart *domain.Cart, req CheckoutRequest, err error) (*domain.Order, error) {
	var conflict *stockConflictError
	switch {
	case errors.As(err, &conflict):
		if s.metrics != nil {
			s.metrics.StockConflicts.Inc()
		}
		s.metrics.RejectCheckout("insufficient_stock")

		available := 0
		if v, gerr := s.catalog.GetProductVariant(ctx, conflict.key.ProductID, conflict.key.VariantID); gerr == nil {
			available = v.Stock
		}
		s.logger.InfoContext(ctx, "checkout lost stock race", "key", conflict.key.String(), "available", available)
		return nil, &domain.InsufficientStockError{Key: conflict.key, Available: available}

	case errors.Is(err, domain.ErrDuplicateCheckout):
		existing, gerr := s.orders.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if gerr == nil {
			if !req.owns(existing) {
				return nil, domain.ErrDuplicateCheckout
			}
			cart.Clear()
			return existing, nil
		}
		s.logger.ErrorContext(ctx, "duplicate checkout but order not readable", "error", gerr)
		return nil, ErrCheckoutFailed

	default:
		s.logger.ErrorContext(ctx, "checkout transaction failed", "error", err)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{
			"lines": cart.Len(),
		})
		s.metrics.RejectCheckout("failed")
		return nil, ErrCheckoutFailed
	}
}

type checkoutLine struct {
	line    domain.CartLine
	variant domain.VariantDetail
}

// revalidate checks every line against the catalog. Drifted lines are removed
// from cart and reported; nothing is written to the database.
func (s *checkoutService) revalidate(ctx context.Context, cart *domain.Cart) ([]checkoutLine, error) {
	variants, err := s.catalog.VariantsByIDs(ctx, cart.VariantIDs())
	if err != nil {
		return nil, err
	}

	lines := make([]checkoutLine, 0, cart.Len())
	for _, line := range cart.Lines() {
		if line.Key.VariantID == 0 {
			// handled at commit
			lines = append(lines, checkoutLine{line: line})
			continue
		}

		v, ok := variants[line.Key.VariantID]
		if !ok || v.ProductID != line.Key.ProductID {
			cart.Remove(line.Key)
			if _, perr := s.catalog.GetProduct(ctx, line.Key.ProductID); perr != nil {
				if errors.Is(perr, domain.ErrProductNotFound) {
					return nil, ErrProductRemoved
				}
				return nil, perr
			}
			return nil, ErrVariantRemoved
		}
		if !v.IsActive {
			cart.Remove(line.Key)
			return nil, ErrProductRemoved
		}
		if line.Quantity > v.Stock {
			return nil, &domain.InsufficientStockError{Key: line.Key, Available: v.Stock}
		}

		lines = append(lines, checkoutLine{line: line, variant: v})
	}

	return lines, nil
}

// price computes subtotal, shipping, tax and total.
func (s *checkoutService) price(ctx context.Context, lines []checkoutLine, addr shipping.ShippingAddress) (*CheckoutSummary, error) {
	summary := &CheckoutSummary{Subtotal: decimal.Zero}

	units := 0
	items := make([]tax.LineItem, 0, len(lines))
	for _, cl := range lines {
		sub := cl.line.Subtotal()
		summary.Lines = append(summary.Lines, CheckoutLine{
			Key:       cl.line.Key,
			Name:      cl.line.Name,
			Size:      cl.line.Size,
			Quantity:  cl.line.Quantity,
			UnitPrice: cl.line.UnitPrice,
			Subtotal:  sub,
		})
		summary.Subtotal = summary.Subtotal.Add(sub)
		units += cl.line.Quantity

		items = append(items, tax.LineItem{
			ProductID:   cl.line.Key.ProductID,
			Description: cl.line.Name,
			Quantity:    cl.line.Quantity,
			UnitPrice:   cl.line.UnitPrice,
			TotalPrice:  sub,
		})
	}

	rates, err := s.shipping.GetRates(ctx, shipping.RateParams{DestinationAddress: addr, ItemCount: units})
	if err != nil {
		return nil, domain.Internal(err, "checkout.price", "Failed to get shipping rates")
	}
	rate, err := shipping.Cheapest(rates)
	if err != nil {
		return nil, domain.Internal(err, "checkout.price", "No shipping rate available")
	}
	summary.Shipping = rate.Cost

	taxResult, err := s.tax.CalculateTax(ctx, tax.TaxParams{
		ShippingAddress: tax.Address{
			Line1:      addr.Line1,
			City:       addr.City,
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		},
		LineItems: items,
		Shipping:  summary.Shipping,
	})
	if err != nil {
		return nil, domain.Internal(err, "checkout.price", "Failed to calculate tax")
	}
	summary.Tax = taxResult.TotalTax

	summary.Total = summary.Subtotal.Add(summary.Shipping).Add(summary.Tax)
	return summary, nil
}

func orderItemFor(orderID int64, cl checkoutLine) domain.OrderItem {
	productID := cl.line.Key.ProductID
	item := domain.OrderItem{
		OrderID:     orderID,
		ProductID:   &productID,
		ProductName: itemName(cl.line.Name, cl.line.Size),
		Size:        cl.line.Size,
		Quantity:    cl.line.Quantity,
		Price:       cl.line.UnitPrice,
	}
	if cl.line.Key.VariantID != 0 {
		variantID := cl.line.Key.VariantID
		item.VariantID = &variantID
	}
	return item
}

// itemName renders "Dress (M)".
func itemName(name, size string) string {
	if size == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, size)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrProductRemoved):
		return "product_removed"
	case errors.Is(err, ErrVariantRemoved):
		return "variant_removed"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "failed"
	}
}

// stockConflictError marks a guarded decrement that found too little stock.
type stockConflictError struct {
	key domain.CartKey
}

func (e *stockConflictError) Error() string {
	return "stock changed during checkout for " + e.key.String()
}

func (e *stockConflictError) Unwrap() error {
	return domain.ErrInsufficientStock
}
