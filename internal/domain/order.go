package domain

//go:generate mockgen -source=order.go -destination=mocks/mock_order.go -package=mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order errors
var (
	ErrOrderNotFound      = Errorf(ENOTFOUND, "", "Order not found")
	ErrInvalidOrderStatus = Errorf(EINVALID, "", "Invalid order status")
	ErrDuplicateCheckout  = Errorf(ECONFLICT, "", "Order already placed for this checkout")
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if !s.Valid() {
		return "", ErrInvalidOrderStatus
	}
	return s, nil
}

// Order is a committed purchase. Money fields are fixed at checkout time.
type Order struct {
	ID             int64
	UserID         *int64
	Status         OrderStatus
	FullName       string
	Email          string
	Phone          string
	Address        string
	City           string
	PostalCode     string
	Country        string
	TotalPrice     decimal.Decimal // subtotal of the items
	ShippingCost   decimal.Decimal
	Tax            decimal.Decimal
	PaymentMethod  string
	PaymentID      string
	IdempotencyKey string
	Items          []OrderItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Total is subtotal + shipping + tax.
func (o *Order) Total() decimal.Decimal {
	return o.TotalPrice.Add(o.ShippingCost).Add(o.Tax)
}

// OrderItem is a snapshot of a cart line at purchase time. The product and
// variant references may later be nulled without losing the snapshot.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   *int64
	VariantID   *int64
	ProductName string
	Size        string
	Color       string
	Quantity    int
	Price       decimal.Decimal
}

// LineTotal is Quantity × Price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status OrderStatus // empty means all
	Limit  int
	Offset int
}

// OrderStore reads and maintains committed orders.
type OrderStore interface {
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, int, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error
}

// OrderTx is the set of writes a checkout performs inside one transaction.
type OrderTx interface {
	CreateOrder(ctx context.Context, o *Order) error
	CreateOrderItem(ctx context.Context, item *OrderItem) error

	// DecrementStock subtracts quantity from the variant only if enough stock
	// remains. It returns ErrInsufficientStock when the guard fails.
	DecrementStock(ctx context.Context, productID, variantID int64, quantity int) error

	EnqueueJob(ctx context.Context, job *Job) error
}

// TxManager runs fn inside a single all-or-nothing transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
}

// DashboardStats are the admin overview counters.
type DashboardStats struct {
	PendingOrders  int
	Revenue        decimal.Decimal // sum of completed orders' item subtotals
	ActiveProducts int
	Users          int
}

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}
