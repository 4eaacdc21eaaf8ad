package postgres

import (
	"context"
	"fmt"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	db DBTX
}

var _ domain.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a new PostgreSQL-backed order store.
func NewOrderStore(db DBTX) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `id, user_id, status, full_name, email, phone, address, city, postal_code, country,
       total_price::text, shipping_cost::text, tax::text, payment_method, payment_id,
       COALESCE(idempotency_key, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                   domain.Order
		total, ship, taxStr string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.FullName, &o.Email, &o.Phone, &o.Address,
		&o.City, &o.PostalCode, &o.Country, &total, &ship, &taxStr, &o.PaymentMethod, &o.PaymentID,
		&o.IdempotencyKey, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.TotalPrice, err = parseNumeric(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	if o.ShippingCost, err = parseNumeric(ship); err != nil {
		return nil, fmt.Errorf("order %d shipping: %w", o.ID, err)
	}
	if o.Tax, err = parseNumeric(taxStr); err != nil {
		return nil, fmt.Errorf("order %d tax: %w", o.ID, err)
	}
	return &o, nil
}

// ListOrders returns a page of orders, newest first, and the total count for the filter.
func (s *OrderStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int, error) {
	var status *string
	if filter.Status != "" {
		v := string(filter.Status)
		status = &v
	}

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE ($1::text IS NULL OR status = $1)`, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, domain.Internal(err, "order.list", "failed to count orders")
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0) OFFSET $3`,
		status, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, domain.Internal(err, "order.list", "failed to list orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, domain.Internal(err, "order.list", "failed to scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.Internal(err, "order.list", "failed to list orders")
	}
	return orders, total, nil
}

// GetOrder retrieves an order with its items.
func (s *OrderStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "failed to get order")
	}
	if o.Items, err = s.listItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrderByIdempotencyKey finds the order a checkout token already produced.
func (s *OrderStore) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get_by_idempotency_key", "failed to get order")
	}
	if o.Items, err = s.listItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) listItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, size, color, quantity, price::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, domain.Internal(err, "order.items", "failed to list order items")
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			it    domain.OrderItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.ProductName,
			&it.Size, &it.Color, &it.Quantity, &price); err != nil {
			return nil, domain.Internal(err, "order.items", "failed to scan order item")
		}
		if it.Price, err = parseNumeric(price); err != nil {
			return nil, domain.Internal(err, "order.items", "invalid order item price")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "order.items", "failed to list order items")
	}
	return items, nil
}

// UpdateOrderStatus sets the status of an order.
func (s *OrderStore) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidOrderStatus
	}
	tag, err := s.db.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return domain.Internal(err, "order.update_status", "failed to update order status")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// DeleteOrder removes an order and, by cascade, its items. Stock is not restored.
func (s *OrderStore) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, "order.delete", "failed to delete order")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TxManager runs checkout writes inside a single database transaction.
type TxManager struct {
	pool *pgxpool.Pool
}

var _ domain.TxManager = (*TxManager)(nil)

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx commits only when fn returns nil. Any error, or a panic, rolls back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx domain.OrderTx) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.Internal(err, "tx.begin", "failed to begin transaction")
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&orderTx{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, "tx.commit", "failed to commit transaction")
	}
	return nil
}

type orderTx struct {
	db DBTX
}

var _ domain.OrderTx = (*orderTx)(nil)

func (t *orderTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	var key *string
	if o.IdempotencyKey != "" {
		key = &o.IdempotencyKey
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}

	err := t.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, full_name, email, phone, address, city, postal_code, country,
		                    total_price, shipping_cost, tax, payment_method, payment_id, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`,
		o.UserID, string(o.Status), o.FullName, o.Email, o.Phone, o.Address, o.City, o.PostalCode,
		o.Country, o.TotalPrice, o.ShippingCost, o.Tax, o.PaymentMethod, o.PaymentID, key,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCheckout
		}
		return domain.Internal(err, "order.create", "failed to create order")
	}
	return nil
}

func (t *orderTx) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	err := t.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, variant_id, product_name, size, color, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		item.OrderID, item.ProductID, item.VariantID, item.ProductName, item.Size, item.Color,
		item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return domain.Internal(err, "order.create_item", "failed to create order item")
	}
	return nil
}

// DecrementStock is a relative, guarded update. Two transactions racing for
// the last unit serialize on the row lock; the loser sees zero rows affected.
func (t *orderTx) DecrementStock(ctx context.Context, productID, variantID int64, quantity int) error {
	tag, err := t.db.Exec(ctx, `
		UPDATE product_variants
		SET stock = stock - $1
		WHERE id = $2 AND product_id = $3 AND stock >= $1`,
		quantity, variantID, productID,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgCheckViolation {
			return domain.ErrInsufficientStock
		}
		return domain.Internal(err, "variant.decrement_stock", "failed to decrement stock")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (t *orderTx) EnqueueJob(ctx context.Context, job *domain.Job) error {
	return enqueueJob(ctx, t.db, job)
}
