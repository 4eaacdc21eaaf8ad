package postgres

import (
	"context"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/shopspring/decimal"
)

// ShopStore implements the shop configuration, stock and dashboard stores.
type ShopStore struct {
	db DBTX
}

var (
	_ domain.ShopConfigStore = (*ShopStore)(nil)
	_ domain.StockStore      = (*ShopStore)(nil)
	_ domain.StatsStore      = (*ShopStore)(nil)
)

func NewShopStore(db DBTX) *ShopStore {
	return &ShopStore{db: db}
}

// GetShopConfig returns the configuration row or ErrConfigNotFound.
func (s *ShopStore) GetShopConfig(ctx context.Context) (*domain.ShopConfiguration, error) {
	var cfg domain.ShopConfiguration
	err := s.db.QueryRow(ctx,
		`SELECT contact_email, contact_phone, updated_at FROM shop_configuration WHERE singleton`,
	).Scan(&cfg.ContactEmail, &cfg.ContactPhone, &cfg.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, domain.Internal(err, "shop_config.get", "failed to get shop configuration")
	}
	return &cfg, nil
}

// CreateShopConfig inserts the configuration. The boolean primary key makes a
// second row impossible, so a duplicate surfaces as ErrConfigSingletonViolation.
func (s *ShopStore) CreateShopConfig(ctx context.Context, cfg *domain.ShopConfiguration) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO shop_configuration (contact_email, contact_phone)
		VALUES ($1, $2)
		RETURNING updated_at`,
		cfg.ContactEmail, cfg.ContactPhone,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConfigSingletonViolation
		}
		return domain.Internal(err, "shop_config.create", "failed to create shop configuration")
	}
	return nil
}

func (s *ShopStore) UpdateShopConfig(ctx context.Context, cfg *domain.ShopConfiguration) error {
	err := s.db.QueryRow(ctx, `
		UPDATE shop_configuration
		SET contact_email = $1, contact_phone = $2, updated_at = NOW()
		WHERE singleton
		RETURNING updated_at`,
		cfg.ContactEmail, cfg.ContactPhone,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrConfigNotFound
		}
		return domain.Internal(err, "shop_config.update", "failed to update shop configuration")
	}
	return nil
}

// StockByVariant reads committed stock of variants whose product is active.
func (s *ShopStore) StockByVariant(ctx context.Context) (map[int64]int, error) {
	return s.stockMap(ctx, "stock.by_variant", `
		SELECT v.id, v.stock
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.is_active`)
}

// StockByProduct sums committed stock per active product.
func (s *ShopStore) StockByProduct(ctx context.Context) (map[int64]int, error) {
	return s.stockMap(ctx, "stock.by_product", `
		SELECT p.id, COALESCE(SUM(v.stock), 0)::int
		FROM products p
		LEFT JOIN product_variants v ON v.product_id = p.id
		WHERE p.is_active
		GROUP BY p.id`)
}

func (s *ShopStore) stockMap(ctx context.Context, op, query string) (map[int64]int, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read stock")
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var (
			id    int64
			stock int
		)
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, domain.Internal(err, op, "failed to scan stock")
		}
		out[id] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read stock")
	}
	return out, nil
}

// DashboardStats computes the admin overview in one round trip.
func (s *ShopStore) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var (
		stats   domain.DashboardStats
		revenue string
	)
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE status = 'pending'),
			(SELECT COALESCE(SUM(total_price), 0)::text FROM orders WHERE status = 'completed'),
			(SELECT COUNT(*) FROM products WHERE is_active),
			(SELECT COUNT(*) FROM users)`,
	).Scan(&stats.PendingOrders, &revenue, &stats.ActiveProducts, &stats.Users)
	if err != nil {
		return nil, domain.Internal(err, "dashboard.stats", "failed to compute dashboard stats")
	}
	if stats.Revenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, domain.Internal(err, "dashboard.stats", "invalid revenue")
	}
	return &stats, nil
}
