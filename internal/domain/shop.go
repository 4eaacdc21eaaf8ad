package domain

//go:generate mockgen -source=shop.go -destination=mocks/mock_shop.go -package=mocks

import (
	"context"
	"time"
)

var (
	ErrConfigNotFound = Errorf(ENOTFOUND, "", "Shop configuration not found")

	// ErrConfigSingletonViolation is returned when a second configuration row is attempted.
	ErrConfigSingletonViolation = Errorf(ECONFLICT, "", "Shop configuration already exists")
)

// ShopConfiguration holds shop-wide contact details. At most one exists.
type ShopConfiguration struct {
	ContactEmail string
	ContactPhone string
	UpdatedAt    time.Time
}

// ShopConfigStore persists the single configuration record.
type ShopConfigStore interface {
	GetShopConfig(ctx context.Context) (*ShopConfiguration, error)
	CreateShopConfig(ctx context.Context, cfg *ShopConfiguration) error
	UpdateShopConfig(ctx context.Context, cfg *ShopConfiguration) error
}

// StockStore aggregates committed stock for polling clients.
type StockStore interface {
	// StockByVariant maps variant id to stock over active products.
	StockByVariant(ctx context.Context) (map[int64]int, error)

	// StockByProduct maps product id to summed stock over active products.
	StockByProduct(ctx context.Context) (map[int64]int, error)
}
