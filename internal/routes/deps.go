package routes

import (
	"github.com/dukerupert/boutique/internal/handler/admin"
	"github.com/dukerupert/boutique/internal/handler/storefront"
	"github.com/dukerupert/boutique/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog browsing and stock polling
	CatalogHandler *storefront.CatalogHandler

	// Cart
	CartHandler *storefront.CartHandler

	// Checkout and confirmation
	CheckoutHandler *storefront.CheckoutHandler
	OrderHandler    *storefront.OrderHandler

	// Session login/logout
	AuthHandler *storefront.AuthHandler

	// CSRF protects every state-changing route.
	CSRF router.Middleware

	// AuthRateLimit throttles credential submissions.
	AuthRateLimit router.Middleware
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	ShopHandler     *admin.ShopHandler
	CategoryHandler *admin.CategoryHandler
	ProductHandler  *admin.ProductHandler
	OrderHandler    *admin.OrderHandler

	CSRF router.Middleware
}
