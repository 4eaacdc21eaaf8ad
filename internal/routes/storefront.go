package routes

import (
	"net/http"

	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/handler/storefront"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/router"
)

// RegisterStorefrontRoutes registers all customer-facing routes.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	s := r.Group(
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		deps.CSRF,
	)

	// Catalog
	s.Get("/api/products", deps.CatalogHandler.ListProducts)
	s.Get("/api/products/{slug}", deps.CatalogHandler.GetProduct)
	s.Get("/api/categories", deps.CatalogHandler.ListCategories)
	s.Get("/api/stock", deps.CatalogHandler.Stock)

	// Shopping cart. Mutations answer other methods with a JSON 405.
	s.Get("/cart", deps.CartHandler.View)
	s.Post("/cart/add/{product_id}", deps.CartHandler.Add)
	s.Post("/cart/update/{key}", deps.CartHandler.Update)
	s.Post("/cart/remove/{key}", deps.CartHandler.Remove)
	s.Any("/cart/add/{product_id}", storefront.MethodNotAllowed)
	s.Any("/cart/update/{key}", storefront.MethodNotAllowed)
	s.Any("/cart/remove/{key}", storefront.MethodNotAllowed)

	// Checkout flow
	s.Get("/checkout", deps.CheckoutHandler.Show)
	s.Post("/checkout", deps.CheckoutHandler.Submit)
	s.Get("/orders/{id}/confirmation", deps.OrderHandler.Confirmation)

	// Authentication
	s.Post("/login", deps.AuthHandler.Login, deps.AuthRateLimit)
	s.Post("/logout", deps.AuthHandler.Logout)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.NotFoundResponse(w, req)
	})
}
