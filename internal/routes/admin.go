package routes

import (
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/router"
)

// RegisterAdminRoutes registers the staff back office under /admin.
// Every route sits behind RequireStaff.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(
		middleware.RequireStaff,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		deps.CSRF,
	)

	// Dashboard and shop configuration
	admin.Get("/admin/dashboard", deps.ShopHandler.Dashboard)
	admin.Get("/admin/config", deps.ShopHandler.GetConfig)
	admin.Put("/admin/config", deps.ShopHandler.UpdateConfig)

	// Categories
	admin.Get("/admin/categories", deps.CategoryHandler.List)
	admin.Post("/admin/categories", deps.CategoryHandler.Create)
	admin.Put("/admin/categories/{id}", deps.CategoryHandler.Update)
	admin.Delete("/admin/categories/{id}", deps.CategoryHandler.Delete)

	// Products and their sizes
	admin.Get("/admin/products", deps.ProductHandler.List)
	admin.Post("/admin/products", deps.ProductHandler.Create)
	admin.Get("/admin/products/{id}", deps.ProductHandler.Detail)
	admin.Put("/admin/products/{id}", deps.ProductHandler.Update)
	admin.Delete("/admin/products/{id}", deps.ProductHandler.Delete)
	admin.Get("/admin/products/{id}/variants", deps.ProductHandler.ListVariants)
	admin.Post("/admin/products/{id}/variants", deps.ProductHandler.CreateVariant)
	admin.Put("/admin/products/{id}/variants/{variant_id}", deps.ProductHandler.UpdateVariant)
	admin.Delete("/admin/products/{id}/variants/{variant_id}", deps.ProductHandler.DeleteVariant)

	// Uploads get a larger body and more time.
	uploads := r.Group(
		middleware.RequireStaff,
		middleware.MaxBodySize(middleware.ImageMaxBodySize),
		middleware.Timeout(middleware.UploadTimeout),
		deps.CSRF,
	)
	uploads.Post("/admin/products/{id}/image", deps.ProductHandler.UploadImage)

	// Orders
	admin.Get("/admin/orders", deps.OrderHandler.List)
	admin.Get("/admin/orders/{id}", deps.OrderHandler.Detail)
	admin.Post("/admin/orders/{id}/status", deps.OrderHandler.UpdateStatus)
	admin.Delete("/admin/orders/{id}", deps.OrderHandler.Delete)
}
