package storefront

import (
	"net/http"

	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/service"
)

// CatalogHandler serves the read-only catalog and stock polling endpoints.
type CatalogHandler struct {
	catalog service.CatalogService
	stock   service.StockService
}

func NewCatalogHandler(catalog service.CatalogService, stock service.StockService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, stock: stock}
}

// ListProducts handles GET /api/products?category=slug&q=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	products, err := h.catalog.ListStorefrontProducts(r.Context(), category, query)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"products": handler.NewProductViews(products, h.catalog.ImageURL),
		"category": category,
		"q":        query,
	})
}

// GetProduct handles GET /api/products/{slug}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetStorefrontProduct(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, handler.NewProductView(product, h.catalog.ImageURL))
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"categories": handler.NewCategoryViews(categories),
	})
}

// Stock handles GET /api/stock. By default it maps variant id to stock; with
// admin=true it maps product id to total stock.
func (h *CatalogHandler) Stock(w http.ResponseWriter, r *http.Request) {
	var (
		stocks map[string]int
		err    error
	)
	if r.URL.Query().Get("admin") == "true" {
		stocks, err = h.stock.StockByProduct(r.Context())
	} else {
		stocks, err = h.stock.StockByVariant(r.Context())
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	handler.JSON(w, http.StatusOK, map[string]any{"stocks": stocks})
}
