package admin

import (
	"net/http"
	"time"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/service"
)

// ShopHandler serves the dashboard and the shop configuration.
type ShopHandler struct {
	shop service.ShopService
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shop service.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

type shopConfigView struct {
	ContactEmail string    `json:"contact_email"`
	ContactPhone string    `json:"contact_phone"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newShopConfigView(cfg *domain.ShopConfiguration) shopConfigView {
	return shopConfigView{
		ContactEmail: cfg.ContactEmail,
		ContactPhone: cfg.ContactPhone,
		UpdatedAt:    cfg.UpdatedAt,
	}
}

// Dashboard handles GET /admin/dashboard
func (h *ShopHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.shop.Dashboard(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"pending_orders":  d.Stats.PendingOrders,
		"revenue":         handler.Money(d.Stats.Revenue),
		"active_products": d.Stats.ActiveProducts,
		"users":           d.Stats.Users,
		"config":          newShopConfigView(d.Config),
	})
}

// GetConfig handles GET /admin/config
func (h *ShopHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.shop.GetConfig(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, newShopConfigView(cfg))
}

// UpdateConfig handles PUT /admin/config
func (h *ShopHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var in service.ShopConfigInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	cfg, err := h.shop.UpdateConfig(r.Context(), in)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("shop configuration updated")
	handler.JSON(w, http.StatusOK, newShopConfigView(cfg))
}
