package storefront

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/service"
)

var errInvalidUpdate = domain.Errorf(domain.EINVALID, "", "Invalid data for the update")

// CartHandler handles all cart-related storefront routes. The cart lives in
// the session; handlers load it, hand it to the service and save it back.
type CartHandler struct {
	cartService service.CartService
	imageURL    handler.ImageURLFunc
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService service.CartService, imageURL handler.ImageURLFunc) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		imageURL:    imageURL,
	}
}

type cartLineView struct {
	Key         string `json:"key"`
	ProductID   int64  `json:"product_id"`
	VariantID   int64  `json:"variant_id"`
	ProductSlug string `json:"product_slug"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Stock       int    `json:"stock"`
	Subtotal    string `json:"subtotal"`
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	cart, sess, err := loadCart(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	view, err := h.cartService.ViewCart(r.Context(), cart)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	saveCart(r, sess, cart)

	lines := make([]cartLineView, 0, len(view.Lines))
	for _, l := range view.Lines {
		line := cartLineView{
			Key:         l.Key.String(),
			ProductID:   l.Key.ProductID,
			VariantID:   l.Key.VariantID,
			ProductSlug: l.ProductSlug,
			Name:        l.Name,
			Size:        l.Size,
			UnitPrice:   handler.Money(l.UnitPrice),
			Quantity:    l.Quantity,
			Stock:       l.Stock,
			Subtotal:    handler.Money(l.Subtotal),
		}
		if h.imageURL != nil && l.ImageKey != "" {
			line.ImageURL = h.imageURL(l.ImageKey)
		}
		lines = append(lines, line)
	}

	pruned := make([]string, 0, len(view.Pruned))
	for _, k := range view.Pruned {
		pruned = append(pruned, k.String())
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"lines":         lines,
		"total":         handler.Money(view.Total),
		"cart_quantity": view.TotalQuantity,
		"removed":       pruned,
	})
}

// Add handles POST /cart/add/{product_id}
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	productID, err := handler.PathID(r, "product_id")
	if err != nil {
		cartError(w, r, domain.ErrProductNotFound, nil)
		return
	}

	rawVariant := strings.TrimSpace(r.FormValue("variant_id"))
	if rawVariant == "" {
		cartError(w, r, domain.ErrNoSizeSelected, nil)
		return
	}
	variantID, err := strconv.ParseInt(rawVariant, 10, 64)
	if err != nil || variantID < 1 {
		cartError(w, r, domain.ErrVariantNotFound, nil)
		return
	}

	quantity := 1
	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil {
			cartError(w, r, domain.ErrInvalidQuantity, nil)
			return
		}
		if quantity > domain.MaxLineQuantity {
			cartError(w, r, domain.ErrQuantityTooLarge, nil)
			return
		}
	}

	cart, sess, err := loadCart(r)
	if err != nil {
		cartError(w, r, err, nil)
		return
	}

	total, err := h.cartService.AddItem(r.Context(), cart, productID, variantID, quantity)
	if err != nil {
		if domain.IsValidationError(err) {
			err = domain.ErrInvalidQuantity
		}
		cartError(w, r, err, nil)
		return
	}
	saveCart(r, sess, cart)

	message := "Item added to cart."
	if line, ok := cart.Line(domain.CartKey{ProductID: productID, VariantID: variantID}); ok {
		message = fmt.Sprintf("'%s' (Size: %s) added to cart.", line.Name, line.Size)
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"message":           message,
		"new_cart_quantity": total,
	})
}

// Update handles POST /cart/update/{key}
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseCartKey(r.PathValue("key"))
	if err != nil {
		cartError(w, r, domain.ErrCartLineNotFound, nil)
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		cartError(w, r, errInvalidUpdate, nil)
		return
	}

	cart, sess, err := loadCart(r)
	if err != nil {
		cartError(w, r, err, nil)
		return
	}

	update, err := h.cartService.UpdateQuantity(r.Context(), cart, key, quantity)
	// Clamping and dropping a vanished size both change the cart.
	saveCart(r, sess, cart)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) && update != nil {
			cartError(w, r, err, map[string]any{
				"new_quantity":  update.Quantity,
				"new_subtotal":  handler.Money(update.LineSubtotal),
				"total":         handler.Money(update.Total),
				"cart_quantity": update.TotalQuantity,
			})
			return
		}
		cartError(w, r, err, nil)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"new_quantity":  update.Quantity,
		"new_subtotal":  handler.Money(update.LineSubtotal),
		"total":         handler.Money(update.Total),
		"cart_quantity": update.TotalQuantity,
	})
}

// Remove handles POST /cart/remove/{key}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	key, err := domain.ParseCartKey(r.PathValue("key"))
	if err != nil {
		cartError(w, r, domain.ErrCartLineNotFound, nil)
		return
	}

	cart, sess, err := loadCart(r)
	if err != nil {
		cartError(w, r, err, nil)
		return
	}

	update, err := h.cartService.RemoveItem(r.Context(), cart, key)
	if err != nil {
		cartError(w, r, err, nil)
		return
	}
	saveCart(r, sess, cart)

	handler.JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"total":         handler.Money(update.Total),
		"cart_quantity": update.TotalQuantity,
		"key":           key.String(),
	})
}
