package storefront

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/service"
	"github.com/dukerupert/boutique/internal/session"
)

// CheckoutHandler shows the order summary and places orders.
type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

type checkoutLineView struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// Show handles GET /checkout
func (h *CheckoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	cart, sess, err := loadCart(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary, err := h.checkoutService.Summarize(r.Context(), cart)
	if err != nil {
		saveCart(r, sess, cart)
		h.checkoutError(w, r, err)
		return
	}

	// One token per checkout attempt; a resubmitted form reuses it.
	token := sess.CheckoutToken()
	if token == "" {
		token = service.NewIdempotencyKey()
		if err := sess.SetCheckoutToken(token); err != nil {
			handler.InternalErrorResponse(w, r, err)
			return
		}
	}

	lines := make([]checkoutLineView, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, checkoutLineView{
			Key:       l.Key.String(),
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			UnitPrice: handler.Money(l.UnitPrice),
			Subtotal:  handler.Money(l.Subtotal),
		})
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"lines":           lines,
		"subtotal":        handler.Money(summary.Subtotal),
		"shipping_cost":   handler.Money(summary.Shipping),
		"tax":             handler.Money(summary.Tax),
		"total":           handler.Money(summary.Total),
		"idempotency_key": token,
		"csrf_token":      middleware.GetCSRFToken(r.Context()),
	})
}

// Submit handles POST /checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	cart, sess, err := loadCart(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	req := service.CheckoutRequest{
		FullName:       strings.TrimSpace(r.FormValue("full_name")),
		Phone:          strings.TrimSpace(r.FormValue("phone")),
		Address:        strings.TrimSpace(r.FormValue("address")),
		PaymentMethod:  strings.TrimSpace(r.FormValue("payment_method")),
		Email:          strings.TrimSpace(r.FormValue("email")),
		IdempotencyKey: strings.TrimSpace(r.FormValue("idempotency_key")),
	}
	req.SessionToken = sess.CheckoutToken()
	req.PlacedOrderIDs = sess.PlacedOrders()
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = req.SessionToken
	}
	if user := domain.UserFromContext(r.Context()); user != nil {
		req.UserID = &user.ID
		req.Email = user.Email
	}

	order, err := h.checkoutService.Checkout(r.Context(), cart, req)
	saveCart(r, sess, cart)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}

	sess.ClearCheckoutToken()
	if err := sess.AddPlacedOrder(order.ID); err != nil {
		middleware.GetLogger(r.Context()).Error("failed to remember placed order", "order_id", order.ID, "error", err)
	}

	redirect := fmt.Sprintf("/orders/%d/confirmation", order.ID)
	if !handler.AcceptsJSON(r) {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	handler.JSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"order_id": order.ID,
		"redirect": redirect,
	})
}

// checkoutError sends the customer back to the cart when the catalog moved
// under it. Everything else uses the standard error body.
func (h *CheckoutHandler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrProductRemoved) || errors.Is(err, service.ErrVariantRemoved) {
		middleware.GetLogger(r.Context()).Info("checkout drifted", "error", err)
		handler.JSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"code":    domain.ECONFLICT,
				"message": domain.ErrorMessage(err),
			},
			"redirect": "/cart",
		})
		return
	}
	handler.ErrorResponse(w, r, err)
}

// OrderHandler serves the confirmation page of a placed order.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order confirmation handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Confirmation handles GET /orders/{id}/confirmation. Only the buyer's
// session, the owning account or staff may see it.
func (h *OrderHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var placed []int64
	if sess := session.FromContext(r.Context()); sess != nil {
		placed = sess.PlacedOrders()
	}

	ctx := r.Context()
	order, err := h.orderService.GetOrderFor(ctx, id, domain.UserIDFromContext(ctx), domain.IsStaff(ctx), placed)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]any{
		"order": handler.NewOrderView(order),
	})
}
