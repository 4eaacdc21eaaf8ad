package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/service"
)

// OrderHandler handles order management
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /admin/orders?status=&limit=&offset=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	orders, total, err := h.orders.ListOrders(r.Context(), q.Get("status"), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	views := make([]handler.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, handler.NewOrderView(&orders[i]))
	}
	handler.JSON(w, http.StatusOK, map[string]any{
		"orders": views,
		"total":  total,
	})
}

// Detail handles GET /admin/orders/{id}
func (h *OrderHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusOK, handler.NewOrderView(order))
}

// UpdateStatus handles POST /admin/orders/{id}/status. The status comes from
// a JSON body or a form field.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var in struct {
		Status string `json:"status"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := handler.DecodeJSON(r, &in); err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
	} else {
		in.Status = r.FormValue("status")
	}

	order, err := h.orders.UpdateStatus(r.Context(), id, strings.TrimSpace(in.Status))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("order status updated", "order_id", id, "status", order.Status)
	handler.JSON(w, http.StatusOK, handler.NewOrderView(order))
}

// Delete handles DELETE /admin/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
