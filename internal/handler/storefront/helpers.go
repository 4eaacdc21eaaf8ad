package storefront

import (
	"errors"
	"net/http"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/session"
)

var errNoSession = domain.Errorf(domain.EINTERNAL, "storefront.session", "session middleware not installed")

// loadCart decodes the session cart. Entries that failed validation are
// logged and disappear on the next save.
func loadCart(r *http.Request) (*domain.Cart, *session.Session, error) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return nil, nil, errNoSession
	}

	cart, dropped := sess.Cart()
	if len(dropped) > 0 {
		middleware.GetLogger(r.Context()).Warn("dropped malformed cart entries", "keys", dropped)
	}
	return cart, sess, nil
}

// saveCart writes the cart back to the session. It must run before the
// response header is written.
func saveCart(r *http.Request, sess *session.Session, cart *domain.Cart) {
	if err := sess.SaveCart(cart); err != nil {
		middleware.GetLogger(r.Context()).Error("failed to save cart", "error", err)
	}
}

// cartError answers the cart endpoints' {success:false, error} shape with
// the status the error's code maps to.
func cartError(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	code := domain.ErrorCode(err)
	status := handler.ErrorCodeToHTTPStatus(code)

	message := domain.ErrorMessage(err)
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		message = handler.InsufficientStockMessage(stockErr.Available)
	}

	logger := middleware.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("cart request failed", "error", err)
	} else {
		logger.Info("cart request rejected", "error", err, "code", code)
	}

	body := map[string]any{"success": false, "error": message}
	for k, v := range extra {
		body[k] = v
	}
	handler.JSON(w, status, body)
}

// MethodNotAllowed answers non-POST requests to the cart mutation endpoints.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	handler.JSON(w, http.StatusMethodNotAllowed, map[string]any{
		"success": false,
		"error":   "Method not allowed",
	})
}
