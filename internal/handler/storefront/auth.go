package storefront

import (
	"net/http"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/handler"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/service"
	"github.com/dukerupert/boutique/internal/session"
)

// AuthHandler handles session login and logout.
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		handler.InternalErrorResponse(w, r, errNoSession)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		err := domain.NewValidationError("storefront.login", "email", "Email and password are required")
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), email, password)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	// A new id on privilege change; the cart carries over.
	if err := sess.Renew(); err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}
	if err := sess.SetUserID(user.ID); err != nil {
		handler.InternalErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("user logged in", "user_id", user.ID)
	handler.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    handler.NewUserView(user),
	})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.Destroy()
	}
	handler.JSON(w, http.StatusOK, map[string]any{"success": true})
}
