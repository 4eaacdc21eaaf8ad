package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/service"
	"github.com/dukerupert/boutique/internal/session"
)

type contextKey string

// WithUser loads the user recorded in the session and adds it to the request context.
// This middleware is optional - it adds the user if present but doesn't require authentication.
// It must run after the session middleware.
func WithUser(userService service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || sess.UserID() == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.GetUserByID(r.Context(), sess.UserID())
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					// Account was removed while the session lived on.
					sess.ClearUserID()
				} else {
					GetLogger(r.Context()).Warn("failed to load session user", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := domain.NewContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff is the single gate for the admin API. Anonymous requests get
// 401 and authenticated non-staff users get 403.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.IsAuthenticated(r.Context()) {
			respondUnauthorized(w, r)
			return
		}

		if !domain.IsStaff(r.Context()) {
			respondWithError(w, r, domain.ErrStaffRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
// Returns nil if no user is authenticated
func GetUserFromContext(ctx context.Context) *domain.User {
	return domain.UserFromContext(ctx)
}
