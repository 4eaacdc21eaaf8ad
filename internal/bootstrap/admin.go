// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/service"
)

// AdminConfig contains configuration for the initial staff user.
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

// Validate checks that the admin configuration is valid.
func (c *AdminConfig) Validate() error {
	if c.Email == "" {
		return errors.New("admin email is required")
	}
	if c.Password == "" {
		return errors.New("admin password is required")
	}
	if len(c.Password) < 12 {
		return errors.New("admin password must be at least 12 characters")
	}
	return nil
}

// EnsureStaffUser creates the initial staff account if it doesn't exist.
// It is idempotent and safe to call on every startup.
//
// A nil config or one without email/password only logs a warning.
func EnsureStaffUser(ctx context.Context, users domain.UserStore, svc service.UserService, cfg *AdminConfig, logger *slog.Logger) error {
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		logger.Warn("bootstrap: skipping staff creation - BOUTIQUE_ADMIN_EMAIL or BOUTIQUE_ADMIN_PASSWORD not set",
			"hint", "Set these environment variables to create a staff user on first startup",
		)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	_, err := users.GetUserByEmail(ctx, cfg.Email)
	if err == nil {
		logger.Info("bootstrap: staff user already exists", "email", cfg.Email)
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check for existing staff user: %w", err)
	}

	name := cfg.FullName
	if name == "" {
		name = "Admin"
	}

	user, err := svc.Register(ctx, cfg.Email, cfg.Password, name, true)
	if err != nil {
		// Another instance won the race.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			logger.Info("bootstrap: staff user already exists (concurrent creation)", "email", cfg.Email)
			return nil
		}
		return fmt.Errorf("failed to create staff user: %w", err)
	}

	logger.Info("bootstrap: staff user created", "email", user.Email, "user_id", user.ID)
	return nil
}
