package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/boutique/internal/auth"
	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/telemetry"
)

// UserService provides business logic for user accounts.
type UserService interface {
	// Authenticate verifies email/password and returns the user if valid.
	// Unknown emails and wrong passwords both return ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUserByID retrieves a user by ID
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// Register creates an account with a bcrypt-hashed password.
	Register(ctx context.Context, email, password, fullName string, staff bool) (*domain.User, error)
}

type userService struct {
	store   domain.UserStore
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger

	// dummyHash keeps the unknown-email path as slow as a real comparison.
	dummyHash string
}

// NewUserService creates a new UserService instance
func NewUserService(store domain.UserStore, metrics *telemetry.BusinessMetrics, logger *slog.Logger) (UserService, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &userService{
		store:     store,
		metrics:   metrics,
		logger:    logger.With("service", "user"),
		dummyHash: dummy,
	}, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = auth.VerifyPassword(password, s.dummyHash)
			s.loginFailed()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.loginFailed()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(err, "user.authenticate", "failed to verify password")
	}

	if s.metrics != nil {
		s.metrics.Logins.Inc()
	}
	return user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *userService) Register(ctx context.Context, email, password, fullName string, staff bool) (*domain.User, error) {
	const op = "user.register"

	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || len(email) < 3 {
		return nil, domain.NewValidationError(op, "email", "Enter a valid email address")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.NewValidationError(op, "password", err.Error())
		}
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		IsStaff:      staff,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "staff", staff)
	return user, nil
}

func (s *userService) loginFailed() {
	if s.metrics != nil {
		s.metrics.LoginFailed.Inc()
	}
}
