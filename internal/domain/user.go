package domain

//go:generate mockgen -source=user.go -destination=mocks/mock_user.go -package=mocks

import (
	"context"
	"time"
)

var (
	ErrUserNotFound       = Errorf(ENOTFOUND, "", "User not found")
	ErrInvalidCredentials = Errorf(EUNAUTHORIZED, "", "Invalid email or password")
	ErrStaffRequired      = Errorf(EFORBIDDEN, "", "Staff access required")
	ErrDuplicateEmail     = Errorf(ECONFLICT, "", "Email already registered")
)

// User is an account. Staff users may use the admin API.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserStore persists user accounts.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	CountUsers(ctx context.Context) (int, error)
}
