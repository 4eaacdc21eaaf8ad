package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/domain/mocks"
	"github.com/dukerupert/boutique/internal/service"
)

func TestEnsureStaffUser(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &AdminConfig{Email: "admin@shop.test", Password: "a long admin password"}

	t.Run("skips without config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		svc, err := service.NewUserService(store, nil, logger)
		require.NoError(t, err)

		assert.NoError(t, EnsureStaffUser(ctx, store, svc, nil, logger))
		assert.NoError(t, EnsureStaffUser(ctx, store, svc, &AdminConfig{}, logger))
	})

	t.Run("rejects short password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		svc, err := service.NewUserService(store, nil, logger)
		require.NoError(t, err)

		err = EnsureStaffUser(ctx, store, svc, &AdminConfig{Email: "a@b.test", Password: "short"}, logger)
		assert.ErrorContains(t, err, "at least 12")
	})

	t.Run("existing user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), cfg.Email).Return(&domain.User{ID: 1}, nil)
		svc, err := service.NewUserService(store, nil, logger)
		require.NoError(t, err)

		assert.NoError(t, EnsureStaffUser(ctx, store, svc, cfg, logger))
	})

	t.Run("creates staff", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), cfg.Email).Return(nil, domain.ErrUserNotFound)
		store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
			assert.True(t, u.IsStaff)
			assert.Equal(t, "Admin", u.FullName)
			u.ID = 1
			return nil
		})
		svc, err := service.NewUserService(store, nil, logger)
		require.NoError(t, err)

		assert.NoError(t, EnsureStaffUser(ctx, store, svc, cfg, logger))
	})

	t.Run("concurrent creation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockUserStore(ctrl)
		store.EXPECT().GetUserByEmail(gomock.Any(), cfg.Email).Return(nil, domain.ErrUserNotFound)
		store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(domain.ErrDuplicateEmail)
		svc, err := service.NewUserService(store, nil, logger)
		require.NoError(t, err)

		assert.NoError(t, EnsureStaffUser(ctx, store, svc, cfg, logger))
	})
}
