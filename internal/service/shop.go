package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/validate"
)

// Default contact details used when the configuration is first created.
const (
	DefaultContactEmail = "contact@laroseboutique.com"
	DefaultContactPhone = "+33123456789"
)

// ShopConfigInput is the admin configuration payload.
type ShopConfigInput struct {
	ContactEmail string `json:"contact_email" validate:"required,email,max=254"`
	ContactPhone string `json:"contact_phone" validate:"required,max=30"`
}

// Dashboard is the admin overview.
type Dashboard struct {
	Stats  *domain.DashboardStats
	Config *domain.ShopConfiguration
}

// ShopService manages the shop configuration and the admin dashboard.
type ShopService interface {
	// GetConfig returns the configuration, creating it with defaults on first use.
	GetConfig(ctx context.Context) (*domain.ShopConfiguration, error)
	UpdateConfig(ctx context.Context, in ShopConfigInput) (*domain.ShopConfiguration, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type shopService struct {
	config domain.ShopConfigStore
	stats  domain.StatsStore
	logger *slog.Logger
}

// NewShopService creates a new ShopService instance
func NewShopService(config domain.ShopConfigStore, stats domain.StatsStore, logger *slog.Logger) (ShopService, error) {
	if config == nil || stats == nil {
		return nil, fmt.Errorf("config and stats stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &shopService{config: config, stats: stats, logger: logger.With("service", "shop")}, nil
}

func (s *shopService) GetConfig(ctx context.Context) (*domain.ShopConfiguration, error) {
	cfg, err := s.config.GetShopConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrConfigNotFound) {
		return nil, err
	}

	cfg = &domain.ShopConfiguration{
		ContactEmail: DefaultContactEmail,
		ContactPhone: DefaultContactPhone,
	}
	if err := s.config.CreateShopConfig(ctx, cfg); err != nil {
		// Another request created it first; the constraint kept it single.
		if errors.Is(err, domain.ErrConfigSingletonViolation) {
			return s.config.GetShopConfig(ctx)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "shop configuration created with defaults")
	return cfg, nil
}

func (s *shopService) UpdateConfig(ctx context.Context, in ShopConfigInput) (*domain.ShopConfiguration, error) {
	const op = "shop.update_config"

	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if err := validate.Struct(op, &in); err != nil {
		return nil, err
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg.ContactEmail = in.ContactEmail
	cfg.ContactPhone = in.ContactPhone
	if err := s.config.UpdateShopConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *shopService) Dashboard(ctx context.Context) (*Dashboard, error) {
	stats, err := s.stats.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: stats, Config: cfg}, nil
}
