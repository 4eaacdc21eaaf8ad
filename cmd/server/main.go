package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/boutique/internal"
	"github.com/dukerupert/boutique/internal/bootstrap"
	"github.com/dukerupert/boutique/internal/cookie"
	"github.com/dukerupert/boutique/internal/domain"
	"github.com/dukerupert/boutique/internal/email"
	"github.com/dukerupert/boutique/internal/events"
	"github.com/dukerupert/boutique/internal/handler/admin"
	"github.com/dukerupert/boutique/internal/handler/storefront"
	"github.com/dukerupert/boutique/internal/jobs"
	"github.com/dukerupert/boutique/internal/middleware"
	"github.com/dukerupert/boutique/internal/postgres"
	"github.com/dukerupert/boutique/internal/router"
	"github.com/dukerupert/boutique/internal/routes"
	"github.com/dukerupert/boutique/internal/service"
	"github.com/dukerupert/boutique/internal/session"
	"github.com/dukerupert/boutique/internal/shipping"
	"github.com/dukerupert/boutique/internal/storage"
	"github.com/dukerupert/boutique/internal/tax"
	"github.com/dukerupert/boutique/internal/telemetry"
	"github.com/dukerupert/boutique/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// ==========================================================================
	// Stores and services
	// ==========================================================================

	catalogStore := postgres.NewCatalogStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	userStore := postgres.NewUserStore(pool)
	shopStore := postgres.NewShopStore(pool)
	jobStore := postgres.NewJobStore(pool)
	txManager := postgres.NewTxManager(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	businessMetrics := telemetry.NewBusinessMetrics("boutique", registry)
	metrics := middleware.NewMetrics("boutique", registry)

	files, err := storage.NewStorage(ctx, storage.Config{
		Provider:  cfg.Storage.Provider,
		LocalPath: cfg.Storage.LocalPath,
		LocalURL:  cfg.Storage.LocalURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccountID: cfg.Storage.AccountID,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	shippingCost, err := decimal.NewFromString(cfg.Shop.ShippingCost)
	if err != nil {
		return fmt.Errorf("invalid SHOP_SHIPPING_COST: %w", err)
	}
	taxRate, err := decimal.NewFromString(cfg.Shop.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid SHOP_TAX_RATE: %w", err)
	}
	taxCalculator := tax.NewNoTaxCalculator()
	if !taxRate.IsZero() {
		if taxCalculator, err = tax.NewPercentageCalculator(taxRate, false); err != nil {
			return fmt.Errorf("failed to initialize tax calculator: %w", err)
		}
	}
	shippingProvider := shipping.NewFlatRateProvider([]shipping.FlatRate{{
		ServiceName: "Standard Delivery",
		ServiceCode: "standard",
		Cost:        shippingCost,
		DaysMin:     2,
		DaysMax:     5,
	}})

	catalogService, err := service.NewCatalogService(catalogStore, files, businessMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog service: %w", err)
	}
	stockService, err := service.NewStockService(shopStore)
	if err != nil {
		return fmt.Errorf("failed to initialize stock service: %w", err)
	}
	cartService, err := service.NewCartService(catalogStore, businessMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cart service: %w", err)
	}
	checkoutService, err := service.NewCheckoutService(
		catalogStore,
		orderStore,
		txManager,
		shippingProvider,
		taxCalculator,
		service.CheckoutConfig{
			City:                 cfg.Shop.City,
			PostalCode:           cfg.Shop.PostalCode,
			Country:              cfg.Shop.Country,
			DefaultPaymentMethod: cfg.Shop.PaymentMethod,
			EmailPlaceholder:     cfg.Shop.EmailPlaceholder,
		},
		businessMetrics,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}
	orderService, err := service.NewOrderService(orderStore, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}
	shopService, err := service.NewShopService(shopStore, shopStore, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize shop service: %w", err)
	}
	userService, err := service.NewUserService(userStore, businessMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize user service: %w", err)
	}

	if err := bootstrap.EnsureStaffUser(ctx, userStore, userService, &bootstrap.AdminConfig{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		FullName: cfg.Admin.FullName,
	}, logger); err != nil {
		return fmt.Errorf("failed to bootstrap staff user: %w", err)
	}

	// ==========================================================================
	// Sessions
	// ==========================================================================

	var (
		sessionStore session.Store
		cleaner      jobs.SessionCleaner
	)
	switch cfg.Session.Store {
	case "redis":
		redisStore, err := session.NewRedisStore(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	case "memory":
		memoryStore := session.NewMemoryStore()
		sessionStore, cleaner = memoryStore, memoryStore
	default:
		pgStore := postgres.NewSessionStore(pool)
		sessionStore, cleaner = pgStore, pgStore
	}

	cookieConfig := cookie.NewConfig(cfg.BaseDomain, cfg.Session.Secure)
	sessions := session.NewManager(sessionStore, cookieConfig, cfg.Session.TTL, logger)
	logger.Info("Session store ready", "store", cfg.Session.Store, "ttl", cfg.Session.TTL)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(events.NATSConfig{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			Name:          "boutique-server",
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		publisher = events.NewNoopPublisher(logger)
	}

	var sender email.Sender
	if cfg.Env == "prod" || cfg.Email.Host != "" {
		smtpSender := email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)

		// Jobs retry, so an unreachable relay at boot is only a warning.
		probeCtx, cancelProbe := context.WithTimeout(ctx, 5*time.Second)
		if err := smtpSender.TestConnection(probeCtx); err != nil {
			logger.Warn("SMTP relay not reachable", "host", cfg.Email.Host, "error", err)
		}
		cancelProbe()
		sender = smtpSender
	} else {
		sender = email.NewLogSender(logger)
	}
	emailService, err := email.NewService(sender, cfg.Email.From, cfg.Email.FromName)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	workerDone := make(chan struct{})
	if cfg.Worker.Enabled {
		w := worker.NewWorker(worker.Deps{
			Store:     jobStore,
			Email:     emailService,
			Publisher: publisher,
			Sessions:  cleaner,
			Metrics:   businessMetrics,
		}, worker.Config{
			PollInterval:    cfg.Worker.PollInterval,
			MaxConcurrency:  cfg.Worker.Concurrency,
			CleanupInterval: cfg.Worker.CleanupInterval,
		}, logger)

		go func() {
			defer close(workerDone)
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "error", err)
				telemetry.CaptureError(err, map[string]interface{}{"component": "worker"})
			}
		}()
	} else {
		close(workerDone)
	}

	// ==========================================================================
	// Handlers and middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	csrfConfig := middleware.DefaultCSRFConfig(cookieConfig)
	authRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer authRateLimiter.Stop()
	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultRateLimiter.Stop()

	storefrontDeps := routes.StorefrontDeps{
		CatalogHandler:  storefront.NewCatalogHandler(catalogService, stockService),
		CartHandler:     storefront.NewCartHandler(cartService, catalogService.ImageURL),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService),
		OrderHandler:    storefront.NewOrderHandler(orderService),
		AuthHandler:     storefront.NewAuthHandler(userService),
		CSRF:            middleware.CSRF(csrfConfig),
		AuthRateLimit:   authRateLimiter.Middleware,
	}

	adminDeps := routes.AdminDeps{
		ShopHandler:     admin.NewShopHandler(shopService),
		CategoryHandler: admin.NewCategoryHandler(catalogService),
		ProductHandler:  admin.NewProductHandler(catalogService),
		OrderHandler:    admin.NewOrderHandler(orderService),
		CSRF:            middleware.CSRF(csrfConfig),
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		router.CORS(cfg.CORSOrigins),
		telemetry.SentryMiddleware(),
		defaultRateLimiter.Middleware,
		sessions.Middleware,
		middleware.WithUser(userService),
		telemetry.SentryContextMiddleware(sentryUser),
	)

	if local, ok := files.(*storage.LocalStorage); ok {
		r.Static(cfg.Storage.LocalURL, local.BasePath())
	}

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.RegisterStorefrontRoutes(r, storefrontDeps)
	routes.RegisterAdminRoutes(r, adminDeps)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	stop()
	<-workerDone
	logger.Info("Server stopped")

	return nil
}

func sentryUser(ctx context.Context) *telemetry.UserInfo {
	user := domain.UserFromContext(ctx)
	if user == nil {
		return nil
	}
	return &telemetry.UserInfo{ID: strconv.FormatInt(user.ID, 10), Email: user.Email}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
