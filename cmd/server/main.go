package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/cache"
	"github.com/wickshop/ember/internal/config"
	"github.com/wickshop/ember/internal/database"
	"github.com/wickshop/ember/internal/events"
	"github.com/wickshop/ember/internal/logger"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/server"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// sweepInterval is how often expired staging records and sessions are
// collected.
const sweepInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	log := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Msg("starting ember")

	log.Info().Msg("connecting to database")
	db, err := database.Initialize(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	stores := store.New(db)

	redisCache, err := cache.Connect(ctx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	defer redisCache.Close()

	publisher, err := events.Connect(cfg.NatsURL, log)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}
	defer publisher.Close()

	provider, err := buildBillingProvider(cfg, log)
	if err != nil {
		return fmt.Errorf("billing provider initialization failed: %w", err)
	}

	metrics := telemetry.NewBusinessMetrics("ember")
	httpMetrics := middleware.NewHTTPMetrics("ember")

	userService := service.NewUserService(stores.Users, stores.Sessions, metrics, log)
	catalogService := service.NewCatalogService(stores.Catalog, log)
	checkoutService := service.NewCheckoutService(stores.Catalog, stores.Orders, provider, service.CheckoutConfig{
		BaseURL:          cfg.BaseURL,
		AllowedCountries: cfg.Shipping.AllowedCountries,
	}, metrics, log)
	orderService := service.NewOrderService(stores.Orders, stores.Catalog, provider, publisher, metrics, cfg.Shipping.DefaultCountry, log)
	returnService := service.NewReturnService(stores.Returns, stores.Orders, provider, publisher, metrics, log)
	dashboardService := service.NewDashboardService(stores.Stats, redisCache, log)
	qrCodeService := service.NewQRCodeService(stores.QRCodes, stores.Catalog, metrics, log)

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	go runSweeper(ctx, checkoutService, userService, log)

	e := server.New(server.Deps{
		Log:           log,
		Users:         userService,
		Catalog:       catalogService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Returns:       returnService,
		Dashboard:     dashboardService,
		QRCodes:       qrCodeService,
		Provider:      provider,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Metrics:       metrics,
		HTTPMetrics:   httpMetrics,
		SecureCookies: cfg.Env == "prod",
	})

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildBillingProvider returns the real Stripe provider, or the in-memory
// mock in development when no API key is configured. Production requires the
// key at config load time.
func buildBillingProvider(cfg *config.Config, log zerolog.Logger) (billing.Provider, error) {
	if cfg.Stripe.SecretKey == "" {
		log.Warn().Msg("no stripe key configured; using mock billing provider")
		return billing.NewMockProvider(), nil
	}
	stripeCfg := billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}
	provider, err := billing.NewStripeProvider(stripeCfg)
	if err != nil {
		return nil, err
	}
	log.Info().Bool("test_mode", stripeCfg.IsTestMode()).Msg("stripe billing provider initialized")
	return provider, nil
}

// runSweeper periodically collects expired checkout staging records and auth
// sessions.
func runSweeper(ctx context.Context, checkout service.CheckoutService, users service.UserService, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := checkout.SweepExpiredStagedOrders(ctx); err != nil {
				log.Error().Err(err).Msg("staged order sweep failed")
			} else if n > 0 {
				log.Info().Int64("removed", n).Msg("expired staged orders removed")
			}
			if n, err := users.SweepExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("session sweep failed")
			} else if n > 0 {
				log.Info().Int64("removed", n).Msg("expired sessions removed")
			}
		}
	}
}
