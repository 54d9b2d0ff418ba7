package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/forjalabs/forja/internal"
	"github.com/forjalabs/forja/internal/billing"
	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/events"
	"github.com/forjalabs/forja/internal/handler"
	"github.com/forjalabs/forja/internal/middleware"
	"github.com/forjalabs/forja/internal/order"
	"github.com/forjalabs/forja/internal/shipping"
	"github.com/forjalabs/forja/internal/store"
	"github.com/forjalabs/forja/internal/tax"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize Redis cart store
	logger.Info("Connecting to Redis...", "addr", cfg.RedisAddr)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	cartStore := store.NewRedisStore(redisClient, time.Duration(cfg.CartTTLDays)*24*time.Hour)
	logger.Info("Redis connection established")

	// Initialize coupon registry
	couponRegistry := coupon.NewPostgresRegistry(pool)

	// Initialize shipping provider
	shippingProvider := shipping.NewTableProvider(shipping.DefaultRates(), shipping.DefaultRestOfWorldRate, cfg.Currency)

	// Initialize tax calculator
	taxCalculator := tax.NewPercentageCalculator(cfg.TaxRate, cfg.TaxName)

	// Initialize cart service
	cartService := cart.NewService(cartStore, couponRegistry, shippingProvider, taxCalculator, cfg.Currency, logger)

	// Initialize Stripe billing provider
	logger.Info("Initializing Stripe billing provider...")
	stripeConfig := billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}
	billingProvider, err := billing.NewStripeProvider(stripeConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized", "test_mode", stripeConfig.IsTestMode())

	// Initialize event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = natsPublisher
		logger.Info("NATS event publisher initialized", "url", cfg.NatsURL)
	}
	defer publisher.Close()

	// Initialize order service
	orderRepo := order.NewPostgresRepository(pool)
	orderService := order.NewService(cartService, orderRepo, billingProvider, couponRegistry, publisher, logger)

	// Initialize Prometheus metrics
	metrics := middleware.NewMetrics("forja")

	// Build the router
	r := handler.NewRouter(handler.Deps{
		Carts:    cartService,
		Orders:   orderService,
		Payments: billingProvider,
		Cookies:  handler.CookieConfig{Secure: cfg.Env == "prod"},
		Logger:   logger,
		Metrics:  metrics,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down...", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
