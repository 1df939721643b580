package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/cobaltcommerce/cobalt-backend/api/routes"
	"github.com/cobaltcommerce/cobalt-backend/internal/agencies"
	"github.com/cobaltcommerce/cobalt-backend/internal/analytics"
	"github.com/cobaltcommerce/cobalt-backend/internal/apikeys"
	"github.com/cobaltcommerce/cobalt-backend/internal/auth"
	"github.com/cobaltcommerce/cobalt-backend/internal/billing"
	"github.com/cobaltcommerce/cobalt-backend/internal/categories"
	"github.com/cobaltcommerce/cobalt-backend/internal/customers"
	"github.com/cobaltcommerce/cobalt-backend/internal/orders"
	"github.com/cobaltcommerce/cobalt-backend/internal/products"
	"github.com/cobaltcommerce/cobalt-backend/internal/storefront"
	"github.com/cobaltcommerce/cobalt-backend/internal/stores"
	"github.com/cobaltcommerce/cobalt-backend/internal/subdomains"
	"github.com/cobaltcommerce/cobalt-backend/internal/tenancy"
	"github.com/cobaltcommerce/cobalt-backend/internal/users"
	stripewebhook "github.com/cobaltcommerce/cobalt-backend/internal/webhooks/stripe"
	"github.com/cobaltcommerce/cobalt-backend/pkg/auth/session"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
	"github.com/cobaltcommerce/cobalt-backend/pkg/metrics"
	"github.com/cobaltcommerce/cobalt-backend/pkg/migrate"
	"github.com/cobaltcommerce/cobalt-backend/pkg/redis"
	"github.com/cobaltcommerce/cobalt-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	agenciesRepo := agencies.NewRepository(dbClient.DB())
	storesRepo := stores.NewRepository(dbClient.DB())
	subdomainsRepo := subdomains.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	categoriesRepo := categories.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	apiKeysRepo := apikeys.NewRepository(dbClient.DB())
	analyticsRepo := analytics.NewRepository(dbClient.DB())
	subscriptionsRepo := billing.NewSubscriptionRepository(dbClient.DB())
	paymentsRepo := billing.NewPaymentRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		RateLimitCfg:   cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		RateLimitCfg:   cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	agencyService, err := agencies.NewService(agenciesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create agency service", err)
		os.Exit(1)
	}

	storeService, err := stores.NewService(storesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	subdomainService, err := subdomains.NewService(subdomainsRepo, storesRepo, cfg.Platform)
	if err != nil {
		logg.Error(context.Background(), "failed to create subdomain service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(subscriptionsRepo, paymentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productsRepo, categoriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	categoryService, err := categories.NewService(categoriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		DB:        dbClient,
		Orders:    ordersRepo,
		Products:  productsRepo,
		Customers: customersRepo,
		Analytics: analyticsRepo,
		Counter:   redisClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Rollups:   analyticsRepo,
		Orders:    ordersRepo,
		Products:  productsRepo,
		Customers: customersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	apiKeyService, err := apikeys.NewService(apiKeysRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create api key service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	storefrontService, err := storefront.NewService(productsRepo, categoriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create storefront service", err)
		os.Exit(1)
	}

	resolver, err := tenancy.NewResolver(subdomainsRepo, storesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenancy resolver", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Subscriptions:     subscriptionsRepo,
		Payments:          paymentsRepo,
		Orders:            ordersRepo,
		StripeClient:      stripewebhook.NewSubscriptionClient(stripeClient),
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Session:  sessionManager,
		Metrics:  httpMetrics,
		Gatherer: registry,

		Users:    usersRepo,
		Resolver: resolver,

		AuthService:       authService,
		RegisterService:   registerService,
		AgencyService:     agencyService,
		StoreService:      storeService,
		SubdomainService:  subdomainService,
		BillingService:    billingService,
		ProductService:    productService,
		CategoryService:   categoryService,
		CustomerService:   customerService,
		OrderService:      orderService,
		AnalyticsService:  analyticsService,
		APIKeyService:     apiKeyService,
		StorefrontService: storefrontService,
		UserService:       userService,

		StripeClient:       stripeClient,
		StripeWebhookSvc:   webhookService,
		StripeWebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
