package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cobaltcommerce/cobalt-backend/api/controllers"
	webhookcontrollers "github.com/cobaltcommerce/cobalt-backend/api/controllers/webhooks"
	"github.com/cobaltcommerce/cobalt-backend/api/middleware"
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
	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
	"github.com/cobaltcommerce/cobalt-backend/pkg/metrics"
	"github.com/cobaltcommerce/cobalt-backend/pkg/redis"
	"github.com/cobaltcommerce/cobalt-backend/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Session  *session.Manager
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Users    *users.Repository
	Resolver *tenancy.Resolver

	AuthService       auth.Service
	RegisterService   auth.RegisterService
	AgencyService     agencies.Service
	StoreService      stores.Service
	SubdomainService  subdomains.Service
	BillingService    billing.Service
	ProductService    products.Service
	CategoryService   categories.Service
	CustomerService   customers.Service
	OrderService      orders.Service
	AnalyticsService  analytics.Service
	APIKeyService     apikeys.Service
	StorefrontService storefront.Service
	UserService       users.Service

	StripeClient       *stripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

// NewRouter assembles the full API surface: health and metrics, the public
// auth and webhook endpoints, the authenticated management API, the keyed
// /api/v1 machine surface, and the host-resolved public storefront.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(p.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookSvc, p.StripeClient, p.StripeWebhookGuard, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Session, p.Users, logg)).
			Post("/logout", controllers.AuthLogout(p.AuthService, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, p.Users, logg))
		r.Use(middleware.RequireRole(enums.UserRoleSuperAdmin, logg))

		r.Get("/users", controllers.UserList(p.UserService, logg))

		r.Route("/agencies", func(r chi.Router) {
			r.Get("/", controllers.AgencyList(p.AgencyService, logg))
			r.Post("/", controllers.AgencyCreate(p.AgencyService, logg))
			r.Get("/{agencyId}", controllers.AgencyGet(p.AgencyService, logg))
			r.Put("/{agencyId}", controllers.AgencyUpdate(p.AgencyService, logg))
			r.Delete("/{agencyId}", controllers.AgencyDelete(p.AgencyService, logg))
		})
	})

	r.Route("/api/agency", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, p.Users, logg))

		r.Route("/subdomains", func(r chi.Router) {
			r.Get("/", controllers.SubdomainList(p.SubdomainService, logg))
			r.Post("/", controllers.SubdomainCreate(p.SubdomainService, logg))
			r.Delete("/{subdomainId}", controllers.SubdomainDelete(p.SubdomainService, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/subscription", controllers.BillingSubscription(p.BillingService, logg))
			r.Get("/payments", controllers.BillingPayments(p.BillingService, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(p.StoreService, logg))
			r.Post("/", controllers.StoreCreate(p.StoreService, logg))

			r.Route("/{storeId}", func(r chi.Router) {
				r.Get("/", controllers.StoreGet(p.StoreService, logg))
				r.Put("/", controllers.StoreUpdate(p.StoreService, logg))
				r.Delete("/", controllers.StoreDelete(p.StoreService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.StoreScope(p.Resolver, logg))

					r.Route("/products", func(r chi.Router) {
						r.Get("/", controllers.ProductList(p.ProductService, logg))
						r.Post("/", controllers.ProductCreate(p.ProductService, logg))
						r.Get("/{productId}", controllers.ProductGet(p.ProductService, logg))
						r.Put("/{productId}", controllers.ProductUpdate(p.ProductService, logg))
						r.Delete("/{productId}", controllers.ProductDelete(p.ProductService, logg))
					})

					r.Route("/categories", func(r chi.Router) {
						r.Get("/", controllers.CategoryList(p.CategoryService, logg))
						r.Post("/", controllers.CategoryCreate(p.CategoryService, logg))
						r.Put("/{categoryId}", controllers.CategoryUpdate(p.CategoryService, logg))
						r.Delete("/{categoryId}", controllers.CategoryDelete(p.CategoryService, logg))
					})

					r.Route("/orders", func(r chi.Router) {
						r.Get("/", controllers.OrderList(p.OrderService, logg))
						r.Get("/{orderId}", controllers.OrderGet(p.OrderService, logg))
						r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(p.OrderService, logg))
					})

					r.Route("/customers", func(r chi.Router) {
						r.Get("/", controllers.CustomerList(p.CustomerService, logg))
						r.Get("/{customerId}", controllers.CustomerGet(p.CustomerService, logg))
						r.Put("/{customerId}", controllers.CustomerUpdate(p.CustomerService, logg))
						r.Delete("/{customerId}", controllers.CustomerDelete(p.CustomerService, logg))
					})

					r.Get("/analytics/overview", controllers.AnalyticsOverview(p.AnalyticsService, logg))

					r.Route("/api-keys", func(r chi.Router) {
						r.Get("/", controllers.APIKeyList(p.APIKeyService, logg))
						r.Post("/", controllers.APIKeyCreate(p.APIKeyService, logg))
						r.Delete("/{keyId}", controllers.APIKeyRevoke(p.APIKeyService, logg))
					})
				})
			})
		})
	})

	// Machine surface: same controllers, authenticated by store api key.
	r.Route("/api/v1/stores/{storeId}", func(r chi.Router) {
		r.Use(middleware.StoreScope(p.Resolver, logg))
		r.Use(middleware.APIKeyAuth(p.APIKeyService, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.ProductService, logg))
			r.Post("/", controllers.ProductCreate(p.ProductService, logg))
			r.Get("/{productId}", controllers.ProductGet(p.ProductService, logg))
			r.Put("/{productId}", controllers.ProductUpdate(p.ProductService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(p.ProductService, logg))
		})

		r.Get("/categories", controllers.CategoryList(p.CategoryService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(p.OrderService, logg))
			r.Post("/", controllers.StorefrontCheckout(p.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(p.OrderService, logg))
		})

		r.Get("/analytics/overview", controllers.AnalyticsOverview(p.AnalyticsService, logg))
	})

	// Public storefront, tenant resolved from the request host.
	r.Route("/storefront", func(r chi.Router) {
		r.Use(middleware.Tenant(p.Resolver, logg))

		r.Get("/catalog", controllers.StorefrontCatalog(p.StorefrontService, logg))
		r.Get("/catalog/{productId}", controllers.StorefrontProduct(p.StorefrontService, logg))
		r.Get("/categories", controllers.StorefrontCategories(p.StorefrontService, logg))
		r.Post("/checkout", controllers.StorefrontCheckout(p.OrderService, logg))
		r.Post("/pageview", controllers.StorefrontPageView(p.AnalyticsService, logg))
	})

	return r
}
