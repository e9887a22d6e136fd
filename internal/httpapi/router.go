package httpapi

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/category"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/rbac"
	"storefront-be/internal/reporting"
	"storefront-be/internal/settlement"
	"storefront-be/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const webhookPath = "/webhook"

// Settler is the part of the settlement coordinator the HTTP layer drives.
type Settler interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*settlement.WebhookResult, error)
	VerifyAndSettle(ctx context.Context, actor rbac.Actor, reference string) (*order.Order, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Orders     order.Service
	Carts      cart.Service
	Payments   payment.Service
	Settler    Settler
	Products   product.Service
	Categories category.Service
	Inventory  inventory.Service
	Reports    reporting.Service
	Users      user.Service

	DB       Pinger
	Gatherer prometheus.Gatherer
	Limiter  *middleware.RateLimiter

	JWTSecret      []byte
	AllowedOrigin  string
	RequestTimeout time.Duration
}

// NewRouter mounts every public route.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		chimw.RealIP,
		logger.RequestIDMiddleware,
		middleware.CORS(d.AllowedOrigin),
		middleware.Auth(d.JWTSecret),
	)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}
	r.Use(middleware.LoggingMiddleware)

	r.Get("/healthz", healthz(d.DB))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Gateway callbacks are authenticated by signature, not by token, and
	// run without the request timeout so a settlement is never cut short.
	payments := &paymentHandler{payments: d.Payments, settler: d.Settler}
	r.Post(webhookPath, payments.webhook)

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(chimw.Timeout(d.RequestTimeout))
		}

		catalog := &catalogHandler{products: d.Products, inventory: d.Inventory}
		r.Get("/products", catalog.listProducts)
		r.Get("/products/count", catalog.countProducts)
		r.Get("/products/{id}", catalog.getProduct)

		categories := &categoryHandler{categories: d.Categories}
		r.Get("/categories", categories.list)
		r.Get("/categories/{id}", categories.get)

		users := &userHandler{users: d.Users}
		r.Post("/users/signup", users.signup)
		r.Post("/users/login", users.login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			orders := &orderHandler{orders: d.Orders}
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orders.create)
				r.Get("/", orders.list)
				r.Get("/{id}", orders.get)
				r.Put("/{id}/status", orders.updateStatus)
			})

			carts := &cartHandler{carts: d.Carts, orders: d.Orders}
			r.Route("/cart", func(r chi.Router) {
				r.Post("/", carts.add)
				r.Get("/", carts.get)
				r.Post("/checkout", carts.checkout)
				r.Patch("/{id}", carts.update)
				r.Delete("/{id}", carts.remove)
			})

			r.Post("/payment/initialize", payments.initialize)
			r.Get("/payment/verify", payments.verify)

			r.Get("/users/me", users.me)
			r.Patch("/users/me", users.updateMe)
			r.With(middleware.RequireAction(rbac.GetProfiles)).Get("/users", users.list)

			r.With(middleware.RequireAction(rbac.AddProduct)).Post("/products", catalog.createProduct)
			r.With(middleware.RequireAction(rbac.UpdateProduct)).Patch("/products/{id}", catalog.updateProduct)
			r.With(middleware.RequireAction(rbac.DeleteProduct)).Delete("/products/{id}", catalog.deleteProduct)

			r.With(middleware.RequireAction(rbac.AddCategory)).Post("/categories", categories.create)
			r.With(middleware.RequireAction(rbac.UpdateCategory)).Patch("/categories/{id}", categories.update)
			r.With(middleware.RequireAction(rbac.DeleteCategory)).Delete("/categories/{id}", categories.remove)

			r.Route("/inventory", func(r chi.Router) {
				r.Use(middleware.RequireAction(rbac.ManageInventory))
				r.Get("/", catalog.listInventory)
				r.Post("/stock", catalog.updateStock)
				r.Post("/sync", catalog.syncInventory)
				r.Get("/{productId}/history", catalog.history)
			})

			reports := &reportHandler{reports: d.Reports}
			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireAction(rbac.ViewReports))
				r.Get("/sales", reports.sales)
				r.Get("/inventory", reports.inventory)
				r.Get("/low-stock", reports.lowStock)
				r.Get("/products", reports.products)
				r.Get("/users", reports.users)
				r.Get("/dashboard", reports.dashboard)
			})
		})
	})

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.FromCtx(r.Context()).Warn("health check failed")
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
