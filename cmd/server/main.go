package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/category"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/events"
	"storefront-be/internal/httpapi"
	"storefront-be/internal/inventory"
	"storefront-be/internal/lock"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/reporting"
	"storefront-be/internal/reservation"
	"storefront-be/internal/settlement"
	"storefront-be/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const eventBuffer = 1024

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logErr := logger.Init(logger.Options{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	defer logger.Sync()
	log := logger.L()
	if logErr != nil {
		log.Warn("ignoring LOG_LEVEL", zap.Error(logErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg.DB)
	defer database.Close()

	locker, closeLocker := newLocker(ctx, cfg.Redis)
	defer closeLocker()

	// The publisher outlives the signal context so requests still in
	// flight during shutdown can publish.
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	pub, waitPublisher := newPublisher(pubCtx, cfg.Kafka)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.InternalKey, "/webhook", "/users/login", "/users/signup")
	go limiter.Cleanup(ctx)

	handler := newHandler(database, cfg, locker, pub, reg, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	stopPublisher()
	waitPublisher()
}

// newHandler builds every service over database and mounts them.
func newHandler(
	database *sql.DB,
	cfg *config.Config,
	locker lock.Locker,
	pub events.Publisher,
	reg prometheus.Registerer,
	limiter *middleware.RateLimiter,
) http.Handler {
	var gatherer prometheus.Gatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	catalog := reservation.NewSQLCatalog(database)

	productSvc := product.NewService(product.NewRepository(database))
	categorySvc := category.NewService(category.NewRepository(database))
	userSvc := user.NewService(user.NewRepository(database), []byte(cfg.JWT.Secret), cfg.JWT.TTL)
	inventorySvc := inventory.NewService(inventory.NewRepository(database), pub)

	cartSvc := cart.NewService(cart.NewRepository(database), catalog)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, reservation.NewEngine(catalog), cartSvc, locker, pub)

	creds := payment.NewCredentialSource(cfg.Payment.SecretKey, cfg.Payment.SecretKeyFile, cfg.Payment.CredentialTTL)
	gateway := payment.NewPaystackGateway(payment.GatewayOptions{
		BaseURL:     cfg.Payment.BaseURL,
		Currency:    cfg.Payment.Currency,
		CallbackURL: strings.TrimRight(cfg.App.FrontendURL, "/") + "/payment/verify",
		Timeout:     cfg.Payment.Timeout,
	}, creds, metrics.NewGatewayMetrics(reg))
	paymentSvc := payment.NewService(orderRepo, gateway)

	coordinator := settlement.NewCoordinator(settlement.Deps{
		Orders:   orderRepo,
		Gateway:  gateway,
		Secrets:  creds,
		Webhooks: payment.NewRepository(database),
		Locker:   locker,
		Events:   pub,
		Metrics:  metrics.NewSettlementMetrics(reg),
	}, settlement.Options{
		VerifyAttempts:  cfg.Payment.VerifyAttempts,
		VerifyBaseDelay: cfg.Payment.VerifyBaseDelay,
	})

	return httpapi.NewRouter(httpapi.Deps{
		Orders:     orderSvc,
		Carts:      cartSvc,
		Payments:   paymentSvc,
		Settler:    coordinator,
		Products:   productSvc,
		Categories: categorySvc,
		Inventory:  inventorySvc,
		Reports:    reporting.NewService(reporting.NewRepository(database)),
		Users:      userSvc,

		DB:       database,
		Gatherer: gatherer,
		Limiter:  limiter,

		JWTSecret:      []byte(cfg.JWT.Secret),
		AllowedOrigin:  cfg.App.FrontendURL,
		RequestTimeout: 30 * time.Second,
	})
}

// newLocker uses Redis when configured so order locks hold across
// replicas; otherwise locks are process-local.
func newLocker(ctx context.Context, cfg config.RedisConfig) (lock.Locker, func()) {
	log := logger.L()
	if cfg.URL == "" {
		log.Info("order locks are in-process")
		return lock.NewKeyedMutex(), func() {}
	}

	client, err := lock.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	locker, err := lock.NewRedisLocker(client, cfg.LockTTL)
	if err != nil {
		log.Fatal("failed to build redis locker", zap.Error(err))
	}
	return locker, func() { _ = client.Close() }
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig) (events.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		logger.L().Info("event publication disabled")
		return events.Noop{}, func() {}
	}
	p := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, eventBuffer)
	p.Start(ctx)
	return p, p.WaitClosed
}
