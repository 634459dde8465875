package app

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gharseva/server/internal/module/cart"
	"github.com/gharseva/server/internal/module/order"
	"github.com/gharseva/server/internal/module/payment"
	"github.com/gharseva/server/internal/module/payment/provider"
	"github.com/gharseva/server/internal/shared/cache"
	"github.com/gharseva/server/internal/shared/config"
	"github.com/gharseva/server/internal/shared/database"
	"github.com/gharseva/server/internal/shared/logger"
	"github.com/gharseva/server/internal/shared/metrics"
	"github.com/gharseva/server/internal/shared/middleware"
)

// App wires the platform together: shared infrastructure, the payment
// core, and its order/cart collaborators.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB
	redis  redis.UniversalClient
	router *gin.Engine

	registry       *payment.ProviderRegistry
	paymentService *payment.Service
	orderService   *order.Service
	cartStore      *cart.Store
}

// New creates the application.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// Surface bad provider key material at startup, not at first charge.
	if err := cfg.Payment.Validate(); err != nil {
		return nil, err
	}

	app := &App{config: cfg, logger: log}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrate(&payment.Payment{}, &order.Order{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	app.db = db

	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, carts disabled", zap.Error(err))
		} else {
			app.redis = redisClient
			app.cartStore = cart.NewStore(redisClient)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New("gharseva", reg)

	app.registry = buildRegistry(&cfg.Payment, log)

	var carts order.CartClearer
	if app.cartStore != nil {
		carts = app.cartStore
	}
	app.orderService = order.NewService(order.NewRepository(db), carts, log)
	app.paymentService = payment.NewService(
		&cfg.Payment,
		app.registry,
		payment.NewRepository(db),
		app.orderService,
		log,
		m,
	)

	app.router = app.setupRouter(m, reg)
	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources. Live checkout sessions are reset,
// which cancels their pollers.
func (a *App) Stop() {
	a.paymentService.Close()
	if a.redis != nil {
		if err := cache.Close(a.redis); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *App) setupRouter(m *metrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(m))
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	payment.NewHandler(a.paymentService).RegisterRoutes(api)
	order.NewHandler(a.orderService).RegisterRoutes(api)
	if a.cartStore != nil {
		cart.NewHandler(a.cartStore).RegisterRoutes(api)
	}

	return r
}

// buildRegistry constructs the provider registry from configuration.
// Registration order decides routing: gateways claim their methods first,
// the offline adapter takes cash on delivery, and the mock picks up
// whatever is left so sandbox setups work without any keys.
func buildRegistry(cfg *config.PaymentConfig, log *zap.Logger) *payment.ProviderRegistry {
	registry := payment.NewProviderRegistry()

	if pc, ok := cfg.Providers["stripe"]; ok && pc.SecretKey != "" {
		registry.Register(provider.NewStripeAdapter(&provider.StripeConfig{
			APIKey:        pc.SecretKey,
			WebhookSecret: pc.WebhookSecret,
		}))
		log.Info("payment provider registered", zap.String("provider", "stripe"))
	}
	if pc, ok := cfg.Providers["razorpay"]; ok && pc.SecretKey != "" {
		registry.Register(provider.NewRazorpayAdapter(&provider.RazorpayConfig{
			KeyID:     pc.PublicKey,
			KeySecret: pc.SecretKey,
			BaseURL:   pc.BaseURL,
		}))
		log.Info("payment provider registered", zap.String("provider", "razorpay"))
	}

	registry.Register(provider.NewOfflineAdapter())
	registry.Register(provider.NewMockAdapter())

	log.Info("payment routing ready", zap.Strings("providers", registry.List()))
	return registry
}
