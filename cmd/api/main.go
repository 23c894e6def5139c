package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/tenancy-gateway/internal/application/auth"
	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/application/provisioning"
	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/internal/application/usage"
	"github.com/jhoicas/tenancy-gateway/internal/application/usecase"
	"github.com/jhoicas/tenancy-gateway/internal/infrastructure/cache"
	"github.com/jhoicas/tenancy-gateway/internal/infrastructure/commerce"
	"github.com/jhoicas/tenancy-gateway/internal/infrastructure/mail"
	"github.com/jhoicas/tenancy-gateway/internal/infrastructure/postgres"
	infrastripe "github.com/jhoicas/tenancy-gateway/internal/infrastructure/stripe"
	httpRouter "github.com/jhoicas/tenancy-gateway/internal/interfaces/http"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

const storePrefix = "/store"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := monitoring.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal().Err(err).Msg("registro de métricas")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	channelRepo := postgres.NewSalesChannelRepository(pool)
	keyRepo := postgres.NewAPIKeyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	runRepo := postgres.NewProvisioningRunRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cache de hosts: si Redis no responde se resuelve directo contra PostgreSQL.
	var hostCache *cache.HostCache
	if rdb, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, resolución por host sin cache")
	} else {
		defer rdb.Close()
		hostCache = cache.NewHostCache(rdb, cfg.Cache.TenantTTL)
	}

	// Stripe sólo si hay secret key; sin él no se crean clientes ni se actualizan suscripciones.
	var payments ports.PaymentProvider
	if cfg.Stripe.SecretKey != "" {
		payments = infrastripe.NewProvider(cfg.Stripe)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY no configurado, aprovisionamiento sin cliente de facturación")
	}
	notifier := mail.NewNotifier(cfg.Mail)

	hostStrategy := tenancy.HostStrategy{Tenants: tenantRepo, BaseDomain: cfg.Tenancy.BaseDomain}
	var hostInvalidator usecase.HostInvalidator
	if hostCache != nil {
		hostStrategy.Cache = hostCache
		hostInvalidator = hostCache
	}
	strategies, err := tenancy.BuildStrategies(cfg.Tenancy.ResolverOrder,
		tenancy.PublishableKeyStrategy{Keys: keyRepo},
		tenancy.AdminUserStrategy{Users: userRepo},
		tenancy.HeaderStrategy{},
		hostStrategy,
	)
	if err != nil {
		log.Fatal().Err(err).Strs("order", cfg.Tenancy.ResolverOrder).Msg("TENANCY_RESOLVER_ORDER inválido")
	}
	resolver := tenancy.NewResolver(strategies, channelRepo, log, cfg.Tenancy.AdminPrefix, storePrefix)
	access := tenancy.NewAccessValidator(commerce.NewOwnerLookup(cfg.Commerce))

	usageGuard := usage.NewGuard(tenantRepo, log)
	reconciler := billing.NewReconciler(infrastripe.NewVerifier(cfg.Stripe.WebhookSecret), txRunner, payments, notifier, log)
	provisioningSvc := provisioning.NewService(tenantRepo, channelRepo, keyRepo, userRepo, runRepo,
		payments, notifier, log, provisioning.Config{BaseDomain: cfg.Tenancy.BaseDomain})
	tenantUC := usecase.NewTenantUseCase(tenantRepo, provisioningSvc, hostInvalidator, cfg.Tenancy.BaseDomain, log)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	commerceHandler := httpRouter.NewCommerceHandler(cfg.Commerce.URL, cfg.Commerce.Token, cfg.Tenancy.AdminPrefix, access, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    50 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Tenancy Gateway API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:     resolver,
		Usage:        usageGuard,
		TenantUC:     tenantUC,
		Provisioning: provisioningSvc,
		Reconciler:   reconciler,
		AuthUC:       authUC,
		Commerce:     commerceHandler.Forward,
		JWTSecret:    cfg.JWT.Secret,
		AdminPrefix:  cfg.Tenancy.AdminPrefix,
		StorePrefix:  storePrefix,
		Log:          log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
