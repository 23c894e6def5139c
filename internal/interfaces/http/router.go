package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/auth"
	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/application/provisioning"
	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/internal/application/usage"
	"github.com/jhoicas/tenancy-gateway/internal/application/usecase"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver     *tenancy.Resolver
	Usage        *usage.Guard
	TenantUC     *usecase.TenantUseCase
	Provisioning *provisioning.Service
	Reconciler   *billing.Reconciler
	AuthUC       *auth.AuthUseCase
	// Commerce handler final de las rutas de comercio; nil desactiva el proxy.
	Commerce    fiber.Handler
	JWTSecret   string
	AdminPrefix string
	StorePrefix string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
// Orden: identidad opcional -> resolver -> (admin) auth + guard de tenant -> guard de uso -> handler.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	adminPrefix := deps.AdminPrefix
	if adminPrefix == "" {
		adminPrefix = "/admin"
	}
	storePrefix := deps.StorePrefix
	if storePrefix == "" {
		storePrefix = "/store"
	}

	// Webhooks (público, autenticado por firma)
	webhookHandler := NewWebhookHandler(deps.Reconciler, log)
	app.Post("/webhooks/stripe", webhookHandler.Stripe)

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	app.Post("/auth/login", authHandler.Login)

	app.Use(OptionalAuth(deps.JWTSecret), TenantContextMiddleware(deps.Resolver))

	// Storefront (público, alcance por canal de venta)
	storefrontHandler := NewStorefrontHandler(deps.TenantUC, log)
	app.Get(storePrefix+"/tenant", storefrontHandler.Tenant)

	admin := app.Group(adminPrefix)

	// Alta de tiendas: antes del guard, todavía no existe tenant
	provisioningHandler := NewProvisioningHandler(deps.Provisioning, log)
	admin.Post("/tenants/provision", provisioningHandler.Provision)

	admin.Use(AuthMiddleware(deps.JWTSecret), TenantAccessGuard(adminPrefix))

	tenantHandler := NewTenantHandler(deps.TenantUC, deps.Usage, log)
	tenants := admin.Group("/tenants")
	tenants.Get("/:id", tenantHandler.Get)
	tenants.Patch("/:id", RequireRole(entity.RoleOwner), tenantHandler.Update)
	tenants.Delete("/:id", RequireRole(entity.RoleOwner), tenantHandler.Deactivate)
	tenants.Post("/:id/usage/reset", RequireSuperAdmin(), tenantHandler.ResetUsage)

	runs := admin.Group("/provisioning-runs", RequireSuperAdmin())
	runs.Get("/:id", provisioningHandler.GetRun)
	runs.Post("/:id/retry", provisioningHandler.RetryCompensation)

	if deps.Commerce == nil {
		return
	}
	guard := UsageGuard(deps.Usage, log)
	for _, name := range CommerceCollections {
		admin.All("/"+name, guard, deps.Commerce)
		admin.All("/"+name+"/*", guard, deps.Commerce)
	}
}
