package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
)

// Headers de resolución de tenant.
const (
	HeaderPublishableKey = "x-publishable-api-key"
	HeaderTenantID       = "x-tenant-id"
)

// TenantContextMiddleware resuelve el tenant y lo deja en c.Locals. Nunca rechaza.
func TenantContextMiddleware(resolver *tenancy.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tc := resolver.Resolve(c.UserContext(), tenancy.Request{
			Path:           c.Path(),
			Host:           c.Hostname(),
			PublishableKey: c.Get(HeaderPublishableKey),
			TenantHeader:   c.Get(HeaderTenantID),
			User:           GetIdentity(c),
		})
		c.Locals(LocalTenantContext, tc)
		return c.Next()
	}
}

// TenantAccessGuard exige contexto de tenant coherente con el usuario en las rutas de administración.
// Fuera de adminPrefix no hace nada: en la tienda el alcance lo da el canal de venta.
func TenantAccessGuard(adminPrefix string) fiber.Handler {
	prefix := strings.ToLower(strings.TrimSuffix(adminPrefix, "/"))
	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())
		if prefix == "" || (path != prefix && !strings.HasPrefix(path, prefix+"/")) {
			return c.Next()
		}
		tc := GetTenantContext(c)
		if isSuperAdmin(c) {
			if tc.Resolved() {
				c.Locals(LocalTenantFilter, tc.Filter())
			}
			return c.Next()
		}
		if !tc.Resolved() {
			monitoring.AccessDenied.WithLabelValues("no_context").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_CONTEXT_REQUIRED", Message: "se requiere contexto de tenant"})
		}
		id := GetIdentity(c)
		if id == nil || id.StoreID != tc.StoreID {
			monitoring.AccessDenied.WithLabelValues("tenant_mismatch").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msgForbidden})
		}
		c.Locals(LocalTenantFilter, tc.Filter())
		return c.Next()
	}
}

// GetTenantContext contexto resuelto (vacío si el middleware no corrió o no hubo coincidencia).
func GetTenantContext(c *fiber.Ctx) tenancy.Context {
	tc, _ := c.Locals(LocalTenantContext).(tenancy.Context)
	return tc
}

// GetFilter filtro obligatorio que dejó TenantAccessGuard.
func GetFilter(c *fiber.Ctx) (tenancy.Filter, bool) {
	f, ok := c.Locals(LocalTenantFilter).(tenancy.Filter)
	return f, ok
}
