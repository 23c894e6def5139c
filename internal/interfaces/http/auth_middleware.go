package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/pkg/jwt"
)

// Locals keys usadas por los middlewares.
const (
	LocalIdentity      = "identity"
	LocalTenantContext = "tenant_context"
	LocalTenantFilter  = "tenant_filter"
)

// bearerToken extrae el token del header Authorization ("" si no hay o el formato no es Bearer).
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// OptionalAuth carga la identidad si hay un token válido; nunca rechaza.
// Va antes del resolver para que la estrategia admin_user vea al usuario.
func OptionalAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok, ok := bearerToken(c); ok && tok != "" {
			if id, err := jwt.Parse(jwtSecret, tok); err == nil {
				c.Locals(LocalIdentity, &id)
			}
		}
		return c.Next()
	}
}

// AuthMiddleware exige un Bearer Token JWT válido.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetIdentity(c) != nil {
			return c.Next()
		}
		tok, present := bearerToken(c)
		if !present {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		if tok == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		id, err := jwt.Parse(jwtSecret, tok)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalIdentity, &id)
		return c.Next()
	}
}

// RequireRole permite el paso a los roles indicados. Los super-admins siempre pasan.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := GetIdentity(c)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "autenticación requerida"})
		}
		if id.SuperAdmin {
			return c.Next()
		}
		if id.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if id.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msgForbidden})
	}
}

// RequireSuperAdmin sólo super-admins de la plataforma.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := GetIdentity(c)
		if id == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "autenticación requerida"})
		}
		if !id.SuperAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msgForbidden})
		}
		return c.Next()
	}
}

// GetIdentity devuelve la identidad autenticada (nil si no hay).
func GetIdentity(c *fiber.Ctx) *jwt.Identity {
	id, _ := c.Locals(LocalIdentity).(*jwt.Identity)
	return id
}

func isSuperAdmin(c *fiber.Ctx) bool {
	id := GetIdentity(c)
	return id != nil && id.SuperAdmin
}
