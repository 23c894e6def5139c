package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// Mensaje genérico para rechazos de alcance de tenant: no revela si el recurso existe.
const msgForbidden = "no tienes permiso para acceder a este recurso"

// respondError traduce errores de dominio a status + dto.ErrorResponse.
// Lo inesperado se registra y responde 500 INTERNAL.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var limit *domain.LimitExceededError
	switch {
	case errors.As(err, &limit):
		return c.Status(fiber.StatusForbidden).JSON(dto.LimitErrorResponse{
			Code:    "PLAN_LIMIT_EXCEEDED",
			Message: limit.Error(),
			Details: dto.LimitDetails{
				Resource:     limit.Resource,
				CurrentUsage: limit.CurrentUsage,
				Limit:        limit.Limit,
				Plan:         limit.Plan,
				Upgrade:      upgradeHint(limit.Plan),
			},
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrSubdomainTaken):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SUBDOMAIN_TAKEN", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidPlan):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PLAN", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrMissingSignature):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_SIGNATURE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "firma de webhook inválida"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrTenantContextRequired):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_CONTEXT_REQUIRED", Message: "se requiere contexto de tenant"})
	case errors.Is(err, domain.ErrTenantNotActive):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "TENANT_NOT_ACTIVE", Message: "el tenant no está activo"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msgForbidden})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func upgradeHint(plan string) string {
	switch plan {
	case "starter":
		return "Actualiza al plan pro para ampliar tus límites"
	case "pro":
		return "Actualiza al plan enterprise para límites ilimitados"
	}
	return "Contacta a soporte para ampliar tus límites"
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
