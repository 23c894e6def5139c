package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/usage"
	"github.com/jhoicas/tenancy-gateway/internal/application/usecase"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// TenantHandler API administrativa del registro de tenants.
type TenantHandler struct {
	uc    *usecase.TenantUseCase
	usage *usage.Guard
	log   *logger.Logger
}

// NewTenantHandler construye el handler.
func NewTenantHandler(uc *usecase.TenantUseCase, guard *usage.Guard, log *logger.Logger) *TenantHandler {
	return &TenantHandler{uc: uc, usage: guard, log: log}
}

// ownTenant sólo el propio tenant, salvo super-admin.
func ownTenant(c *fiber.Ctx, id string) error {
	if isSuperAdmin(c) || GetTenantContext(c).StoreID == id {
		return nil
	}
	return domain.ErrForbidden
}

// Get godoc
// @Summary      Obtener tenant
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/tenants/{id} [get]
func (h *TenantHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ownTenant(c, id); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar tenant (plan, dominio propio, branding)
// @Tags         tenants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del tenant"
// @Param        body  body  dto.UpdateTenantRequest    true  "Campos a modificar"
// @Success      200   {object}  dto.TenantResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /admin/tenants/{id} [patch]
func (h *TenantHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ownTenant(c, id); err != nil {
		return respondError(c, h.log, err)
	}
	var in dto.UpdateTenantRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar tenant (baja lógica)
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/tenants/{id} [delete]
func (h *TenantHandler) Deactivate(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ownTenant(c, id); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Deactivate(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ResetUsage godoc
// @Summary      Reiniciar contadores de uso (super-admin)
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tenant"
// @Success      200  {object}  dto.TenantResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/tenants/{id}/usage/reset [post]
func (h *TenantHandler) ResetUsage(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.usage.ResetUsage(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
