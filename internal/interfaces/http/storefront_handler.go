package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/usecase"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// StorefrontHandler endpoints públicos de la tienda.
type StorefrontHandler struct {
	uc  *usecase.TenantUseCase
	log *logger.Logger
}

// NewStorefrontHandler construye el handler.
func NewStorefrontHandler(uc *usecase.TenantUseCase, log *logger.Logger) *StorefrontHandler {
	return &StorefrontHandler{uc: uc, log: log}
}

// Tenant godoc
// @Summary      Resolver el tenant de un dominio
// @Tags         storefront
// @Produce      json
// @Param        domain  query  string  true  "Host de la tienda"
// @Success      200  {object}  dto.StorefrontTenantResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /store/tenant [get]
func (h *StorefrontHandler) Tenant(c *fiber.Ctx) error {
	out, err := h.uc.StorefrontLookup(c.UserContext(), c.Query("domain"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
