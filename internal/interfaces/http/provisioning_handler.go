package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/provisioning"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// ProvisioningHandler alta de tiendas y operación de las ejecuciones de la saga.
type ProvisioningHandler struct {
	svc *provisioning.Service
	log *logger.Logger
}

// NewProvisioningHandler construye el handler.
func NewProvisioningHandler(svc *provisioning.Service, log *logger.Logger) *ProvisioningHandler {
	return &ProvisioningHandler{svc: svc, log: log}
}

// Provision godoc
// @Summary      Aprovisionar una tienda
// @Tags         provisioning
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProvisionRequest  true  "email, password, storeName, subdomain, plan"
// @Success      200   {object}  dto.ProvisionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /admin/tenants/provision [post]
func (h *ProvisioningHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Provision(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetRun godoc
// @Summary      Estado de una ejecución de aprovisionamiento (super-admin)
// @Tags         provisioning
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ejecución"
// @Success      200  {object}  dto.ProvisioningRunResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/provisioning-runs/{id} [get]
func (h *ProvisioningHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.svc.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toRunResponse(run))
}

// RetryCompensation godoc
// @Summary      Reintentar compensaciones fallidas (super-admin)
// @Tags         provisioning
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ejecución"
// @Success      200  {object}  dto.ProvisioningRunResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /admin/provisioning-runs/{id}/retry [post]
func (h *ProvisioningHandler) RetryCompensation(c *fiber.Ctx) error {
	run, err := h.svc.RetryCompensation(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toRunResponse(run))
}

func toRunResponse(run *entity.ProvisioningRun) dto.ProvisioningRunResponse {
	steps := make([]dto.ProvisioningStepDTO, 0, len(run.Steps))
	for _, s := range run.Steps {
		steps = append(steps, dto.ProvisioningStepDTO{Name: s.Name, Status: s.Status, ResourceID: s.ResourceID, Error: s.Error})
	}
	return dto.ProvisioningRunResponse{
		ID: run.ID, Kind: run.Kind, Subdomain: run.Subdomain, TenantID: run.TenantID,
		Status: run.Status, Steps: steps, UpdatedAt: run.UpdatedAt,
	}
}
