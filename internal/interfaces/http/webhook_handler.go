package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// HeaderStripeSignature cabecera de firma de los webhooks de Stripe.
const HeaderStripeSignature = "stripe-signature"

// WebhookHandler recibe los eventos del procesador de pagos.
type WebhookHandler struct {
	reconciler *billing.Reconciler
	log        *logger.Logger
}

// NewWebhookHandler construye el handler.
func NewWebhookHandler(r *billing.Reconciler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: r, log: log}
}

// Stripe godoc
// @Summary      Webhook de Stripe
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        stripe-signature  header  string  true  "Firma del evento"
// @Success      200  {object}  dto.ReceivedResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	// la firma se calcula sobre el cuerpo crudo; no parsear antes
	payload := append([]byte(nil), c.Body()...)
	if err := h.reconciler.HandleWebhook(c.UserContext(), payload, c.Get(HeaderStripeSignature)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ReceivedResponse{Received: true})
}
