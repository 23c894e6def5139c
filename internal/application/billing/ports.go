package billing

import (
	"context"
	"time"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

// Tipos de evento del procesador de pagos que se reconcilian.
const (
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventTrialWillEnd        = "customer.subscription.trial_will_end"
)

// Event evento ya verificado y reducido a los campos que se reconcilian.
type Event struct {
	ID                 string
	Type               string
	CustomerID         string
	SubscriptionID     string
	SubscriptionStatus string
	CurrentPeriodEnd   *time.Time
}

// Verifier comprueba la firma del webhook y decodifica el evento.
// Devuelve domain.ErrInvalidSignature si la firma no corresponde al payload.
type Verifier interface {
	Verify(payload []byte, signature string) (Event, error)
}

// WebhookTxRunner ejecuta la mutación del tenant y el registro del evento en una sola transacción.
// Devuelve applied=false sin ejecutar fn cuando el evento ya estaba registrado.
type WebhookTxRunner interface {
	RunWebhook(ctx context.Context, ev entity.WebhookEvent, fn func(tenants repository.TenantRepository) error) (applied bool, err error)
}
