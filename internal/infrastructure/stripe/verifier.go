package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
)

var _ billing.Verifier = (*Verifier)(nil)

// Verifier valida la cabecera stripe-signature con el secreto del endpoint.
type Verifier struct {
	secret string
}

// NewVerifier construye el verificador.
func NewVerifier(webhookSecret string) *Verifier {
	return &Verifier{secret: webhookSecret}
}

// Verify comprueba la firma sobre el cuerpo crudo y reduce el evento a billing.Event.
func (v *Verifier) Verify(payload []byte, signature string) (billing.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return billing.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := billing.Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case billing.EventPaymentSucceeded, billing.EventPaymentFailed:
		var inv stripeapi.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return billing.Event{}, fmt.Errorf("%w: decodificar invoice: %v", domain.ErrInvalidInput, err)
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted, billing.EventTrialWillEnd:
		var sub stripeapi.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return billing.Event{}, fmt.Errorf("%w: decodificar suscripción: %v", domain.ErrInvalidInput, err)
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.SubscriptionID = sub.ID
		out.SubscriptionStatus = string(sub.Status)
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			out.CurrentPeriodEnd = &end
		}
	}
	return out, nil
}
