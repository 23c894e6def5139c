// Package billing reconcilia el estado de los tenants con los eventos del procesador de pagos.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// Resultados registrados en la métrica de webhooks.
const (
	outcomeApplied   = "applied"
	outcomeDuplicate = "duplicate"
	outcomeUnmatched = "unmatched"
	outcomeIgnored   = "ignored"
	outcomeError     = "error"
)

// Reconciler aplica los eventos de facturación sobre el estado del tenant.
type Reconciler struct {
	verifier Verifier
	tx       WebhookTxRunner
	payments ports.PaymentProvider
	notifier ports.Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewReconciler construye el reconciliador.
func NewReconciler(verifier Verifier, tx WebhookTxRunner, payments ports.PaymentProvider, notifier ports.Notifier, log *logger.Logger) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		tx:       tx,
		payments: payments,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// HandleWebhook verifica la firma y despacha el evento. Sin firma válida no hay cambio de estado.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return domain.ErrMissingSignature
	}
	ev, err := r.verifier.Verify(payload, signature)
	if err != nil {
		r.log.Warn().Err(err).Msg("webhook rechazado: firma inválida")
		return domain.ErrInvalidSignature
	}
	return r.Dispatch(ctx, ev)
}

// Dispatch aplica un evento ya verificado. Los eventos repetidos se omiten y
// los que no corresponden a ningún tenant se registran y se descartan.
func (r *Reconciler) Dispatch(ctx context.Context, ev Event) error {
	log := r.log.With().Str("event_id", ev.ID).Str("type", ev.Type).Str("customer_id", ev.CustomerID).Logger()

	if !handled(ev.Type) {
		log.Debug().Msg("evento de facturación ignorado")
		monitoring.WebhookEvents.WithLabelValues(ev.Type, outcomeIgnored).Inc()
		return nil
	}

	var snapshot *entity.Tenant
	applied, err := r.tx.RunWebhook(ctx, entity.WebhookEvent{ID: ev.ID, Type: ev.Type}, func(tenants repository.TenantRepository) error {
		t, err := tenants.GetByStripeCustomerID(ctx, ev.CustomerID)
		if err != nil {
			return fmt.Errorf("buscar tenant por cliente: %w", err)
		}
		if t == nil {
			return nil
		}
		if !r.apply(t, ev) {
			snapshot = t
			return nil
		}
		if err := tenants.Update(ctx, t); err != nil {
			return fmt.Errorf("actualizar tenant: %w", err)
		}
		snapshot = t
		return nil
	})
	if err != nil {
		monitoring.WebhookEvents.WithLabelValues(ev.Type, outcomeError).Inc()
		log.Error().Err(err).Msg("error aplicando evento de facturación")
		return err
	}
	if !applied {
		monitoring.WebhookEvents.WithLabelValues(ev.Type, outcomeDuplicate).Inc()
		log.Info().Msg("evento de facturación repetido, se omite")
		return nil
	}
	if snapshot == nil {
		monitoring.WebhookEvents.WithLabelValues(ev.Type, outcomeUnmatched).Inc()
		log.Warn().Msg("ningún tenant coincide con el cliente, evento descartado")
		return nil
	}

	monitoring.WebhookEvents.WithLabelValues(ev.Type, outcomeApplied).Inc()
	log.Info().Str("tenant_id", snapshot.ID).Str("status", snapshot.Status).Msg("evento de facturación aplicado")
	r.notify(ctx, snapshot, ev)
	return nil
}

func handled(eventType string) bool {
	switch eventType {
	case EventPaymentSucceeded, EventPaymentFailed, EventSubscriptionUpdated, EventSubscriptionDeleted, EventTrialWillEnd:
		return true
	}
	return false
}

// apply muta t según el evento; devuelve false si el evento no cambia estado.
func (r *Reconciler) apply(t *entity.Tenant, ev Event) bool {
	now := r.now()
	switch ev.Type {
	case EventPaymentSucceeded:
		t.Status = entity.StatusActive
		t.LastPaymentAt = &now
		t.SuspendedAt = nil
		t.SuspensionReason = ""
	case EventPaymentFailed:
		t.Status = entity.StatusSuspended
		t.SuspensionReason = entity.SuspensionPaymentFailed
		t.SuspendedAt = &now
	case EventSubscriptionUpdated:
		if ev.SubscriptionID != "" {
			t.Billing.StripeSubscriptionID = ev.SubscriptionID
		}
		t.Billing.SubscriptionStatus = ev.SubscriptionStatus
		t.Billing.CurrentPeriodEnd = ev.CurrentPeriodEnd
	case EventSubscriptionDeleted:
		t.Status = entity.StatusSuspended
		t.SuspensionReason = entity.SuspensionSubscriptionCanceled
		t.SuspendedAt = &now
	default:
		return false
	}
	return true
}

// notify corre después del commit; un fallo de correo sólo se registra.
func (r *Reconciler) notify(ctx context.Context, t *entity.Tenant, ev Event) {
	n := ports.Notification{To: t.OwnerEmail, StoreName: t.Name, Data: map[string]string{"subdomain": t.Subdomain}}
	switch ev.Type {
	case EventPaymentSucceeded:
		n.Kind = ports.NotifyPaymentSucceeded
	case EventPaymentFailed:
		n.Kind = ports.NotifyPaymentFailed
		if r.payments != nil {
			url, err := r.payments.BillingPortalURL(ctx, ev.CustomerID)
			if err != nil {
				r.log.Warn().Err(err).Str("tenant_id", t.ID).Msg("no se pudo generar el enlace al portal de facturación")
			} else {
				n.Data["portal_url"] = url
			}
		}
	case EventSubscriptionDeleted:
		n.Kind = ports.NotifySubscriptionCanceled
	case EventTrialWillEnd:
		n.Kind = ports.NotifyTrialEnding
	default:
		return
	}
	if r.notifier == nil || n.To == "" {
		return
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		r.log.Warn().Err(err).Str("tenant_id", t.ID).Str("kind", n.Kind).Msg("no se pudo enviar la notificación")
	}
}
