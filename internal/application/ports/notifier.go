package ports

import (
	"context"
)

// Tipos de notificación transaccional.
const (
	NotifyWelcome              = "welcome"
	NotifyPaymentSucceeded     = "payment_succeeded"
	NotifyPaymentFailed        = "payment_failed"
	NotifySubscriptionCanceled = "subscription_canceled"
	NotifyTrialEnding          = "trial_ending"
	NotifyPlanChanged          = "plan_changed"
)

// Notification correo transaccional dirigido al dueño de la tienda.
type Notification struct {
	Kind      string
	To        string
	StoreName string
	Data      map[string]string // p. ej. portal_url, admin_url, plan
}

// Notifier define el puerto de salida para correos transaccionales.
// Los fallos nunca deben revertir la operación que originó el aviso.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
