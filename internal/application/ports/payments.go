package ports

import (
	"context"
)

// PaymentProvider define el puerto hacia el procesador de pagos.
// El adaptador (Stripe) es el sistema de registro de la facturación.
type PaymentProvider interface {
	// CreateCustomer crea el cliente de facturación y devuelve su id.
	CreateCustomer(ctx context.Context, email, storeName, tenantID string) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	// UpdateSubscriptionPlan cambia el precio de la suscripción al del plan.
	UpdateSubscriptionPlan(ctx context.Context, subscriptionID, plan string) error
	// BillingPortalURL enlace al portal de facturación del cliente.
	BillingPortalURL(ctx context.Context, customerID string) (string, error)
}
