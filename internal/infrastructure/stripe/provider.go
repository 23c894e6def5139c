package stripe

import (
	"context"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

// Verificar en tiempo de compilación que Provider implementa PaymentProvider.
var _ ports.PaymentProvider = (*Provider)(nil)

// Provider adaptador del procesador de pagos sobre la API de Stripe.
type Provider struct {
	sc        *client.API
	prices    map[string]string // plan -> price id
	returnURL string
}

// NewProvider construye el adaptador con los backends por defecto.
func NewProvider(cfg config.StripeConfig) *Provider {
	return NewProviderWithBackends(cfg, nil)
}

// NewProviderWithBackends permite apuntar a otro backend (tests, stripe-mock).
func NewProviderWithBackends(cfg config.StripeConfig, backends *stripeapi.Backends) *Provider {
	return &Provider{
		sc:        client.New(cfg.SecretKey, backends),
		prices:    cfg.Prices,
		returnURL: cfg.PortalReturnURL,
	}
}

// CreateCustomer crea el cliente con el tenant en metadata.
func (p *Provider) CreateCustomer(ctx context.Context, email, storeName, tenantID string) (string, error) {
	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(email),
		Name:  stripeapi.String(storeName),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", tenantID)
	cus, err := p.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: crear cliente: %w", err)
	}
	return cus.ID, nil
}

// DeleteCustomer elimina el cliente.
func (p *Provider) DeleteCustomer(ctx context.Context, customerID string) error {
	params := &stripeapi.CustomerParams{}
	params.Context = ctx
	if _, err := p.sc.Customers.Del(customerID, params); err != nil {
		return fmt.Errorf("stripe: eliminar cliente %s: %w", customerID, err)
	}
	return nil
}

// UpdateSubscriptionPlan reemplaza el precio del primer ítem de la suscripción.
func (p *Provider) UpdateSubscriptionPlan(ctx context.Context, subscriptionID, plan string) error {
	price := p.prices[plan]
	if price == "" {
		return fmt.Errorf("%w: sin precio configurado para %q", domain.ErrInvalidPlan, plan)
	}
	getParams := &stripeapi.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := p.sc.Subscriptions.Get(subscriptionID, getParams)
	if err != nil {
		return fmt.Errorf("stripe: obtener suscripción %s: %w", subscriptionID, err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return fmt.Errorf("stripe: la suscripción %s no tiene ítems", subscriptionID)
	}

	params := &stripeapi.SubscriptionParams{
		Items: []*stripeapi.SubscriptionItemsParams{{
			ID:    stripeapi.String(sub.Items.Data[0].ID),
			Price: stripeapi.String(price),
		}},
		ProrationBehavior: stripeapi.String("create_prorations"),
	}
	params.Context = ctx
	params.AddMetadata("plan", plan)
	if _, err := p.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe: actualizar suscripción %s: %w", subscriptionID, err)
	}
	return nil
}

// BillingPortalURL abre una sesión del portal de facturación.
func (p *Provider) BillingPortalURL(ctx context.Context, customerID string) (string, error) {
	params := &stripeapi.BillingPortalSessionParams{
		Customer: stripeapi.String(customerID),
	}
	if p.returnURL != "" {
		params.ReturnURL = stripeapi.String(p.returnURL)
	}
	params.Context = ctx
	s, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: sesión de portal: %w", err)
	}
	return s.URL, nil
}
