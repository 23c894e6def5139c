package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
)

// Notifier registra las notificaciones enviadas. Err fuerza un fallo de envío.
type Notifier struct {
	mu   sync.Mutex
	Sent []ports.Notification
	Err  error
}

func (n *Notifier) Notify(_ context.Context, msg ports.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Sent = append(n.Sent, msg)
	return nil
}

// Kinds tipos enviados en orden.
func (n *Notifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.Sent))
	for _, s := range n.Sent {
		out = append(out, s.Kind)
	}
	return out
}

// Payments procesador de pagos en memoria.
type Payments struct {
	mu        sync.Mutex
	Customers map[string]string // id -> email
	Plans     map[string]string // subscription id -> plan
	Fail      map[string]error  // CreateCustomer, DeleteCustomer, UpdateSubscriptionPlan, BillingPortalURL
	seq       int
}

// NewPayments procesador vacío.
func NewPayments() *Payments {
	return &Payments{Customers: map[string]string{}, Plans: map[string]string{}, Fail: map[string]error{}}
}

func (p *Payments) CreateCustomer(_ context.Context, email, _, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Fail["CreateCustomer"]; err != nil {
		return "", err
	}
	p.seq++
	id := fmt.Sprintf("cus_%d", p.seq)
	p.Customers[id] = email
	return id, nil
}

func (p *Payments) DeleteCustomer(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Fail["DeleteCustomer"]; err != nil {
		return err
	}
	delete(p.Customers, id)
	return nil
}

func (p *Payments) UpdateSubscriptionPlan(_ context.Context, subID, plan string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Fail["UpdateSubscriptionPlan"]; err != nil {
		return err
	}
	p.Plans[subID] = plan
	return nil
}

func (p *Payments) BillingPortalURL(_ context.Context, customerID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.Fail["BillingPortalURL"]; err != nil {
		return "", err
	}
	return "https://billing.example.com/p/" + customerID, nil
}
