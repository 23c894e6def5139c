// Package usage aplica los techos del plan a las escrituras de cada tenant.
package usage

import (
	"context"
	"fmt"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// Reservation cuota ya descontada para una petición en curso.
type Reservation struct {
	TenantID string
	Delta    entity.Usage
}

// Guard verifica y reserva cuota antes de que la escritura llegue al backend.
type Guard struct {
	tenants repository.TenantRepository
	log     *logger.Logger
}

// NewGuard construye el guard sobre el repositorio de tenants.
func NewGuard(tenants repository.TenantRepository, log *logger.Logger) *Guard {
	return &Guard{tenants: tenants, log: log}
}

// Check evalúa la intención contra el estado del tenant sin efectos.
// Orden: estado activo, productos, órdenes, almacenamiento proyectado.
func Check(t *entity.Tenant, in Intent) error {
	if !t.IsActive() {
		return domain.ErrTenantNotActive
	}
	plan := string(t.Plan)
	if in.IncrementProducts && exceeds(t.Usage.Products, 1, t.Limits.Products) {
		return &domain.LimitExceededError{Resource: ResourceProducts, CurrentUsage: t.Usage.Products, Limit: t.Limits.Products, Plan: plan}
	}
	if in.IncrementOrders && exceeds(t.Usage.Orders, 1, t.Limits.Orders) {
		return &domain.LimitExceededError{Resource: ResourceOrders, CurrentUsage: t.Usage.Orders, Limit: t.Limits.Orders, Plan: plan}
	}
	if in.IncrementStorage && exceeds(t.Usage.StorageMB, in.StorageMB, t.Limits.StorageMB) {
		return &domain.LimitExceededError{Resource: ResourceStorage, CurrentUsage: t.Usage.StorageMB, Limit: t.Limits.StorageMB, Plan: plan}
	}
	return nil
}

func exceeds(used, incoming, limit int64) bool {
	if limit == entity.Unlimited {
		return false
	}
	return used+incoming > limit
}

// Reserve rechaza la intención o descuenta la cuota de forma atómica.
// Devuelve (nil, nil) cuando la petición no consume recursos.
func (g *Guard) Reserve(ctx context.Context, tenantID string, in Intent) (*Reservation, error) {
	if !in.Any() {
		return nil, nil
	}
	t, err := g.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("usage: cargar tenant: %w", err)
	}
	if t == nil {
		return nil, domain.ErrTenantContextRequired
	}
	if err := Check(t, in); err != nil {
		g.reject(t, err)
		return nil, err
	}

	delta := in.Delta()
	ok, current, err := g.tenants.ReserveUsage(ctx, tenantID, delta)
	if err != nil {
		return nil, fmt.Errorf("usage: reservar cuota: %w", err)
	}
	if !ok {
		// otra petición concurrente consumió el margen entre la lectura y la reserva
		if current == nil {
			current = t
		}
		err := Check(current, in)
		if err == nil {
			err = &domain.LimitExceededError{Resource: firstResource(in), CurrentUsage: usageOf(current, in), Limit: limitOf(current, in), Plan: string(current.Plan)}
		}
		g.reject(current, err)
		return nil, err
	}
	return &Reservation{TenantID: tenantID, Delta: delta}, nil
}

// Release devuelve la cuota de una reserva cuya escritura no prosperó.
func (g *Guard) Release(ctx context.Context, r *Reservation) error {
	if r == nil {
		return nil
	}
	if err := g.tenants.ReleaseUsage(ctx, r.TenantID, r.Delta); err != nil {
		g.log.Error().Err(err).Str("tenant_id", r.TenantID).Msg("no se pudo liberar la cuota reservada")
		return fmt.Errorf("usage: liberar cuota: %w", err)
	}
	return nil
}

// ResetUsage pone los contadores a cero (acción administrativa).
func (g *Guard) ResetUsage(ctx context.Context, tenantID string) error {
	if err := g.tenants.ResetUsage(ctx, tenantID); err != nil {
		return fmt.Errorf("usage: reset: %w", err)
	}
	g.log.Info().Str("tenant_id", tenantID).Msg("uso del tenant reiniciado")
	return nil
}

func (g *Guard) reject(t *entity.Tenant, err error) {
	if le, ok := err.(*domain.LimitExceededError); ok {
		monitoring.LimitRejections.WithLabelValues(le.Resource, le.Plan).Inc()
		g.log.Info().Str("tenant_id", t.ID).Str("resource", le.Resource).Int64("usage", le.CurrentUsage).Int64("limit", le.Limit).Msg("escritura rechazada por límite del plan")
		return
	}
	g.log.Info().Str("tenant_id", t.ID).Str("status", t.Status).Msg("escritura rechazada: tenant no activo")
}

func firstResource(in Intent) string {
	switch {
	case in.IncrementProducts:
		return ResourceProducts
	case in.IncrementOrders:
		return ResourceOrders
	}
	return ResourceStorage
}

func usageOf(t *entity.Tenant, in Intent) int64 {
	switch firstResource(in) {
	case ResourceProducts:
		return t.Usage.Products
	case ResourceOrders:
		return t.Usage.Orders
	}
	return t.Usage.StorageMB
}

func limitOf(t *entity.Tenant, in Intent) int64 {
	switch firstResource(in) {
	case ResourceProducts:
		return t.Limits.Products
	case ResourceOrders:
		return t.Limits.Orders
	}
	return t.Limits.StorageMB
}
