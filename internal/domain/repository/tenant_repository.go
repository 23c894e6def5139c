package repository

import (
	"context"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para Tenant (DIP).
// Los Get* devuelven (nil, nil) cuando el tenant no existe.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error)
	GetByCustomDomain(ctx context.Context, domain string) (*entity.Tenant, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*entity.Tenant, error)
	// Update persiste los campos mutables; limits se recalcula desde plan en la misma sentencia.
	// Los contadores de uso sólo cambian vía ReserveUsage/ReleaseUsage/ResetUsage.
	Update(ctx context.Context, tenant *entity.Tenant) error
	Delete(ctx context.Context, id string) error

	// ReserveUsage suma delta de forma atómica sólo si ningún contador supera su techo.
	// Devuelve ok=false (sin error) si la reserva excede el plan; el tenant devuelto refleja el estado actual.
	ReserveUsage(ctx context.Context, id string, delta entity.Usage) (ok bool, tenant *entity.Tenant, err error)
	// ReleaseUsage resta delta (sin bajar de cero).
	ReleaseUsage(ctx context.Context, id string, delta entity.Usage) error
	ResetUsage(ctx context.Context, id string) error
}

// SalesChannelRepository puerto para canales de venta.
type SalesChannelRepository interface {
	Create(ctx context.Context, sc *entity.SalesChannel) error
	GetByTenantID(ctx context.Context, tenantID string) (*entity.SalesChannel, error)
	Delete(ctx context.Context, id string) error
}

// APIKeyRepository puerto para publishable API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *entity.PublishableAPIKey) error
	// GetByToken devuelve sólo claves no revocadas.
	GetByToken(ctx context.Context, token string) (*entity.PublishableAPIKey, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository puerto para usuarios administradores.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}
