package tenancy

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	pkgjwt "github.com/jhoicas/tenancy-gateway/pkg/jwt"
)

// Nombres de estrategia aceptados en TENANCY_RESOLVER_ORDER.
const (
	StrategyPublishableKey = "publishable_key"
	StrategyAdminUser      = "admin_user"
	StrategyHeader         = "header"
	StrategyHost           = "host"
)

// Request vista mínima de la petición entrante que necesitan las estrategias.
type Request struct {
	Path           string
	Host           string
	PublishableKey string // x-publishable-api-key
	TenantHeader   string // x-tenant-id
	User           *pkgjwt.Identity
}

// Strategy resuelve un tenant id a partir de la petición.
// Devuelve "" sin error cuando no aplica o no encuentra coincidencia.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req Request) (string, error)
}

// PublishableKeyStrategy busca la publishable key y toma el tenant de su registro.
type PublishableKeyStrategy struct {
	Keys repository.APIKeyRepository
}

func (s PublishableKeyStrategy) Name() string { return StrategyPublishableKey }

func (s PublishableKeyStrategy) Resolve(ctx context.Context, req Request) (string, error) {
	if req.PublishableKey == "" {
		return "", nil
	}
	key, err := s.Keys.GetByToken(ctx, req.PublishableKey)
	if err != nil {
		return "", fmt.Errorf("buscar publishable key: %w", err)
	}
	if key == nil {
		return "", nil
	}
	return key.TenantID, nil
}

// AdminUserStrategy usa el tenant_store_id del usuario autenticado (no super-admin).
// Si hay repositorio de usuarios, el registro manda sobre el claim del token.
type AdminUserStrategy struct {
	Users repository.UserRepository
}

func (s AdminUserStrategy) Name() string { return StrategyAdminUser }

func (s AdminUserStrategy) Resolve(ctx context.Context, req Request) (string, error) {
	if req.User == nil || req.User.SuperAdmin {
		return "", nil
	}
	if s.Users == nil {
		return req.User.StoreID, nil
	}
	u, err := s.Users.GetByID(ctx, req.User.UserID)
	if err != nil {
		return "", fmt.Errorf("buscar usuario: %w", err)
	}
	if u == nil {
		return "", nil
	}
	return u.TenantStoreID, nil
}

// HeaderStrategy confía en x-tenant-id tal cual, sin contrastarlo con el usuario.
type HeaderStrategy struct{}

func (HeaderStrategy) Name() string { return StrategyHeader }

func (HeaderStrategy) Resolve(_ context.Context, req Request) (string, error) {
	return req.TenantHeader, nil
}

// TenantFinder búsquedas por host que necesita HostStrategy.
type TenantFinder interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error)
	GetByCustomDomain(ctx context.Context, domain string) (*entity.Tenant, error)
}

// HostCache mapea host -> tenant id con TTL.
type HostCache interface {
	Get(ctx context.Context, host string) (string, bool, error)
	Set(ctx context.Context, host, tenantID string) error
}

// HostStrategy resuelve por subdominio (>2 etiquetas) o dominio propio.
// Con BaseDomain sólo los hosts bajo ese dominio se buscan por subdominio.
type HostStrategy struct {
	Tenants    TenantFinder
	Cache      HostCache // opcional
	BaseDomain string
}

func (s HostStrategy) Name() string { return StrategyHost }

func (s HostStrategy) Resolve(ctx context.Context, req Request) (string, error) {
	host := NormalizeHost(req.Host)
	if host == "" {
		return "", nil
	}
	if s.Cache != nil {
		// un fallo de cache no impide consultar la base
		if id, ok, err := s.Cache.Get(ctx, host); err == nil && ok {
			return id, nil
		}
	}
	t, err := LookupByHost(ctx, s.Tenants, host, s.BaseDomain)
	if err != nil || t == nil {
		return "", err
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, host, t.ID)
	}
	return t.ID, nil
}

// LookupByHost aplica las reglas de host: con subdominio busca por subdominio y,
// si no hay coincidencia, por dominio propio; sin subdominio, sólo dominio propio.
// Si baseDomain no está vacío, un host fuera de él (shop.brand.com) es siempre dominio propio.
func LookupByHost(ctx context.Context, tenants TenantFinder, host, baseDomain string) (*entity.Tenant, error) {
	host = NormalizeHost(host)
	if sub, ok := ExtractSubdomainFromHost(host); ok && underBaseDomain(host, baseDomain) {
		t, err := tenants.GetBySubdomain(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("buscar por subdominio: %w", err)
		}
		if t != nil {
			return t, nil
		}
	}
	t, err := tenants.GetByCustomDomain(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("buscar por dominio: %w", err)
	}
	return t, nil
}

func underBaseDomain(host, baseDomain string) bool {
	base := NormalizeHost(baseDomain)
	return base == "" || strings.HasSuffix(host, "."+base)
}

// BuildStrategies ordena las estrategias disponibles según order.
// Un nombre desconocido o repetido es error de configuración.
func BuildStrategies(order []string, available ...Strategy) ([]Strategy, error) {
	byName := make(map[string]Strategy, len(available))
	for _, s := range available {
		byName[s.Name()] = s
	}
	seen := make(map[string]bool, len(order))
	out := make([]Strategy, 0, len(order))
	for _, name := range order {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("tenancy: estrategia desconocida %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("tenancy: estrategia repetida %q", name)
		}
		seen[name] = true
		out = append(out, s)
	}
	return out, nil
}
