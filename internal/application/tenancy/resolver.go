package tenancy

import (
	"context"
	"strings"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// SalesChannelFinder búsqueda del canal de venta por FK de tenant.
type SalesChannelFinder interface {
	GetByTenantID(ctx context.Context, tenantID string) (*entity.SalesChannel, error)
}

// Resolver aplica las estrategias en orden; la primera que devuelve tenant gana.
type Resolver struct {
	strategies  []Strategy
	channels    SalesChannelFinder
	log         *logger.Logger
	adminPrefix string
	storePrefix string
}

// NewResolver construye el resolver con las estrategias ya ordenadas.
func NewResolver(strategies []Strategy, channels SalesChannelFinder, log *logger.Logger, adminPrefix, storePrefix string) *Resolver {
	return &Resolver{
		strategies:  strategies,
		channels:    channels,
		log:         log,
		adminPrefix: adminPrefix,
		storePrefix: storePrefix,
	}
}

// Resolve nunca falla: los errores de cada estrategia se registran y se pasa a la siguiente.
// Sin coincidencia devuelve un Context vacío.
func (r *Resolver) Resolve(ctx context.Context, req Request) Context {
	tc := Context{
		IsAdmin:      hasPrefix(req.Path, r.adminPrefix),
		IsStorefront: hasPrefix(req.Path, r.storePrefix),
	}

	for _, s := range r.strategies {
		id, err := s.Resolve(ctx, req)
		if err != nil {
			r.log.Warn().Err(err).Str("strategy", s.Name()).Msg("estrategia de resolución falló, se intenta la siguiente")
			continue
		}
		if id == "" {
			continue
		}
		tc.ID = id
		tc.StoreID = id
		tc.Strategy = s.Name()
		break
	}

	if !tc.Resolved() {
		monitoring.TenantResolutions.WithLabelValues("none").Inc()
		return tc
	}
	monitoring.TenantResolutions.WithLabelValues(tc.Strategy).Inc()

	if r.channels != nil {
		sc, err := r.channels.GetByTenantID(ctx, tc.StoreID)
		if err != nil {
			r.log.Warn().Err(err).Str("tenant_id", tc.StoreID).Msg("no se pudo resolver el canal de venta")
		} else if sc != nil {
			tc.SalesChannelID = sc.ID
		}
	}
	return tc
}

func hasPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	path, prefix = strings.ToLower(path), strings.ToLower(prefix)
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}
