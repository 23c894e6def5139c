package tenancy

import (
	"context"
	"fmt"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
)

// ResourceOwnerLookup devuelve la tienda dueña de un recurso del backend de comercio.
type ResourceOwnerLookup interface {
	ResourceStoreID(ctx context.Context, kind, id string) (storeID string, found bool, err error)
}

// AccessValidator verificación de pertenencia a nivel de recurso.
type AccessValidator struct {
	owners ResourceOwnerLookup
}

// NewAccessValidator construye el validador.
func NewAccessValidator(owners ResourceOwnerLookup) *AccessValidator {
	return &AccessValidator{owners: owners}
}

// ValidateTenantAccess compara la tienda dueña del recurso con la del contexto.
// Los super-admins siempre pasan.
func (v *AccessValidator) ValidateTenantAccess(ctx context.Context, tc Context, superAdmin bool, resourceID, kind string) error {
	if superAdmin {
		return nil
	}
	if !entity.IsTenantResource(kind) {
		return fmt.Errorf("%w: tipo de recurso %q", domain.ErrInvalidInput, kind)
	}
	if !tc.Resolved() {
		return domain.ErrTenantContextRequired
	}
	storeID, found, err := v.owners.ResourceStoreID(ctx, kind, resourceID)
	if err != nil {
		return fmt.Errorf("consultar dueño de %s %s: %w", kind, resourceID, err)
	}
	if !found {
		return domain.ErrNotFound
	}
	if storeID != tc.StoreID {
		return domain.ErrForbidden
	}
	return nil
}
