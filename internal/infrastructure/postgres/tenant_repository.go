package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

var _ repository.TenantRepository = (*TenantRepo)(nil)

const tenantColumns = `
	id, name, subdomain, custom_domain, plan, status, owner_email,
	limit_products, limit_orders, limit_storage_mb,
	usage_products, usage_orders, usage_storage_mb,
	branding, stripe_customer_id, stripe_subscription_id, subscription_status, current_period_end,
	suspension_reason, created_at, updated_at, suspended_at, deactivated_at, last_payment_at, last_usage_update`

// TenantRepo implementación de TenantRepository sobre PostgreSQL (usable con pool o tx).
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// Create inserta el tenant con los límites de su plan. Subdominio repetido -> ErrDuplicate.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	t.Limits = entity.PlanLimits(t.Plan)
	branding, err := json.Marshal(t.Branding)
	if err != nil {
		return fmt.Errorf("serializar branding: %w", err)
	}
	query := `
		INSERT INTO tenants (id, name, subdomain, custom_domain, plan, status, owner_email,
			limit_products, limit_orders, limit_storage_mb,
			usage_products, usage_orders, usage_storage_mb,
			branding, stripe_customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = r.q.Exec(ctx, query,
		t.ID, t.Name, t.Subdomain, t.CustomDomain, string(t.Plan), t.Status, t.OwnerEmail,
		t.Limits.Products, t.Limits.Orders, t.Limits.StorageMB,
		t.Usage.Products, t.Usage.Orders, t.Usage.StorageMB,
		branding, nullString(t.Billing.StripeCustomerID), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// GetByID obtiene un tenant por ID.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetBySubdomain obtiene un tenant por subdominio.
func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*entity.Tenant, error) {
	return r.getOne(ctx, "subdomain = $1", subdomain)
}

// GetByCustomDomain obtiene un tenant por dominio propio.
func (r *TenantRepo) GetByCustomDomain(ctx context.Context, d string) (*entity.Tenant, error) {
	return r.getOne(ctx, "custom_domain = $1", d)
}

// GetByStripeCustomerID correlaciona eventos de facturación (índice único).
func (r *TenantRepo) GetByStripeCustomerID(ctx context.Context, customerID string) (*entity.Tenant, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.getOne(ctx, "stripe_customer_id = $1", customerID)
}

func (r *TenantRepo) getOne(ctx context.Context, where string, arg any) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE ` + where
	t, err := scanTenant(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// Update persiste plan, estado, dominio, branding y facturación. Los límites se
// escriben desde el plan en la misma sentencia; los contadores de uso no se tocan.
func (r *TenantRepo) Update(ctx context.Context, t *entity.Tenant) error {
	t.Limits = entity.PlanLimits(t.Plan)
	branding, err := json.Marshal(t.Branding)
	if err != nil {
		return fmt.Errorf("serializar branding: %w", err)
	}
	query := `
		UPDATE tenants SET
			name = $2, custom_domain = $3, plan = $4, status = $5, owner_email = $6,
			limit_products = $7, limit_orders = $8, limit_storage_mb = $9,
			branding = $10, stripe_customer_id = $11, stripe_subscription_id = $12,
			subscription_status = $13, current_period_end = $14, suspension_reason = $15,
			suspended_at = $16, deactivated_at = $17, last_payment_at = $18, updated_at = now()
		WHERE id = $1
		RETURNING usage_products, usage_orders, usage_storage_mb, last_usage_update, updated_at`
	err = r.q.QueryRow(ctx, query,
		t.ID, t.Name, t.CustomDomain, string(t.Plan), t.Status, t.OwnerEmail,
		t.Limits.Products, t.Limits.Orders, t.Limits.StorageMB,
		branding, nullString(t.Billing.StripeCustomerID), nullString(t.Billing.StripeSubscriptionID),
		nullString(t.Billing.SubscriptionStatus), t.Billing.CurrentPeriodEnd, nullString(t.SuspensionReason),
		t.SuspendedAt, t.DeactivatedAt, t.LastPaymentAt,
	).Scan(&t.Usage.Products, &t.Usage.Orders, &t.Usage.StorageMB, &t.LastUsageUpdate, &t.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update tenant: %w", err)
	}
	return nil
}

// Delete elimina el tenant (canal, keys y usuarios caen en cascada).
func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	return nil
}

// ReserveUsage chequeo de techo e incremento en una sola sentencia: dos reservas
// concurrentes no pueden superar el límite.
func (r *TenantRepo) ReserveUsage(ctx context.Context, id string, d entity.Usage) (bool, *entity.Tenant, error) {
	query := `
		UPDATE tenants SET
			usage_products    = usage_products + $2::bigint,
			usage_orders      = usage_orders + $3::bigint,
			usage_storage_mb  = usage_storage_mb + $4::bigint,
			last_usage_update = now()
		WHERE id = $1
		  AND ($2::bigint = 0 OR limit_products   = -1 OR usage_products + $2::bigint <= limit_products)
		  AND ($3::bigint = 0 OR limit_orders     = -1 OR usage_orders + $3::bigint <= limit_orders)
		  AND ($4::bigint = 0 OR limit_storage_mb = -1 OR usage_storage_mb + $4::bigint <= limit_storage_mb)
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.q.QueryRow(ctx, query, id, d.Products, d.Orders, d.StorageMB))
	if err == nil {
		return true, t, nil
	}
	if !isNoRows(err) {
		return false, nil, fmt.Errorf("reserve usage: %w", err)
	}
	// sin fila: o no existe o la reserva excede el plan
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil, err
	}
	if current == nil {
		return false, nil, domain.ErrNotFound
	}
	return false, current, nil
}

// ReleaseUsage devuelve una reserva sin bajar de cero.
func (r *TenantRepo) ReleaseUsage(ctx context.Context, id string, d entity.Usage) error {
	query := `
		UPDATE tenants SET
			usage_products   = GREATEST(usage_products - $2::bigint, 0),
			usage_orders     = GREATEST(usage_orders - $3::bigint, 0),
			usage_storage_mb = GREATEST(usage_storage_mb - $4::bigint, 0)
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, d.Products, d.Orders, d.StorageMB)
	if err != nil {
		return fmt.Errorf("release usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetUsage pone los contadores a cero.
func (r *TenantRepo) ResetUsage(ctx context.Context, id string) error {
	query := `
		UPDATE tenants SET usage_products = 0, usage_orders = 0, usage_storage_mb = 0,
			last_usage_update = now(), updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	var plan string
	var branding []byte
	var customerID, subID, subStatus, reason *string
	var periodEnd *time.Time
	err := row.Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.CustomDomain, &plan, &t.Status, &t.OwnerEmail,
		&t.Limits.Products, &t.Limits.Orders, &t.Limits.StorageMB,
		&t.Usage.Products, &t.Usage.Orders, &t.Usage.StorageMB,
		&branding, &customerID, &subID, &subStatus, &periodEnd,
		&reason, &t.CreatedAt, &t.UpdatedAt, &t.SuspendedAt, &t.DeactivatedAt, &t.LastPaymentAt, &t.LastUsageUpdate,
	)
	if err != nil {
		return nil, err
	}
	t.Plan = entity.Plan(plan)
	if len(branding) > 0 {
		if err := json.Unmarshal(branding, &t.Branding); err != nil {
			return nil, fmt.Errorf("decodificar branding: %w", err)
		}
	}
	t.Billing = entity.Billing{
		StripeCustomerID:     derefString(customerID),
		StripeSubscriptionID: derefString(subID),
		SubscriptionStatus:   derefString(subStatus),
		CurrentPeriodEnd:     periodEnd,
	}
	t.SuspensionReason = derefString(reason)
	return &t, nil
}
