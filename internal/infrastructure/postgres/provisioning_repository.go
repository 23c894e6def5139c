package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

var (
	_ repository.ProvisioningRunRepository = (*ProvisioningRunRepo)(nil)
	_ repository.WebhookEventRepository    = (*WebhookEventRepo)(nil)
)

// ProvisioningRunRepo estado durable de la saga; los pasos se guardan como JSONB.
type ProvisioningRunRepo struct {
	q Querier
}

// NewProvisioningRunRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProvisioningRunRepository(q Querier) *ProvisioningRunRepo {
	return &ProvisioningRunRepo{q: q}
}

// Create inserta la ejecución.
func (r *ProvisioningRunRepo) Create(ctx context.Context, run *entity.ProvisioningRun) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("serializar pasos: %w", err)
	}
	query := `
		INSERT INTO provisioning_runs (id, kind, subdomain, tenant_id, status, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.q.Exec(ctx, query, run.ID, run.Kind, run.Subdomain, nullString(run.TenantID), run.Status, steps, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert provisioning run: %w", err)
	}
	return nil
}

// Save reescribe estado y pasos.
func (r *ProvisioningRunRepo) Save(ctx context.Context, run *entity.ProvisioningRun) error {
	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("serializar pasos: %w", err)
	}
	query := `UPDATE provisioning_runs SET tenant_id = $2, status = $3, steps = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, run.ID, nullString(run.TenantID), run.Status, steps, run.UpdatedAt); err != nil {
		return fmt.Errorf("update provisioning run: %w", err)
	}
	return nil
}

// GetByID obtiene la ejecución (nil si no existe).
func (r *ProvisioningRunRepo) GetByID(ctx context.Context, id string) (*entity.ProvisioningRun, error) {
	query := `
		SELECT id, kind, subdomain, tenant_id, status, steps, created_at, updated_at
		FROM provisioning_runs WHERE id = $1`
	var run entity.ProvisioningRun
	var tenantID *string
	var steps []byte
	err := r.q.QueryRow(ctx, query, id).Scan(&run.ID, &run.Kind, &run.Subdomain, &tenantID, &run.Status, &steps, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provisioning run: %w", err)
	}
	run.TenantID = derefString(tenantID)
	if err := json.Unmarshal(steps, &run.Steps); err != nil {
		return nil, fmt.Errorf("decodificar pasos: %w", err)
	}
	return &run, nil
}

// WebhookEventRepo registro de idempotencia de eventos del procesador de pagos.
type WebhookEventRepo struct {
	q Querier
}

// NewWebhookEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWebhookEventRepository(q Querier) *WebhookEventRepo {
	return &WebhookEventRepo{q: q}
}

// MarkProcessed inserta el id del evento; false si ya estaba.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, ev *entity.WebhookEvent) (bool, error) {
	query := `
		INSERT INTO webhook_events (id, type, processed_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO NOTHING
		RETURNING processed_at`
	err := r.q.QueryRow(ctx, query, ev.ID, ev.Type).Scan(&ev.ProcessedAt)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return true, nil
}
