package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

// Ensure TxRunner implements billing.WebhookTxRunner.
var _ billing.WebhookTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunWebhook registra el evento y ejecuta fn en la misma transacción.
// Si el evento ya estaba registrado no ejecuta fn y devuelve applied=false.
// Si fn falla se hace rollback y el evento queda libre para un reintento.
func (r *TxRunner) RunWebhook(ctx context.Context, ev entity.WebhookEvent, fn func(tenants repository.TenantRepository) error) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := NewWebhookEventRepository(tx).MarkProcessed(ctx, &ev)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := fn(NewTenantRepository(tx)); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}
