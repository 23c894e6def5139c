package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

var (
	_ repository.SalesChannelRepository = (*SalesChannelRepo)(nil)
	_ repository.APIKeyRepository       = (*APIKeyRepo)(nil)
)

// SalesChannelRepo canales de venta sobre PostgreSQL.
type SalesChannelRepo struct {
	q Querier
}

// NewSalesChannelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesChannelRepository(q Querier) *SalesChannelRepo {
	return &SalesChannelRepo{q: q}
}

// Create inserta el canal; tenant_id es único.
func (r *SalesChannelRepo) Create(ctx context.Context, sc *entity.SalesChannel) error {
	query := `INSERT INTO sales_channels (id, tenant_id, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, sc.ID, sc.TenantID, sc.Name, sc.CreatedAt); err != nil {
		return fmt.Errorf("insert sales channel: %w", err)
	}
	return nil
}

// GetByTenantID búsqueda indexada por FK.
func (r *SalesChannelRepo) GetByTenantID(ctx context.Context, tenantID string) (*entity.SalesChannel, error) {
	query := `SELECT id, tenant_id, name, created_at FROM sales_channels WHERE tenant_id = $1`
	var sc entity.SalesChannel
	err := r.q.QueryRow(ctx, query, tenantID).Scan(&sc.ID, &sc.TenantID, &sc.Name, &sc.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales channel: %w", err)
	}
	return &sc, nil
}

// Delete elimina el canal.
func (r *SalesChannelRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sales_channels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete sales channel: %w", err)
	}
	return nil
}

// APIKeyRepo publishable keys sobre PostgreSQL.
type APIKeyRepo struct {
	q Querier
}

// NewAPIKeyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAPIKeyRepository(q Querier) *APIKeyRepo {
	return &APIKeyRepo{q: q}
}

// Create inserta la key.
func (r *APIKeyRepo) Create(ctx context.Context, k *entity.PublishableAPIKey) error {
	query := `
		INSERT INTO publishable_api_keys (id, token, tenant_id, sales_channel_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, k.ID, k.Token, k.TenantID, nullString(k.SalesChannelID), k.CreatedAt); err != nil {
		return fmt.Errorf("insert publishable key: %w", err)
	}
	return nil
}

// GetByToken sólo keys no revocadas.
func (r *APIKeyRepo) GetByToken(ctx context.Context, token string) (*entity.PublishableAPIKey, error) {
	query := `
		SELECT id, token, tenant_id, sales_channel_id, created_at, revoked_at
		FROM publishable_api_keys WHERE token = $1 AND revoked_at IS NULL`
	var k entity.PublishableAPIKey
	var channelID *string
	err := r.q.QueryRow(ctx, query, token).Scan(&k.ID, &k.Token, &k.TenantID, &channelID, &k.CreatedAt, &k.RevokedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get publishable key: %w", err)
	}
	k.SalesChannelID = derefString(channelID)
	return &k, nil
}

// Delete elimina la key.
func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM publishable_api_keys WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete publishable key: %w", err)
	}
	return nil
}
