package repository

import (
	"context"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
)

// ProvisioningRunRepository persiste el estado de cada paso de la saga.
type ProvisioningRunRepository interface {
	Create(ctx context.Context, run *entity.ProvisioningRun) error
	Save(ctx context.Context, run *entity.ProvisioningRun) error
	GetByID(ctx context.Context, id string) (*entity.ProvisioningRun, error)
}

// WebhookEventRepository registro de eventos del proveedor ya procesados.
type WebhookEventRepository interface {
	// MarkProcessed inserta el evento; devuelve false si ya existía.
	MarkProcessed(ctx context.Context, ev *entity.WebhookEvent) (bool, error)
}
