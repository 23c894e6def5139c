package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

// setupTestDB requiere TEST_DATABASE_URL; sin ella los tests se omiten.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	require.NoError(t, Migrate(dsn, MigrateUp, 0))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(),
		"TRUNCATE TABLE provisioning_runs, webhook_events, users, publishable_api_keys, sales_channels, tenants CASCADE")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newTenant(sub string, plan entity.Plan) *entity.Tenant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.Tenant{
		ID: uuid.New().String(), Name: "Shop " + sub, Subdomain: sub, Plan: plan,
		Status: entity.StatusActive, OwnerEmail: sub + "@shop.io", CreatedAt: now, UpdatedAt: now,
		Branding: entity.Branding{PrimaryColor: "#123456"},
	}
}

func TestTenantRepo_CreateGetUpdate(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTenantRepository(pool)
	ctx := context.Background()

	tn := newTenant("shop1", entity.PlanStarter)
	require.NoError(t, repo.Create(ctx, tn))
	assert.ErrorIs(t, repo.Create(ctx, newTenant("shop1", entity.PlanPro)), domain.ErrDuplicate)

	got, err := repo.GetBySubdomain(ctx, "shop1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.PlanLimits(entity.PlanStarter), got.Limits)
	assert.Equal(t, "#123456", got.Branding.PrimaryColor)

	missing, err := repo.GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	d := "mybrand.com"
	got.CustomDomain = &d
	got.Plan = entity.PlanEnterprise
	got.Billing.StripeCustomerID = "cus_1"
	require.NoError(t, repo.Update(ctx, got))

	byDomain, err := repo.GetByCustomDomain(ctx, "mybrand.com")
	require.NoError(t, err)
	require.NotNil(t, byDomain)
	assert.Equal(t, entity.PlanLimits(entity.PlanEnterprise), byDomain.Limits)

	byCustomer, err := repo.GetByStripeCustomerID(ctx, "cus_1")
	require.NoError(t, err)
	require.NotNil(t, byCustomer)
	assert.Equal(t, tn.ID, byCustomer.ID)
}

func TestTenantRepo_ReservaAtomica(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTenantRepository(pool)
	ctx := context.Background()

	tn := newTenant("shop2", entity.PlanStarter)
	tn.Usage.Products = 95
	require.NoError(t, repo.Create(ctx, tn))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := repo.ReserveUsage(ctx, tn.ID, entity.Usage{Products: 1})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, accepted)

	got, err := repo.GetByID(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Usage.Products)
	assert.NotNil(t, got.LastUsageUpdate)

	require.NoError(t, repo.ReleaseUsage(ctx, tn.ID, entity.Usage{Products: 200}))
	got, _ = repo.GetByID(ctx, tn.ID)
	assert.Equal(t, int64(0), got.Usage.Products)

	_, _, err = repo.ReserveUsage(ctx, "nope", entity.Usage{Orders: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxRunner_RunWebhookIdempotente(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTenantRepository(pool)
	runner := NewTxRunner(pool)
	ctx := context.Background()

	tn := newTenant("shop3", entity.PlanPro)
	tn.Billing.StripeCustomerID = "cus_3"
	require.NoError(t, repo.Create(ctx, tn))

	suspend := func(tenants repository.TenantRepository) error {
		found, err := tenants.GetByStripeCustomerID(ctx, "cus_3")
		if err != nil {
			return err
		}
		found.Status = entity.StatusSuspended
		return tenants.Update(ctx, found)
	}
	applied, err := runner.RunWebhook(ctx, entity.WebhookEvent{ID: "evt_1", Type: "invoice.payment_failed"}, suspend)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = runner.RunWebhook(ctx, entity.WebhookEvent{ID: "evt_1", Type: "invoice.payment_failed"}, suspend)
	require.NoError(t, err)
	assert.False(t, applied)

	got, _ := repo.GetByID(ctx, tn.ID)
	assert.Equal(t, entity.StatusSuspended, got.Status)
}

func TestProvisioningRunRepo_PasosJSONB(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewProvisioningRunRepository(pool)
	ctx := context.Background()

	run := &entity.ProvisioningRun{
		ID: uuid.New().String(), Kind: entity.RunKindProvision, Subdomain: "shop4", Status: entity.RunRunning,
		Steps:     []entity.ProvisioningStep{{Name: "create_tenant", Status: entity.StepPending}},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, run))

	run.Steps[0].Status = entity.StepCompensationFailed
	run.Steps[0].ResourceID = "t-4"
	run.Status = entity.RunCompensationFailed
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.RunCompensationFailed, got.Status)
	assert.Equal(t, "t-4", got.Step("create_tenant").ResourceID)
}
