package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/provisioning"
	"github.com/jhoicas/tenancy-gateway/internal/application/usecase"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/testutil"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

type hostSpy struct{ hosts []string }

func (h *hostSpy) Invalidate(_ context.Context, hosts ...string) error {
	h.hosts = append(h.hosts, hosts...)
	return nil
}

func strPtr(s string) *string { return &s }

func newTenantUC(st *testutil.Store) (*usecase.TenantUseCase, *hostSpy) {
	plans := provisioning.NewService(st.TenantRepo(), st.ChannelRepo(), st.KeyRepo(), st.UserRepo(), st.RunRepo(),
		nil, nil, logger.Nop(), provisioning.Config{BaseDomain: "example.com"})
	hs := &hostSpy{}
	return usecase.NewTenantUseCase(st.TenantRepo(), plans, hs, "example.com", logger.Nop()), hs
}

func activeTenant() *entity.Tenant {
	return &entity.Tenant{
		ID: "t1", Name: "Shop", Subdomain: "shop1", Plan: entity.PlanStarter, Status: entity.StatusActive,
		CustomDomain: strPtr("old.shop.io"), Limits: entity.PlanLimits(entity.PlanStarter),
		Usage:    entity.Usage{Products: 3},
		Branding: entity.Branding{PrimaryColor: "#000", FontFamily: "Inter"},
	}
}

func TestTenantUseCase_GetInexistente(t *testing.T) {
	uc, _ := newTenantUC(testutil.NewStore())
	_, err := uc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantUseCase_UpdateMezclaBrandingYDominio(t *testing.T) {
	st := testutil.NewStore()
	st.PutTenant(activeTenant())
	uc, hs := newTenantUC(st)

	res, err := uc.Update(context.Background(), "t1", dto.UpdateTenantRequest{
		CustomDomain: strPtr("MyBrand.com"),
		Branding:     &dto.BrandingDTO{PrimaryColor: "#fff"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mybrand.com", *res.CustomDomain)
	assert.Equal(t, "#fff", res.Branding.PrimaryColor)
	assert.Equal(t, "Inter", res.Branding.FontFamily)
	assert.Equal(t, "starter", res.Plan)
	assert.Equal(t, []string{"old.shop.io", "mybrand.com"}, hs.hosts)
	assert.Empty(t, st.Runs)
}

func TestTenantUseCase_UpdateConPlanCorreElWorkflow(t *testing.T) {
	st := testutil.NewStore()
	st.PutTenant(activeTenant())
	uc, _ := newTenantUC(st)

	res, err := uc.Update(context.Background(), "t1", dto.UpdateTenantRequest{Plan: strPtr("pro")})
	require.NoError(t, err)
	assert.Equal(t, "pro", res.Plan)
	assert.Equal(t, dto.LimitsDTO{Products: 1000, Orders: 2000, StorageMB: 5000}, res.Limits)
	assert.Equal(t, int64(3), res.Usage.Products)
	assert.Len(t, st.Runs, 1)

	_, err = uc.Update(context.Background(), "t1", dto.UpdateTenantRequest{Plan: strPtr("gold")})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}

func TestTenantUseCase_Deactivate(t *testing.T) {
	st := testutil.NewStore()
	st.PutTenant(activeTenant())
	uc, _ := newTenantUC(st)

	res, err := uc.Deactivate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSuspended, res.Status)
	assert.NotNil(t, res.DeactivatedAt)

	tn := st.Tenant("t1")
	require.NotNil(t, tn)
	assert.Equal(t, entity.SuspensionDeactivated, tn.SuspensionReason)
}

func TestTenantUseCase_StorefrontLookup(t *testing.T) {
	st := testutil.NewStore()
	st.PutTenant(activeTenant())
	trial := activeTenant()
	trial.ID, trial.Subdomain, trial.CustomDomain, trial.Status = "t2", "nuevo", nil, entity.StatusTrial
	st.PutTenant(trial)
	uc, _ := newTenantUC(st)
	ctx := context.Background()

	res, err := uc.StorefrontLookup(ctx, "shop1.example.com")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.ID)
	assert.Equal(t, "#000", res.Theme.Colors["primary"])
	assert.Equal(t, "Inter", res.Theme.Font)

	res, err = uc.StorefrontLookup(ctx, "old.shop.io")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.ID)

	_, err = uc.StorefrontLookup(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.StorefrontLookup(ctx, "unknown.example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.StorefrontLookup(ctx, "nuevo.example.com")
	assert.ErrorIs(t, err, domain.ErrTenantNotActive)
}
