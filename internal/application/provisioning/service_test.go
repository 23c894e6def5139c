package provisioning_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/application/provisioning"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/testutil"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

type env struct {
	store    *testutil.Store
	payments *testutil.Payments
	notifier *testutil.Notifier
	svc      *provisioning.Service
}

func newEnv() env {
	st := testutil.NewStore()
	pay := testutil.NewPayments()
	n := &testutil.Notifier{}
	svc := provisioning.NewService(st.TenantRepo(), st.ChannelRepo(), st.KeyRepo(), st.UserRepo(), st.RunRepo(),
		pay, n, logger.Nop(), provisioning.Config{BaseDomain: "example.com"})
	return env{store: st, payments: pay, notifier: n, svc: svc}
}

func validRequest() dto.ProvisionRequest {
	return dto.ProvisionRequest{Email: "Owner@Shop.io", Password: "s3cretpass", StoreName: "Shop Uno", Subdomain: "shop1", Plan: "starter"}
}

func TestProvision_Exito(t *testing.T) {
	e := newEnv()

	res, err := e.svc.Provision(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "shop1", res.Subdomain)
	assert.Equal(t, "https://shop1.example.com/admin", res.AdminURL)
	assert.Equal(t, "https://shop1.example.com", res.StorefrontURL)
	assert.Equal(t, "active", res.Status)
	assert.True(t, strings.HasPrefix(res.PublishableKey, "pk_"))
	assert.Len(t, res.PublishableKey, 3+32)

	tn := e.store.Tenant(res.ID)
	require.NotNil(t, tn)
	assert.Equal(t, entity.StatusTrial, tn.Status)
	assert.Equal(t, entity.PlanLimits(entity.PlanStarter), tn.Limits)
	assert.Equal(t, entity.Usage{}, tn.Usage)
	assert.Equal(t, "owner@shop.io", tn.OwnerEmail)
	assert.NotEmpty(t, tn.Billing.StripeCustomerID)

	require.Len(t, e.store.Users, 1)
	for _, u := range e.store.Users {
		assert.Equal(t, res.ID, u.TenantStoreID)
		assert.Equal(t, entity.RoleOwner, u.Role)
		assert.Equal(t, []string{"*"}, u.Permissions)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")))
	}
	require.Len(t, e.store.Keys, 1)
	for _, k := range e.store.Keys {
		assert.Equal(t, res.PublishableKey, k.Token)
		assert.Equal(t, res.ID, k.TenantID)
	}
	assert.Len(t, e.store.Channels, 1)
	assert.Equal(t, []string{ports.NotifyWelcome}, e.notifier.Kinds())

	run := e.store.Runs[res.RunID]
	require.NotNil(t, run)
	assert.Equal(t, entity.RunCompleted, run.Status)
	assert.Equal(t, res.ID, run.TenantID)
}

func TestProvision_ValidacionesSinEfectos(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*dto.ProvisionRequest)
		want error
	}{
		{"falta email", func(r *dto.ProvisionRequest) { r.Email = "" }, domain.ErrInvalidInput},
		{"plan inválido", func(r *dto.ProvisionRequest) { r.Plan = "gold" }, domain.ErrInvalidPlan},
		{"formato", func(r *dto.ProvisionRequest) { r.Subdomain = "-bad-" }, domain.ErrInvalidInput},
		{"reservado", func(r *dto.ProvisionRequest) { r.Subdomain = "Admin" }, domain.ErrSubdomainTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv()
			req := validRequest()
			tc.mut(&req)
			_, err := e.svc.Provision(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, e.store.Tenants)
			assert.Empty(t, e.store.Runs)
			assert.Empty(t, e.payments.Customers)
		})
	}
}

func TestProvision_SubdominioOcupado(t *testing.T) {
	e := newEnv()
	e.store.PutTenant(&entity.Tenant{ID: "existing", Subdomain: "shop1"})

	_, err := e.svc.Provision(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrSubdomainTaken)
	assert.False(t, e.store.Called("tenants.Create"))
	assert.Len(t, e.store.Tenants, 1)
}

func TestProvision_FalloDeUsuarioCompensaEnOrdenInverso(t *testing.T) {
	e := newEnv()
	e.store.Fail["users.Create"] = errors.New("auth caído")

	_, err := e.svc.Provision(context.Background(), validRequest())
	var se *provisioning.StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create_owner_user", se.Step)

	assert.Empty(t, e.store.Tenants)
	assert.Empty(t, e.store.Channels)
	assert.Empty(t, e.store.Keys)
	assert.Empty(t, e.store.Users)
	assert.Empty(t, e.payments.Customers)
	assert.False(t, e.store.Called("users.Delete"))

	// orden inverso: key, canal, tienda
	var deletes []string
	for _, c := range e.store.Calls {
		if strings.HasSuffix(c, ".Delete") {
			deletes = append(deletes, c)
		}
	}
	assert.Equal(t, []string{"keys.Delete", "channels.Delete", "tenants.Delete"}, deletes)

	require.Len(t, e.store.Runs, 1)
	for _, run := range e.store.Runs {
		assert.Equal(t, entity.RunCompensated, run.Status)
		assert.Equal(t, entity.StepFailed, run.Step("create_owner_user").Status)
		assert.Equal(t, entity.StepCompensated, run.Step("create_tenant").Status)
		assert.Equal(t, entity.StepPending, run.Step("create_stripe_customer").Status)
	}
	assert.Empty(t, e.notifier.Sent)
}

func TestProvision_CompensacionFallidaYReintento(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	e.payments.Fail["CreateCustomer"] = errors.New("stripe 500")
	e.store.Fail["channels.Delete"] = errors.New("timeout")

	_, err := e.svc.Provision(ctx, validRequest())
	require.Error(t, err)

	var runID string
	for id, run := range e.store.Runs {
		runID = id
		assert.Equal(t, entity.RunCompensationFailed, run.Status)
		assert.Equal(t, entity.StepCompensationFailed, run.Step("create_sales_channel").Status)
		assert.Equal(t, entity.StepCompensated, run.Step("create_tenant").Status)
	}
	assert.Len(t, e.store.Channels, 1)
	assert.Empty(t, e.store.Tenants)

	delete(e.store.Fail, "channels.Delete")
	run, err := e.svc.RetryCompensation(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunCompensated, run.Status)
	assert.Empty(t, e.store.Channels)

	_, err = e.svc.RetryCompensation(ctx, runID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = e.svc.RetryCompensation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetryCompensation_PasoSinUndoSigueFallido(t *testing.T) {
	st := testutil.NewStore()
	ctx := context.Background()
	// sin procesador de pagos no hay forma de borrar el cliente de Stripe
	svc := provisioning.NewService(st.TenantRepo(), st.ChannelRepo(), st.KeyRepo(), st.UserRepo(), st.RunRepo(),
		nil, &testutil.Notifier{}, logger.Nop(), provisioning.Config{BaseDomain: "example.com"})

	st.PutTenant(&entity.Tenant{ID: "t-x", Subdomain: "shopx", Status: entity.StatusTrial})
	require.NoError(t, st.RunRepo().Create(ctx, &entity.ProvisioningRun{
		ID: "run-x", Kind: entity.RunKindProvision, Subdomain: "shopx", TenantID: "t-x", Status: entity.RunCompensationFailed,
		Steps: []entity.ProvisioningStep{
			{Name: "create_tenant", Status: entity.StepCompensationFailed, ResourceID: "t-x"},
			{Name: "create_stripe_customer", Status: entity.StepCompensationFailed, ResourceID: "cus_x", Error: "stripe 500"},
		},
	}))

	run, err := svc.RetryCompensation(ctx, "run-x")
	require.NoError(t, err)
	assert.Equal(t, entity.RunCompensationFailed, run.Status)
	assert.Equal(t, entity.StepCompensated, run.Step("create_tenant").Status)
	assert.Equal(t, entity.StepCompensationFailed, run.Step("create_stripe_customer").Status)
	assert.Empty(t, st.Tenants)

	stored, err := svc.GetRun(ctx, "run-x")
	require.NoError(t, err)
	assert.Equal(t, entity.RunCompensationFailed, stored.Status)
}

func TestProvision_FalloDeCorreoNoRevierte(t *testing.T) {
	e := newEnv()
	e.notifier.Err = errors.New("mail caído")

	res, err := e.svc.Provision(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotNil(t, e.store.Tenant(res.ID))
}

func TestChangePlan_RecalculaLimitesYConservaUso(t *testing.T) {
	e := newEnv()
	e.store.PutTenant(&entity.Tenant{
		ID: "t1", Subdomain: "shop1", Plan: entity.PlanStarter, Status: entity.StatusActive, OwnerEmail: "o@x.io",
		Limits: entity.PlanLimits(entity.PlanStarter), Usage: entity.Usage{Products: 40, Orders: 12, StorageMB: 300},
		Billing: entity.Billing{StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1"},
	})

	tn, err := e.svc.ChangePlan(context.Background(), "t1", entity.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, entity.PlanPro, tn.Plan)
	assert.Equal(t, entity.Limits{Products: 1000, Orders: 2000, StorageMB: 5000}, tn.Limits)
	assert.Equal(t, entity.Usage{Products: 40, Orders: 12, StorageMB: 300}, tn.Usage)
	assert.Equal(t, "pro", e.payments.Plans["sub_1"])
	assert.Equal(t, []string{ports.NotifyPlanChanged}, e.notifier.Kinds())
}

func TestChangePlan_FalloDeSuscripcionRevierte(t *testing.T) {
	e := newEnv()
	e.store.PutTenant(&entity.Tenant{
		ID: "t1", Subdomain: "shop1", Plan: entity.PlanStarter, Status: entity.StatusActive,
		Limits: entity.PlanLimits(entity.PlanStarter), Billing: entity.Billing{StripeSubscriptionID: "sub_1"},
	})
	e.payments.Fail["UpdateSubscriptionPlan"] = errors.New("price inexistente")

	_, err := e.svc.ChangePlan(context.Background(), "t1", entity.PlanEnterprise)
	require.Error(t, err)

	tn := e.store.Tenant("t1")
	assert.Equal(t, entity.PlanStarter, tn.Plan)
	assert.Equal(t, entity.PlanLimits(entity.PlanStarter), tn.Limits)
	assert.Empty(t, e.notifier.Sent)
}

func TestChangePlan_Validaciones(t *testing.T) {
	e := newEnv()
	_, err := e.svc.ChangePlan(context.Background(), "t1", "gold")
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
	_, err = e.svc.ChangePlan(context.Background(), "missing", entity.PlanPro)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
