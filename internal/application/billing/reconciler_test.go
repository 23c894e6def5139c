package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/testutil"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// jsonVerifier acepta la firma "ok" y decodifica el payload como billing.Event.
type jsonVerifier struct{}

func (jsonVerifier) Verify(payload []byte, signature string) (billing.Event, error) {
	if signature != "ok" {
		return billing.Event{}, domain.ErrInvalidSignature
	}
	var ev billing.Event
	err := json.Unmarshal(payload, &ev)
	return ev, err
}

type fixture struct {
	store    *testutil.Store
	notifier *testutil.Notifier
	rec      *billing.Reconciler
}

func newFixture() fixture {
	st := testutil.NewStore()
	st.PutTenant(&entity.Tenant{
		ID: "t1", Name: "Shop", Subdomain: "shop1", Plan: entity.PlanPro, Status: entity.StatusActive,
		OwnerEmail: "owner@shop.io", Limits: entity.PlanLimits(entity.PlanPro),
		Billing: entity.Billing{StripeCustomerID: "cus_1"},
	})
	n := &testutil.Notifier{}
	return fixture{
		store:    st,
		notifier: n,
		rec:      billing.NewReconciler(jsonVerifier{}, st, testutil.NewPayments(), n, logger.Nop()),
	}
}

func payload(t *testing.T, ev billing.Event) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestHandleWebhook_SinFirma(t *testing.T) {
	f := newFixture()
	err := f.rec.HandleWebhook(context.Background(), payload(t, billing.Event{ID: "evt_1", Type: billing.EventPaymentFailed, CustomerID: "cus_1"}), "")
	assert.ErrorIs(t, err, domain.ErrMissingSignature)
	assert.Equal(t, entity.StatusActive, f.store.Tenant("t1").Status)
}

func TestHandleWebhook_FirmaInvalidaNoCambiaEstado(t *testing.T) {
	f := newFixture()
	err := f.rec.HandleWebhook(context.Background(), payload(t, billing.Event{ID: "evt_1", Type: billing.EventPaymentFailed, CustomerID: "cus_1"}), "forged")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Equal(t, entity.StatusActive, f.store.Tenant("t1").Status)
	assert.Empty(t, f.store.Events)
}

func TestDispatch_FallidoSuspendeYExitosoReactiva(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.rec.HandleWebhook(ctx, payload(t, billing.Event{ID: "evt_1", Type: billing.EventPaymentFailed, CustomerID: "cus_1"}), "ok"))
	tn := f.store.Tenant("t1")
	assert.Equal(t, entity.StatusSuspended, tn.Status)
	assert.Equal(t, entity.SuspensionPaymentFailed, tn.SuspensionReason)
	assert.NotNil(t, tn.SuspendedAt)

	require.NoError(t, f.rec.HandleWebhook(ctx, payload(t, billing.Event{ID: "evt_2", Type: billing.EventPaymentSucceeded, CustomerID: "cus_1"}), "ok"))
	tn = f.store.Tenant("t1")
	assert.Equal(t, entity.StatusActive, tn.Status)
	assert.NotNil(t, tn.LastPaymentAt)
	assert.Empty(t, tn.SuspensionReason)

	assert.Equal(t, []string{ports.NotifyPaymentFailed, ports.NotifyPaymentSucceeded}, f.notifier.Kinds())
	assert.Equal(t, "https://billing.example.com/p/cus_1", f.notifier.Sent[0].Data["portal_url"])
}

func TestDispatch_EventoRepetidoSeAplicaUnaVez(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := billing.Event{ID: "evt_dup", Type: billing.EventSubscriptionDeleted, CustomerID: "cus_1"}

	require.NoError(t, f.rec.Dispatch(ctx, ev))
	require.NoError(t, f.rec.Dispatch(ctx, ev))

	assert.Equal(t, entity.SuspensionSubscriptionCanceled, f.store.Tenant("t1").SuspensionReason)
	assert.Equal(t, []string{ports.NotifySubscriptionCanceled}, f.notifier.Kinds())
	assert.Len(t, f.store.Events, 1)
}

func TestDispatch_SuscripcionActualizadaSoloTocaFacturacion(t *testing.T) {
	f := newFixture()
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.rec.Dispatch(context.Background(), billing.Event{
		ID: "evt_3", Type: billing.EventSubscriptionUpdated, CustomerID: "cus_1",
		SubscriptionID: "sub_9", SubscriptionStatus: "past_due", CurrentPeriodEnd: &end,
	}))

	tn := f.store.Tenant("t1")
	assert.Equal(t, entity.StatusActive, tn.Status)
	assert.Equal(t, "sub_9", tn.Billing.StripeSubscriptionID)
	assert.Equal(t, "past_due", tn.Billing.SubscriptionStatus)
	require.NotNil(t, tn.Billing.CurrentPeriodEnd)
	assert.True(t, end.Equal(*tn.Billing.CurrentPeriodEnd))
	assert.Empty(t, f.notifier.Sent)
}

func TestDispatch_FinDePruebaSoloAvisa(t *testing.T) {
	f := newFixture()
	before := f.store.Tenant("t1")

	require.NoError(t, f.rec.Dispatch(context.Background(), billing.Event{ID: "evt_4", Type: billing.EventTrialWillEnd, CustomerID: "cus_1"}))
	after := f.store.Tenant("t1")
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, []string{ports.NotifyTrialEnding}, f.notifier.Kinds())
}

func TestDispatch_ClienteDesconocidoSeDescarta(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.rec.Dispatch(context.Background(), billing.Event{ID: "evt_5", Type: billing.EventPaymentFailed, CustomerID: "cus_otro"}))
	assert.Equal(t, entity.StatusActive, f.store.Tenant("t1").Status)
	assert.Empty(t, f.notifier.Sent)
}

func TestDispatch_TipoNoManejadoSeIgnora(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.rec.Dispatch(context.Background(), billing.Event{ID: "evt_6", Type: "charge.refunded", CustomerID: "cus_1"}))
	assert.Empty(t, f.store.Events)
}

func TestDispatch_FalloDeCorreoNoFallaElWebhook(t *testing.T) {
	f := newFixture()
	f.notifier.Err = errors.New("smtp caído")

	err := f.rec.Dispatch(context.Background(), billing.Event{ID: "evt_7", Type: billing.EventPaymentFailed, CustomerID: "cus_1"})
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusSuspended, f.store.Tenant("t1").Status)
}

func TestDispatch_ErrorDePersistenciaPermiteReintento(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := billing.Event{ID: "evt_8", Type: billing.EventPaymentFailed, CustomerID: "cus_1"}

	f.store.Fail["tenants.Update"] = errors.New("deadlock")
	assert.Error(t, f.rec.Dispatch(ctx, ev))
	assert.Empty(t, f.store.Events)

	delete(f.store.Fail, "tenants.Update")
	require.NoError(t, f.rec.Dispatch(ctx, ev))
	assert.Equal(t, entity.StatusSuspended, f.store.Tenant("t1").Status)
}
