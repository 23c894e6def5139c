package stripe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/jhoicas/tenancy-gateway/internal/application/billing"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
)

const testSecret = "whsec_test"

func sign(t *testing.T, payload string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestVerifier_Invoice(t *testing.T) {
	payload := `{"id":"evt_1","object":"event","type":"invoice.payment_failed",
		"data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1","subscription":"sub_1"}}}`

	ev, err := NewVerifier(testSecret).Verify([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, billing.EventPaymentFailed, ev.Type)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
}

func TestVerifier_Subscription(t *testing.T) {
	payload := `{"id":"evt_2","object":"event","type":"customer.subscription.updated",
		"data":{"object":{"id":"sub_2","object":"subscription","customer":"cus_2","status":"past_due","current_period_end":1767225600}}}`

	ev, err := NewVerifier(testSecret).Verify([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "cus_2", ev.CustomerID)
	assert.Equal(t, "sub_2", ev.SubscriptionID)
	assert.Equal(t, "past_due", ev.SubscriptionStatus)
	require.NotNil(t, ev.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *ev.CurrentPeriodEnd)
}

func TestVerifier_FirmaInvalida(t *testing.T) {
	payload := `{"id":"evt_3","object":"event","type":"invoice.payment_succeeded","data":{"object":{"customer":"cus_3"}}}`
	header := sign(t, payload)

	_, err := NewVerifier(testSecret).Verify([]byte(payload+" "), header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = NewVerifier("whsec_otro").Verify([]byte(payload), header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = NewVerifier(testSecret).Verify([]byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestVerifier_CuerpoAlteradoPorTipo(t *testing.T) {
	objects := map[string]string{
		billing.EventPaymentSucceeded:    `{"id":"in_1","object":"invoice","customer":"%s"}`,
		billing.EventPaymentFailed:       `{"id":"in_2","object":"invoice","customer":"%s"}`,
		billing.EventSubscriptionUpdated: `{"id":"sub_1","object":"subscription","customer":"%s","status":"active"}`,
		billing.EventSubscriptionDeleted: `{"id":"sub_2","object":"subscription","customer":"%s","status":"canceled"}`,
		billing.EventTrialWillEnd:        `{"id":"sub_3","object":"subscription","customer":"%s","status":"trialing"}`,
	}
	v := NewVerifier(testSecret)
	for typ, obj := range objects {
		t.Run(typ, func(t *testing.T) {
			event := func(customer string) string {
				return fmt.Sprintf(`{"id":"evt_t","object":"event","type":%q,"data":{"object":`+obj+`}}`, typ, customer)
			}
			original := event("cus_mio")
			header := sign(t, original)

			ev, err := v.Verify([]byte(original), header)
			require.NoError(t, err)
			assert.Equal(t, "cus_mio", ev.CustomerID)

			_, err = v.Verify([]byte(event("cus_ajeno")), header)
			assert.ErrorIs(t, err, domain.ErrInvalidSignature)

			_, err = v.Verify([]byte(original), "t=1,v1=deadbeef")
			assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		})
	}
}

func TestVerifier_TipoNoManejado(t *testing.T) {
	payload := `{"id":"evt_4","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`

	ev, err := NewVerifier(testSecret).Verify([]byte(payload), sign(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.CustomerID)
}
