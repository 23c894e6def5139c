package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v79"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(srv.URL),
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
	})
	cfg := config.StripeConfig{
		SecretKey:       "sk_test_123",
		PortalReturnURL: "https://admin.example.com/billing",
		Prices:          map[string]string{"starter": "price_s", "pro": "price_p"},
	}
	return NewProviderWithBackends(cfg, &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestProvider_CreateCustomer(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "owner@shop.io", r.PostForm.Get("email"))
		assert.Equal(t, "Shop", r.PostForm.Get("name"))
		assert.Equal(t, "t-1", r.PostForm.Get("metadata[tenant_id]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_123","object":"customer"}`))
	})

	id, err := p.CreateCustomer(context.Background(), "owner@shop.io", "Shop", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}

func TestProvider_UpdateSubscriptionPlan(t *testing.T) {
	var updated bool
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"id":"sub_1","object":"subscription","items":{"object":"list","data":[{"id":"si_1","object":"subscription_item"}]}}`))
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "si_1", r.PostForm.Get("items[0][id]"))
		assert.Equal(t, "price_p", r.PostForm.Get("items[0][price]"))
		updated = true
		_, _ = w.Write([]byte(`{"id":"sub_1","object":"subscription"}`))
	})

	require.NoError(t, p.UpdateSubscriptionPlan(context.Background(), "sub_1", "pro"))
	assert.True(t, updated)

	err := p.UpdateSubscriptionPlan(context.Background(), "sub_1", "enterprise")
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)
}

func TestProvider_BillingPortalURL(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_9", r.PostForm.Get("customer"))
		assert.Equal(t, "https://admin.example.com/billing", r.PostForm.Get("return_url"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.stripe.com/p/session_1"}`))
	})

	url, err := p.BillingPortalURL(context.Background(), "cus_9")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session_1", url)
}

func TestProvider_ErrorDelProveedor(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such customer"}}`))
	})

	err := p.DeleteCustomer(context.Background(), "cus_x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cus_x")
}
