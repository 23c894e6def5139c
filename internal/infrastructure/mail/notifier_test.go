package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

func TestNotifier_Notify(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	n := NewNotifier(config.MailConfig{APIURL: srv.URL, APIKey: "re_key", From: "no-reply@shop.io"})
	err := n.Notify(context.Background(), ports.Notification{
		Kind: ports.NotifyPaymentFailed, To: "owner@shop.io", StoreName: "Shop",
		Data: map[string]string{"portal_url": "https://billing.example.com/p/cus_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@shop.io", got.From)
	assert.Equal(t, []string{"owner@shop.io"}, got.To)
	assert.Equal(t, "No pudimos procesar tu pago", got.Subject)
	assert.Contains(t, got.HTML, "https://billing.example.com/p/cus_1")
}

func TestNotifier_ErrorHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"dominio no verificado"}`))
	}))
	defer srv.Close()

	n := NewNotifier(config.MailConfig{APIURL: srv.URL, From: "x@y.z"})
	err := n.Notify(context.Background(), ports.Notification{Kind: ports.NotifyWelcome, To: "a@b.c", StoreName: "S"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "dominio no verificado")
}

func TestRender(t *testing.T) {
	kinds := []string{
		ports.NotifyWelcome, ports.NotifyPaymentSucceeded, ports.NotifyPaymentFailed,
		ports.NotifySubscriptionCanceled, ports.NotifyTrialEnding, ports.NotifyPlanChanged,
	}
	for _, k := range kinds {
		subject, body, err := render(ports.Notification{Kind: k, StoreName: "Shop", Data: map[string]string{"plan": "pro"}})
		require.NoError(t, err, k)
		assert.NotEmpty(t, subject, k)
		assert.NotEmpty(t, body, k)
	}

	_, _, err := render(ports.Notification{Kind: "otro"})
	assert.Error(t, err)

	err = NewNotifier(config.MailConfig{APIURL: "http://localhost"}).Notify(context.Background(), ports.Notification{Kind: ports.NotifyWelcome})
	assert.Error(t, err)
}
