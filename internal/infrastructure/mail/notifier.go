package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

var _ ports.Notifier = (*Notifier)(nil)

// Notifier envía correos transaccionales vía una API HTTP estilo Resend (POST /emails).
type Notifier struct {
	http *resty.Client
	from string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewNotifier construye el cliente con reintentos cortos.
func NewNotifier(cfg config.MailConfig) *Notifier {
	c := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)
	return &Notifier{http: c, from: cfg.From}
}

// Notify renderiza la plantilla del tipo y envía el correo.
func (n *Notifier) Notify(ctx context.Context, msg ports.Notification) error {
	if msg.To == "" {
		return fmt.Errorf("mail: destinatario vacío")
	}
	subject, body, err := render(msg)
	if err != nil {
		return err
	}

	var apiErr sendError
	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(sendRequest{From: n.from, To: []string{msg.To}, Subject: subject, HTML: body}).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("mail: llamada HTTP fallida: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail: HTTP %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return nil
}

func render(n ports.Notification) (subject, body string, err error) {
	d := n.Data
	switch n.Kind {
	case ports.NotifyWelcome:
		subject = fmt.Sprintf("Bienvenido a tu tienda %s", n.StoreName)
		body = fmt.Sprintf(`<h1>¡Tu tienda %s está lista!</h1>
<p>Panel de administración: <a href="%s">%s</a></p>
<p>Tu tienda: <a href="%s">%s</a></p>`, n.StoreName, d["admin_url"], d["admin_url"], d["storefront_url"], d["storefront_url"])
	case ports.NotifyPaymentSucceeded:
		subject = "Pago recibido"
		body = fmt.Sprintf(`<p>Recibimos el pago de %s. Tu tienda sigue activa.</p>`, n.StoreName)
	case ports.NotifyPaymentFailed:
		subject = "No pudimos procesar tu pago"
		body = fmt.Sprintf(`<p>El pago de %s falló y la tienda quedó suspendida.</p>
<p>Actualiza tu método de pago: <a href="%s">portal de facturación</a></p>`, n.StoreName, d["portal_url"])
	case ports.NotifySubscriptionCanceled:
		subject = "Suscripción cancelada"
		body = fmt.Sprintf(`<p>La suscripción de %s fue cancelada y la tienda quedó suspendida.</p>`, n.StoreName)
	case ports.NotifyTrialEnding:
		subject = "Tu periodo de prueba termina pronto"
		body = fmt.Sprintf(`<p>El periodo de prueba de %s termina pronto. Agrega un método de pago para no perder el acceso.</p>`, n.StoreName)
	case ports.NotifyPlanChanged:
		subject = fmt.Sprintf("Tu plan ahora es %s", d["plan"])
		body = fmt.Sprintf(`<p>%s cambió al plan %s.</p>`, n.StoreName, d["plan"])
	default:
		return "", "", fmt.Errorf("mail: tipo de notificación desconocido %q", n.Kind)
	}
	return subject, body, nil
}
