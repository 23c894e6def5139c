package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TenantResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolutions_total",
			Help: "Peticiones resueltas por estrategia (none = sin tenant)",
		},
		[]string{"strategy"},
	)
	AccessDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_access_denied_total",
			Help: "Rechazos del guard de acceso por motivo",
		},
		[]string{"reason"},
	)
	LimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_limit_rejections_total",
			Help: "Escrituras rechazadas por techo del plan",
		},
		[]string{"resource", "plan"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Eventos de facturación por tipo y resultado",
		},
		[]string{"type", "outcome"},
	)
	TenantsProvisioned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenants_provisioned_total",
			Help: "Aprovisionamientos por estado final",
		},
		[]string{"status"},
	)
	ProvisioningDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_provisioning_duration_seconds",
			Help:    "Duración del aprovisionamiento en segundos",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)
)

// Register registra los colectores en reg. Devuelve el primer error distinto de AlreadyRegistered.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		TenantResolutions, AccessDenied, LimitRejections, WebhookEvents, TenantsProvisioned, ProvisioningDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
