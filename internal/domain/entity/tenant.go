package entity

import (
	"strings"
	"time"
)

// Plan comercial del tenant.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Valid indica si el plan pertenece al enum soportado.
func (p Plan) Valid() bool {
	switch p {
	case PlanStarter, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Estados del tenant (deben coincidir con el CHECK de la tabla tenants).
const (
	StatusTrial     = "trial"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Motivos de suspensión.
const (
	SuspensionPaymentFailed        = "payment_failed"
	SuspensionSubscriptionCanceled = "subscription_canceled"
	SuspensionDeactivated          = "deactivated"
)

// Unlimited valor de techo sin límite.
const Unlimited int64 = -1

// Limits techos de recursos. Unlimited (-1) = sin límite.
type Limits struct {
	Products  int64 `json:"products"`
	Orders    int64 `json:"orders"`
	StorageMB int64 `json:"storage_mb"`
}

// Usage consumo acumulado de recursos.
type Usage struct {
	Products  int64 `json:"products"`
	Orders    int64 `json:"orders"`
	StorageMB int64 `json:"storage_mb"`
}

var planLimits = map[Plan]Limits{
	PlanStarter:    {Products: 100, Orders: 200, StorageMB: 1000},
	PlanPro:        {Products: 1000, Orders: 2000, StorageMB: 5000},
	PlanEnterprise: {Products: Unlimited, Orders: Unlimited, StorageMB: Unlimited},
}

// PlanLimits devuelve los techos del plan. Planes desconocidos usan los de starter.
func PlanLimits(plan Plan) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[PlanStarter]
}

// Branding presentación de la tienda.
type Branding struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	FontFamily     string `json:"font_family,omitempty"`
	CustomCSS      string `json:"custom_css,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
}

// Merge aplica los campos no vacíos de other sobre b.
func (b Branding) Merge(other Branding) Branding {
	if other.PrimaryColor != "" {
		b.PrimaryColor = other.PrimaryColor
	}
	if other.SecondaryColor != "" {
		b.SecondaryColor = other.SecondaryColor
	}
	if other.FontFamily != "" {
		b.FontFamily = other.FontFamily
	}
	if other.CustomCSS != "" {
		b.CustomCSS = other.CustomCSS
	}
	if other.LogoURL != "" {
		b.LogoURL = other.LogoURL
	}
	return b
}

// Billing claves de correlación con el proveedor de pagos.
type Billing struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   string
	CurrentPeriodEnd     *time.Time
}

// Tenant representa una tienda (merchant) aislada dentro del SaaS.
type Tenant struct {
	ID               string
	Name             string
	Subdomain        string // único e inmutable
	CustomDomain     *string
	Plan             Plan
	Status           string // trial, active, suspended
	OwnerEmail       string
	Limits           Limits // siempre PlanLimits(Plan)
	Usage            Usage
	Branding         Branding
	Billing          Billing
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SuspendedAt      *time.Time
	SuspensionReason string
	DeactivatedAt    *time.Time
	LastPaymentAt    *time.Time
	LastUsageUpdate  *time.Time
}

// IsActive informa si el tenant puede ejecutar escrituras.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// ReservedSubdomains nunca asignables.
var ReservedSubdomains = []string{"www", "admin", "api", "app", "mail", "ftp"}

// IsReservedSubdomain compara sin distinguir mayúsculas.
func IsReservedSubdomain(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range ReservedSubdomains {
		if s == r {
			return true
		}
	}
	return false
}

// IsValidSubdomain valida el formato ^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$.
func IsValidSubdomain(subdomain string) bool {
	if len(subdomain) < 1 || len(subdomain) > 63 {
		return false
	}
	last := len(subdomain) - 1
	for i, r := range subdomain {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			continue
		}
		if r == '-' && i != 0 && i != last {
			continue
		}
		return false
	}
	return true
}
