package dto

import "time"

// LimitsDTO techos del plan (-1 = ilimitado).
type LimitsDTO struct {
	Products  int64 `json:"products"`
	Orders    int64 `json:"orders"`
	StorageMB int64 `json:"storageMb"`
}

// UsageDTO consumo acumulado.
type UsageDTO struct {
	Products  int64 `json:"products"`
	Orders    int64 `json:"orders"`
	StorageMB int64 `json:"storageMb"`
}

// BrandingDTO presentación de la tienda.
type BrandingDTO struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	FontFamily     string `json:"fontFamily,omitempty"`
	CustomCSS      string `json:"customCss,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`
}

// TenantResponse proyección administrativa de un tenant.
type TenantResponse struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Subdomain        string      `json:"subdomain"`
	CustomDomain     *string     `json:"customDomain"`
	Plan             string      `json:"plan"`
	Status           string      `json:"status"`
	OwnerEmail       string      `json:"ownerEmail"`
	Limits           LimitsDTO   `json:"limits"`
	Usage            UsageDTO    `json:"usage"`
	Branding         BrandingDTO `json:"branding"`
	SuspensionReason string      `json:"suspensionReason,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	SuspendedAt      *time.Time  `json:"suspendedAt,omitempty"`
	DeactivatedAt    *time.Time  `json:"deactivatedAt,omitempty"`
	LastPaymentAt    *time.Time  `json:"lastPaymentAt,omitempty"`
	LastUsageUpdate  *time.Time  `json:"lastUsageUpdate,omitempty"`
}

// UpdateTenantRequest PATCH parcial; los campos ausentes no cambian.
type UpdateTenantRequest struct {
	Plan         *string      `json:"plan,omitempty"`
	CustomDomain *string      `json:"customDomain,omitempty"`
	Branding     *BrandingDTO `json:"branding,omitempty"`
}

// ThemeDTO tema derivado del branding para el storefront.
type ThemeDTO struct {
	Colors    map[string]string `json:"colors"`
	Font      string            `json:"font,omitempty"`
	CustomCSS string            `json:"customCss,omitempty"`
	LogoURL   string            `json:"logoUrl,omitempty"`
}

// StorefrontTenantResponse proyección pública para el storefront.
type StorefrontTenantResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Subdomain    string      `json:"subdomain"`
	CustomDomain *string     `json:"customDomain"`
	Branding     BrandingDTO `json:"branding"`
	Theme        ThemeDTO    `json:"theme"`
	Limits       LimitsDTO   `json:"limits"`
	Usage        UsageDTO    `json:"usage"`
	Plan         string      `json:"plan"`
	Status       string      `json:"status"`
}

// ProvisionRequest alta de una tienda nueva.
type ProvisionRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	StoreName string `json:"storeName" validate:"required"`
	Subdomain string `json:"subdomain" validate:"required"`
	Plan      string `json:"plan" validate:"required,oneof=starter pro enterprise"`
}

// ProvisionResponse resultado del aprovisionamiento.
type ProvisionResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	Plan           string `json:"plan"`
	AdminURL       string `json:"adminUrl"`
	StorefrontURL  string `json:"storefrontUrl"`
	PublishableKey string `json:"publishableKey"`
	Status         string `json:"status"`
	RunID          string `json:"runId,omitempty"`
}

// ProvisioningStepDTO estado de un paso del saga.
type ProvisioningStepDTO struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	ResourceID string `json:"resourceId,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProvisioningRunResponse estado persistido de una ejecución.
type ProvisioningRunResponse struct {
	ID        string                `json:"id"`
	Kind      string                `json:"kind"`
	Subdomain string                `json:"subdomain,omitempty"`
	TenantID  string                `json:"tenantId,omitempty"`
	Status    string                `json:"status"`
	Steps     []ProvisioningStepDTO `json:"steps"`
	UpdatedAt time.Time             `json:"updatedAt"`
}
