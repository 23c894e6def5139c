package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// PlanChanger workflow de cambio de plan (saga con compensación).
type PlanChanger interface {
	ChangePlan(ctx context.Context, tenantID string, plan entity.Plan) (*entity.Tenant, error)
}

// HostInvalidator borra entradas host -> tenant de la cache.
type HostInvalidator interface {
	Invalidate(ctx context.Context, hosts ...string) error
}

// TenantUseCase API administrativa y pública sobre el registro de tenants.
type TenantUseCase struct {
	repo       repository.TenantRepository
	plans      PlanChanger
	hosts      HostInvalidator // opcional
	baseDomain string
	log        *logger.Logger
	now        func() time.Time
}

// NewTenantUseCase construye el caso de uso.
func NewTenantUseCase(repo repository.TenantRepository, plans PlanChanger, hosts HostInvalidator, baseDomain string, log *logger.Logger) *TenantUseCase {
	return &TenantUseCase{repo: repo, plans: plans, hosts: hosts, baseDomain: baseDomain, log: log, now: time.Now}
}

// Get devuelve la proyección administrativa. domain.ErrNotFound si no existe.
func (uc *TenantUseCase) Get(ctx context.Context, id string) (*dto.TenantResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTenantResponse(t), nil
}

// Update corre el cambio de plan si el plan difiere y luego mezcla dominio y branding.
func (uc *TenantUseCase) Update(ctx context.Context, id string, in dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Plan != nil && entity.Plan(*in.Plan) != t.Plan {
		plan := entity.Plan(*in.Plan)
		if !plan.Valid() {
			return nil, domain.ErrInvalidPlan
		}
		if t, err = uc.plans.ChangePlan(ctx, id, plan); err != nil {
			return nil, err
		}
	}

	if in.CustomDomain == nil && in.Branding == nil {
		return ToTenantResponse(t), nil
	}

	var staleHosts []string
	if in.CustomDomain != nil {
		d := tenancy.NormalizeHost(*in.CustomDomain)
		if d != "" && !strings.Contains(d, ".") {
			return nil, fmt.Errorf("%w: dominio %q", domain.ErrInvalidInput, *in.CustomDomain)
		}
		if t.CustomDomain != nil {
			staleHosts = append(staleHosts, *t.CustomDomain)
		}
		if d == "" {
			t.CustomDomain = nil
		} else {
			t.CustomDomain = &d
			staleHosts = append(staleHosts, d)
		}
	}
	if in.Branding != nil {
		t.Branding = t.Branding.Merge(entity.Branding{
			PrimaryColor:   in.Branding.PrimaryColor,
			SecondaryColor: in.Branding.SecondaryColor,
			FontFamily:     in.Branding.FontFamily,
			CustomCSS:      in.Branding.CustomCSS,
			LogoURL:        in.Branding.LogoURL,
		})
	}
	if err := uc.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, t.ID, staleHosts...)
	return ToTenantResponse(t), nil
}

// Deactivate baja lógica: suspended + deactivated_at. No borra datos.
func (uc *TenantUseCase) Deactivate(ctx context.Context, id string) (*dto.TenantResponse, error) {
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	t.Status = entity.StatusSuspended
	t.SuspensionReason = entity.SuspensionDeactivated
	t.SuspendedAt = &now
	t.DeactivatedAt = &now
	if err := uc.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, t.ID)
	uc.log.Info().Str("tenant_id", t.ID).Msg("tenant desactivado")
	return ToTenantResponse(t), nil
}

// StorefrontLookup resuelve el tenant de un dominio para el storefront.
// Sin dominio: ErrInvalidInput; sin coincidencia: ErrNotFound; no activo: ErrTenantNotActive.
func (uc *TenantUseCase) StorefrontLookup(ctx context.Context, host string) (*dto.StorefrontTenantResponse, error) {
	host = tenancy.NormalizeHost(host)
	if host == "" {
		return nil, fmt.Errorf("%w: domain es obligatorio", domain.ErrInvalidInput)
	}
	t, err := tenancy.LookupByHost(ctx, uc.repo, host, uc.baseDomain)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if !t.IsActive() {
		return nil, domain.ErrTenantNotActive
	}
	return ToStorefrontResponse(t), nil
}

func (uc *TenantUseCase) load(ctx context.Context, id string) (*entity.Tenant, error) {
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (uc *TenantUseCase) invalidate(ctx context.Context, tenantID string, hosts ...string) {
	if uc.hosts != nil && len(hosts) > 0 {
		if err := uc.hosts.Invalidate(ctx, hosts...); err != nil {
			uc.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("no se pudo invalidar la cache de hosts")
		}
	}
}

// ToTenantResponse proyección administrativa.
func ToTenantResponse(t *entity.Tenant) *dto.TenantResponse {
	if t == nil {
		return nil
	}
	return &dto.TenantResponse{
		ID:               t.ID,
		Name:             t.Name,
		Subdomain:        t.Subdomain,
		CustomDomain:     t.CustomDomain,
		Plan:             string(t.Plan),
		Status:           t.Status,
		OwnerEmail:       t.OwnerEmail,
		Limits:           dto.LimitsDTO(t.Limits),
		Usage:            dto.UsageDTO(t.Usage),
		Branding:         toBrandingDTO(t.Branding),
		SuspensionReason: t.SuspensionReason,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		SuspendedAt:      t.SuspendedAt,
		DeactivatedAt:    t.DeactivatedAt,
		LastPaymentAt:    t.LastPaymentAt,
		LastUsageUpdate:  t.LastUsageUpdate,
	}
}

// ToStorefrontResponse proyección pública con el tema derivado del branding.
func ToStorefrontResponse(t *entity.Tenant) *dto.StorefrontTenantResponse {
	colors := map[string]string{}
	if t.Branding.PrimaryColor != "" {
		colors["primary"] = t.Branding.PrimaryColor
	}
	if t.Branding.SecondaryColor != "" {
		colors["secondary"] = t.Branding.SecondaryColor
	}
	return &dto.StorefrontTenantResponse{
		ID:           t.ID,
		Name:         t.Name,
		Subdomain:    t.Subdomain,
		CustomDomain: t.CustomDomain,
		Branding:     toBrandingDTO(t.Branding),
		Theme: dto.ThemeDTO{
			Colors:    colors,
			Font:      t.Branding.FontFamily,
			CustomCSS: t.Branding.CustomCSS,
			LogoURL:   t.Branding.LogoURL,
		},
		Limits: dto.LimitsDTO(t.Limits),
		Usage:  dto.UsageDTO(t.Usage),
		Plan:   string(t.Plan),
		Status: t.Status,
	}
}

func toBrandingDTO(b entity.Branding) dto.BrandingDTO {
	return dto.BrandingDTO{
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
		FontFamily:     b.FontFamily,
		CustomCSS:      b.CustomCSS,
		LogoURL:        b.LogoURL,
	}
}
