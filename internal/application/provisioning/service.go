package provisioning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/tenancy-gateway/internal/application/dto"
	"github.com/jhoicas/tenancy-gateway/internal/application/ports"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	"github.com/jhoicas/tenancy-gateway/internal/monitoring"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// Nombres de paso persistidos en provisioning_runs.
const (
	stepTenant             = "create_tenant"
	stepSalesChannel       = "create_sales_channel"
	stepPublishableKey     = "create_publishable_key"
	stepOwnerUser          = "create_owner_user"
	stepStripeCustomer     = "create_stripe_customer"
	stepUpdatePlan         = "update_plan"
	stepUpdateSubscription = "update_subscription"
)

// Config parámetros del alta.
type Config struct {
	BaseDomain string // example.com -> https://<sub>.example.com
}

// Service saga de aprovisionamiento y de cambio de plan.
type Service struct {
	tenants  repository.TenantRepository
	channels repository.SalesChannelRepository
	keys     repository.APIKeyRepository
	users    repository.UserRepository
	payments ports.PaymentProvider // opcional
	notifier ports.Notifier
	log      *logger.Logger
	cfg      Config
	saga     *saga
}

// NewService construye el servicio. payments puede ser nil (sin procesador configurado).
func NewService(
	tenants repository.TenantRepository,
	channels repository.SalesChannelRepository,
	keys repository.APIKeyRepository,
	users repository.UserRepository,
	runs repository.ProvisioningRunRepository,
	payments ports.PaymentProvider,
	notifier ports.Notifier,
	log *logger.Logger,
	cfg Config,
) *Service {
	return &Service{
		tenants:  tenants,
		channels: channels,
		keys:     keys,
		users:    users,
		payments: payments,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		saga:     &saga{runs: runs, log: log, now: time.Now},
	}
}

// Provision crea tienda, canal de venta, publishable key, usuario dueño y cliente de facturación.
// Las validaciones corren antes de cualquier efecto; si un paso falla se compensan los anteriores.
func (s *Service) Provision(ctx context.Context, in dto.ProvisionRequest) (*dto.ProvisionResponse, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Subdomain = strings.TrimSpace(strings.ToLower(in.Subdomain))
	in.StoreName = strings.TrimSpace(in.StoreName)
	if in.Email == "" || in.Password == "" || in.StoreName == "" || in.Subdomain == "" || in.Plan == "" {
		return nil, fmt.Errorf("%w: email, password, storeName, subdomain y plan son obligatorios", domain.ErrInvalidInput)
	}
	plan := entity.Plan(in.Plan)
	if !plan.Valid() {
		return nil, domain.ErrInvalidPlan
	}
	if !entity.IsValidSubdomain(in.Subdomain) {
		return nil, fmt.Errorf("%w: formato de subdominio", domain.ErrInvalidInput)
	}
	if entity.IsReservedSubdomain(in.Subdomain) {
		return nil, domain.ErrSubdomainTaken
	}
	existing, err := s.tenants.GetBySubdomain(ctx, in.Subdomain)
	if err != nil {
		return nil, fmt.Errorf("verificar subdominio: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrSubdomainTaken
	}

	started := time.Now()
	now := started
	tenant := &entity.Tenant{
		ID:         uuid.New().String(),
		Name:       in.StoreName,
		Subdomain:  in.Subdomain,
		Plan:       plan,
		Status:     entity.StatusTrial,
		OwnerEmail: in.Email,
		Limits:     entity.PlanLimits(plan),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var channelID, token string

	steps := []Step{
		{
			Name: stepTenant,
			Do: func(ctx context.Context) (string, error) {
				if err := s.tenants.Create(ctx, tenant); err != nil {
					if errors.Is(err, domain.ErrDuplicate) {
						return "", domain.ErrSubdomainTaken
					}
					return "", err
				}
				return tenant.ID, nil
			},
			Undo: s.tenants.Delete,
		},
		{
			Name: stepSalesChannel,
			Do: func(ctx context.Context) (string, error) {
				sc := &entity.SalesChannel{ID: uuid.New().String(), TenantID: tenant.ID, Name: tenant.Name, CreatedAt: now}
				if err := s.channels.Create(ctx, sc); err != nil {
					return "", err
				}
				channelID = sc.ID
				return sc.ID, nil
			},
			Undo: s.channels.Delete,
		},
		{
			Name: stepPublishableKey,
			Do: func(ctx context.Context) (string, error) {
				tok, err := newPublishableToken()
				if err != nil {
					return "", err
				}
				k := &entity.PublishableAPIKey{ID: uuid.New().String(), Token: tok, TenantID: tenant.ID, SalesChannelID: channelID, CreatedAt: now}
				if err := s.keys.Create(ctx, k); err != nil {
					return "", err
				}
				token = tok
				return k.ID, nil
			},
			Undo: s.keys.Delete,
		},
		{
			Name: stepOwnerUser,
			Do: func(ctx context.Context) (string, error) {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
				if err != nil {
					return "", err
				}
				u := &entity.User{
					ID:            uuid.New().String(),
					TenantStoreID: tenant.ID,
					Email:         in.Email,
					PasswordHash:  string(hash),
					Name:          in.Email,
					Role:          entity.RoleOwner,
					Permissions:   []string{entity.PermissionAll},
					Status:        "active",
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				if err := s.users.Create(ctx, u); err != nil {
					return "", err
				}
				return u.ID, nil
			},
			Undo: s.users.Delete,
		},
	}
	if s.payments != nil {
		steps = append(steps, Step{
			Name: stepStripeCustomer,
			Do: func(ctx context.Context) (string, error) {
				cid, err := s.payments.CreateCustomer(ctx, in.Email, tenant.Name, tenant.ID)
				if err != nil {
					return "", err
				}
				tenant.Billing.StripeCustomerID = cid
				if err := s.tenants.Update(ctx, tenant); err != nil {
					// el paso no quedó hecho: se borra aquí el cliente recién creado
					if derr := s.payments.DeleteCustomer(ctx, cid); derr != nil {
						s.log.Error().Err(derr).Str("customer_id", cid).Msg("cliente de facturación huérfano")
					}
					return "", err
				}
				return cid, nil
			},
			Undo: s.payments.DeleteCustomer,
		})
	}

	run := &entity.ProvisioningRun{ID: uuid.New().String(), Kind: entity.RunKindProvision, Subdomain: in.Subdomain}
	err = s.saga.execute(ctx, run, steps)
	monitoring.ProvisioningDuration.Observe(time.Since(started).Seconds())
	monitoring.TenantsProvisioned.WithLabelValues(run.Status).Inc()
	if err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Str("subdomain", in.Subdomain).Str("status", run.Status).Msg("aprovisionamiento fallido")
		return nil, err
	}

	adminURL := fmt.Sprintf("https://%s.%s/admin", tenant.Subdomain, s.cfg.BaseDomain)
	storefrontURL := fmt.Sprintf("https://%s.%s", tenant.Subdomain, s.cfg.BaseDomain)
	s.notify(ctx, ports.Notification{
		Kind:      ports.NotifyWelcome,
		To:        tenant.OwnerEmail,
		StoreName: tenant.Name,
		Data:      map[string]string{"admin_url": adminURL, "storefront_url": storefrontURL, "plan": string(plan)},
	}, tenant.ID)

	s.log.Info().Str("run_id", run.ID).Str("tenant_id", tenant.ID).Str("subdomain", tenant.Subdomain).Msg("tienda aprovisionada")
	return &dto.ProvisionResponse{
		ID:             tenant.ID,
		Name:           tenant.Name,
		Subdomain:      tenant.Subdomain,
		Plan:           string(tenant.Plan),
		AdminURL:       adminURL,
		StorefrontURL:  storefrontURL,
		PublishableKey: token,
		Status:         entity.StatusActive,
		RunID:          run.ID,
	}, nil
}

// ChangePlan actualiza plan y límites y luego la suscripción. Si la suscripción
// falla, el plan vuelve al anterior. El uso acumulado no se toca.
func (s *Service) ChangePlan(ctx context.Context, tenantID string, newPlan entity.Plan) (*entity.Tenant, error) {
	if !newPlan.Valid() {
		return nil, domain.ErrInvalidPlan
	}
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.Plan == newPlan {
		return t, nil
	}

	run := &entity.ProvisioningRun{ID: uuid.New().String(), Kind: entity.RunKindPlanChange, Subdomain: t.Subdomain, TenantID: t.ID}
	previous := t.Plan
	steps := []Step{
		{
			Name: stepUpdatePlan,
			Do: func(ctx context.Context) (string, error) {
				t.Plan = newPlan
				if err := s.tenants.Update(ctx, t); err != nil {
					return "", err
				}
				return string(previous), nil
			},
			Undo: s.revertPlan(t.ID),
		},
	}
	if s.payments != nil && t.Billing.StripeSubscriptionID != "" {
		subID := t.Billing.StripeSubscriptionID
		steps = append(steps, Step{
			Name: stepUpdateSubscription,
			Do: func(ctx context.Context) (string, error) {
				return subID, s.payments.UpdateSubscriptionPlan(ctx, subID, string(newPlan))
			},
		})
	}

	if err := s.saga.execute(ctx, run, steps); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Str("tenant_id", tenantID).Msg("cambio de plan fallido")
		return nil, err
	}

	updated, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil || updated == nil {
		updated = t
	}
	s.notify(ctx, ports.Notification{
		Kind:      ports.NotifyPlanChanged,
		To:        updated.OwnerEmail,
		StoreName: updated.Name,
		Data:      map[string]string{"plan": string(newPlan), "previous_plan": string(previous)},
	}, tenantID)
	s.log.Info().Str("tenant_id", tenantID).Str("from", string(previous)).Str("to", string(newPlan)).Msg("plan actualizado")
	return updated, nil
}

// RetryCompensation reintenta las compensaciones pendientes de una ejecución
// que quedó en compensation_failed, a partir del estado persistido.
func (s *Service) RetryCompensation(ctx context.Context, runID string) (*entity.ProvisioningRun, error) {
	run, err := s.saga.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	if run.Status != entity.RunCompensationFailed {
		return nil, fmt.Errorf("%w: la ejecución está en estado %s", domain.ErrInvalidInput, run.Status)
	}
	s.saga.compensate(ctx, run, s.undos(run))
	s.log.Info().Str("run_id", run.ID).Str("status", run.Status).Msg("reintento de compensación")
	return run, nil
}

// GetRun estado persistido de una ejecución.
func (s *Service) GetRun(ctx context.Context, runID string) (*entity.ProvisioningRun, error) {
	run, err := s.saga.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

func (s *Service) undos(run *entity.ProvisioningRun) map[string]UndoFunc {
	if run.Kind == entity.RunKindPlanChange {
		return map[string]UndoFunc{stepUpdatePlan: s.revertPlan(run.TenantID)}
	}
	u := map[string]UndoFunc{
		stepTenant:         s.tenants.Delete,
		stepSalesChannel:   s.channels.Delete,
		stepPublishableKey: s.keys.Delete,
		stepOwnerUser:      s.users.Delete,
	}
	if s.payments != nil {
		u[stepStripeCustomer] = s.payments.DeleteCustomer
	}
	return u
}

// revertPlan devuelve el tenant al plan guardado como ResourceID del paso.
func (s *Service) revertPlan(tenantID string) UndoFunc {
	return func(ctx context.Context, previous string) error {
		t, err := s.tenants.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		t.Plan = entity.Plan(previous)
		return s.tenants.Update(ctx, t)
	}
}

func (s *Service) notify(ctx context.Context, n ports.Notification, tenantID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("tenant_id", tenantID).Str("kind", n.Kind).Msg("no se pudo enviar la notificación")
	}
}

// newPublishableToken pk_ + 32 caracteres hex aleatorios.
func newPublishableToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generar publishable key: %w", err)
	}
	return "pk_" + hex.EncodeToString(b), nil
}
