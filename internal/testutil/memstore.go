// Package testutil implementaciones en memoria de los puertos de repositorio para tests.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
)

// Store guarda todas las entidades en mapas protegidos por un mutex.
// Fail permite inyectar errores por operación, p. ej. Fail["users.Create"].
type Store struct {
	mu       sync.Mutex
	Tenants  map[string]*entity.Tenant
	Channels map[string]*entity.SalesChannel
	Keys     map[string]*entity.PublishableAPIKey
	Users    map[string]*entity.User
	Runs     map[string]*entity.ProvisioningRun
	Events   map[string]*entity.WebhookEvent
	Fail     map[string]error
	Calls    []string
}

// NewStore store vacío.
func NewStore() *Store {
	return &Store{
		Tenants:  map[string]*entity.Tenant{},
		Channels: map[string]*entity.SalesChannel{},
		Keys:     map[string]*entity.PublishableAPIKey{},
		Users:    map[string]*entity.User{},
		Runs:     map[string]*entity.ProvisioningRun{},
		Events:   map[string]*entity.WebhookEvent{},
		Fail:     map[string]error{},
	}
}

func (s *Store) hit(op string) error {
	s.Calls = append(s.Calls, op)
	return s.Fail[op]
}

// Called informa si op se invocó al menos una vez.
func (s *Store) Called(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Calls {
		if c == op {
			return true
		}
	}
	return false
}

// PutTenant inserta un tenant directamente (fixture).
func (s *Store) PutTenant(t *entity.Tenant) *entity.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.Tenants[t.ID] = &cp
	return t
}

// Tenant copia del tenant guardado (nil si no existe).
func (s *Store) Tenant(id string) *entity.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Tenants[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// TenantRepo vista TenantRepository.
func (s *Store) TenantRepo() repository.TenantRepository { return tenantRepo{s} }

// ChannelRepo vista SalesChannelRepository.
func (s *Store) ChannelRepo() repository.SalesChannelRepository { return channelRepo{s} }

// KeyRepo vista APIKeyRepository.
func (s *Store) KeyRepo() repository.APIKeyRepository { return keyRepo{s} }

// UserRepo vista UserRepository.
func (s *Store) UserRepo() repository.UserRepository { return userRepo{s} }

// RunRepo vista ProvisioningRunRepository.
func (s *Store) RunRepo() repository.ProvisioningRunRepository { return runRepo{s} }

// EventRepo vista WebhookEventRepository.
func (s *Store) EventRepo() repository.WebhookEventRepository { return eventRepo{s} }

// RunWebhook equivalente en memoria del TxRunner de webhooks. Si fn falla,
// el evento no queda marcado y los cambios del tenant se descartan.
func (s *Store) RunWebhook(ctx context.Context, ev entity.WebhookEvent, fn func(tenants repository.TenantRepository) error) (bool, error) {
	s.mu.Lock()
	if _, ok := s.Events[ev.ID]; ok {
		s.mu.Unlock()
		return false, nil
	}
	snapshot := make(map[string]entity.Tenant, len(s.Tenants))
	for id, t := range s.Tenants {
		snapshot[id] = *t
	}
	s.mu.Unlock()

	if err := fn(s.TenantRepo()); err != nil {
		s.mu.Lock()
		for id, t := range snapshot {
			cp := t
			s.Tenants[id] = &cp
		}
		s.mu.Unlock()
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ProcessedAt = time.Now()
	s.Events[ev.ID] = &ev
	return true, nil
}

type tenantRepo struct{ s *Store }

func (r tenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.Create"); err != nil {
		return err
	}
	for _, ex := range r.s.Tenants {
		if ex.Subdomain == t.Subdomain {
			return domain.ErrDuplicate
		}
	}
	cp := *t
	r.s.Tenants[t.ID] = &cp
	return nil
}

func (r tenantRepo) find(match func(*entity.Tenant) bool) *entity.Tenant {
	for _, t := range r.s.Tenants {
		if match(t) {
			cp := *t
			return &cp
		}
	}
	return nil
}

func (r tenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.GetByID"); err != nil {
		return nil, err
	}
	return r.find(func(t *entity.Tenant) bool { return t.ID == id }), nil
}

func (r tenantRepo) GetBySubdomain(_ context.Context, sub string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.GetBySubdomain"); err != nil {
		return nil, err
	}
	return r.find(func(t *entity.Tenant) bool { return t.Subdomain == sub }), nil
}

func (r tenantRepo) GetByCustomDomain(_ context.Context, d string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.GetByCustomDomain"); err != nil {
		return nil, err
	}
	return r.find(func(t *entity.Tenant) bool { return t.CustomDomain != nil && *t.CustomDomain == d }), nil
}

func (r tenantRepo) GetByStripeCustomerID(_ context.Context, cid string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.GetByStripeCustomerID"); err != nil {
		return nil, err
	}
	return r.find(func(t *entity.Tenant) bool { return cid != "" && t.Billing.StripeCustomerID == cid }), nil
}

func (r tenantRepo) Update(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.Update"); err != nil {
		return err
	}
	cur, ok := r.s.Tenants[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Limits = entity.PlanLimits(t.Plan)
	t.Usage = cur.Usage
	t.LastUsageUpdate = cur.LastUsageUpdate
	t.UpdatedAt = time.Now()
	cp := *t
	r.s.Tenants[t.ID] = &cp
	return nil
}

func (r tenantRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.Delete"); err != nil {
		return err
	}
	delete(r.s.Tenants, id)
	return nil
}

func within(used, delta, limit int64) bool {
	return delta == 0 || limit == entity.Unlimited || used+delta <= limit
}

func (r tenantRepo) ReserveUsage(_ context.Context, id string, d entity.Usage) (bool, *entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.ReserveUsage"); err != nil {
		return false, nil, err
	}
	t, ok := r.s.Tenants[id]
	if !ok {
		return false, nil, domain.ErrNotFound
	}
	if !within(t.Usage.Products, d.Products, t.Limits.Products) ||
		!within(t.Usage.Orders, d.Orders, t.Limits.Orders) ||
		!within(t.Usage.StorageMB, d.StorageMB, t.Limits.StorageMB) {
		cp := *t
		return false, &cp, nil
	}
	t.Usage.Products += d.Products
	t.Usage.Orders += d.Orders
	t.Usage.StorageMB += d.StorageMB
	now := time.Now()
	t.LastUsageUpdate = &now
	cp := *t
	return true, &cp, nil
}

func sub0(a, b int64) int64 {
	if a-b < 0 {
		return 0
	}
	return a - b
}

func (r tenantRepo) ReleaseUsage(_ context.Context, id string, d entity.Usage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("tenants.ReleaseUsage"); err != nil {
		return err
	}
	t, ok := r.s.Tenants[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Usage.Products = sub0(t.Usage.Products, d.Products)
	t.Usage.Orders = sub0(t.Usage.Orders, d.Orders)
	t.Usage.StorageMB = sub0(t.Usage.StorageMB, d.StorageMB)
	return nil
}

func (r tenantRepo) ResetUsage(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.Tenants[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Usage = entity.Usage{}
	return nil
}

type channelRepo struct{ s *Store }

func (r channelRepo) Create(_ context.Context, sc *entity.SalesChannel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("channels.Create"); err != nil {
		return err
	}
	cp := *sc
	r.s.Channels[sc.ID] = &cp
	return nil
}

func (r channelRepo) GetByTenantID(_ context.Context, tenantID string) (*entity.SalesChannel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("channels.GetByTenantID"); err != nil {
		return nil, err
	}
	for _, sc := range r.s.Channels {
		if sc.TenantID == tenantID {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, nil
}

func (r channelRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("channels.Delete"); err != nil {
		return err
	}
	delete(r.s.Channels, id)
	return nil
}

type keyRepo struct{ s *Store }

func (r keyRepo) Create(_ context.Context, k *entity.PublishableAPIKey) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("keys.Create"); err != nil {
		return err
	}
	cp := *k
	r.s.Keys[k.ID] = &cp
	return nil
}

func (r keyRepo) GetByToken(_ context.Context, token string) (*entity.PublishableAPIKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("keys.GetByToken"); err != nil {
		return nil, err
	}
	for _, k := range r.s.Keys {
		if k.Token == token && k.RevokedAt == nil {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r keyRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("keys.Delete"); err != nil {
		return err
	}
	delete(r.s.Keys, id)
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.Create"); err != nil {
		return err
	}
	for _, ex := range r.s.Users {
		if ex.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	r.s.Users[u.ID] = &cp
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.GetByID"); err != nil {
		return nil, err
	}
	if u, ok := r.s.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("users.Delete"); err != nil {
		return err
	}
	delete(r.s.Users, id)
	return nil
}

type runRepo struct{ s *Store }

func copyRun(run *entity.ProvisioningRun) *entity.ProvisioningRun {
	cp := *run
	cp.Steps = append([]entity.ProvisioningStep(nil), run.Steps...)
	return &cp
}

func (r runRepo) Create(_ context.Context, run *entity.ProvisioningRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit("runs.Create"); err != nil {
		return err
	}
	r.s.Runs[run.ID] = copyRun(run)
	return nil
}

func (r runRepo) Save(_ context.Context, run *entity.ProvisioningRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Runs[run.ID]; !ok {
		return errors.New("run inexistente")
	}
	r.s.Runs[run.ID] = copyRun(run)
	return nil
}

func (r runRepo) GetByID(_ context.Context, id string) (*entity.ProvisioningRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if run, ok := r.s.Runs[id]; ok {
		return copyRun(run), nil
	}
	return nil, nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) MarkProcessed(_ context.Context, ev *entity.WebhookEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Events[ev.ID]; ok {
		return false, nil
	}
	cp := *ev
	r.s.Events[ev.ID] = &cp
	return true, nil
}
