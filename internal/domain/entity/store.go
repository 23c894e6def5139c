package entity

import "time"

// SalesChannel canal de venta 1:1 con el tenant. TenantID es FK con índice único.
type SalesChannel struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// PublishableAPIKey credencial pública del storefront de un tenant.
type PublishableAPIKey struct {
	ID             string
	Token          string // pk_...
	TenantID       string
	SalesChannelID string
	CreatedAt      time.Time
	RevokedAt      *time.Time
}

// Roles de usuario.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// PermissionAll permiso total sobre la tienda.
const PermissionAll = "*"

// User usuario administrador; TenantStoreID vacío sólo para super-admins.
type User struct {
	ID            string
	TenantStoreID string
	Email         string
	PasswordHash  string // bcrypt
	Name          string
	Role          string
	Permissions   []string
	SuperAdmin    bool
	Status        string // active, inactive
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tipos de recurso con alcance de tenant.
const (
	ResourceProduct    = "product"
	ResourceOrder      = "order"
	ResourceCustomer   = "customer"
	ResourceCollection = "collection"
)

// IsTenantResource informa si kind es un tipo de recurso con alcance de tenant.
func IsTenantResource(kind string) bool {
	switch kind {
	case ResourceProduct, ResourceOrder, ResourceCustomer, ResourceCollection:
		return true
	}
	return false
}
