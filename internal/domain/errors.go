package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("no tienes permiso para acceder a este recurso")
	ErrTenantContextRequired = errors.New("se requiere contexto de tenant")
	ErrTenantNotActive       = errors.New("el tenant no está activo")
	ErrInvalidPlan           = errors.New("plan inválido")
	ErrSubdomainTaken        = errors.New("el subdominio no está disponible")
	ErrMissingSignature      = errors.New("falta la cabecera stripe-signature")
	ErrInvalidSignature      = errors.New("firma de webhook inválida")
)

// LimitExceededError rechazo por techo del plan. Lleva los datos necesarios
// para que el cliente muestre una sugerencia de upgrade.
type LimitExceededError struct {
	Resource     string
	CurrentUsage int64
	Limit        int64
	Plan         string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("límite de %s alcanzado (%d/%d) en el plan %s", e.Resource, e.CurrentUsage, e.Limit, e.Plan)
}

// Is permite errors.Is(err, ErrForbidden): un límite excedido es un forbidden.
func (e *LimitExceededError) Is(target error) bool {
	return target == ErrForbidden
}
