package entity

import "time"

// Estados de una ejecución de aprovisionamiento.
const (
	RunRunning            = "running"
	RunCompleted          = "completed"
	RunCompensated        = "compensated"
	RunCompensationFailed = "compensation_failed"
)

// Tipos de ejecución.
const (
	RunKindProvision  = "provision"
	RunKindPlanChange = "plan_change"
)

// Estados de un paso.
const (
	StepPending            = "pending"
	StepDone               = "done"
	StepFailed             = "failed"
	StepCompensated        = "compensated"
	StepCompensationFailed = "compensation_failed"
)

// ProvisioningStep estado persistido de un paso de la saga.
type ProvisioningStep struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	ResourceID string `json:"resource_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProvisioningRun ejecución durable de la saga de aprovisionamiento o cambio de plan.
type ProvisioningRun struct {
	ID        string
	Kind      string // provision, plan_change
	Subdomain string
	TenantID  string
	Status    string
	Steps     []ProvisioningStep
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Step devuelve el paso por nombre (nil si no existe).
func (r *ProvisioningRun) Step(name string) *ProvisioningStep {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// WebhookEvent evento del proveedor ya procesado (idempotencia).
type WebhookEvent struct {
	ID          string
	Type        string
	ProcessedAt time.Time
}
