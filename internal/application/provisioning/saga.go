// Package provisioning orquesta el alta de tiendas y el cambio de plan como sagas durables.
package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/internal/domain/repository"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// UndoFunc compensa un paso a partir del recurso que creó.
type UndoFunc func(ctx context.Context, resourceID string) error

// Step paso de la saga. Do devuelve el id del recurso creado; Undo puede ser nil.
type Step struct {
	Name string
	Do   func(ctx context.Context) (string, error)
	Undo UndoFunc
}

// StepError fallo de un paso; la compensación ya corrió cuando se devuelve.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("paso %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

type saga struct {
	runs repository.ProvisioningRunRepository
	log  *logger.Logger
	now  func() time.Time
}

// execute corre los pasos en orden persistiendo cada transición. Si el paso N falla,
// compensa N-1…1 en orden inverso y devuelve *StepError.
func (s *saga) execute(ctx context.Context, run *entity.ProvisioningRun, steps []Step) error {
	run.Status = entity.RunRunning
	run.Steps = make([]entity.ProvisioningStep, len(steps))
	undos := make(map[string]UndoFunc, len(steps))
	for i, st := range steps {
		run.Steps[i] = entity.ProvisioningStep{Name: st.Name, Status: entity.StepPending}
		if st.Undo != nil {
			undos[st.Name] = st.Undo
		}
	}
	run.CreatedAt = s.now()
	run.UpdatedAt = run.CreatedAt
	if err := s.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("registrar ejecución: %w", err)
	}

	log := s.log.With().Str("run_id", run.ID).Str("kind", run.Kind).Logger()
	for i, st := range steps {
		resourceID, err := st.Do(ctx)
		if err != nil {
			run.Steps[i].Status = entity.StepFailed
			run.Steps[i].Error = err.Error()
			log.Warn().Err(err).Str("step", st.Name).Msg("paso fallido, iniciando compensación")
			s.save(ctx, run)
			s.compensate(ctx, run, undos)
			return &StepError{Step: st.Name, Err: err}
		}
		run.Steps[i].Status = entity.StepDone
		run.Steps[i].ResourceID = resourceID
		if st.Name == stepTenant {
			run.TenantID = resourceID
		}
		s.save(ctx, run)
	}

	run.Status = entity.RunCompleted
	s.save(ctx, run)
	return nil
}

// compensate deshace los pasos hechos (o cuya compensación falló antes) en orden inverso.
// Un fallo no detiene al resto; la ejecución queda compensation_failed.
func (s *saga) compensate(ctx context.Context, run *entity.ProvisioningRun, undos map[string]UndoFunc) {
	failed := false
	for i := len(run.Steps) - 1; i >= 0; i-- {
		st := &run.Steps[i]
		if st.Status != entity.StepDone && st.Status != entity.StepCompensationFailed {
			continue
		}
		undo, ok := undos[st.Name]
		if !ok {
			// sin undo disponible, un paso ya fallido sigue pendiente
			if st.Status == entity.StepCompensationFailed {
				failed = true
			}
			continue
		}
		if err := undo(ctx, st.ResourceID); err != nil {
			failed = true
			st.Status = entity.StepCompensationFailed
			st.Error = err.Error()
			s.log.Error().Err(err).Str("run_id", run.ID).Str("step", st.Name).Str("resource_id", st.ResourceID).Msg("compensación fallida")
		} else {
			st.Status = entity.StepCompensated
			st.Error = ""
		}
		s.save(ctx, run)
	}
	if failed {
		run.Status = entity.RunCompensationFailed
	} else {
		run.Status = entity.RunCompensated
	}
	s.save(ctx, run)
}

// save persiste el estado; un fallo se registra pero no interrumpe la saga.
func (s *saga) save(ctx context.Context, run *entity.ProvisioningRun) {
	run.UpdatedAt = s.now()
	if err := s.runs.Save(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("no se pudo persistir el estado de la ejecución")
	}
}
