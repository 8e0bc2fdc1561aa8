package numeracion

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/domain"
	domafip "github.com/jhoicas/talonarios-api/internal/domain/afip"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

// Transitioner aplica las transiciones de docstatus de un talonario en ERPNext.
// No toca los comprobantes ya emitidos: cada uno conserva su propio docstatus.
type Transitioner struct {
	talonarios repository.TalonarioRepository
	workflow   repository.DocumentWorkflow
	log        zerolog.Logger
}

// NewTransitioner construye el transicionador.
func NewTransitioner(talonarios repository.TalonarioRepository, workflow repository.DocumentWorkflow, log zerolog.Logger) *Transitioner {
	return &Transitioner{talonarios: talonarios, workflow: workflow, log: log}
}

// Transition lleva el talonario al docstatus target y devuelve el registro actualizado.
// Mismo estado: no hace nada y devuelve el registro tal cual.
func (tr *Transitioner) Transition(ctx context.Context, name string, target entity.Docstatus) (*entity.Talonario, error) {
	t, err := tr.talonarios.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTalonarioNotFound, name)
		}
		return nil, err
	}
	return tr.TransitionFrom(ctx, t, target)
}

// TransitionFrom igual que Transition partiendo de un registro ya cargado.
func (tr *Transitioner) TransitionFrom(ctx context.Context, t *entity.Talonario, target entity.Docstatus) (*entity.Talonario, error) {
	actions, err := domafip.PlanTransition(t.Docstatus, target)
	if err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return t, nil
	}

	for _, action := range actions {
		switch action {
		case domafip.ActionSubmit:
			err = tr.workflow.Submit(ctx, entity.DoctypeTalonario, t.Name)
		case domafip.ActionCancel:
			err = tr.workflow.Cancel(ctx, entity.DoctypeTalonario, t.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("talonario %s: %s: %w", t.Name, action, err)
		}
		tr.log.Info().Str("talonario", t.Name).Str("accion", string(action)).Msg("docstatus actualizado")
	}

	updated, err := tr.talonarios.Get(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("releer talonario %s: %w", t.Name, err)
	}
	return updated, nil
}
