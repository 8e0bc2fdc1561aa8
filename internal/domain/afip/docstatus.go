package afip

import (
	"fmt"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// Action operación ERPNext que mueve el docstatus.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionCancel Action = "cancel"
)

// PlanTransition devuelve las acciones, en orden, que llevan de current a target.
// 0→2 requiere confirmar antes de anular porque ERPNext sólo anula documentos confirmados.
func PlanTransition(current, target entity.Docstatus) ([]Action, error) {
	if !target.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("docstatus destino %d inválido (0, 1 o 2)", int(target)))
	}
	if current == target {
		return nil, nil
	}
	switch {
	case current == entity.DocstatusDraft && target == entity.DocstatusActive:
		return []Action{ActionSubmit}, nil
	case current == entity.DocstatusActive && target == entity.DocstatusCancelled:
		return []Action{ActionCancel}, nil
	case current == entity.DocstatusDraft && target == entity.DocstatusCancelled:
		return []Action{ActionSubmit, ActionCancel}, nil
	}
	return nil, fmt.Errorf("%w: de %s a %s", domain.ErrIllegalTransition, current, target)
}
