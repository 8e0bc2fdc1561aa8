package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrFormat              = errors.New("formato de comprobante inválido")
	ErrIllegalTransition   = errors.New("transición de estado no permitida")
	ErrTalonarioNotFound   = errors.New("talonario no encontrado")
	ErrLookupFailed        = errors.New("no se pudo consultar la numeración existente")
	ErrRangeExhausted      = errors.New("el talonario no tiene más números disponibles")
	ErrUpstreamUnavailable = errors.New("error de conexión con el ERP")
	ErrUpstreamRejected    = errors.New("el ERP rechazó la operación")
)

// ValidationError error de validación con detalle legible por campo.
// errors.Is(err, ErrInvalidInput) sigue funcionando a través de Unwrap.
type ValidationError struct {
	Err     error
	Details []string
}

// NewValidationError crea un ValidationError sobre ErrInvalidInput.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Err: ErrInvalidInput, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }
