package repository

import (
	"context"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// SequenceCounterRepository contadores de numeración por (talonario, tipo, letra).
// Las operaciones que escriben sólo tienen sentido dentro de una transacción (ver SequenceTxRunner).
type SequenceCounterRepository interface {
	// Current último número asignado; 0 si el contador no existe.
	Current(ctx context.Context, key entity.SequenceKey) (int64, error)
	// Lock crea el contador en 0 si no existe y lo bloquea hasta el fin de la transacción.
	Lock(ctx context.Context, key entity.SequenceKey) (int64, error)
	// Set fija el contador. No valida monotonía: lo hace el asignador.
	Set(ctx context.Context, key entity.SequenceKey, value int64) error
	// InsertIssued registra un número emitido. domain.ErrConflict si el número o el nombre ya existen.
	InsertIssued(ctx context.Context, n *entity.IssuedNumber) error
}
