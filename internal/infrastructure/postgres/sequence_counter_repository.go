package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

var _ repository.SequenceCounterRepository = (*SequenceCounterRepo)(nil)

// SequenceCounterRepo contadores de numeración (usable con pool o tx).
// Lock sólo tiene efecto dentro de una transacción.
type SequenceCounterRepo struct {
	q Querier
}

// NewSequenceCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceCounterRepository(q Querier) *SequenceCounterRepo {
	return &SequenceCounterRepo{q: q}
}

func (r *SequenceCounterRepo) Current(ctx context.Context, key entity.SequenceKey) (int64, error) {
	query := `
		SELECT ultimo_numero FROM talonario_sequence_counters
		WHERE talonario = $1 AND tipo_documento = $2 AND letra = $3`
	var n int64
	err := r.q.QueryRow(ctx, query, key.Talonario, key.Tipo, key.Letra).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("leer contador: %w", err)
	}
	return n, nil
}

// Lock crea la fila si falta y la bloquea con SELECT ... FOR UPDATE.
func (r *SequenceCounterRepo) Lock(ctx context.Context, key entity.SequenceKey) (int64, error) {
	insert := `
		INSERT INTO talonario_sequence_counters (talonario, tipo_documento, letra, ultimo_numero)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (talonario, tipo_documento, letra) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.Talonario, key.Tipo, key.Letra); err != nil {
		return 0, fmt.Errorf("crear contador: %w", err)
	}
	query := `
		SELECT ultimo_numero FROM talonario_sequence_counters
		WHERE talonario = $1 AND tipo_documento = $2 AND letra = $3
		FOR UPDATE`
	var n int64
	if err := r.q.QueryRow(ctx, query, key.Talonario, key.Tipo, key.Letra).Scan(&n); err != nil {
		return 0, fmt.Errorf("bloquear contador: %w", err)
	}
	return n, nil
}

func (r *SequenceCounterRepo) Set(ctx context.Context, key entity.SequenceKey, value int64) error {
	query := `
		INSERT INTO talonario_sequence_counters (talonario, tipo_documento, letra, ultimo_numero, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (talonario, tipo_documento, letra)
		DO UPDATE SET ultimo_numero = EXCLUDED.ultimo_numero, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, key.Talonario, key.Tipo, key.Letra, value); err != nil {
		return fmt.Errorf("actualizar contador: %w", err)
	}
	return nil
}

func (r *SequenceCounterRepo) InsertIssued(ctx context.Context, n *entity.IssuedNumber) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO talonario_numeros_emitidos (id, talonario, tipo_documento, letra, numero, comprobante)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, n.ID, n.Talonario, n.Tipo, n.Letra, n.Numero, n.Comprobante)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: %s (%d) ya fue emitido [%s]", domain.ErrConflict, n.Comprobante, n.Numero, constraint)
		}
		return fmt.Errorf("registrar número emitido: %w", err)
	}
	return nil
}
