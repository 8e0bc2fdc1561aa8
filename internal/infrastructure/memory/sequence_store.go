// Package memory contadores de numeración en memoria del proceso.
// Sirven para desarrollo y tests con una sola réplica; en producción usar postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

var (
	_ numeracion.SequenceTxRunner          = (*SequenceStore)(nil)
	_ repository.SequenceCounterRepository = (*SequenceStore)(nil)
)

type issuedKey struct {
	key    entity.SequenceKey
	numero int64
}

// SequenceStore contadores y números emitidos protegidos por un mutex.
// Una "transacción" toma el mutex completo y aplica sus cambios sólo si fn no falla.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[entity.SequenceKey]int64
	byName   map[string]entity.IssuedNumber
	byNumber map[issuedKey]string
}

// NewSequenceStore crea el almacén vacío.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		counters: make(map[entity.SequenceKey]int64),
		byName:   make(map[string]entity.IssuedNumber),
		byNumber: make(map[issuedKey]string),
	}
}

// RunSequence ejecuta fn con acceso exclusivo.
func (s *SequenceStore) RunSequence(ctx context.Context, fn func(counters repository.SequenceCounterRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &seqTx{s: s, counters: make(map[entity.SequenceKey]int64)}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *SequenceStore) Current(ctx context.Context, key entity.SequenceKey) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

func (s *SequenceStore) Lock(ctx context.Context, key entity.SequenceKey) (int64, error) {
	return s.Current(ctx, key)
}

func (s *SequenceStore) Set(ctx context.Context, key entity.SequenceKey, value int64) error {
	return s.RunSequence(ctx, func(c repository.SequenceCounterRepository) error {
		return c.Set(ctx, key, value)
	})
}

func (s *SequenceStore) InsertIssued(ctx context.Context, n *entity.IssuedNumber) error {
	return s.RunSequence(ctx, func(c repository.SequenceCounterRepository) error {
		return c.InsertIssued(ctx, n)
	})
}

// Issued números emitidos ordenados por nombre de comprobante.
func (s *SequenceStore) Issued() []entity.IssuedNumber {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.IssuedNumber, 0, len(s.byName))
	for _, n := range s.byName {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Comprobante < out[j].Comprobante })
	return out
}

// seqTx vista transaccional; el mutex del store ya está tomado.
type seqTx struct {
	s        *SequenceStore
	counters map[entity.SequenceKey]int64
	issued   []entity.IssuedNumber
}

func (t *seqTx) Current(_ context.Context, key entity.SequenceKey) (int64, error) {
	if v, ok := t.counters[key]; ok {
		return v, nil
	}
	return t.s.counters[key], nil
}

func (t *seqTx) Lock(ctx context.Context, key entity.SequenceKey) (int64, error) {
	return t.Current(ctx, key)
}

func (t *seqTx) Set(_ context.Context, key entity.SequenceKey, value int64) error {
	t.counters[key] = value
	return nil
}

func (t *seqTx) InsertIssued(_ context.Context, n *entity.IssuedNumber) error {
	key := entity.SequenceKey{Talonario: n.Talonario, Tipo: n.Tipo, Letra: n.Letra}
	ik := issuedKey{key: key, numero: n.Numero}
	if _, dup := t.s.byName[n.Comprobante]; dup {
		return fmt.Errorf("%w: el comprobante %s ya tiene número", domain.ErrConflict, n.Comprobante)
	}
	if _, dup := t.s.byNumber[ik]; dup {
		return fmt.Errorf("%w: el número %d ya fue emitido en %s/%s/%s", domain.ErrConflict, n.Numero, n.Talonario, n.Tipo, n.Letra)
	}
	for _, staged := range t.issued {
		if staged.Comprobante == n.Comprobante || (staged.Numero == n.Numero &&
			staged.Talonario == n.Talonario && staged.Tipo == n.Tipo && staged.Letra == n.Letra) {
			return fmt.Errorf("%w: número duplicado en la misma transacción", domain.ErrConflict)
		}
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	t.issued = append(t.issued, *n)
	return nil
}

func (t *seqTx) commit() {
	for k, v := range t.counters {
		t.s.counters[k] = v
	}
	for _, n := range t.issued {
		key := entity.SequenceKey{Talonario: n.Talonario, Tipo: n.Tipo, Letra: n.Letra}
		t.s.byName[n.Comprobante] = n
		t.s.byNumber[issuedKey{key: key, numero: n.Numero}] = n.Comprobante
	}
}
