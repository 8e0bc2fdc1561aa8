package numeracion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/domain"
	domafip "github.com/jhoicas/talonarios-api/internal/domain/afip"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
	"github.com/jhoicas/talonarios-api/pkg/afip"
)

// SeriesQuery identifica una serie de numeración dentro de un talonario.
type SeriesQuery struct {
	Tipo    string // FAC, NCC, NDB, NDC, REC, REM
	Letra   string
	Dominio string // venta (por defecto) | compra
	Exclude string // comprobante a ignorar (recalcular al editar)
}

func (q SeriesQuery) normalized() SeriesQuery {
	q.Tipo = strings.ToUpper(strings.TrimSpace(q.Tipo))
	q.Letra = strings.ToUpper(strings.TrimSpace(q.Letra))
	q.Dominio = strings.ToLower(strings.TrimSpace(q.Dominio))
	if q.Dominio == "" {
		q.Dominio = afip.DominioVenta
	}
	q.Exclude = strings.TrimSpace(q.Exclude)
	return q
}

// Allocator calcula y asigna números de comprobante por (talonario, tipo, letra).
//
// NextNumber es una vista previa: no reserva nada y dos llamadas seguidas devuelven lo mismo.
// Allocate es la única operación que consume números, dentro de una transacción sobre el contador.
type Allocator struct {
	talonarios repository.TalonarioRepository
	vouchers   repository.VoucherRepository
	counters   repository.SequenceCounterRepository
	tx         SequenceTxRunner
	codes      *afip.Codes
	log        zerolog.Logger
}

// NewAllocator construye el asignador. counters se usa sólo para lecturas fuera de transacción.
func NewAllocator(
	talonarios repository.TalonarioRepository,
	vouchers repository.VoucherRepository,
	counters repository.SequenceCounterRepository,
	tx SequenceTxRunner,
	codes *afip.Codes,
	log zerolog.Logger,
) *Allocator {
	return &Allocator{
		talonarios: talonarios,
		vouchers:   vouchers,
		counters:   counters,
		tx:         tx,
		codes:      codes,
		log:        log,
	}
}

// NextNumber devuelve el próximo número que recibiría un comprobante confirmado en la serie.
// Es el máximo entre los comprobantes confirmados, el contador del talonario y el contador
// transaccional, más uno; sin emisiones previas, max(1, numero_de_inicio).
// Con Exclude se ignora ese comprobante, también en los contadores que lo registraron.
// No verifica numero_de_fin: lo hace quien llama.
func (a *Allocator) NextNumber(ctx context.Context, talonario string, q SeriesQuery) (int64, error) {
	t, err := a.load(ctx, talonario)
	if err != nil {
		return 0, err
	}
	return a.NextNumberFor(ctx, t, q)
}

// NextNumberFor igual que NextNumber con el talonario ya cargado.
func (a *Allocator) NextNumberFor(ctx context.Context, t *entity.Talonario, q SeriesQuery) (int64, error) {
	q = q.normalized()
	if err := a.checkSeries(t, q); err != nil {
		return 0, err
	}
	observed, err := a.observedMax(ctx, t, q)
	if err != nil {
		return 0, err
	}
	current, err := a.counters.Current(ctx, seriesKey(t, q))
	if err != nil {
		return 0, fmt.Errorf("%w: contador %s/%s/%s: %w", domain.ErrLookupFailed, t.Name, q.Tipo, q.Letra, err)
	}
	last := t.LastNumber(q.Tipo, q.Letra)
	if n, ok := a.excludedNumber(t, q); ok {
		if last == n {
			last = 0
		}
		if current == n {
			current = 0
		}
	}
	return nextAfter(t, observed, last, current), nil
}

// excludedNumber número del comprobante excluido si pertenece a la serie consultada.
func (a *Allocator) excludedNumber(t *entity.Talonario, q SeriesQuery) (int64, bool) {
	if q.Exclude == "" || domafip.IsDraftName(q.Exclude) {
		return 0, false
	}
	v, err := domafip.Parse(q.Exclude)
	if err != nil || v.Tipo != q.Tipo || v.Letra != q.Letra {
		return 0, false
	}
	if pv, err := domafip.PadPuntoVenta(t.PuntoVenta); err != nil || v.PuntoVenta != pv {
		return 0, false
	}
	prefix, err := a.prefixFor(t, q)
	if err != nil || v.Prefix != prefix {
		return 0, false
	}
	return v.Numero, true
}

// Allocate asigna de forma definitiva el próximo número de la serie al comprobante dado.
// Bajo bloqueo del contador: next = max(contador, confirmados, último del talonario, inicio-1) + 1.
// Supera numero_de_fin → ErrRangeExhausted; número o nombre ya emitido → ErrConflict.
func (a *Allocator) Allocate(ctx context.Context, t *entity.Talonario, q SeriesQuery, comprobante string) (*entity.IssuedNumber, error) {
	q = q.normalized()
	q.Exclude = comprobante
	if err := a.checkSeries(t, q); err != nil {
		return nil, err
	}
	prefix, err := a.prefixFor(t, q)
	if err != nil {
		return nil, err
	}
	observed, err := a.observedMax(ctx, t, q)
	if err != nil {
		return nil, err
	}

	key := seriesKey(t, q)
	var issued *entity.IssuedNumber
	err = a.tx.RunSequence(ctx, func(counters repository.SequenceCounterRepository) error {
		current, err := counters.Lock(ctx, key)
		if err != nil {
			return fmt.Errorf("bloquear contador: %w", err)
		}
		next := nextAfter(t, observed, t.LastNumber(q.Tipo, q.Letra), current)
		if t.NumeroFin > 0 && next > t.NumeroFin {
			return fmt.Errorf("%w: %s/%s/%s llegó a %d", domain.ErrRangeExhausted, t.Name, q.Tipo, q.Letra, t.NumeroFin)
		}
		name, err := domafip.Build(prefix, q.Tipo, q.Letra, t.PuntoVenta, next)
		if err != nil {
			return err
		}
		n := &entity.IssuedNumber{
			Talonario:   t.Name,
			Tipo:        q.Tipo,
			Letra:       q.Letra,
			Numero:      next,
			Comprobante: name,
		}
		if err := counters.InsertIssued(ctx, n); err != nil {
			return err
		}
		if err := counters.Set(ctx, key, next); err != nil {
			return fmt.Errorf("actualizar contador: %w", err)
		}
		issued = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Str("talonario", t.Name).
		Str("tipo", q.Tipo).
		Str("letra", q.Letra).
		Int64("numero", issued.Numero).
		Str("comprobante", issued.Comprobante).
		Msg("número asignado")
	return issued, nil
}

// PreviewName nombre que tendría el comprobante con el número dado.
func (a *Allocator) PreviewName(t *entity.Talonario, q SeriesQuery, numero int64) (string, error) {
	q = q.normalized()
	prefix, err := a.prefixFor(t, q)
	if err != nil {
		return "", err
	}
	return domafip.Build(prefix, q.Tipo, q.Letra, t.PuntoVenta, numero)
}

func (a *Allocator) load(ctx context.Context, name string) (*entity.Talonario, error) {
	t, err := a.talonarios.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTalonarioNotFound, name)
		}
		return nil, fmt.Errorf("cargar talonario %s: %w", name, err)
	}
	return t, nil
}

func (a *Allocator) checkSeries(t *entity.Talonario, q SeriesQuery) error {
	var details []string
	if q.Tipo == "" || !a.codes.IsTipo(q.Tipo) {
		details = append(details, fmt.Sprintf("tipo de comprobante %q desconocido", q.Tipo))
	}
	if q.Letra == "" || !t.HasLetter(q.Letra) {
		details = append(details, fmt.Sprintf("la letra %q no está habilitada en el talonario %s", q.Letra, t.Name))
	}
	if q.Dominio != afip.DominioVenta && q.Dominio != afip.DominioCompra {
		details = append(details, fmt.Sprintf("dominio %q inválido (venta o compra)", q.Dominio))
	}
	if len(details) == 0 {
		switch code := a.codes.CodeFor(q.Tipo, q.Letra); {
		case !domafip.TalonarioEmite(t.Tipo, q.Tipo, q.Letra):
			details = append(details, fmt.Sprintf("un talonario %s no emite %s %s", t.Tipo, q.Tipo, q.Letra))
		case !t.AuthorizesCode(code):
			details = append(details, fmt.Sprintf("el talonario %s no tiene autorizado el comprobante %s %s (código %q)", t.Name, q.Tipo, q.Letra, code))
		}
	}
	if len(details) > 0 {
		return domain.NewValidationError(details...)
	}
	return nil
}

func (a *Allocator) prefixFor(t *entity.Talonario, q SeriesQuery) (string, error) {
	cat := domafip.CategoryFor(q.Dominio, t.Tipo, t.FacturaElectronica)
	prefix := a.codes.Prefix(cat)
	if prefix == "" {
		return "", fmt.Errorf("%w: sin prefijo para la categoría %s", domain.ErrInvalidInput, cat)
	}
	return prefix, nil
}

// observedMax mayor número entre los comprobantes confirmados de la serie.
// Un fallo de la consulta se propaga: devolver 0 reemitiría números ya usados.
func (a *Allocator) observedMax(ctx context.Context, t *entity.Talonario, q SeriesQuery) (int64, error) {
	prefix, err := a.prefixFor(t, q)
	if err != nil {
		return 0, err
	}
	pattern, err := domafip.SearchPattern(prefix, q.Tipo, q.Letra, t.PuntoVenta)
	if err != nil {
		return 0, err
	}
	names, err := a.vouchers.ListConfirmedNames(ctx, doctypeFor(q.Dominio, q.Tipo), pattern)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrLookupFailed, pattern, err)
	}

	var highest int64
	for _, name := range names {
		if name == q.Exclude || domafip.IsDraftName(name) {
			continue
		}
		v, err := domafip.Parse(name)
		if err != nil {
			a.log.Debug().Str("comprobante", name).Err(err).Msg("nombre fuera de formato, se ignora")
			continue
		}
		if v.Prefix != prefix || v.Tipo != q.Tipo || v.Letra != q.Letra {
			continue
		}
		if v.Numero > highest {
			highest = v.Numero
		}
	}
	return highest, nil
}

func nextAfter(t *entity.Talonario, highs ...int64) int64 {
	high := t.NumeroInicio - 1
	for _, h := range highs {
		if h > high {
			high = h
		}
	}
	if high < 0 {
		high = 0
	}
	return high + 1
}

func seriesKey(t *entity.Talonario, q SeriesQuery) entity.SequenceKey {
	return entity.SequenceKey{Talonario: t.Name, Tipo: q.Tipo, Letra: q.Letra}
}

// doctypeFor doctype ERPNext donde viven los comprobantes de la serie.
func doctypeFor(dominio, tipo string) entity.VoucherDoctype {
	switch {
	case tipo == afip.TipoRemito:
		return entity.DoctypeDeliveryNote
	case dominio == afip.DominioCompra:
		return entity.DoctypePurchaseInvoice
	default:
		return entity.DoctypeSalesInvoice
	}
}
