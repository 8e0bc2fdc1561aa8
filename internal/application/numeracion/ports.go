// Package numeracion casos de uso de talonarios: sugerencia y asignación de números,
// transiciones de docstatus y el registro que los compone.
package numeracion

import (
	"context"
	"time"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

// SequenceTxRunner ejecuta fn dentro de una transacción con el repositorio de contadores atado a ella.
// Si fn devuelve error no queda ningún cambio.
type SequenceTxRunner interface {
	RunSequence(ctx context.Context, fn func(counters repository.SequenceCounterRepository) error) error
}

// Clock fuente de tiempo inyectable (tests).
type Clock func() time.Time

// Cache caché clave/valor con expiración. Un fallo del backend se comporta como miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V)
	Delete(ctx context.Context, keys ...string)
}

// Caches los tres cachés que posee el registro.
type Caches struct {
	Detail     Cache[*entity.Talonario]   // talonario por nombre
	Default    Cache[*entity.Talonario]   // talonario por defecto por compañía
	Resguardos Cache[[]*entity.Talonario] // talonarios de resguardo por compañía
}

// NewMemoryCaches cachés en memoria del proceso con el mismo TTL.
func NewMemoryCaches(ttl time.Duration, clock Clock) Caches {
	return Caches{
		Detail:     NewMemoryCache[*entity.Talonario](ttl, clock),
		Default:    NewMemoryCache[*entity.Talonario](ttl, clock),
		Resguardos: NewMemoryCache[[]*entity.Talonario](ttl, clock),
	}
}

// TalonarioSheet datos de la hoja PDF de un talonario.
type TalonarioSheet struct {
	Talonario    *entity.Talonario
	Series       []SheetSeries
	Comprobantes []SheetCode
	GeneratedAt  time.Time
}

// SheetSeries estado de una serie (tipo, letra) del talonario.
type SheetSeries struct {
	Tipo          string
	Letra         string
	UltimoNumero  int64
	UltimoNombre  string
	ProximoNombre string
	Agotada       bool
}

// SheetCode código AFIP autorizado con su descripción.
type SheetCode struct {
	Codigo      string
	Tipo        string
	Letra       string
	Descripcion string
}

// TalonarioPDFGenerator genera la hoja PDF del talonario.
type TalonarioPDFGenerator interface {
	GenerateTalonarioPDF(ctx context.Context, sheet *TalonarioSheet) ([]byte, error)
}
