package numeracion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/pkg/afip"
)

// ReportUseCase genera la hoja PDF de un talonario: rango, letras, códigos autorizados
// y el estado de cada serie con el próximo nombre.
type ReportUseCase struct {
	registry  *Registry
	allocator *Allocator
	codes     *afip.Codes
	generator TalonarioPDFGenerator
	now       Clock
}

// NewReportUseCase construye el caso de uso. clock nil = time.Now.
func NewReportUseCase(registry *Registry, allocator *Allocator, codes *afip.Codes, generator TalonarioPDFGenerator, clock Clock) *ReportUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &ReportUseCase{registry: registry, allocator: allocator, codes: codes, generator: generator, now: clock}
}

// TalonarioPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
// Los próximos nombres salen de ultimos_numeros; no consulta comprobantes.
func (uc *ReportUseCase) TalonarioPDF(ctx context.Context, company, name string) ([]byte, string, error) {
	t, err := uc.registry.load(ctx, company, name)
	if err != nil {
		return nil, "", err
	}
	sheet := &TalonarioSheet{Talonario: t, GeneratedAt: uc.now()}

	for _, u := range sortedSeries(t.UltimosNumeros) {
		s := SheetSeries{Tipo: u.TipoDocumento, Letra: u.Letra, UltimoNumero: u.UltimoNumero, UltimoNombre: u.MetodoNumeracion}
		next := u.UltimoNumero + 1
		if next < t.NumeroInicio {
			next = t.NumeroInicio
		}
		if t.NumeroFin > 0 && next > t.NumeroFin {
			s.Agotada = true
		} else if preview, err := uc.allocator.PreviewName(t, SeriesQuery{Tipo: u.TipoDocumento, Letra: u.Letra}, next); err == nil {
			s.ProximoNombre = preview
		}
		sheet.Series = append(sheet.Series, s)
	}
	for _, c := range t.Comprobantes {
		info, _ := uc.codes.Lookup(c.CodigoAFIP)
		desc := c.Descripcion
		if desc == "" {
			desc = info.Descripcion
		}
		sheet.Comprobantes = append(sheet.Comprobantes, SheetCode{Codigo: c.CodigoAFIP, Tipo: info.Tipo, Letra: info.Letra, Descripcion: desc})
	}

	pdf, err := uc.generator.GenerateTalonarioPDF(ctx, sheet)
	if err != nil {
		return nil, "", fmt.Errorf("pdf talonario %s: %w", t.Name, err)
	}
	return pdf, fmt.Sprintf("talonario-%s.pdf", t.Name), nil
}

func sortedSeries(in []entity.UltimoNumero) []entity.UltimoNumero {
	out := make([]entity.UltimoNumero, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TipoDocumento != out[j].TipoDocumento {
			return out[i].TipoDocumento < out[j].TipoDocumento
		}
		return out[i].Letra < out[j].Letra
	})
	return out
}
