// Package pdf genera la hoja de control de un talonario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Talonario + Compañía  │  Estado + Fecha             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Tipo / Punto de venta / Rango / Numeración / Letras  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CÓDIGOS AFIP: Código | Tipo | Letra | Descripción           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SERIES: Tipo | Letra | Último | Último comprobante | Próximo│
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

var _ numeracion.TalonarioPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa numeracion.TalonarioPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateTalonarioPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateTalonarioPDF(_ context.Context, sheet *numeracion.TalonarioSheet) ([]byte, error) {
	if sheet == nil || sheet.Talonario == nil {
		return nil, fmt.Errorf("pdf: hoja sin talonario")
	}
	t := sheet.Talonario

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Talonario "+t.Name, true).
		WithAuthor(t.Company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(datosRows(t)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("CÓDIGOS AFIP AUTORIZADOS"))
	if len(sheet.Comprobantes) == 0 {
		m.AddRows(noteRow("Sin restricción: el talonario puede emitir cualquier código compatible."))
	} else {
		m.AddRows(codesHeaderRow())
		m.AddRows(codesRows(sheet.Comprobantes)...)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionRow("ÚLTIMOS NÚMEROS POR SERIE"))
	if len(sheet.Series) == 0 {
		m.AddRows(noteRow("Todavía no se emitieron comprobantes con este talonario."))
	} else {
		m.AddRows(seriesHeaderRow())
		m.AddRows(seriesRows(sheet.Series)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(noteRow("Los próximos números son orientativos: el número definitivo se asigna al confirmar el comprobante."))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: talonario + compañía (izq) y estado + fecha (der).
func headerRow(sheet *numeracion.TalonarioSheet) core.Row {
	t := sheet.Talonario
	estadoColor := colorPrimary
	if t.Docstatus == entity.DocstatusCancelled {
		estadoColor = colorRed
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(t.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(t.Company, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(strings.ToUpper(t.Docstatus.String()), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: estadoColor, Top: 1,
			}),
			text.New("Generado: "+sheet.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func datosRows(t *entity.Talonario) []core.Row {
	kv := func(k, v string) core.Row {
		return row.New(5).Add(
			col.New(4).Add(text.New(k, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1})),
			col.New(8).Add(text.New(nonEmpty(v, "—"), props.Text{Size: 8, Top: 1})),
		)
	}
	electronica := "No"
	if t.FacturaElectronica {
		electronica = "Sí"
	}
	porDefecto := "No"
	if t.PorDefecto {
		porDefecto = "Sí"
	}
	return []core.Row{
		sectionRow("DATOS DEL TALONARIO"),
		kv("Tipo de talonario", t.Tipo),
		kv("Descripción", t.Descripcion),
		kv("Punto de venta", t.PuntoVenta),
		kv("Rango", fmt.Sprintf("%s a %s", formatNumero(t.NumeroInicio), formatNumero(t.NumeroFin))),
		kv("Numeración", t.TipoNumeracion),
		kv("Factura electrónica", electronica),
		kv("Por defecto", porDefecto),
		kv("Letras", strings.Join(t.LetterCodes(), ", ")),
		kv("Método de numeración", t.MetodoNumeracion),
	}
}

func sectionRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func noteRow(s string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(s, props.Text{Size: 7, Color: colorGray, Top: 1}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(s string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
}

func codesHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Código", 2, align.Center),
		headerCell("Tipo", 2, align.Center),
		headerCell("Letra", 1, align.Center),
		headerCell("Descripción", 7, align.Left),
	)
}

func codesRows(codes []numeracion.SheetCode) []core.Row {
	out := make([]core.Row, 0, len(codes))
	for _, c := range codes {
		out = append(out, row.New(5).Add(
			cell(c.Codigo, 2, align.Center),
			cell(nonEmpty(c.Tipo, "—"), 2, align.Center),
			cell(nonEmpty(c.Letra, "—"), 1, align.Center),
			cell(c.Descripcion, 7, align.Left),
		))
	}
	return out
}

func seriesHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Tipo", 1, align.Center),
		headerCell("Letra", 1, align.Center),
		headerCell("Último", 2, align.Right),
		headerCell("Último comprobante", 4, align.Left),
		headerCell("Próximo", 4, align.Left),
	)
}

func seriesRows(series []numeracion.SheetSeries) []core.Row {
	out := make([]core.Row, 0, len(series))
	for _, s := range series {
		proximo := s.ProximoNombre
		if s.Agotada {
			proximo = "RANGO AGOTADO"
		}
		out = append(out, row.New(5).Add(
			cell(s.Tipo, 1, align.Center),
			cell(s.Letra, 1, align.Center),
			cell(formatNumero(s.UltimoNumero), 2, align.Right),
			cell(nonEmpty(s.UltimoNombre, "—"), 4, align.Left),
			cell(nonEmpty(proximo, "—"), 4, align.Left),
		))
	}
	return out
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatNumero inserta puntos de miles. Ej: 25000 → "25.000".
func formatNumero(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	l := len(s)
	if l <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	buf := make([]byte, 0, l+l/3+1)
	if neg {
		buf = append(buf, '-')
	}
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
