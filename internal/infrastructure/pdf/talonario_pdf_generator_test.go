package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/pdf"
)

func TestGenerateTalonarioPDF(t *testing.T) {
	sheet := &numeracion.TalonarioSheet{
		Talonario: &entity.Talonario{
			Name: "TAL-1", Company: "Mi Empresa SA", Tipo: "FACTURA ELECTRONICA",
			PuntoVenta: "00001", NumeroInicio: 1, NumeroFin: 99999999,
			Letras:    []entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}},
			Docstatus: entity.DocstatusActive,
		},
		Series: []numeracion.SheetSeries{
			{Tipo: "FAC", Letra: "A", UltimoNumero: 1234, UltimoNombre: "FE-FAC-A-00001-00001234", ProximoNombre: "FE-FAC-A-00001-00001235"},
			{Tipo: "FAC", Letra: "B", UltimoNumero: 99999999, Agotada: true},
		},
		Comprobantes: []numeracion.SheetCode{{Codigo: "001", Tipo: "FAC", Letra: "A", Descripcion: "Factura A"}},
		GeneratedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	b, err := pdf.NewMarotoPDFGenerator().GenerateTalonarioPDF(context.Background(), sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestGenerateTalonarioPDF_SinSeries(t *testing.T) {
	sheet := &numeracion.TalonarioSheet{Talonario: &entity.Talonario{Name: "TAL-2", Docstatus: entity.DocstatusCancelled}}
	b, err := pdf.NewMarotoPDFGenerator().GenerateTalonarioPDF(context.Background(), sheet)
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

func TestGenerateTalonarioPDF_SinTalonario(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateTalonarioPDF(context.Background(), &numeracion.TalonarioSheet{})
	assert.Error(t, err)
}
