package numeracion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

type fakeGenerator struct {
	sheet *numeracion.TalonarioSheet
	err   error
}

func (g *fakeGenerator) GenerateTalonarioPDF(_ context.Context, s *numeracion.TalonarioSheet) ([]byte, error) {
	g.sheet = s
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestTalonarioPDF_ArmaSeriesYCodigos(t *testing.T) {
	tal := facturaElectronica("TAL-1")
	tal.NumeroFin = 20
	tal.UltimosNumeros = []entity.UltimoNumero{
		{TipoDocumento: "NCC", Letra: "A", UltimoNumero: 3, MetodoNumeracion: "FE-NCC-A-00001-00000003"},
		{TipoDocumento: "FAC", Letra: "B", UltimoNumero: 20, MetodoNumeracion: "FE-FAC-B-00001-00000020"},
		{TipoDocumento: "FAC", Letra: "A", UltimoNumero: 7, MetodoNumeracion: "FE-FAC-A-00001-00000007"},
	}
	tal.Comprobantes = []entity.ComprobanteAutorizado{{CodigoAFIP: "001"}, {CodigoAFIP: "006", Descripcion: "Factura B mostrador"}}
	e := newEnv(t, tal)

	gen := &fakeGenerator{}
	uc := numeracion.NewReportUseCase(e.registry, e.allocator, e.codes, gen, e.clock.Now)

	pdf, filename, err := uc.TalonarioPDF(context.Background(), testCompany, "TAL-1")
	require.NoError(t, err)
	assert.Equal(t, "talonario-TAL-1.pdf", filename)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)

	s := gen.sheet
	require.NotNil(t, s)
	assert.Equal(t, e.clock.now, s.GeneratedAt)
	require.Len(t, s.Series, 3)

	assert.Equal(t, "FAC", s.Series[0].Tipo)
	assert.Equal(t, "A", s.Series[0].Letra)
	assert.Equal(t, "FE-FAC-A-00001-00000008", s.Series[0].ProximoNombre)
	assert.False(t, s.Series[0].Agotada)

	assert.Equal(t, "B", s.Series[1].Letra)
	assert.True(t, s.Series[1].Agotada)
	assert.Empty(t, s.Series[1].ProximoNombre)

	assert.Equal(t, "NCC", s.Series[2].Tipo)
	assert.Equal(t, "FE-NCC-A-00001-00000004", s.Series[2].ProximoNombre)

	require.Len(t, s.Comprobantes, 2)
	assert.Equal(t, numeracion.SheetCode{Codigo: "001", Tipo: "FAC", Letra: "A", Descripcion: "Factura A"}, s.Comprobantes[0])
	assert.Equal(t, "Factura B mostrador", s.Comprobantes[1].Descripcion)
}

func TestTalonarioPDF_Errores(t *testing.T) {
	e := newEnv(t, facturaElectronica("TAL-1"))

	gen := &fakeGenerator{err: errBoom}
	uc := numeracion.NewReportUseCase(e.registry, e.allocator, e.codes, gen, nil)
	_, _, err := uc.TalonarioPDF(context.Background(), testCompany, "TAL-1")
	assert.ErrorIs(t, err, errBoom)

	_, _, err = uc.TalonarioPDF(context.Background(), "Otra SRL", "TAL-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
