package afip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/afip"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Nombre del comprobante
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_RellenaPuntoDeVentaYNumero(t *testing.T) {
	name, err := afip.Build("FE", "FAC", "A", "1", 5)
	require.NoError(t, err)
	assert.Equal(t, "FE-FAC-A-00001-00000005", name)

	name, err = afip.Build("PC", "NCC", "B", "00012", 12345678)
	require.NoError(t, err)
	assert.Equal(t, "PC-NCC-B-00012-12345678", name)
}

func TestBuild_Invalido(t *testing.T) {
	cases := []struct {
		name                    string
		prefix, tipo, letra, pv string
		numero                  int64
	}{
		{"sin prefijo", "", "FAC", "A", "1", 1},
		{"sin tipo", "FE", "", "A", "1", 1},
		{"sin letra", "FE", "FAC", "", "1", 1},
		{"pv largo", "FE", "FAC", "A", "123456", 1},
		{"pv no numérico", "FE", "FAC", "A", "00A01", 1},
		{"pv vacío", "FE", "FAC", "A", "", 1},
		{"número negativo", "FE", "FAC", "A", "1", -1},
		{"número excede 8 dígitos", "FE", "FAC", "A", "1", 100000000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := afip.Build(tc.prefix, tc.tipo, tc.letra, tc.pv, tc.numero)
			assert.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

func TestParse_IdaYVuelta(t *testing.T) {
	tuples := []struct {
		prefix, tipo, letra, pv string
		numero                  int64
	}{
		{"FE", "FAC", "A", "00001", 1},
		{"VE", "FAC", "E", "00003", 99999999},
		{"VM", "NDB", "M", "12345", 0},
		{"PC", "REM", "R", "00010", 42},
	}
	for _, tc := range tuples {
		name, err := afip.Build(tc.prefix, tc.tipo, tc.letra, tc.pv, tc.numero)
		require.NoError(t, err)

		v, err := afip.Parse(name)
		require.NoError(t, err, name)
		assert.Equal(t, tc.prefix, v.Prefix)
		assert.Equal(t, tc.tipo, v.Tipo)
		assert.Equal(t, tc.letra, v.Letra)
		assert.Equal(t, tc.pv, v.PuntoVenta)
		assert.Equal(t, tc.numero, v.Numero)
		assert.Empty(t, v.Sufijo)
		assert.Equal(t, name, v.String())
	}
}

func TestParse_SufijoDeEnmienda(t *testing.T) {
	v, err := afip.Parse("FE-FAC-A-00001-00000007-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Numero)
	assert.Equal(t, "1", v.Sufijo)
	assert.Equal(t, "FE-FAC-A-00001-00000007-1", v.String())
}

func TestParse_Invalido(t *testing.T) {
	for _, name := range []string{
		"",
		"FE-FAC-A-00001",
		"FE-FAC-A-1-00000001",
		"FE-FAC-A-00001-1234567",
		"FE-FAC-A-00001-0000000X",
		"FE-FAC-A-00001-00000001X",
		"FE-FAC-A-00001-00000001-",
		"FE--A-00001-00000001",
		"FE-FAC-A-00001-BORR-0001",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := afip.Parse(name)
			assert.ErrorIs(t, err, domain.ErrFormat)
		})
	}
}

func TestSearchPattern(t *testing.T) {
	p, err := afip.SearchPattern("FE", "FAC", "A", "7")
	require.NoError(t, err)
	assert.Equal(t, "FE-FAC-A-00007-%", p)
}

func TestIsDraftName(t *testing.T) {
	assert.True(t, afip.IsDraftName("FE-FAC-A-00001-BORR-0003"))
	assert.False(t, afip.IsDraftName("FE-FAC-A-00001-00000003"))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "venta_electronica", afip.CategoryFor("venta", "FACTURA ELECTRONICA", true))
	assert.Equal(t, "venta_exportacion", afip.CategoryFor("venta", "COMPROBANTES DE EXPORTACION ELECTRONICOS", true))
	assert.Equal(t, "venta_manual", afip.CategoryFor("venta", "TALONARIOS DE RESGUARDO", false))
	assert.Equal(t, "compra", afip.CategoryFor("compra", "FACTURA ELECTRONICA", true))
}

// ──────────────────────────────────────────────────────────────────────────────
// Letras
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizeLetters_DeduplicaConservandoOrden(t *testing.T) {
	got, err := afip.NormalizeLetters([]entity.TalonarioLetra{
		{Letra: "a"}, {Letra: " b "}, {Letra: "A", Descripcion: "repetida"},
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}}, got)
}

func TestNormalizeLetters_ConservaPrimeraDescripcion(t *testing.T) {
	got, err := afip.NormalizeLetters([]entity.TalonarioLetra{
		{Letra: "m", Descripcion: "Factura M"}, {Letra: "M", Descripcion: "otra"}, {Letra: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.TalonarioLetra{{Letra: "M", Descripcion: "Factura M"}}, got)
}

func TestNormalizeLetters_LetraDesconocida(t *testing.T) {
	_, err := afip.NormalizeLetters([]entity.TalonarioLetra{{Letra: "A"}, {Letra: "Z"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Details, 1)
}

func TestLettersJSON(t *testing.T) {
	assert.Equal(t, `["A","B"]`, afip.LettersJSON([]entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}}))
	assert.Equal(t, `[]`, afip.LettersJSON(nil))
}

func TestCheckResguardo(t *testing.T) {
	one := []entity.TalonarioLetra{{Letra: "A"}}
	two := []entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}}

	assert.NoError(t, afip.CheckResguardo("TALONARIOS DE RESGUARDO", one))
	assert.ErrorIs(t, afip.CheckResguardo("TALONARIOS DE RESGUARDO", nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, afip.CheckResguardo("TALONARIOS DE RESGUARDO", two), domain.ErrInvalidInput)
	assert.NoError(t, afip.CheckResguardo("FACTURA ELECTRONICA", two))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones de docstatus
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanTransition(t *testing.T) {
	cases := []struct {
		from, to entity.Docstatus
		want     []afip.Action
	}{
		{entity.DocstatusDraft, entity.DocstatusDraft, nil},
		{entity.DocstatusActive, entity.DocstatusActive, nil},
		{entity.DocstatusCancelled, entity.DocstatusCancelled, nil},
		{entity.DocstatusDraft, entity.DocstatusActive, []afip.Action{afip.ActionSubmit}},
		{entity.DocstatusActive, entity.DocstatusCancelled, []afip.Action{afip.ActionCancel}},
		{entity.DocstatusDraft, entity.DocstatusCancelled, []afip.Action{afip.ActionSubmit, afip.ActionCancel}},
	}
	for _, tc := range cases {
		got, err := afip.PlanTransition(tc.from, tc.to)
		require.NoError(t, err, "%d→%d", tc.from, tc.to)
		assert.Equal(t, tc.want, got, "%d→%d", tc.from, tc.to)
	}
}

func TestPlanTransition_Ilegales(t *testing.T) {
	for _, tc := range [][2]entity.Docstatus{
		{entity.DocstatusCancelled, entity.DocstatusDraft},
		{entity.DocstatusCancelled, entity.DocstatusActive},
		{entity.DocstatusActive, entity.DocstatusDraft},
	} {
		_, err := afip.PlanTransition(tc[0], tc[1])
		assert.ErrorIs(t, err, domain.ErrIllegalTransition, "%d→%d", tc[0], tc[1])
	}
}

func TestPlanTransition_DestinoInvalido(t *testing.T) {
	_, err := afip.PlanTransition(entity.DocstatusDraft, entity.Docstatus(3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTalonarioEmite(t *testing.T) {
	assert.True(t, afip.TalonarioEmite("FACTURA ELECTRONICA", "FAC", "A"))
	assert.True(t, afip.TalonarioEmite("FACTURA ELECTRONICA", "NCC", "B"))
	assert.False(t, afip.TalonarioEmite("FACTURA ELECTRONICA", "FAC", "E"))
	assert.False(t, afip.TalonarioEmite("FACTURA ELECTRONICA", "REC", "A"))
	assert.True(t, afip.TalonarioEmite("COMPROBANTES DE EXPORTACION ELECTRONICOS", "FAC", "E"))
	assert.False(t, afip.TalonarioEmite("COMPROBANTES DE EXPORTACION ELECTRONICOS", "FAC", "A"))
	assert.True(t, afip.TalonarioEmite("RECIBOS", "REC", "B"))
	assert.True(t, afip.TalonarioEmite("REMITOS", "REM", "R"))
	assert.False(t, afip.TalonarioEmite("REMITOS ELECTRONICOS", "FAC", "R"))
	assert.False(t, afip.TalonarioEmite("PRESUPUESTOS", "FAC", "A"))
}
