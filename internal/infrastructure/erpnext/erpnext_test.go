package erpnext_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/erpnext"
	"github.com/jhoicas/talonarios-api/pkg/config"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
	auth   string
}

// frappe servidor ERPNext falso: responde según method+path.
type frappe struct {
	mu       sync.Mutex
	calls    []recorded
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFrappe(t *testing.T) (*frappe, *erpnext.Client) {
	t.Helper()
	f := &frappe{handlers: make(map[string]func(http.ResponseWriter, *http.Request))}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), auth: r.Header.Get("Authorization")}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		f.mu.Lock()
		f.calls = append(f.calls, rec)
		h, ok := f.handlers[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"exc_type":"DoesNotExistError"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := erpnext.NewClient(config.ERPNextConfig{
		URL:                srv.URL + "/",
		APIKey:             "key",
		APISecret:          "secret",
		Timeout:            2 * time.Second,
		CBFailureThreshold: 2,
		CBOpenTimeout:      time.Hour,
	}, zerolog.Nop())
	return f, c
}

func (f *frappe) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *frappe) snapshot() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.calls...)
}

func (f *frappe) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

const talonarioJSON = `{"data":{
	"name":"TAL-1","compania":"Mi Empresa SA","tipo_de_talonario":"FACTURA ELECTRONICA",
	"punto_de_venta":"1","tipo_numeracion":"Automática","numero_de_inicio":1,"numero_de_fin":99999999,
	"factura_electronica":1,"por_defecto":0,"metodo_numeracion_factura_venta":"FE-FAC-A-00001-00000001",
	"letras":[{"letra":"a","descripcion":"Factura A"},{"letra":"B"}],
	"ultimos_numeros":[{"tipo_documento":"FAC","letra":"A","ultimo_numero_utilizado":41,"metodo_numeracion":"FE-FAC-A-00001-00000041"}],
	"comprobantes":[{"codigo_afip":"001","descripcion":"Factura A"}],
	"docstatus":1,"modified":"2026-03-01 10:00:00.123456"}}`

// ──────────────────────────────────────────────────────────────────────────────
// Talonarios
// ──────────────────────────────────────────────────────────────────────────────

func TestTalonarioGet_MapeaDocumento(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)

	tal, err := erpnext.NewTalonarioRepository(c).Get(context.Background(), "TAL-1")
	require.NoError(t, err)

	assert.Equal(t, "token key:secret", f.last().auth)
	assert.Equal(t, "Mi Empresa SA", tal.Company)
	assert.Equal(t, "00001", tal.PuntoVenta)
	assert.True(t, tal.FacturaElectronica)
	assert.False(t, tal.PorDefecto)
	assert.Equal(t, []entity.TalonarioLetra{{Letra: "A", Descripcion: "Factura A"}, {Letra: "B"}}, tal.Letras)
	assert.Equal(t, int64(41), tal.LastNumber("FAC", "A"))
	assert.Equal(t, entity.DocstatusActive, tal.Docstatus)
	assert.Equal(t, 2026, tal.Modified.Year())
}

func TestTalonarioGet_LetrasDesdeJSON(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-2", http.StatusOK,
		`{"data":{"name":"TAL-2","compania":"X","tipo_de_talonario":"RECIBOS","punto_de_venta":"00002","letras":[],"letras_json":"[\"C\",\"X\"]","docstatus":0}}`)

	tal, err := erpnext.NewTalonarioRepository(c).Get(context.Background(), "TAL-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "X"}, tal.LetterCodes())
}

func TestTalonarioGet_NoExiste(t *testing.T) {
	_, c := newFrappe(t)
	_, err := erpnext.NewTalonarioRepository(c).Get(context.Background(), "NADA")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTalonarioList_FiltrosYDetalle(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario", http.StatusOK, `{"data":[{"name":"TAL-1"}]}`)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)

	yes := true
	list, err := erpnext.NewTalonarioRepository(c).List(context.Background(),
		entity.TalonarioFilter{Company: "Mi Empresa SA", ActiveOnly: true, PorDefecto: &yes})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "TAL-1", list[0].Name)

	var listCall recorded
	for _, call := range f.snapshot() {
		if call.path == "/api/resource/Talonario" {
			listCall = call
		}
	}
	assert.Equal(t, "0", listCall.query.Get("limit_page_length"))
	assert.JSONEq(t, `["name"]`, listCall.query.Get("fields"))

	var filters [][]any
	require.NoError(t, json.Unmarshal([]byte(listCall.query.Get("filters")), &filters))
	require.Len(t, filters, 4)
	assert.Equal(t, []any{"compania", "=", "Mi Empresa SA"}, filters[0])
	assert.Equal(t, "tipo_de_talonario", filters[1][0])
	assert.Equal(t, "in", filters[1][1])
	assert.Equal(t, []any{"docstatus", "!=", float64(2)}, filters[2])
	assert.Equal(t, []any{"por_defecto", "=", float64(1)}, filters[3])
}

func TestTalonarioCreate_EnviaTablasHijas(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodPost, "/api/resource/Talonario", http.StatusOK, talonarioJSON)

	_, err := erpnext.NewTalonarioRepository(c).Create(context.Background(), &entity.Talonario{
		Name: "TAL-1", Company: "Mi Empresa SA", Tipo: "FACTURA ELECTRONICA", PuntoVenta: "00001",
		NumeroInicio: 1, NumeroFin: 100, FacturaElectronica: true,
		Letras:       []entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}},
		Comprobantes: []entity.ComprobanteAutorizado{{CodigoAFIP: "001"}},
	})
	require.NoError(t, err)

	body := f.last().body
	assert.Equal(t, `["A","B"]`, body["letras_json"])
	assert.Equal(t, float64(1), body["factura_electronica"])
	assert.Equal(t, float64(0), body["por_defecto"])
	assert.Len(t, body["letras"], 2)
	assert.Len(t, body["comprobantes"], 1)
}

func TestTalonarioUpdate_SoloCamposPresentes(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodPut, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)

	desc := "nueva"
	letras := []entity.TalonarioLetra{{Letra: "M"}}
	_, err := erpnext.NewTalonarioRepository(c).Update(context.Background(), "TAL-1",
		entity.TalonarioChanges{Descripcion: &desc, Letras: &letras})
	require.NoError(t, err)

	body := f.last().body
	assert.Len(t, body, 3)
	assert.Equal(t, "nueva", body["descripcion"])
	assert.Equal(t, `["M"]`, body["letras_json"])
}

func TestTalonarioSaveUltimosNumeros(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodPut, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)

	err := erpnext.NewTalonarioRepository(c).SaveUltimosNumeros(context.Background(), "TAL-1", []entity.UltimoNumero{
		{TipoDocumento: "FAC", Letra: "A", UltimoNumero: 42, MetodoNumeracion: "FE-FAC-A-00001-00000042"},
	})
	require.NoError(t, err)
	rows := f.last().body["ultimos_numeros"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(42), rows[0].(map[string]any)["ultimo_numero_utilizado"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Comprobantes y workflow
// ──────────────────────────────────────────────────────────────────────────────

func TestVoucherListConfirmedNames(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Sales Invoice", http.StatusOK,
		`{"data":[{"name":"FE-FAC-A-00001-00000001"},{"name":"FE-FAC-A-00001-00000002"}]}`)

	names, err := erpnext.NewVoucherRepository(c).ListConfirmedNames(context.Background(), entity.DoctypeSalesInvoice, "FE-FAC-A-00001-%")
	require.NoError(t, err)
	assert.Equal(t, []string{"FE-FAC-A-00001-00000001", "FE-FAC-A-00001-00000002"}, names)
	assert.JSONEq(t, `[["name","like","FE-FAC-A-00001-%"],["docstatus","=",1]]`, f.last().query.Get("filters"))
}

func TestVoucherRename(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodPost, "/api/method/frappe.client.rename_doc", http.StatusOK, `{"message":"FE-FAC-A-00001-00000003"}`)

	err := erpnext.NewVoucherRepository(c).Rename(context.Background(), entity.DoctypeSalesInvoice, "BORR-1", "FE-FAC-A-00001-00000003")
	require.NoError(t, err)
	body := f.last().body
	assert.Equal(t, "Sales Invoice", body["doctype"])
	assert.Equal(t, "BORR-1", body["old_name"])
	assert.Equal(t, false, body["merge"])
}

func TestWorkflowSubmitEnviaDocumento(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)
	f.on(http.MethodPost, "/api/method/frappe.client.submit", http.StatusOK, `{"message":{"name":"TAL-1","docstatus":1}}`)

	require.NoError(t, erpnext.NewWorkflow(c).Submit(context.Background(), "Talonario", "TAL-1"))
	doc := f.last().body["doc"].(map[string]any)
	assert.Equal(t, "TAL-1", doc["name"])
	assert.Equal(t, "2026-03-01 10:00:00.123456", doc["modified"])
}

func TestCustomerGet(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Customer/CLI-1", http.StatusOK,
		`{"data":{"name":"CLI-1","customer_name":"ACME","customer_type":"Company","tax_id":"20-12345678-6","tax_category":"IVA Responsable Inscripto"}}`)

	cust, err := erpnext.NewCustomerRepository(c).Get(context.Background(), "CLI-1")
	require.NoError(t, err)
	assert.True(t, cust.IsCompany)
	assert.Equal(t, "IVA Responsable Inscripto", cust.CondicionIVA)
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores
// ──────────────────────────────────────────────────────────────────────────────

func TestErrores_RechazoHumanizado(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"server messages", `{"exc_type":"ValidationError","_server_messages":"[\"{\\\"message\\\": \\\"<b>Punto de venta</b> inválido\\\"}\"]"}`, "Punto de venta inválido"},
		{"link exists", `{"exc_type":"LinkExistsError","exception":"frappe.exceptions.LinkExistsError: Cannot delete"}`, "vinculado a otros registros"},
		{"duplicate", `{"exception":"frappe.exceptions.DuplicateEntryError: ('Talonario', 'TAL-1')"}`, "ya existe un documento"},
		{"timestamp", `{"exc_type":"TimestampMismatchError"}`, "modificado por otro usuario"},
		{"mandatory", `{"exc_type":"MandatoryError","exception":"frappe.exceptions.MandatoryError: [Talonario, TAL-1]: punto_de_venta"}`, "faltan campos obligatorios: [Talonario, TAL-1]: punto_de_venta"},
		{"sin cuerpo", ``, "HTTP 417"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, c := newFrappe(t)
			f.on(http.MethodPut, "/api/resource/Talonario/TAL-1", http.StatusExpectationFailed, tc.body)

			desc := "x"
			_, err := erpnext.NewTalonarioRepository(c).Update(context.Background(), "TAL-1", entity.TalonarioChanges{Descripcion: &desc})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstreamRejected)

			var ue *erpnext.UpstreamError
			require.True(t, errors.As(err, &ue))
			assert.Contains(t, ue.Message, tc.want)
			assert.NotContains(t, ue.Message, "<b>")
		})
	}
}

func TestErrores_5xxAbreElCircuito(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-1", http.StatusBadGateway, `Traceback...`)
	repo := erpnext.NewTalonarioRepository(c)

	for i := 0; i < 2; i++ {
		_, err := repo.Get(context.Background(), "TAL-1")
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.NotContains(t, err.Error(), "Traceback")
	}
	assert.Equal(t, erpnext.CBOpen, c.BreakerState())

	calls := len(f.snapshot())
	_, err := repo.Get(context.Background(), "TAL-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, erpnext.ErrCircuitOpen)
	assert.Len(t, f.snapshot(), calls, "con el circuito abierto no se llama a ERPNext")
}

func TestErrores_RechazoNoAbreElCircuito(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodPost, "/api/method/frappe.client.cancel", http.StatusExpectationFailed, `{"exc_type":"LinkExistsError"}`)
	w := erpnext.NewWorkflow(c)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, w.Cancel(context.Background(), "Talonario", "TAL-1"), domain.ErrUpstreamRejected)
	}
	assert.Equal(t, erpnext.CBClosed, c.BreakerState())
}

func TestErrores_SinConexion(t *testing.T) {
	c := erpnext.NewClient(config.ERPNextConfig{URL: "http://127.0.0.1:1", Timeout: time.Second}, zerolog.Nop())
	_, err := erpnext.NewTalonarioRepository(c).Get(context.Background(), "TAL-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestErrores_ContextoCancelado(t *testing.T) {
	f, c := newFrappe(t)
	f.on(http.MethodGet, "/api/resource/Talonario/TAL-1", http.StatusOK, talonarioJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := erpnext.NewTalonarioRepository(c).Get(ctx, "TAL-1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
