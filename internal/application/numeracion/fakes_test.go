package numeracion_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/memory"
	"github.com/jhoicas/talonarios-api/pkg/afip"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de ERPNext
// ──────────────────────────────────────────────────────────────────────────────

const testCompany = "Mi Empresa SA"

type fakeTalonarios struct {
	mu      sync.Mutex
	items   map[string]*entity.Talonario
	gets    int
	listErr error
	saved   map[string][]entity.UltimoNumero
}

func newFakeTalonarios(ts ...*entity.Talonario) *fakeTalonarios {
	f := &fakeTalonarios{items: make(map[string]*entity.Talonario), saved: make(map[string][]entity.UltimoNumero)}
	for _, t := range ts {
		f.items[t.Name] = t
	}
	return f
}

func clone(t *entity.Talonario) *entity.Talonario {
	c := *t
	c.Letras = append([]entity.TalonarioLetra(nil), t.Letras...)
	c.UltimosNumeros = append([]entity.UltimoNumero(nil), t.UltimosNumeros...)
	c.Comprobantes = append([]entity.ComprobanteAutorizado(nil), t.Comprobantes...)
	return &c
}

func (f *fakeTalonarios) List(_ context.Context, flt entity.TalonarioFilter) ([]*entity.Talonario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*entity.Talonario
	for _, name := range sortedKeys(f.items) {
		t := f.items[name]
		if t.Company != flt.Company || (flt.Tipo != "" && t.Tipo != flt.Tipo) {
			continue
		}
		if flt.PorDefecto != nil && t.PorDefecto != *flt.PorDefecto {
			continue
		}
		out = append(out, clone(t))
	}
	return out, nil
}

func (f *fakeTalonarios) Get(_ context.Context, name string) (*entity.Talonario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	t, ok := f.items[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(t), nil
}

func (f *fakeTalonarios) Create(_ context.Context, t *entity.Talonario) (*entity.Talonario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.items[t.Name]; dup {
		return nil, fmt.Errorf("%w: duplicado", domain.ErrUpstreamRejected)
	}
	f.items[t.Name] = clone(t)
	return clone(t), nil
}

func (f *fakeTalonarios) Update(_ context.Context, name string, c entity.TalonarioChanges) (*entity.Talonario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if c.Descripcion != nil {
		t.Descripcion = *c.Descripcion
	}
	if c.PuntoVenta != nil {
		t.PuntoVenta = *c.PuntoVenta
	}
	if c.NumeroInicio != nil {
		t.NumeroInicio = *c.NumeroInicio
	}
	if c.NumeroFin != nil {
		t.NumeroFin = *c.NumeroFin
	}
	if c.PorDefecto != nil {
		t.PorDefecto = *c.PorDefecto
	}
	if c.Letras != nil {
		t.Letras = *c.Letras
	}
	return clone(t), nil
}

func (f *fakeTalonarios) SaveUltimosNumeros(_ context.Context, name string, u []entity.UltimoNumero) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[name].UltimosNumeros = append([]entity.UltimoNumero(nil), u...)
	f.saved[name] = u
	return nil
}

func (f *fakeTalonarios) setDocstatus(name string, ds entity.Docstatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[name].Docstatus = ds
}

type fakeVoucher struct {
	doctype   entity.VoucherDoctype
	docstatus entity.Docstatus
}

type fakeVouchers struct {
	mu      sync.Mutex
	docs    map[string]fakeVoucher
	listErr error
	lists   int
}

func newFakeVouchers() *fakeVouchers {
	return &fakeVouchers{docs: make(map[string]fakeVoucher)}
}

func (f *fakeVouchers) add(doctype entity.VoucherDoctype, name string, ds entity.Docstatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[name] = fakeVoucher{doctype: doctype, docstatus: ds}
}

func (f *fakeVouchers) ListConfirmedNames(_ context.Context, doctype entity.VoucherDoctype, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	prefix := strings.TrimSuffix(pattern, "%")
	var out []string
	for _, name := range sortedKeys(f.docs) {
		d := f.docs[name]
		if d.doctype == doctype && d.docstatus == entity.DocstatusActive && strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *fakeVouchers) GetDocstatus(_ context.Context, doctype entity.VoucherDoctype, name string) (entity.Docstatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[name]
	if !ok || d.doctype != doctype {
		return 0, domain.ErrNotFound
	}
	return d.docstatus, nil
}

func (f *fakeVouchers) Rename(_ context.Context, doctype entity.VoucherDoctype, oldName, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[oldName]
	if !ok || d.doctype != doctype {
		return domain.ErrNotFound
	}
	if _, dup := f.docs[newName]; dup {
		return fmt.Errorf("%w: %s ya existe", domain.ErrUpstreamRejected, newName)
	}
	delete(f.docs, oldName)
	f.docs[newName] = d
	return nil
}

// fakeWorkflow aplica submit/cancel sobre los fakes de talonarios y comprobantes.
type fakeWorkflow struct {
	talonarios *fakeTalonarios
	vouchers   *fakeVouchers
	mu         sync.Mutex
	calls      []string
	failOn     string
}

func (w *fakeWorkflow) record(call string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, call)
}

func (w *fakeWorkflow) Submit(_ context.Context, doctype, name string) error {
	w.record("submit " + doctype + " " + name)
	if w.failOn == "submit" {
		return domain.ErrUpstreamUnavailable
	}
	return w.apply(doctype, name, entity.DocstatusDraft, entity.DocstatusActive)
}

func (w *fakeWorkflow) Cancel(_ context.Context, doctype, name string) error {
	w.record("cancel " + doctype + " " + name)
	if w.failOn == "cancel" {
		return domain.ErrUpstreamUnavailable
	}
	return w.apply(doctype, name, entity.DocstatusActive, entity.DocstatusCancelled)
}

func (w *fakeWorkflow) apply(doctype, name string, from, to entity.Docstatus) error {
	if doctype == entity.DoctypeTalonario {
		t, err := w.talonarios.Get(context.Background(), name)
		if err != nil {
			return err
		}
		if t.Docstatus != from {
			return fmt.Errorf("%w: docstatus %d", domain.ErrUpstreamRejected, t.Docstatus)
		}
		w.talonarios.setDocstatus(name, to)
		return nil
	}
	w.vouchers.mu.Lock()
	defer w.vouchers.mu.Unlock()
	d, ok := w.vouchers.docs[name]
	if !ok {
		return domain.ErrNotFound
	}
	if d.docstatus != from {
		return fmt.Errorf("%w: docstatus %d", domain.ErrUpstreamRejected, d.docstatus)
	}
	d.docstatus = to
	w.vouchers.docs[name] = d
	return nil
}

type fakeCustomers map[string]*entity.Customer

func (f fakeCustomers) Get(_ context.Context, name string) (*entity.Customer, error) {
	c, ok := f[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado del registro
// ──────────────────────────────────────────────────────────────────────────────

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type env struct {
	talonarios *fakeTalonarios
	vouchers   *fakeVouchers
	workflow   *fakeWorkflow
	customers  fakeCustomers
	store      *memory.SequenceStore
	clock      *fakeClock
	allocator  *numeracion.Allocator
	registry   *numeracion.Registry
	codes      *afip.Codes
}

func loadCodes(t *testing.T) *afip.Codes {
	t.Helper()
	codes, err := afip.LoadCodes(filepath.Join("..", "..", "..", "afip_codes.json"))
	require.NoError(t, err)
	return codes
}

func newEnv(t *testing.T, ts ...*entity.Talonario) *env {
	t.Helper()
	e := &env{
		talonarios: newFakeTalonarios(ts...),
		vouchers:   newFakeVouchers(),
		customers:  fakeCustomers{},
		store:      memory.NewSequenceStore(),
		clock:      &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		codes:      loadCodes(t),
	}
	e.workflow = &fakeWorkflow{talonarios: e.talonarios, vouchers: e.vouchers}
	log := zerolog.Nop()
	e.allocator = numeracion.NewAllocator(e.talonarios, e.vouchers, e.store, e.store, e.codes, log)
	tr := numeracion.NewTransitioner(e.talonarios, e.workflow, log)
	e.registry = numeracion.NewRegistry(e.talonarios, e.vouchers, e.customers, e.workflow, e.allocator, tr,
		e.codes, numeracion.NewMemoryCaches(60*time.Second, e.clock.Now), log)
	return e
}

// facturaElectronica talonario activo FE con letras A y B en el punto de venta 1.
func facturaElectronica(name string) *entity.Talonario {
	return &entity.Talonario{
		Name:               name,
		Company:            testCompany,
		Tipo:               afip.TalonarioFacturaElectronica,
		PuntoVenta:         "00001",
		TipoNumeracion:     afip.NumeracionAutomatica,
		NumeroInicio:       1,
		NumeroFin:          99999999,
		FacturaElectronica: true,
		Letras:             []entity.TalonarioLetra{{Letra: "A"}, {Letra: "B"}},
		Docstatus:          entity.DocstatusActive,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var errBoom = errors.New("boom")
