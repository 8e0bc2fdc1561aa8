package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/talonarios-api/internal/domain/afip"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
	afipcat "github.com/jhoicas/talonarios-api/pkg/afip"
)

var _ repository.TalonarioRepository = (*TalonarioRepo)(nil)

const frappeTimeLayout = "2006-01-02 15:04:05.999999"

// check campo Check de Frappe: 0/1 en JSON.
type check bool

func (c *check) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "1", "true", `"1"`:
		*c = true
	case "0", "false", `"0"`, "null", `""`:
		*c = false
	default:
		return fmt.Errorf("valor Check inválido: %s", string(b))
	}
	return nil
}

func (c check) MarshalJSON() ([]byte, error) {
	if c {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// ── Documento ERPNext ─────────────────────────────────────────────────────────

type letraRow struct {
	Letra       string `json:"letra"`
	Descripcion string `json:"descripcion,omitempty"`
}

type ultimoRow struct {
	TipoDocumento    string `json:"tipo_documento"`
	Letra            string `json:"letra"`
	UltimoNumero     int64  `json:"ultimo_numero_utilizado"`
	MetodoNumeracion string `json:"metodo_numeracion,omitempty"`
}

type comprobanteRow struct {
	CodigoAFIP  string `json:"codigo_afip"`
	Descripcion string `json:"descripcion,omitempty"`
}

type talonarioDoc struct {
	Name               string           `json:"name,omitempty"`
	Compania           string           `json:"compania"`
	Tipo               string           `json:"tipo_de_talonario"`
	Descripcion        string           `json:"descripcion,omitempty"`
	PuntoVenta         string           `json:"punto_de_venta"`
	TipoNumeracion     string           `json:"tipo_numeracion,omitempty"`
	NumeroInicio       int64            `json:"numero_de_inicio"`
	NumeroFin          int64            `json:"numero_de_fin"`
	FacturaElectronica check            `json:"factura_electronica"`
	PorDefecto         check            `json:"por_defecto"`
	MetodoNumeracion   string           `json:"metodo_numeracion_factura_venta,omitempty"`
	Letras             []letraRow       `json:"letras"`
	LetrasJSON         string           `json:"letras_json,omitempty"`
	UltimosNumeros     []ultimoRow      `json:"ultimos_numeros"`
	Comprobantes       []comprobanteRow `json:"comprobantes"`
	Docstatus          int              `json:"docstatus"`
	Modified           string           `json:"modified,omitempty"`
}

func (d *talonarioDoc) toEntity() *entity.Talonario {
	t := &entity.Talonario{
		Name:               d.Name,
		Company:            d.Compania,
		Tipo:               d.Tipo,
		Descripcion:        d.Descripcion,
		PuntoVenta:         d.PuntoVenta,
		TipoNumeracion:     d.TipoNumeracion,
		NumeroInicio:       d.NumeroInicio,
		NumeroFin:          d.NumeroFin,
		FacturaElectronica: bool(d.FacturaElectronica),
		PorDefecto:         bool(d.PorDefecto),
		MetodoNumeracion:   d.MetodoNumeracion,
		Docstatus:          entity.Docstatus(d.Docstatus),
	}
	if pv, err := afip.PadPuntoVenta(d.PuntoVenta); err == nil {
		t.PuntoVenta = pv
	}
	for _, l := range d.Letras {
		t.Letras = append(t.Letras, entity.TalonarioLetra{Letra: l.Letra, Descripcion: l.Descripcion})
	}
	if len(t.Letras) == 0 && d.LetrasJSON != "" {
		t.Letras = lettersFromJSON(d.LetrasJSON)
	}
	if norm, err := afip.NormalizeLetters(t.Letras); err == nil {
		t.Letras = norm
	}
	for _, u := range d.UltimosNumeros {
		t.UltimosNumeros = append(t.UltimosNumeros, entity.UltimoNumero{
			TipoDocumento:    strings.ToUpper(u.TipoDocumento),
			Letra:            strings.ToUpper(u.Letra),
			UltimoNumero:     u.UltimoNumero,
			MetodoNumeracion: u.MetodoNumeracion,
		})
	}
	for _, c := range d.Comprobantes {
		t.Comprobantes = append(t.Comprobantes, entity.ComprobanteAutorizado{CodigoAFIP: c.CodigoAFIP, Descripcion: c.Descripcion})
	}
	if m, err := time.Parse(frappeTimeLayout, d.Modified); err == nil {
		t.Modified = m
	}
	return t
}

// lettersFromJSON acepta `["A","B"]` o `[{"letra":"A"}]`; lo que no se entiende se descarta.
func lettersFromJSON(raw string) []entity.TalonarioLetra {
	var codes []string
	if err := json.Unmarshal([]byte(raw), &codes); err == nil {
		out := make([]entity.TalonarioLetra, 0, len(codes))
		for _, c := range codes {
			out = append(out, entity.TalonarioLetra{Letra: c})
		}
		return out
	}
	var objs []entity.TalonarioLetra
	if err := json.Unmarshal([]byte(raw), &objs); err == nil {
		return objs
	}
	return nil
}

func letterRows(letras []entity.TalonarioLetra) []letraRow {
	rows := make([]letraRow, 0, len(letras))
	for _, l := range letras {
		rows = append(rows, letraRow{Letra: l.Letra, Descripcion: l.Descripcion})
	}
	return rows
}

func ultimoRows(in []entity.UltimoNumero) []ultimoRow {
	rows := make([]ultimoRow, 0, len(in))
	for _, u := range in {
		rows = append(rows, ultimoRow{
			TipoDocumento:    u.TipoDocumento,
			Letra:            u.Letra,
			UltimoNumero:     u.UltimoNumero,
			MetodoNumeracion: u.MetodoNumeracion,
		})
	}
	return rows
}

func fromEntity(t *entity.Talonario) talonarioDoc {
	d := talonarioDoc{
		Name:               t.Name,
		Compania:           t.Company,
		Tipo:               t.Tipo,
		Descripcion:        t.Descripcion,
		PuntoVenta:         t.PuntoVenta,
		TipoNumeracion:     t.TipoNumeracion,
		NumeroInicio:       t.NumeroInicio,
		NumeroFin:          t.NumeroFin,
		FacturaElectronica: check(t.FacturaElectronica),
		PorDefecto:         check(t.PorDefecto),
		MetodoNumeracion:   t.MetodoNumeracion,
		Letras:             letterRows(t.Letras),
		LetrasJSON:         afip.LettersJSON(t.Letras),
		UltimosNumeros:     ultimoRows(t.UltimosNumeros),
		Comprobantes:       make([]comprobanteRow, 0, len(t.Comprobantes)),
		Docstatus:          int(t.Docstatus),
	}
	for _, c := range t.Comprobantes {
		d.Comprobantes = append(d.Comprobantes, comprobanteRow{CodigoAFIP: c.CodigoAFIP, Descripcion: c.Descripcion})
	}
	return d
}

// ── Repositorio ───────────────────────────────────────────────────────────────

// TalonarioRepo implementación de TalonarioRepository sobre el doctype "Talonario".
type TalonarioRepo struct {
	c *Client
}

// NewTalonarioRepository construye el adaptador.
func NewTalonarioRepository(c *Client) *TalonarioRepo {
	return &TalonarioRepo{c: c}
}

func talonarioFilters(f entity.TalonarioFilter) [][]any {
	filters := [][]any{{"compania", "=", f.Company}}
	if f.Tipo != "" {
		filters = append(filters, []any{"tipo_de_talonario", "=", f.Tipo})
	} else {
		filters = append(filters, []any{"tipo_de_talonario", "in", afipcat.TalonarioTypes})
	}
	switch {
	case f.Docstatus != nil:
		filters = append(filters, []any{"docstatus", "=", int(*f.Docstatus)})
	case f.ActiveOnly:
		filters = append(filters, []any{"docstatus", "!=", int(entity.DocstatusCancelled)})
	}
	if f.PorDefecto != nil {
		filters = append(filters, []any{"por_defecto", "=", check(*f.PorDefecto)})
	}
	return filters
}

// List los listados de Frappe no traen tablas hijas: se lee cada talonario completo.
func (r *TalonarioRepo) List(ctx context.Context, f entity.TalonarioFilter) ([]*entity.Talonario, error) {
	var rows []struct {
		Name string `json:"name"`
	}
	if err := r.c.listDocs(ctx, entity.DoctypeTalonario, talonarioFilters(f), []string{"name"}, &rows); err != nil {
		return nil, fmt.Errorf("listar talonarios: %w", err)
	}
	out := make([]*entity.Talonario, 0, len(rows))
	for _, row := range rows {
		t, err := r.Get(ctx, row.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TalonarioRepo) Get(ctx context.Context, name string) (*entity.Talonario, error) {
	var doc talonarioDoc
	if err := r.c.getDoc(ctx, entity.DoctypeTalonario, name, &doc); err != nil {
		return nil, fmt.Errorf("talonario %s: %w", name, err)
	}
	return doc.toEntity(), nil
}

func (r *TalonarioRepo) Create(ctx context.Context, t *entity.Talonario) (*entity.Talonario, error) {
	var doc talonarioDoc
	if err := r.c.insertDoc(ctx, entity.DoctypeTalonario, fromEntity(t), &doc); err != nil {
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *TalonarioRepo) Update(ctx context.Context, name string, c entity.TalonarioChanges) (*entity.Talonario, error) {
	fields := changeFields(c)
	if len(fields) == 0 {
		return r.Get(ctx, name)
	}
	var doc talonarioDoc
	if err := r.c.updateDoc(ctx, entity.DoctypeTalonario, name, fields, &doc); err != nil {
		return nil, fmt.Errorf("actualizar talonario %s: %w", name, err)
	}
	return doc.toEntity(), nil
}

func (r *TalonarioRepo) SaveUltimosNumeros(ctx context.Context, name string, ultimos []entity.UltimoNumero) error {
	fields := map[string]any{"ultimos_numeros": ultimoRows(ultimos)}
	if err := r.c.updateDoc(ctx, entity.DoctypeTalonario, name, fields, nil); err != nil {
		return fmt.Errorf("ultimos_numeros de %s: %w", name, err)
	}
	return nil
}

// changeFields sólo los campos presentes; las letras viajan también como letras_json.
func changeFields(c entity.TalonarioChanges) map[string]any {
	fields := make(map[string]any)
	if c.Descripcion != nil {
		fields["descripcion"] = *c.Descripcion
	}
	if c.PuntoVenta != nil {
		fields["punto_de_venta"] = *c.PuntoVenta
	}
	if c.TipoNumeracion != nil {
		fields["tipo_numeracion"] = *c.TipoNumeracion
	}
	if c.NumeroInicio != nil {
		fields["numero_de_inicio"] = *c.NumeroInicio
	}
	if c.NumeroFin != nil {
		fields["numero_de_fin"] = *c.NumeroFin
	}
	if c.FacturaElectronica != nil {
		fields["factura_electronica"] = check(*c.FacturaElectronica)
	}
	if c.PorDefecto != nil {
		fields["por_defecto"] = check(*c.PorDefecto)
	}
	if c.MetodoNumeracion != nil {
		fields["metodo_numeracion_factura_venta"] = *c.MetodoNumeracion
	}
	if c.Letras != nil {
		fields["letras"] = letterRows(*c.Letras)
		fields["letras_json"] = afip.LettersJSON(*c.Letras)
	}
	return fields
}
