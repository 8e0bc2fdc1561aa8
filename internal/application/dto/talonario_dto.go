package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ── Letras ────────────────────────────────────────────────────────────────────

// LetraDTO letra habilitada en un talonario.
type LetraDTO struct {
	Letra       string `json:"letra"`
	Descripcion string `json:"descripcion,omitempty"`
}

// LetterList acepta letras como texto ("A") o como objeto ({"letra":"A","descripcion":"..."}),
// mezcladas en el mismo arreglo.
type LetterList []LetraDTO

func (l *LetterList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("letras: se esperaba un arreglo: %w", err)
	}
	out := make(LetterList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, LetraDTO{Letra: s})
			continue
		}
		var obj LetraDTO
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("letras: elemento inválido %s", string(item))
		}
		out = append(out, obj)
	}
	*l = out
	return nil
}

// ComprobanteDTO código AFIP autorizado en el talonario.
type ComprobanteDTO struct {
	CodigoAFIP  string `json:"codigo_afip" validate:"required,len=3,numeric"`
	Descripcion string `json:"descripcion,omitempty"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateTalonarioRequest alta de talonario. La compañía se toma del token.
type CreateTalonarioRequest struct {
	Name               string           `json:"name" validate:"required,max=140"`
	Tipo               string           `json:"tipo_de_talonario" validate:"required"`
	Descripcion        string           `json:"descripcion" validate:"max=140"`
	PuntoVenta         string           `json:"punto_de_venta" validate:"required,numeric,max=5"`
	TipoNumeracion     string           `json:"tipo_numeracion" validate:"omitempty,oneof=Automática Manual"`
	NumeroInicio       int64            `json:"numero_de_inicio" validate:"required,min=1,max=99999999"`
	NumeroFin          int64            `json:"numero_de_fin" validate:"required,gtefield=NumeroInicio,max=99999999"`
	FacturaElectronica bool             `json:"factura_electronica"`
	PorDefecto         bool             `json:"por_defecto"`
	MetodoNumeracion   string           `json:"metodo_numeracion_factura_venta"`
	Letras             LetterList       `json:"letras"`
	Comprobantes       []ComprobanteDTO `json:"comprobantes" validate:"dive"`
}

// UpdateTalonarioRequest actualización parcial. Acepta el objeto plano o envuelto en {"data": {...}}.
type UpdateTalonarioRequest struct {
	Descripcion        *string     `json:"descripcion" validate:"omitempty,max=140"`
	PuntoVenta         *string     `json:"punto_de_venta" validate:"omitempty,numeric,max=5"`
	TipoNumeracion     *string     `json:"tipo_numeracion" validate:"omitempty,oneof=Automática Manual"`
	NumeroInicio       *int64      `json:"numero_de_inicio" validate:"omitempty,min=1,max=99999999"`
	NumeroFin          *int64      `json:"numero_de_fin" validate:"omitempty,min=1,max=99999999"`
	FacturaElectronica *bool       `json:"factura_electronica"`
	PorDefecto         *bool       `json:"por_defecto"`
	MetodoNumeracion   *string     `json:"metodo_numeracion_factura_venta"`
	Letras             *LetterList `json:"letras"`
	Docstatus          *int        `json:"docstatus" validate:"omitempty,min=0,max=2"`
}

func (r *UpdateTalonarioRequest) UnmarshalJSON(b []byte) error {
	type plain UpdateTalonarioRequest
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if d := bytes.TrimSpace(probe.Data); len(d) > 0 && d[0] == '{' {
		b = d
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = UpdateTalonarioRequest(p)
	return nil
}

// ConfirmVoucherRequest confirmación de un comprobante borrador con número definitivo.
type ConfirmVoucherRequest struct {
	Comprobante string `json:"comprobante" validate:"required"` // nombre actual (borrador)
	Tipo        string `json:"tipo" validate:"required"`        // FAC, NCC, NDB, REC, REM...
	Letra       string `json:"letra" validate:"required,len=1"`
	Dominio     string `json:"dominio" validate:"omitempty,oneof=venta compra"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// UltimoNumeroDTO contador por (tipo, letra).
type UltimoNumeroDTO struct {
	TipoDocumento    string `json:"tipo_documento"`
	Letra            string `json:"letra"`
	UltimoNumero     int64  `json:"ultimo_numero_utilizado"`
	MetodoNumeracion string `json:"metodo_numeracion,omitempty"`
}

// TalonarioResponse detalle de talonario.
type TalonarioResponse struct {
	Name               string            `json:"name"`
	Company            string            `json:"compania"`
	Tipo               string            `json:"tipo_de_talonario"`
	Descripcion        string            `json:"descripcion,omitempty"`
	PuntoVenta         string            `json:"punto_de_venta"`
	TipoNumeracion     string            `json:"tipo_numeracion"`
	NumeroInicio       int64             `json:"numero_de_inicio"`
	NumeroFin          int64             `json:"numero_de_fin"`
	FacturaElectronica bool              `json:"factura_electronica"`
	PorDefecto         bool              `json:"por_defecto"`
	MetodoNumeracion   string            `json:"metodo_numeracion_factura_venta,omitempty"`
	Letras             []LetraDTO        `json:"letras"`
	UltimosNumeros     []UltimoNumeroDTO `json:"ultimos_numeros"`
	Comprobantes       []ComprobanteDTO  `json:"comprobantes"`
	Docstatus          int               `json:"docstatus"`
	Estado             string            `json:"estado"`
}

// NextNumberResponse sugerencia de próximo número (no reservado).
type NextNumberResponse struct {
	Talonario      string `json:"talonario"`
	Tipo           string `json:"tipo"`
	Letra          string `json:"letra"`
	Numero         int64  `json:"numero"`
	NombreSugerido string `json:"nombre_sugerido"`
}

// OptionResponse combinación (talonario, tipo, letra) válida para un cliente.
type OptionResponse struct {
	Talonario       string `json:"talonario"`
	TipoTalonario   string `json:"tipo_de_talonario"`
	TipoComprobante string `json:"tipo_comprobante"`
	CodigoAFIP      string `json:"codigo_afip"`
	Descripcion     string `json:"descripcion"`
	Letra           string `json:"letra"`
	PuntoVenta      string `json:"punto_de_venta"`
	NumeroSugerido  int64  `json:"numero_sugerido"`
	NombreSugerido  string `json:"nombre_sugerido"`
	NumeracionAuto  bool   `json:"numeracion_automatica"`
}

// ConfirmVoucherResponse resultado de confirmar un comprobante.
type ConfirmVoucherResponse struct {
	Talonario   string `json:"talonario"`
	Anterior    string `json:"nombre_anterior"`
	Comprobante string `json:"comprobante"`
	Numero      int64  `json:"numero"`
}

// VoucherNameResponse componentes de un nombre de comprobante.
type VoucherNameResponse struct {
	Nombre     string `json:"nombre"`
	Prefijo    string `json:"prefijo"`
	Tipo       string `json:"tipo"`
	Letra      string `json:"letra"`
	PuntoVenta string `json:"punto_de_venta"`
	Numero     int64  `json:"numero"`
	Sufijo     string `json:"sufijo,omitempty"`
}
