package entity

import (
	"time"

	"github.com/jhoicas/talonarios-api/pkg/afip"
)

// Docstatus ciclo de vida de un documento ERPNext (y de un talonario).
type Docstatus int

const (
	DocstatusDraft     Docstatus = 0 // borrador
	DocstatusActive    Docstatus = 1 // confirmado / activo
	DocstatusCancelled Docstatus = 2 // anulado
)

// Valid indica si el valor es uno de los tres estados conocidos.
func (d Docstatus) Valid() bool {
	return d == DocstatusDraft || d == DocstatusActive || d == DocstatusCancelled
}

func (d Docstatus) String() string {
	switch d {
	case DocstatusDraft:
		return "borrador"
	case DocstatusActive:
		return "activo"
	case DocstatusCancelled:
		return "anulado"
	default:
		return "desconocido"
	}
}

// Talonario libro de numeración de comprobantes de una compañía.
// El sistema de registro es ERPNext (doctype "Talonario").
type Talonario struct {
	Name               string
	Company            string
	Tipo               string // tipo_de_talonario (allow-list en pkg/afip)
	Descripcion        string
	PuntoVenta         string // 5 dígitos, ej "00001"
	TipoNumeracion     string // Automática | Manual
	NumeroInicio       int64
	NumeroFin          int64
	FacturaElectronica bool
	PorDefecto         bool
	MetodoNumeracion   string // metodo_numeracion_factura_venta
	Letras             []TalonarioLetra
	UltimosNumeros     []UltimoNumero
	Comprobantes       []ComprobanteAutorizado
	Docstatus          Docstatus
	Modified           time.Time
}

// TalonarioLetra letra AFIP habilitada en el talonario.
type TalonarioLetra struct {
	Letra       string `json:"letra"`
	Descripcion string `json:"descripcion,omitempty"`
}

// UltimoNumero contador por (tipo de documento, letra). Monótono: nunca decrece.
type UltimoNumero struct {
	TipoDocumento    string
	Letra            string
	UltimoNumero     int64
	MetodoNumeracion string // nombre formateado del último comprobante emitido
}

// ComprobanteAutorizado código AFIP (3 dígitos) que el talonario puede emitir.
type ComprobanteAutorizado struct {
	CodigoAFIP  string
	Descripcion string
}

// HasLetter indica si la letra está habilitada.
func (t *Talonario) HasLetter(letra string) bool {
	for _, l := range t.Letras {
		if l.Letra == letra {
			return true
		}
	}
	return false
}

// LetterCodes devuelve las letras en el orden del talonario.
func (t *Talonario) LetterCodes() []string {
	out := make([]string, 0, len(t.Letras))
	for _, l := range t.Letras {
		out = append(out, l.Letra)
	}
	return out
}

// LastNumber devuelve el último número registrado para (tipo, letra); 0 si no hay.
func (t *Talonario) LastNumber(tipo, letra string) int64 {
	for _, u := range t.UltimosNumeros {
		if u.TipoDocumento == tipo && u.Letra == letra {
			return u.UltimoNumero
		}
	}
	return 0
}

// RecordNumber actualiza el contador de (tipo, letra) sin permitir retrocesos.
// Devuelve false si el número no supera al registrado.
func (t *Talonario) RecordNumber(tipo, letra string, numero int64, metodo string) bool {
	for i := range t.UltimosNumeros {
		u := &t.UltimosNumeros[i]
		if u.TipoDocumento == tipo && u.Letra == letra {
			if numero <= u.UltimoNumero {
				return false
			}
			u.UltimoNumero = numero
			u.MetodoNumeracion = metodo
			return true
		}
	}
	t.UltimosNumeros = append(t.UltimosNumeros, UltimoNumero{
		TipoDocumento:    tipo,
		Letra:            letra,
		UltimoNumero:     numero,
		MetodoNumeracion: metodo,
	})
	return true
}

// AuthorizesCode indica si el código AFIP está entre los autorizados.
// Un talonario sin comprobantes cargados no restringe.
func (t *Talonario) AuthorizesCode(codigo string) bool {
	if len(t.Comprobantes) == 0 {
		return true
	}
	for _, c := range t.Comprobantes {
		if c.CodigoAFIP == codigo {
			return true
		}
	}
	return false
}

// IsAutomatic numeración automática (la sugerencia de número se aplica sin intervención).
func (t *Talonario) IsAutomatic() bool {
	return t.TipoNumeracion != afip.NumeracionManual
}

// TalonarioChanges cambios parciales de un talonario; nil = sin cambios.
type TalonarioChanges struct {
	Descripcion        *string
	PuntoVenta         *string
	TipoNumeracion     *string
	NumeroInicio       *int64
	NumeroFin          *int64
	FacturaElectronica *bool
	PorDefecto         *bool
	MetodoNumeracion   *string
	Letras             *[]TalonarioLetra
}

// Empty indica que no hay ningún campo a modificar.
func (c TalonarioChanges) Empty() bool {
	return c.Descripcion == nil && c.PuntoVenta == nil && c.TipoNumeracion == nil &&
		c.NumeroInicio == nil && c.NumeroFin == nil && c.FacturaElectronica == nil &&
		c.PorDefecto == nil && c.MetodoNumeracion == nil && c.Letras == nil
}

// TalonarioFilter filtros del listado por compañía.
type TalonarioFilter struct {
	Company    string
	Tipo       string     // vacío = todos los tipos de la allow-list
	Docstatus  *Docstatus // nil = cualquiera
	ActiveOnly bool       // docstatus 0 o 1
	PorDefecto *bool
}
