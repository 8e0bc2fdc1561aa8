// Package afip contiene catálogos y reglas de numeración de comprobantes
// definidos por la AFIP (Argentina) y usados por los talonarios.
package afip

// =============================================================================
// Letras de comprobante (RG AFIP 1415 y complementarias)
// =============================================================================

const (
	LetraA = "A"
	LetraB = "B"
	LetraC = "C"
	LetraE = "E" // exportación
	LetraM = "M"
	LetraX = "X" // documentos no válidos como factura
	LetraT = "T" // turismo
	LetraR = "R" // remitos
)

// ValidLetters letras admitidas en un talonario.
var ValidLetters = map[string]bool{
	LetraA: true, LetraB: true, LetraC: true, LetraE: true,
	LetraM: true, LetraX: true, LetraT: true, LetraR: true,
}

// =============================================================================
// Siglas de tipo de documento usadas en el nombre del comprobante
// =============================================================================

const (
	TipoFactura     = "FAC"
	TipoNotaCredito = "NCC"
	TipoNotaDebito  = "NDB"
	TipoNDC         = "NDC" // sigla heredada de notas de crédito
	TipoRecibo      = "REC"
	TipoRemito      = "REM"
)

// =============================================================================
// Prefijos de categoría del comprobante
// =============================================================================

const (
	PrefijoVentaElectronica = "FE"
	PrefijoVentaExportacion = "VE"
	PrefijoVentaManual      = "VM"
	PrefijoCompra           = "PC"
)

// Claves de la sección "prefijos" de afip_codes.json.
const (
	CategoriaVentaElectronica = "venta_electronica"
	CategoriaVentaExportacion = "venta_exportacion"
	CategoriaVentaManual      = "venta_manual"
	CategoriaCompra           = "compra"
)

// Dominio del comprobante: emitido (venta) o recibido (compra).
const (
	DominioVenta  = "venta"
	DominioCompra = "compra"
)

// =============================================================================
// Tipos de talonario (valores del select "tipo_de_talonario" en ERPNext)
// =============================================================================

const (
	TalonarioFacturaElectronica  = "FACTURA ELECTRONICA"
	TalonarioExportacion         = "COMPROBANTES DE EXPORTACION ELECTRONICOS"
	TalonarioResguardo           = "TALONARIOS DE RESGUARDO"
	TalonarioRecibos             = "RECIBOS"
	TalonarioRemitos             = "REMITOS"
	TalonarioRemitosElectronicos = "REMITOS ELECTRONICOS"
)

// TalonarioTypes allow-list de tipos reconocidos; cualquier otro se ignora en los listados.
var TalonarioTypes = []string{
	TalonarioFacturaElectronica,
	TalonarioExportacion,
	TalonarioResguardo,
	TalonarioRecibos,
	TalonarioRemitos,
	TalonarioRemitosElectronicos,
}

// IsTalonarioType indica si t está en la allow-list.
func IsTalonarioType(t string) bool {
	for _, known := range TalonarioTypes {
		if known == t {
			return true
		}
	}
	return false
}

// =============================================================================
// Tipo de numeración
// =============================================================================

const (
	NumeracionAutomatica = "Automática"
	NumeracionManual     = "Manual"
)

// MarcadorBorrador aparece en el nombre de los comprobantes todavía no confirmados.
const MarcadorBorrador = "BORR"

// Anchos fijos del nombre canónico del comprobante.
const (
	AnchoPuntoVenta = 5
	AnchoNumero     = 8
	NumeroMaximo    = 99999999
)
