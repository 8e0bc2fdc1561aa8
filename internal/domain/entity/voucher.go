package entity

// VoucherDoctype doctype ERPNext donde vive un comprobante.
type VoucherDoctype string

const (
	DoctypeSalesInvoice    VoucherDoctype = "Sales Invoice"
	DoctypePurchaseInvoice VoucherDoctype = "Purchase Invoice"
	DoctypeDeliveryNote    VoucherDoctype = "Delivery Note"
)

// IssuedNumber número asignado de forma definitiva a un comprobante confirmado.
type IssuedNumber struct {
	ID          string
	Talonario   string
	Tipo        string
	Letra       string
	Numero      int64
	Comprobante string // nombre final del comprobante
}

// SequenceKey identifica un contador de numeración.
type SequenceKey struct {
	Talonario string
	Tipo      string
	Letra     string
}

// DoctypeTalonario doctype ERPNext de los talonarios.
const DoctypeTalonario = "Talonario"
