// Package afip reglas de dominio de la numeración de comprobantes: nombre canónico,
// letras de talonario y transiciones de docstatus.
package afip

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/talonarios-api/internal/domain"
	afipcat "github.com/jhoicas/talonarios-api/pkg/afip"
)

// VoucherName componentes de PREFIX-TIPO-LETRA-PPPPP-NNNNNNNN.
type VoucherName struct {
	Prefix     string
	Tipo       string
	Letra      string
	PuntoVenta string // siempre 5 dígitos
	Numero     int64
	Sufijo     string // enmienda ERPNext ("-1", "-2"...), vacío si no hay
}

// String reconstruye el nombre canónico (incluye el sufijo de enmienda si existe).
func (v VoucherName) String() string {
	s := fmt.Sprintf("%s-%s-%s-%s-%0*d", v.Prefix, v.Tipo, v.Letra, v.PuntoVenta, afipcat.AnchoNumero, v.Numero)
	if v.Sufijo != "" {
		s += "-" + v.Sufijo
	}
	return s
}

// Build arma el nombre del comprobante con punto de venta a 5 dígitos y número a 8.
func Build(prefix, tipo, letra, puntoVenta string, numero int64) (string, error) {
	if prefix == "" || tipo == "" || letra == "" {
		return "", fmt.Errorf("%w: prefijo, tipo y letra son obligatorios", domain.ErrFormat)
	}
	pv, err := PadPuntoVenta(puntoVenta)
	if err != nil {
		return "", err
	}
	if numero < 0 || numero > afipcat.NumeroMaximo {
		return "", fmt.Errorf("%w: número %d fuera de rango", domain.ErrFormat, numero)
	}
	return VoucherName{Prefix: prefix, Tipo: tipo, Letra: letra, PuntoVenta: pv, Numero: numero}.String(), nil
}

// PadPuntoVenta valida el punto de venta (numérico, hasta 5 dígitos) y lo completa con ceros.
func PadPuntoVenta(pv string) (string, error) {
	pv = strings.TrimSpace(pv)
	if pv == "" || len(pv) > afipcat.AnchoPuntoVenta || !allDigits(pv) {
		return "", fmt.Errorf("%w: punto de venta %q inválido", domain.ErrFormat, pv)
	}
	return strings.Repeat("0", afipcat.AnchoPuntoVenta-len(pv)) + pv, nil
}

// Parse descompone un nombre canónico. Se separa en los primeros 4 guiones; el resto debe
// empezar con los 8 dígitos del número y puede llevar un sufijo de enmienda "-N".
func Parse(name string) (VoucherName, error) {
	parts := strings.SplitN(name, "-", 5)
	if len(parts) < 5 {
		return VoucherName{}, fmt.Errorf("%w: %q no tiene 5 segmentos", domain.ErrFormat, name)
	}
	v := VoucherName{Prefix: parts[0], Tipo: parts[1], Letra: parts[2], PuntoVenta: parts[3]}
	if v.Prefix == "" || v.Tipo == "" || v.Letra == "" {
		return VoucherName{}, fmt.Errorf("%w: %q tiene segmentos vacíos", domain.ErrFormat, name)
	}
	if len(v.PuntoVenta) != afipcat.AnchoPuntoVenta || !allDigits(v.PuntoVenta) {
		return VoucherName{}, fmt.Errorf("%w: punto de venta %q inválido en %q", domain.ErrFormat, v.PuntoVenta, name)
	}

	rest := parts[4]
	if len(rest) < afipcat.AnchoNumero || !allDigits(rest[:afipcat.AnchoNumero]) {
		return VoucherName{}, fmt.Errorf("%w: %q no termina en un número de 8 dígitos", domain.ErrFormat, name)
	}
	n, err := strconv.ParseInt(rest[:afipcat.AnchoNumero], 10, 64)
	if err != nil {
		return VoucherName{}, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	v.Numero = n

	if tail := rest[afipcat.AnchoNumero:]; tail != "" {
		if tail[0] != '-' || len(tail) == 1 || !allDigits(tail[1:]) {
			return VoucherName{}, fmt.Errorf("%w: sufijo %q inválido en %q", domain.ErrFormat, tail, name)
		}
		v.Sufijo = tail[1:]
	}
	return v, nil
}

// SearchPattern patrón LIKE para buscar los comprobantes de una serie.
func SearchPattern(prefix, tipo, letra, puntoVenta string) (string, error) {
	if prefix == "" || tipo == "" || letra == "" {
		return "", fmt.Errorf("%w: prefijo, tipo y letra son obligatorios", domain.ErrFormat)
	}
	pv, err := PadPuntoVenta(puntoVenta)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s-%s-%%", prefix, tipo, letra, pv), nil
}

// IsDraftName indica si el nombre pertenece a un borrador.
func IsDraftName(name string) bool {
	return strings.Contains(strings.ToUpper(name), afipcat.MarcadorBorrador)
}

// CategoryFor devuelve la categoría de prefijo (clave de "prefijos" en afip_codes.json).
// Exportación gana sobre electrónico; compras no distinguen.
func CategoryFor(dominio, tipoTalonario string, electronica bool) string {
	if dominio == afipcat.DominioCompra {
		return afipcat.CategoriaCompra
	}
	switch {
	case tipoTalonario == afipcat.TalonarioExportacion:
		return afipcat.CategoriaVentaExportacion
	case electronica:
		return afipcat.CategoriaVentaElectronica
	default:
		return afipcat.CategoriaVentaManual
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
