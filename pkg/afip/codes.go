package afip

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// CodeInfo describe un código de comprobante AFIP (3 dígitos).
type CodeInfo struct {
	Tipo        string `json:"tipo"`  // sigla interna: FAC, NCC, NDB, REC, REM...
	Letra       string `json:"letra"` // letra AFIP
	Descripcion string `json:"descripcion"`
}

// Codes es el contenido de afip_codes.json, compartido con el front-end.
type Codes struct {
	Comprobantes map[string]CodeInfo `json:"comprobantes"` // código AFIP -> categoría
	Prefijos     map[string]string   `json:"prefijos"`     // categoría -> prefijo (FE, VE, VM, PC)
	Siglas       map[string]string   `json:"siglas"`       // sigla -> descripción legible
}

// ErrInvalidCodes el archivo existe pero su contenido no sirve para numerar.
var ErrInvalidCodes = errors.New("afip: archivo de códigos inválido")

// LoadCodes lee y valida afip_codes.json. No hay valores por defecto: un archivo ausente
// o incompleto debe impedir el arranque.
func LoadCodes(path string) (*Codes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("afip: leer %s: %w", path, err)
	}
	return ParseCodes(raw)
}

// ParseCodes decodifica y valida el JSON de códigos.
func ParseCodes(raw []byte) (*Codes, error) {
	var c Codes
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCodes, err)
	}
	if len(c.Comprobantes) == 0 {
		return nil, fmt.Errorf("%w: sección comprobantes vacía", ErrInvalidCodes)
	}
	for code, info := range c.Comprobantes {
		if len(code) != 3 || !isDigits(code) {
			return nil, fmt.Errorf("%w: código %q no tiene 3 dígitos", ErrInvalidCodes, code)
		}
		if info.Tipo == "" || !ValidLetters[info.Letra] {
			return nil, fmt.Errorf("%w: código %s sin tipo o con letra %q", ErrInvalidCodes, code, info.Letra)
		}
	}
	for _, cat := range []string{CategoriaVentaElectronica, CategoriaVentaExportacion, CategoriaVentaManual, CategoriaCompra} {
		if c.Prefijos[cat] == "" {
			return nil, fmt.Errorf("%w: falta el prefijo %q", ErrInvalidCodes, cat)
		}
	}
	if len(c.Siglas) == 0 {
		return nil, fmt.Errorf("%w: sección siglas vacía", ErrInvalidCodes)
	}
	for sigla := range c.Siglas {
		if !c.hasTipo(sigla) {
			return nil, fmt.Errorf("%w: la sigla %s no tiene ningún código", ErrInvalidCodes, sigla)
		}
	}
	return &c, nil
}

// Prefix devuelve el prefijo configurado para la categoría.
func (c *Codes) Prefix(categoria string) string {
	return c.Prefijos[categoria]
}

// IsTipo indica si la sigla de documento está declarada.
func (c *Codes) IsTipo(tipo string) bool {
	_, ok := c.Siglas[tipo]
	return ok
}

// CodeFor busca el código AFIP de un (tipo, letra). Devuelve "" si no existe.
// Si hay más de uno (p. ej. recibos y facturas comparten letra) gana el menor.
// NDC es la sigla heredada de las notas de crédito y usa sus códigos.
func (c *Codes) CodeFor(tipo, letra string) string {
	if tipo == TipoNDC {
		tipo = TipoNotaCredito
	}
	var found []string
	for code, info := range c.Comprobantes {
		if info.Tipo == tipo && info.Letra == letra {
			found = append(found, code)
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Strings(found)
	return found[0]
}

func (c *Codes) hasTipo(tipo string) bool {
	if tipo == TipoNDC {
		tipo = TipoNotaCredito
	}
	for _, info := range c.Comprobantes {
		if info.Tipo == tipo {
			return true
		}
	}
	return false
}

// Lookup devuelve la categoría de un código AFIP.
func (c *Codes) Lookup(code string) (CodeInfo, bool) {
	info, ok := c.Comprobantes[code]
	return info, ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
