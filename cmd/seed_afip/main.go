// seed_afip actualiza la sección "comprobantes" de afip_codes.json a partir de la tabla
// de tipos de comprobante publicada por AFIP (CSV "código;descripción" en ISO-8859-1).
//
// Uso: go run ./cmd/seed_afip [ruta/TiposComprobante.csv] [ruta/afip_codes.json]
// Conserva "prefijos" y "siglas"; sólo agrega o reemplaza códigos reconocibles.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/talonarios-api/pkg/afip"
)

func main() {
	csvPath := "TiposComprobante.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	codesPath := filepath.Join(findModuleRoot(), "afip_codes.json")
	if len(os.Args) > 2 {
		codesPath = os.Args[2]
	}

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := readRows(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(codesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer %s: %v\n", codesPath, err)
		os.Exit(1)
	}
	codes, err := afip.ParseCodes(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Archivo actual inválido: %v\n", err)
		os.Exit(1)
	}

	var added, skipped int
	for _, r := range rows {
		info, ok := classify(r.descripcion)
		if !ok {
			skipped++
			continue
		}
		if _, exists := codes.Comprobantes[r.codigo]; !exists {
			added++
		}
		codes.Comprobantes[r.codigo] = info
	}

	out, err := json.MarshalIndent(codes, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Serializar: %v\n", err)
		os.Exit(1)
	}
	// Validar antes de escribir: el servicio no arranca con un archivo inválido.
	if _, err := afip.ParseCodes(out); err != nil {
		fmt.Fprintf(os.Stderr, "Resultado inválido: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(codesPath, append(out, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir %s: %v\n", codesPath, err)
		os.Exit(1)
	}

	fmt.Printf("Actualizado %s: %d códigos (%d nuevos, %d descartados)\n", codesPath, len(codes.Comprobantes), added, skipped)
}

type row struct{ codigo, descripcion string }

func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			continue
		}
		code := strings.TrimSpace(rec[0])
		if len(code) > 3 || code == "" || !isDigits(code) {
			continue // encabezado o línea vacía
		}
		out = append(out, row{codigo: strings.Repeat("0", 3-len(code)) + code, descripcion: strings.TrimSpace(rec[1])})
	}
}

// classify deduce (sigla, letra) de la descripción AFIP: "Nota de Crédito B" → NCC/B.
func classify(desc string) (afip.CodeInfo, bool) {
	fields := strings.Fields(desc)
	if len(fields) < 2 {
		return afip.CodeInfo{}, false
	}
	letra := strings.ToUpper(fields[len(fields)-1])
	if !afip.ValidLetters[letra] {
		return afip.CodeInfo{}, false
	}

	lower := strings.ToLower(desc)
	var tipo string
	switch {
	case strings.HasPrefix(lower, "factura"):
		tipo = afip.TipoFactura
	case strings.HasPrefix(lower, "nota de débito"), strings.HasPrefix(lower, "nota de debito"):
		tipo = afip.TipoNotaDebito
	case strings.HasPrefix(lower, "nota de crédito"), strings.HasPrefix(lower, "nota de credito"):
		tipo = afip.TipoNotaCredito
	case strings.HasPrefix(lower, "recibo"):
		tipo = afip.TipoRecibo
	case strings.HasPrefix(lower, "remito"):
		tipo = afip.TipoRemito
	default:
		return afip.CodeInfo{}, false
	}
	return afip.CodeInfo{Tipo: tipo, Letra: letra, Descripcion: desc}, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
