package afip

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Condiciones frente al IVA reconocidas (forma canónica, sin acentos y en minúsculas).
const (
	CondicionResponsableInscripto = "responsable inscripto"
	CondicionMonotributista       = "monotributista"
	CondicionExento               = "exento"
	CondicionConsumidorFinal      = "consumidor final"
)

// letrasPorCondicion letras que el emisor puede usar según la condición del receptor.
var letrasPorCondicion = map[string][]string{
	CondicionResponsableInscripto: {LetraA, LetraM, LetraE},
	CondicionMonotributista:       {LetraA, LetraB},
	CondicionExento:               {LetraB},
	CondicionConsumidorFinal:      {LetraB},
}

// alias que aparecen en ERPNext y en datos importados.
var aliasCondicion = map[string]string{
	"iva responsable inscripto": CondicionResponsableInscripto,
	"ri":                        CondicionResponsableInscripto,
	"responsable monotributo":   CondicionMonotributista,
	"monotributo":               CondicionMonotributista,
	"iva exento":                CondicionExento,
	"iva sujeto exento":         CondicionExento,
	"cf":                        CondicionConsumidorFinal,
}

// NormalizeCondicion pliega acentos, mayúsculas y espacios de una condición IVA.
// "Responsable  Inscripto", "RESPONSABLE INSCRIPTO" y "responsable inscripto" son equivalentes.
func NormalizeCondicion(condicion string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, condicion)
	if err != nil {
		folded = condicion
	}
	folded = strings.Join(strings.Fields(strings.ToLower(folded)), " ")
	if canon, ok := aliasCondicion[folded]; ok {
		return canon
	}
	return folded
}

// LetrasHabilitadas devuelve las letras admitidas para un receptor con la condición dada.
// Condición desconocida o vacía: sólo B.
func LetrasHabilitadas(condicion string) []string {
	letras, ok := letrasPorCondicion[NormalizeCondicion(condicion)]
	if !ok {
		return []string{LetraB}
	}
	out := make([]string, len(letras))
	copy(out, letras)
	return out
}

// RequiereCUIT indica si la condición exige identificar al receptor con CUIT válido.
func RequiereCUIT(condicion string) bool {
	return NormalizeCondicion(condicion) == CondicionResponsableInscripto
}
