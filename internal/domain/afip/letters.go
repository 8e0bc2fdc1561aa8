package afip

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	afipcat "github.com/jhoicas/talonarios-api/pkg/afip"
)

// NormalizeLetters recorta, pasa a mayúsculas y deduplica conservando la primera aparición
// (y su descripción). Entradas vacías se descartan; letras fuera del set AFIP son error.
func NormalizeLetters(in []entity.TalonarioLetra) ([]entity.TalonarioLetra, error) {
	out := make([]entity.TalonarioLetra, 0, len(in))
	seen := make(map[string]bool, len(in))
	var invalid []string
	for _, l := range in {
		letra := strings.ToUpper(strings.TrimSpace(l.Letra))
		if letra == "" {
			continue
		}
		if !afipcat.ValidLetters[letra] {
			invalid = append(invalid, fmt.Sprintf("letra %q no es una letra AFIP", letra))
			continue
		}
		if seen[letra] {
			continue
		}
		seen[letra] = true
		out = append(out, entity.TalonarioLetra{Letra: letra, Descripcion: strings.TrimSpace(l.Descripcion)})
	}
	if len(invalid) > 0 {
		return nil, domain.NewValidationError(invalid...)
	}
	return out, nil
}

// LettersJSON arreglo JSON compacto de letras (campo letras_json), ej `["A","B"]`.
func LettersJSON(letras []entity.TalonarioLetra) string {
	codes := make([]string, 0, len(letras))
	for _, l := range letras {
		codes = append(codes, l.Letra)
	}
	b, _ := json.Marshal(codes)
	return string(b)
}

// CheckResguardo un talonario de resguardo lleva exactamente una letra.
func CheckResguardo(tipoTalonario string, letras []entity.TalonarioLetra) error {
	if tipoTalonario != afipcat.TalonarioResguardo {
		return nil
	}
	if len(letras) != 1 {
		return domain.NewValidationError(fmt.Sprintf("un talonario de resguardo debe tener exactamente una letra (tiene %d)", len(letras)))
	}
	return nil
}
