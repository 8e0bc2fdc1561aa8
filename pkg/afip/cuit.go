package afip

import (
	"fmt"
	"unicode"
)

// pesos del dígito verificador de CUIT/CUIL (módulo 11), aplicados a los 10 primeros dígitos.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateCUIT valida el dígito verificador de un CUIT.
// Acepta "20-12345678-6", "20.12345678.6" o "20123456786".
func ValidateCUIT(cuit string) error {
	digits := extractDigits(cuit)
	if len(digits) != 11 {
		return fmt.Errorf("afip: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeCUITVerificationDigit(string(digits[:10]))
	if err != nil {
		return err
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador del CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ComputeCUITVerificationDigit calcula el dígito verificador para los 10 primeros dígitos.
// Un resto que daría 10 no tiene dígito válido: AFIP no asigna esos CUIT.
func ComputeCUITVerificationDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) < 10 {
		return 0, fmt.Errorf("afip: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:10] {
		sum += int(d-'0') * cuitWeights[i]
	}
	v := 11 - sum%11
	switch v {
	case 11:
		return '0', nil
	case 10:
		return 0, fmt.Errorf("afip: el prefijo %s no admite dígito verificador", string(digits[:10]))
	default:
		return byte('0' + v), nil
	}
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return out
}
