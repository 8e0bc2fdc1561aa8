package numeracion

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
	"github.com/jhoicas/talonarios-api/internal/domain"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// newValidator validator con los nombres de campo tomados del tag json.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct traduce los errores de validator a domain.ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describeFieldError(fe))
	}
	return domain.NewValidationError(details...)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s es obligatorio", fe.Field())
	case "numeric":
		return fmt.Sprintf("%s debe ser numérico", fe.Field())
	case "max":
		return fmt.Sprintf("%s supera el máximo (%s)", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s es menor al mínimo (%s)", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s debe tener largo %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", fe.Field(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s debe ser mayor o igual a %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s no cumple %s", fe.Field(), fe.Tag())
	}
}

func toEntityLetters(in []dto.LetraDTO) []entity.TalonarioLetra {
	out := make([]entity.TalonarioLetra, 0, len(in))
	for _, l := range in {
		out = append(out, entity.TalonarioLetra{Letra: l.Letra, Descripcion: l.Descripcion})
	}
	return out
}

func toTalonarioResponse(t *entity.Talonario) *dto.TalonarioResponse {
	resp := &dto.TalonarioResponse{
		Name:               t.Name,
		Company:            t.Company,
		Tipo:               t.Tipo,
		Descripcion:        t.Descripcion,
		PuntoVenta:         t.PuntoVenta,
		TipoNumeracion:     t.TipoNumeracion,
		NumeroInicio:       t.NumeroInicio,
		NumeroFin:          t.NumeroFin,
		FacturaElectronica: t.FacturaElectronica,
		PorDefecto:         t.PorDefecto,
		MetodoNumeracion:   t.MetodoNumeracion,
		Letras:             make([]dto.LetraDTO, 0, len(t.Letras)),
		UltimosNumeros:     make([]dto.UltimoNumeroDTO, 0, len(t.UltimosNumeros)),
		Comprobantes:       make([]dto.ComprobanteDTO, 0, len(t.Comprobantes)),
		Docstatus:          int(t.Docstatus),
		Estado:             t.Docstatus.String(),
	}
	for _, l := range t.Letras {
		resp.Letras = append(resp.Letras, dto.LetraDTO{Letra: l.Letra, Descripcion: l.Descripcion})
	}
	for _, u := range t.UltimosNumeros {
		resp.UltimosNumeros = append(resp.UltimosNumeros, dto.UltimoNumeroDTO{
			TipoDocumento:    u.TipoDocumento,
			Letra:            u.Letra,
			UltimoNumero:     u.UltimoNumero,
			MetodoNumeracion: u.MetodoNumeracion,
		})
	}
	for _, c := range t.Comprobantes {
		resp.Comprobantes = append(resp.Comprobantes, dto.ComprobanteDTO{CodigoAFIP: c.CodigoAFIP, Descripcion: c.Descripcion})
	}
	return resp
}

func toTalonarioList(list []*entity.Talonario) []dto.TalonarioResponse {
	out := make([]dto.TalonarioResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *toTalonarioResponse(t))
	}
	return out
}
