package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
	"github.com/jhoicas/talonarios-api/internal/domain"
)

// statusFor traduce un error de dominio a (status HTTP, código estable).
// El orden importa: LookupFailed envuelve el error del ERP que lo causó.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrFormat):
		return fiber.StatusBadRequest, "INVALID_FORMAT"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	// una consulta fallida puede envolver un 404 del ERP: sigue siendo 502
	case errors.Is(err, domain.ErrLookupFailed):
		return fiber.StatusBadGateway, "LOOKUP_FAILED"
	case errors.Is(err, domain.ErrTalonarioNotFound):
		return fiber.StatusNotFound, "TALONARIO_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrIllegalTransition):
		return fiber.StatusConflict, "ILLEGAL_TRANSITION"
	case errors.Is(err, domain.ErrRangeExhausted):
		return fiber.StatusConflict, "RANGE_EXHAUSTED"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return fiber.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return fiber.StatusUnprocessableEntity, "UPSTREAM_REJECTED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// respondError escribe el sobre de error. Los 5xx no exponen el detalle interno.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := statusFor(err)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(status).JSON(dto.Envelope{
			Success: false,
			Message: verr.Err.Error(),
			Code:    code,
			Data:    dto.ValidationErrorData{Details: verr.Details},
		})
	}

	msg := err.Error()
	switch {
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Str("code", code).Msg("error atendiendo la petición")
		msg = genericMessage(code)
	case status == fiber.StatusUnprocessableEntity:
		log.Warn().Err(err).Str("path", c.Path()).Msg("el ERP rechazó la operación")
	}
	return c.Status(status).JSON(dto.Fail(code, msg))
}

func genericMessage(code string) string {
	switch code {
	case "LOOKUP_FAILED":
		return domain.ErrLookupFailed.Error()
	case "UPSTREAM_UNAVAILABLE":
		return "el ERP no está disponible, intente más tarde"
	default:
		return "error interno"
	}
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(code, msg))
}
