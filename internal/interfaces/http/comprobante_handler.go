package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
	domafip "github.com/jhoicas/talonarios-api/internal/domain/afip"
)

// ComprobanteHandler utilidades sobre nombres de comprobante.
type ComprobanteHandler struct {
	log zerolog.Logger
}

func NewComprobanteHandler(log zerolog.Logger) *ComprobanteHandler {
	return &ComprobanteHandler{log: log}
}

// Parse godoc
// @Summary      Descomponer un nombre de comprobante
// @Tags         comprobantes
// @Security     Bearer
// @Produce      json
// @Param        nombre  query  string  true  "PREFIJO-TIPO-LETRA-PPPPP-NNNNNNNN"
// @Success      200  {object}  dto.Envelope{data=dto.VoucherNameResponse}
// @Failure      400  {object}  dto.Envelope
// @Router       /api/comprobantes/parse [get]
func (h *ComprobanteHandler) Parse(c *fiber.Ctx) error {
	nombre := strings.TrimSpace(c.Query("nombre"))
	if nombre == "" {
		return badRequest(c, "INVALID_QUERY", "nombre es requerido")
	}
	v, err := domafip.Parse(nombre)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("comprobante", dto.VoucherNameResponse{
		Nombre:     v.String(),
		Prefijo:    v.Prefix,
		Tipo:       v.Tipo,
		Letra:      v.Letra,
		PuntoVenta: v.PuntoVenta,
		Numero:     v.Numero,
		Sufijo:     v.Sufijo,
	}))
}

// HealthHandler estado del servicio y del circuito hacia ERPNext.
type HealthHandler struct {
	service  string
	upstream func() string
}

func NewHealthHandler(service string, upstream func() string) *HealthHandler {
	return &HealthHandler{service: service, upstream: upstream}
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	data := fiber.Map{"service": h.service}
	if h.upstream != nil {
		data["erpnext"] = h.upstream()
	}
	return c.JSON(dto.OK("ok", data))
}
