package http

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
)

// TalonarioService operaciones de talonarios que consume el handler.
// La implementa *numeracion.Registry.
type TalonarioService interface {
	Create(ctx context.Context, company string, in dto.CreateTalonarioRequest) (*dto.TalonarioResponse, error)
	Get(ctx context.Context, company, name string) (*dto.TalonarioResponse, error)
	List(ctx context.Context, company string, q numeracion.ListQuery) ([]dto.TalonarioResponse, error)
	Default(ctx context.Context, company string) (*dto.TalonarioResponse, error)
	Resguardos(ctx context.Context, company string) ([]dto.TalonarioResponse, error)
	NextNumber(ctx context.Context, company, name string, q numeracion.SeriesQuery) (*dto.NextNumberResponse, error)
	ResolveOptionsForCustomer(ctx context.Context, company string, q numeracion.OptionsQuery) ([]dto.OptionResponse, error)
	Update(ctx context.Context, company, name string, in dto.UpdateTalonarioRequest) (*dto.TalonarioResponse, error)
	ConfirmVoucher(ctx context.Context, company, name string, in dto.ConfirmVoucherRequest) (*dto.ConfirmVoucherResponse, error)
}

// ReportService genera la hoja PDF de un talonario. La implementa *numeracion.ReportUseCase.
type ReportService interface {
	TalonarioPDF(ctx context.Context, company, name string) ([]byte, string, error)
}

// TalonarioHandler maneja /api/talonarios (protegido).
type TalonarioHandler struct {
	svc     TalonarioService
	reports ReportService
	log     zerolog.Logger
}

// NewTalonarioHandler construye el handler.
func NewTalonarioHandler(svc TalonarioService, reports ReportService, log zerolog.Logger) *TalonarioHandler {
	return &TalonarioHandler{svc: svc, reports: reports, log: log}
}

// List godoc
// @Summary      Listar talonarios de la compañía
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Param        tipo       query  string  false  "Tipo de talonario"
// @Param        docstatus  query  int     false  "0 borrador, 1 activo, 2 anulado"
// @Param        activos    query  bool    false  "Sólo no anulados"
// @Success      200  {object}  dto.Envelope{data=[]dto.TalonarioResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      503  {object}  dto.Envelope
// @Router       /api/talonarios [get]
func (h *TalonarioHandler) List(c *fiber.Ctx) error {
	q := numeracion.ListQuery{
		Tipo:       strings.TrimSpace(c.Query("tipo")),
		ActiveOnly: c.QueryBool("activos", false),
	}
	if raw := c.Query("docstatus"); raw != "" {
		ds, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "INVALID_QUERY", "docstatus debe ser 0, 1 o 2")
		}
		q.Docstatus = &ds
	}
	out, err := h.svc.List(c.UserContext(), GetCompany(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("talonarios", out))
}

// Create godoc
// @Summary      Crear talonario
// @Tags         talonarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTalonarioRequest  true  "Datos del talonario"
// @Success      201   {object}  dto.Envelope{data=dto.TalonarioResponse}
// @Failure      400   {object}  dto.Envelope
// @Failure      422   {object}  dto.Envelope
// @Router       /api/talonarios [post]
func (h *TalonarioHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTalonarioRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido: "+err.Error())
	}
	out, err := h.svc.Create(c.UserContext(), GetCompany(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("talonario", out.Name).Str("usuario", GetUserID(c)).Msg("talonario creado")
	return c.Status(fiber.StatusCreated).JSON(dto.OK("talonario creado", out))
}

// Default godoc
// @Summary      Talonario por defecto de la compañía
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope{data=dto.TalonarioResponse}
// @Failure      404  {object}  dto.Envelope
// @Router       /api/talonarios/default [get]
func (h *TalonarioHandler) Default(c *fiber.Ctx) error {
	out, err := h.svc.Default(c.UserContext(), GetCompany(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("talonario por defecto", out))
}

// Resguardos godoc
// @Summary      Talonarios de resguardo activos
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope{data=[]dto.TalonarioResponse}
// @Router       /api/talonarios/resguardos [get]
func (h *TalonarioHandler) Resguardos(c *fiber.Ctx) error {
	out, err := h.svc.Resguardos(c.UserContext(), GetCompany(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("talonarios de resguardo", out))
}

// Options godoc
// @Summary      Combinaciones talonario/letra válidas para un cliente
// @Description  Cruza la condición IVA del receptor con las letras y códigos AFIP autorizados. El número sugerido no se reserva.
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Param        condicion_iva  query  string  false  "Condición IVA del receptor"
// @Param        cliente        query  string  false  "Cliente ERPNext (reemplaza condicion_iva)"
// @Param        es_empresa     query  bool    false  "El receptor es empresa"
// @Param        tipo           query  string  false  "Tipo de comprobante (FAC por defecto)"
// @Param        excluir        query  string  false  "Comprobante a ignorar"
// @Success      200  {object}  dto.Envelope{data=[]dto.OptionResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      502  {object}  dto.Envelope
// @Router       /api/talonarios/opciones [get]
func (h *TalonarioHandler) Options(c *fiber.Ctx) error {
	q := numeracion.OptionsQuery{
		Cliente:      strings.TrimSpace(c.Query("cliente")),
		CondicionIVA: strings.TrimSpace(c.Query("condicion_iva")),
		IsCompany:    c.QueryBool("es_empresa", false),
		Tipo:         c.Query("tipo"),
		Exclude:      c.Query("excluir"),
	}
	if q.Cliente == "" && q.CondicionIVA == "" {
		return badRequest(c, "INVALID_QUERY", "condicion_iva o cliente es requerido")
	}
	out, err := h.svc.ResolveOptionsForCustomer(c.UserContext(), GetCompany(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("opciones de talonario", out))
}

// Get godoc
// @Summary      Obtener talonario
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre del talonario"
// @Success      200  {object}  dto.Envelope{data=dto.TalonarioResponse}
// @Failure      403  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/talonarios/{name} [get]
func (h *TalonarioHandler) Get(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return badRequest(c, "MISSING_NAME", "nombre de talonario inválido")
	}
	out, err := h.svc.Get(c.UserContext(), GetCompany(c), name)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("talonario", out))
}

// Update godoc
// @Summary      Actualizar talonario
// @Description  Acepta el objeto plano o envuelto en {"data": {...}}. Si trae docstatus, la transición se aplica primero.
// @Tags         talonarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        name  path  string                          true  "Nombre del talonario"
// @Param        body  body  dto.UpdateTalonarioRequest  true  "Cambios"
// @Success      200  {object}  dto.Envelope{data=dto.TalonarioResponse}
// @Failure      400  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope
// @Router       /api/talonarios/{name} [put]
func (h *TalonarioHandler) Update(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return badRequest(c, "MISSING_NAME", "nombre de talonario inválido")
	}
	var in dto.UpdateTalonarioRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido: "+err.Error())
	}
	out, err := h.svc.Update(c.UserContext(), GetCompany(c), name, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("talonario", name).Str("usuario", GetUserID(c)).Int("docstatus", out.Docstatus).Msg("talonario actualizado")
	return c.JSON(dto.OK("talonario actualizado", out))
}

// NextNumber godoc
// @Summary      Próximo número de una serie (vista previa)
// @Tags         talonarios
// @Security     Bearer
// @Produce      json
// @Param        name     path   string  true   "Nombre del talonario"
// @Param        tipo     query  string  true   "FAC, NCC, NDB, NDC, REC, REM"
// @Param        letra    query  string  true   "Letra"
// @Param        excluir  query  string  false  "Comprobante a ignorar"
// @Param        dominio  query  string  false  "venta (por defecto) o compra"
// @Success      200  {object}  dto.Envelope{data=dto.NextNumberResponse}
// @Failure      409  {object}  dto.Envelope
// @Failure      502  {object}  dto.Envelope
// @Router       /api/talonarios/{name}/siguiente-numero [get]
func (h *TalonarioHandler) NextNumber(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return badRequest(c, "MISSING_NAME", "nombre de talonario inválido")
	}
	q := numeracion.SeriesQuery{
		Tipo:    c.Query("tipo"),
		Letra:   c.Query("letra"),
		Dominio: c.Query("dominio"),
		Exclude: c.Query("excluir"),
	}
	if strings.TrimSpace(q.Tipo) == "" || strings.TrimSpace(q.Letra) == "" {
		return badRequest(c, "INVALID_QUERY", "tipo y letra son requeridos")
	}
	out, err := h.svc.NextNumber(c.UserContext(), GetCompany(c), name, q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK("próximo número", out))
}

// Confirm godoc
// @Summary      Confirmar comprobante con número definitivo
// @Description  Asigna el número, renombra el borrador y lo confirma en ERPNext. Un talonario en borrador se activa.
// @Tags         talonarios
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        name  path  string                     true  "Nombre del talonario"
// @Param        body  body  dto.ConfirmVoucherRequest  true  "Comprobante a confirmar"
// @Success      200  {object}  dto.Envelope{data=dto.ConfirmVoucherResponse}
// @Failure      409  {object}  dto.Envelope
// @Router       /api/talonarios/{name}/confirmar [post]
func (h *TalonarioHandler) Confirm(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return badRequest(c, "MISSING_NAME", "nombre de talonario inválido")
	}
	var in dto.ConfirmVoucherRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido: "+err.Error())
	}
	out, err := h.svc.ConfirmVoucher(c.UserContext(), GetCompany(c), name, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().
		Str("talonario", name).
		Str("comprobante", out.Comprobante).
		Str("usuario", GetUserID(c)).
		Msg("comprobante confirmado")
	return c.JSON(dto.OK("comprobante confirmado", out))
}

// PDF godoc
// @Summary      Hoja PDF del talonario
// @Tags         talonarios
// @Security     Bearer
// @Produce      application/pdf
// @Param        name  path  string  true  "Nombre del talonario"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.Envelope
// @Router       /api/talonarios/{name}/pdf [get]
func (h *TalonarioHandler) PDF(c *fiber.Ctx) error {
	name, ok := nameParam(c)
	if !ok {
		return badRequest(c, "MISSING_NAME", "nombre de talonario inválido")
	}
	pdf, filename, err := h.reports.TalonarioPDF(c.UserContext(), GetCompany(c), name)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// nameParam nombre del talonario decodificado (ERPNext admite espacios y barras).
func nameParam(c *fiber.Ctx) (string, bool) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}
