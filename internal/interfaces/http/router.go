package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Talonarios    TalonarioService
	Reports       ReportService
	JWTSecret     string
	JWTIssuer     string
	ServiceName   string
	UpstreamState func() string // estado del circuito hacia ERPNext (opcional)
	Log           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := NewHealthHandler(deps.ServiceName, deps.UpstreamState)
	app.Get("/health", health.Health)

	// Rutas protegidas (requieren Bearer Token; la compañía sale del token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	editores := RequireRole(jwt.RoleAdmin, jwt.RoleContador)
	emisores := RequireRole(jwt.RoleAdmin, jwt.RoleContador, jwt.RoleVendedor)

	// Talonarios: las rutas fijas van antes de /:name
	talonarios := api.Group("/talonarios")
	th := NewTalonarioHandler(deps.Talonarios, deps.Reports, deps.Log)
	talonarios.Get("/", th.List)
	talonarios.Post("/", editores, th.Create)
	talonarios.Get("/default", th.Default)
	talonarios.Get("/resguardos", th.Resguardos)
	talonarios.Get("/opciones", th.Options)
	talonarios.Get("/:name", th.Get)
	talonarios.Put("/:name", editores, th.Update)
	talonarios.Get("/:name/siguiente-numero", th.NextNumber)
	talonarios.Post("/:name/confirmar", emisores, th.Confirm)
	talonarios.Get("/:name/pdf", th.PDF)

	comprobantes := api.Group("/comprobantes")
	ch := NewComprobanteHandler(deps.Log)
	comprobantes.Get("/parse", ch.Parse)
}
