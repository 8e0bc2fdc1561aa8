package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/erpnext"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/talonarios-api/internal/infrastructure/pdf"
	"github.com/jhoicas/talonarios-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/talonarios-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/talonarios-api/internal/interfaces/http"
	"github.com/jhoicas/talonarios-api/pkg/afip"
	"github.com/jhoicas/talonarios-api/pkg/config"
	"github.com/jhoicas/talonarios-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("erpnext", cfg.ERPNext.URL).
		Str("sequence_store", cfg.Sequence.Store).
		Msg("iniciando aplicación")

	// Sin catálogo AFIP no hay numeración posible: se corta al inicio.
	codes, err := afip.LoadCodes(cfg.AFIP.CodesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.AFIP.CodesPath).Msg("cargar códigos AFIP")
	}

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()

	// ERPNext: sistema de registro de talonarios, comprobantes y clientes
	erp := erpnext.NewClient(cfg.ERPNext, log.Component("erpnext"))
	talonarioRepo := erpnext.NewTalonarioRepository(erp)
	voucherRepo := erpnext.NewVoucherRepository(erp)
	customerRepo := erpnext.NewCustomerRepository(erp)
	workflow := erpnext.NewWorkflow(erp)

	// Contadores de numeración
	var (
		counters repository.SequenceCounterRepository
		txRunner numeracion.SequenceTxRunner
	)
	switch cfg.Sequence.Store {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name, log.Component("postgres"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, log.Component("postgres")); err != nil {
			log.Fatal().Err(err).Msg("migraciones de numeración")
		}
		counters = postgres.NewSequenceCounterRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	default:
		store := memory.NewSequenceStore()
		counters, txRunner = store, store
		log.Warn().Msg("contadores en memoria: usar sólo con una réplica")
	}

	// Cachés del registro: Redis si está configurado, si no memoria del proceso
	caches := numeracion.NewMemoryCaches(cfg.Cache.TTL, time.Now)
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		caches = infraredis.NewCaches(rdb, cfg.App.Name, cfg.Cache.TTL, log.Component("redis"))
	}

	allocator := numeracion.NewAllocator(talonarioRepo, voucherRepo, counters, txRunner, codes, log.Component("allocator"))
	transitioner := numeracion.NewTransitioner(talonarioRepo, workflow, log.Component("transitioner"))
	registry := numeracion.NewRegistry(
		talonarioRepo, voucherRepo, customerRepo, workflow,
		allocator, transitioner, codes, caches, log.Component("registry"),
	)
	reports := numeracion.NewReportUseCase(registry, allocator, codes, infrapdf.NewMarotoPDFGenerator(), time.Now)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.ERPNext.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	if cfg.App.Env == "development" {
		app.Use(fiberlogger.New())
	}

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Talonarios API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Talonarios:    registry,
		Reports:       reports,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
		ServiceName:   cfg.App.Name,
		UpstreamState: func() string { return erp.BreakerState().String() },
		Log:           log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
