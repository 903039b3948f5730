package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/application/billing"
	"github.com/jhoicas/Comercio-api/internal/application/stock"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/internal/infrastructure/memory"
	"github.com/jhoicas/Comercio-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Comercio-api/internal/interfaces/http"
	"github.com/jhoicas/Comercio-api/pkg/config"
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner    atomic.TxRunner
		stockRepo   repository.StockRepository
		movRepo     repository.StockMovementRepository
		invoiceRepo repository.InvoiceRepository
		auditRepo   repository.AuditLogRepository
		isRetryable func(error) bool
	)

	// Sin DATABASE_URL en desarrollo se usa el almacén en memoria: arranque
	// sin dependencias para demos y pruebas manuales. Nada persiste al reiniciar.
	if cfg.DB.DatabaseURL == "" && cfg.App.Env == "development" {
		log.Warn().Msg("DATABASE_URL no definido: usando almacén en memoria (solo desarrollo)")
		store := memory.NewStore()
		txRunner = store
		stockRepo = store
		movRepo = store.MovementRepo()
		invoiceRepo = store.InvoiceRepo()
		auditRepo = store.AuditRepo()
		isRetryable = func(error) bool { return false }
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		txRunner = postgres.NewTxRunner(pool)
		stockRepo = postgres.NewStockRepository(pool)
		movRepo = postgres.NewStockMovementRepository(pool)
		invoiceRepo = postgres.NewInvoiceRepository(pool)
		auditRepo = postgres.NewAuditLogRepository(pool)
		isRetryable = postgres.IsRetryable
	}

	coordinator := atomic.NewCoordinator(
		txRunner, auditRepo, isRetryable, log,
		cfg.Tx.MaxAttempts,
		time.Duration(cfg.Tx.RetryBaseMS)*time.Millisecond,
	)

	stockUC := stock.NewUseCase(coordinator, stockRepo, movRepo, stock.Policy{
		AllowNegative: cfg.Stock.AllowNegative,
		CreateMissing: cfg.Stock.CreateMissing,
	}, log)
	createInvoiceUC := billing.NewCreateInvoiceUseCase(coordinator, stockUC, invoiceRepo, log)
	lifecycleUC := billing.NewLifecycleUseCase(coordinator, stockUC, invoiceRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Comercio API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:       stockUC,
		CreateInvoice: createInvoiceUC,
		Lifecycle:     lifecycleUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("apagando servidor")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("apagado del servidor HTTP")
	}
}
