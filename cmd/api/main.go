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

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	infrakafka "github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	infraxlsx "github.com/jhoicas/stock-ledger/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// swaggerFile generado con `swag init -g cmd/api/main.go`.
const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")
	zl := log.Zerolog()

	ctx := context.Background()

	// Persistencia: PostgreSQL o memoria (desarrollo).
	var (
		txRunner stock.TxRunner
		repos    stock.Repositories
		seq      repository.SequenceRepository
	)
	switch cfg.Ledger.Store {
	case "memory":
		store := memory.NewStore()
		txRunner, repos, seq = store, store.Repositories(), store
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
		repos = postgres.Repositories(pool)
		seq = postgres.NewSequenceRepository(pool)
	}

	// Bloqueo por ítem: Redis si está configurado (varias instancias), si no en proceso.
	var locker stock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewLocker(rdb, cfg.Redis.LockTTL(), log.Component("locker"))
		// La numeración queda en el almacenamiento salvo pedido explícito: un FLUSH de Redis la reiniciaría.
		if cfg.Ledger.Sequence == "redis" {
			seq = infraredis.NewSequencer(rdb)
			log.Warn().Msg("numeración de documentos en Redis")
		}
	}

	var publisher stock.EventPublisher = stock.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := infrakafka.NewPublisher(cfg.Kafka.Brokers)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publisher Kafka")
			}
		}()
		publisher = kp
	}

	engine := stock.NewEngine(txRunner, locker, publisher, log.Component("engine"))
	adjustmentUC := stock.NewAdjustmentUseCase(engine, repos, seq, zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:          stock.NewLedgerUseCase(repos, zl),
		Movements:       stock.NewMovementUseCase(engine, zl),
		Reports:         stock.NewReportUseCase(repos, infrapdf.NewValuationPDF(cfg.App.Name), infraxlsx.NewMovementXLSX(), cfg.Ledger.LowStockThreshold, zl),
		Adjustments:     adjustmentUC,
		Reconciliations: stock.NewReconciliationUseCase(adjustmentUC, repos, seq, zl),
		JWTSecret:       cfg.JWT.Secret,
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
