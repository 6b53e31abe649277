package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/application/sweeper"
	infrakafka "github.com/jhoicas/commerce-core/internal/infrastructure/kafka"
	"github.com/jhoicas/commerce-core/internal/infrastructure/memory"
	"github.com/jhoicas/commerce-core/internal/infrastructure/postgres"
	"github.com/jhoicas/commerce-core/internal/infrastructure/redisx"
	httpRouter "github.com/jhoicas/commerce-core/internal/interfaces/http"
	"github.com/jhoicas/commerce-core/pkg/config"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Lock distribuido del sweep. Sin Redis se degrada al lock de proceso.
	var locker ports.Locker
	if rdb, err := redisx.New(ctx, cfg.Redis.Addr); err != nil {
		log.Warn().Err(err).Msg("Redis no disponible, lock del sweep en proceso")
		locker = memory.NewLocker()
	} else {
		defer rdb.Close()
		locker = redisx.NewLocker(rdb)
	}

	// Eventos de auditoría. Sin brokers configurados el notifier es nop.
	var notifier ports.Notifier = ports.NopNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := infrakafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, 256, log)
		producer.Start(ctx)
		defer producer.WaitClosed()
		notifier = infrakafka.NewNotifier(producer, log)
	}

	clock := ports.SystemClock{}
	settings := cfg.Core

	movementRepo := postgres.NewStockMovementRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledger := stock.NewLedger(movementRepo, productRepo, settings, clock, log)
	engine := reservation.NewEngine(ledger, movementRepo, txRunner, settings, clock, notifier, log)
	orderUC := order.NewUseCase(txRunner, orderRepo, clock, notifier, log)
	cartUC := cart.NewUseCase(txRunner, cartRepo, productRepo, engine, settings, clock, log)
	sweep := sweeper.New(engine, cartRepo, movementRepo, locker, settings, clock, log)

	// Scheduler del sweep: una goroutine por proceso; el lock distribuido
	// garantiza una sola pasada lógica entre instancias.
	if settings.AutoSweep() {
		go runSweepLoop(ctx, sweep, settings, clock, log)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Engine:    engine,
		CartUC:    cartUC,
		OrderUC:   orderUC,
		Sweeper:   sweep,
		Products:  productRepo,
		Settings:  settings,
		Clock:     clock,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	// stop restaura el manejo por defecto: una segunda señal mata el proceso.
	stop()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// runSweepLoop ejecuta pasadas periódicas hasta que ctx se cancele.
// El intervalo se relee en cada vuelta: cambiarlo no requiere reinicio.
func runSweepLoop(ctx context.Context, sweep *sweeper.Sweeper, settings ports.Settings, clock ports.Clock, log *logger.Logger) {
	for {
		interval := settings.SweepInterval()
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if _, err := sweep.Sweep(ctx, clock.Now()); err != nil {
			log.Error().Err(err).Msg("pasada de sweep fallida")
		}
	}
}
