package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/MINHYEOKJEON99/mat-we/internal/config"
	"github.com/MINHYEOKJEON99/mat-we/internal/database"
	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/realtime/bus"
	"github.com/MINHYEOKJEON99/mat-we/internal/routes"
	"github.com/MINHYEOKJEON99/mat-we/internal/services"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		appLog.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl, appLog); err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	defer database.CloseDB()

	// 3. Realtime, storage and mail
	var messageBus bus.Bus
	if cfg.RedisAddr != "" {
		messageBus, err = bus.NewRedisBus(appLog, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			appLog.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
	} else {
		appLog.Warn("REDIS_ADDR not set, chat events stay in this process")
		messageBus = bus.NewMemoryBus()
	}
	defer messageBus.Close()

	var storage services.StorageService
	if s, err := services.NewStorageService(ctx, cfg); err != nil {
		appLog.Warn("avatar storage disabled", "driver", cfg.StorageDriver, "error", err)
	} else {
		storage = s
	}

	var mailer services.Mailer
	if cfg.SESSender != "" {
		sesMailer, err := services.NewSESMailer(ctx, cfg.SESRegion, cfg.SESSender)
		if err != nil {
			appLog.Fatal("failed to configure ses", "error", err)
		}
		mailer = sesMailer
	} else {
		appLog.Warn("SES_SENDER not set, confirmation links are only logged")
		mailer = services.NewLogMailer(appLog)
	}

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{
		BodyLimit: 8 * 1024 * 1024,
	})

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	infra := routes.Infra{
		Bus:     messageBus,
		Storage: storage,
		Mailer:  mailer,
		Log:     appLog,
	}
	if err := routes.RegisterRoutes(ctx, app, cfg, database.DB, infra); err != nil {
		appLog.Fatal("failed to register routes", "error", err)
	}

	go func() {
		<-ctx.Done()
		appLog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			appLog.Error("shutdown failed", "error", err)
		}
	}()

	// 5. Start Server
	appLog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("server failed to start", "error", err)
	}
}
