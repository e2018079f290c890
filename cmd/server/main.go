package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/auth"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/config"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/database"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/handlers"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/logger"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/rabbitmq"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/routes"
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.Init(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	// Apply schema migrations before opening the pool
	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Connect to RabbitMQ
	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, log)
	if err := rmq.Connect(); err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	svc := service.NewService(cfg, db, rmq, log)

	// Start the ingestion worker so queued webhook tasks drain even
	// when no ping is currently arriving.
	if err := svc.Worker.Start(); err != nil {
		log.Fatal("Failed to start ingestion worker", zap.Error(err))
	}
	defer func() {
		if err := svc.Worker.Stop(); err != nil {
			log.Error("Error stopping ingestion worker", zap.Error(err))
		}
	}()

	oauthCfg := auth.NewOAuthConfig(&cfg.Airtable)
	h := &routes.Handlers{
		Health:    handlers.NewHealthHandler(db, rmq),
		Webhooks:  handlers.NewWebhookHandler(svc.Registrations, svc.Dispatcher, cfg.Airtable.WebhookPublicURL, log),
		Auth:      handlers.NewAuthHandler(oauthCfg, cfg.Auth.JWTSecret, svc.Users, svc.Airtable, log),
		Airtable:  handlers.NewAirtableHandler(svc.Airtable, svc.Registrations, &cfg.Airtable, log),
		Forms:     handlers.NewFormsHandler(svc.Forms, log),
		Responses: handlers.NewResponsesHandler(svc.Forms, svc.Responses, svc.Airtable, log),
	}
	authMiddleware := auth.Middleware(cfg.Auth.JWTSecret, svc.Users, log)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Airtable Form Sync",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	routes.SetupRoutes(app, h, authMiddleware)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		log.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
