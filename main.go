package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/config"
	"recipeapi/internal/database"
	"recipeapi/internal/logging"
	"recipeapi/internal/metrics"
	"recipeapi/internal/repositories"
	"recipeapi/internal/server"
	"recipeapi/internal/services"
	"recipeapi/internal/storage"
	"recipeapi/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, os.Stdout)

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// newApp wires the database, the optional message broker, the services and
// the HTTP layer. cleanup releases the connections it opened.
func newApp(cfg *config.Config) (*fiber.App, func(), error) {
	// --- Database ---
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	closers := []func(){func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	files, err := storage.NewFileStorage(cfg.MediaRoot)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	// --- Initialize RabbitMQ Client ---
	// Events are optional; without RABBITMQ_URL recipes are served without them.
	var events services.EventPublisher
	broker := "disabled"
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		closers = append(closers, func() {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		})
		events = mqClient
		broker = "connected"

		// --- Start RabbitMQ Consumer ---
		if err := mqClient.ConsumeRecipeEvents(rabbitmq.LogRecipeEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	tagRepo := repositories.NewGORMTagRepository(db)
	ingredientRepo := repositories.NewGORMIngredientRepository(db)
	recipeRepo := repositories.NewGORMRecipeRepository(db)

	// --- Initialize Services ---
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)

	app := server.New(server.Deps{
		Users:          userService,
		Auth:           authService,
		Tags:           services.NewTagService(tagRepo),
		Ingredients:    services.NewIngredientService(ingredientRepo),
		Recipes:        services.NewRecipeService(recipeRepo, tagRepo, ingredientRepo, files, events),
		Metrics:        metrics.New(),
		MediaRoot:      files.Root(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		TokenRateLimit: cfg.TokenRateLimit,
		RequestLogging: true,
		Broker:         broker,
	})
	return app, cleanup, nil
}
