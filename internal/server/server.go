// Package server assembles the Fiber application: middleware, route groups
// and the operational endpoints.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/handlers"
	"recipeapi/internal/metrics"
	"recipeapi/internal/middleware"
	"recipeapi/internal/services"
)

// MediaURL is the URL prefix uploaded files are served under.
const MediaURL = "/media"

// Deps holds everything the HTTP layer is built from.
type Deps struct {
	Users       *services.UserService
	Auth        *services.AuthService
	Tags        *services.TagService
	Ingredients *services.IngredientService
	Recipes     *services.RecipeService
	Metrics     *metrics.Metrics

	MediaRoot      string
	MaxUploadBytes int
	TokenRateLimit int
	// RequestLogging enables the per-request access log.
	RequestLogging bool
	// Broker reports the message broker state on /health.
	Broker string
}

// New builds the Fiber app with all routes registered.
func New(d Deps) *fiber.App {
	bodyLimit := 4 * 1024 * 1024
	if d.MaxUploadBytes+(1<<20) > bodyLimit {
		bodyLimit = d.MaxUploadBytes + (1 << 20)
	}

	app := fiber.New(fiber.Config{
		AppName:      "recipe-api",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if d.RequestLogging {
		app.Use(logger.New())
	}
	app.Use(middleware.CORS())
	if d.Metrics != nil {
		app.Use(middleware.Metrics(d.Metrics))
	}

	// --- Operational endpoints ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"broker": d.Broker,
		})
	})
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}
	if d.MediaRoot != "" {
		app.Static(MediaURL, d.MediaRoot)
	}

	// --- API Routes ---
	api := app.Group("/api")
	auth := middleware.AuthRequired(d.Auth)

	rateLimit := d.TokenRateLimit
	if rateLimit <= 0 {
		rateLimit = 20
	}
	userHandler := handlers.NewUserHandler(d.Users, d.Auth, d.Metrics)
	users := api.Group("/user")
	userHandler.RegisterRoutes(users, middleware.RateLimitToken(rateLimit))
	userHandler.RegisterMeRoutes(users.Group("/me", auth))

	contents := api.Group("/contents", auth)
	handlers.NewTagHandler(d.Tags).RegisterRoutes(contents)
	handlers.NewIngredientHandler(d.Ingredients).RegisterRoutes(contents)

	recipes := api.Group("/recipes", auth)
	handlers.NewRecipeHandler(d.Recipes, d.Metrics, MediaURL, int64(d.MaxUploadBytes)).RegisterRoutes(recipes)

	admin := api.Group("/admin", auth, middleware.StaffRequired())
	handlers.NewAdminHandler(d.Users).RegisterRoutes(admin)

	return app
}

// errorHandler renders errors that escape a handler, including unmatched
// routes, as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
