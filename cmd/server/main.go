package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/cadencehq/ppmtrack/internal/config"
	"github.com/cadencehq/ppmtrack/internal/database"
	"github.com/cadencehq/ppmtrack/internal/handlers"
	"github.com/cadencehq/ppmtrack/internal/middleware"
	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	_ "github.com/cadencehq/ppmtrack/docs/api" // Swagger docs
)

// @title PPMTrack API
// @version 1.0.0
// @description Portfolio, program and project financial tracking service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/cadencehq/ppmtrack

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations and seed reference data
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.Seed(db); err != nil {
		log.Fatalf("Failed to seed reference data: %v", err)
	}

	// Initialize Authorizer. Failure is non-fatal: authenticated routes
	// reject until the service comes up.
	if err := services.InitAuthorizer(cfg, "http", "localhost:"+cfg.Port); err != nil {
		log.Printf("Authorizer not available yet: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("ppmtrack")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.APIVersion())

	// Health
	healthHandler := &handlers.HealthHandler{DB: db, Cfg: cfg}
	api.Get("/health", healthHandler.Health)

	phaseHandler := &handlers.PhaseHandler{DB: db}
	assignmentHandler := &handlers.AssignmentHandler{DB: db}
	entityHandler := &handlers.EntityHandler{DB: db}
	reportHandler := &handlers.ReportHandler{DB: db, Cfg: cfg}

	// Phase routes
	api.Get("/projects/:projectId/phases", middleware.AuthRead(), phaseHandler.ListPhases)
	api.Post("/projects/:projectId/phases", middleware.AuthWrite(), phaseHandler.CreatePhase)
	api.Put("/projects/:projectId/phases", middleware.AuthWrite(), phaseHandler.ReplacePhases)
	api.Put("/projects/:projectId/phases/:phaseId", middleware.AuthWrite(), phaseHandler.UpdatePhase)
	api.Delete("/projects/:projectId/phases/:phaseId", middleware.AuthWrite(), phaseHandler.DeletePhase)

	// Assignment routes
	api.Get("/resources/:resourceId/assignments", middleware.AuthRead(), assignmentHandler.ListAssignments)
	api.Post("/assignments", middleware.AuthWrite(), assignmentHandler.CreateAssignment)
	api.Post("/assignments/bulk", middleware.AuthWrite(), assignmentHandler.BulkUpdateAssignments)
	api.Put("/assignments/:id", middleware.AuthWrite(), assignmentHandler.UpdateAssignment)
	api.Delete("/assignments/:id", middleware.AuthWrite(), assignmentHandler.DeleteAssignment)

	// Reports
	api.Get("/projects/:projectId/forecast", middleware.AuthRead(), reportHandler.ProjectForecast)
	api.Post("/actuals/import", middleware.AuthImport(), reportHandler.ImportActuals)

	// Generic entity routes
	api.Get("/entities/:entityType", middleware.AuthRead(), entityHandler.ListEntities)
	api.Get("/entities/:entityType/:id", middleware.AuthRead(), entityHandler.GetEntity)
	api.Post("/entities/:entityType", middleware.AuthWrite(), entityHandler.CreateEntity)
	api.Put("/entities/:entityType/:id", middleware.AuthWrite(), entityHandler.UpdateEntity)
	api.Delete("/entities/:entityType/:id", middleware.AuthAdmin(), entityHandler.DeleteEntity)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
		message = apiErr.Message
		errorType = apiErr.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || (len(message) >= 9 && message[:9] == "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
