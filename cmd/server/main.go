package main

import (
	"log"

	"med_voice_app_go/config"
	"med_voice_app_go/db"
	"med_voice_app_go/handlers"
	"med_voice_app_go/middleware"
	"med_voice_app_go/models"
	"med_voice_app_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.Bot{}, &models.Patient{}, &models.CallLog{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Construct shared services
	store := services.NewStore(db.DB)
	monitor := services.NewMonitoring(cfg)
	webhooks := handlers.NewWebhooks(cfg, store)
	limiter := middleware.NewWebhookRateLimiter()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Webhook entry points (rate limited, signature verified inside)
	webhookRoutes := e.Group("/api/webhooks")
	webhookRoutes.Use(limiter.Middleware())
	{
		webhookRoutes.POST("/pre-call", middleware.WithMonitoring(monitor, "pre-call", webhooks.PreCall))
		webhookRoutes.POST("/post-call", middleware.WithMonitoring(monitor, "post-call", webhooks.PostCall))
	}

	// Mid-call function endpoint used by the assistant itself
	e.POST("/api/functions/fetch-patient",
		middleware.WithMonitoring(monitor, "fetch-patient", handlers.FetchPatient),
		limiter.Middleware())

	// Open diagnostic route so probes work without the bearer key
	e.GET("/api/health", middleware.WithMonitoring(monitor, "health", handlers.Health))

	// CRUD endpoints (bearer key when configured)
	api := e.Group("/api")
	api.Use(middleware.RequireAPIKey(cfg))
	{
		api.GET("/bots", middleware.WithMonitoring(monitor, "bots", handlers.GetBots))
		api.POST("/bots", middleware.WithMonitoring(monitor, "bots", handlers.CreateBot))
		api.GET("/bots/:id", middleware.WithMonitoring(monitor, "bots", handlers.GetBot))
		api.PUT("/bots/:id", middleware.WithMonitoring(monitor, "bots", handlers.UpdateBot))
		api.DELETE("/bots/:id", middleware.WithMonitoring(monitor, "bots", handlers.DeleteBot))

		api.GET("/patients", middleware.WithMonitoring(monitor, "patients", handlers.GetPatients))
		api.POST("/patients", middleware.WithMonitoring(monitor, "patients", handlers.CreatePatient))
		api.GET("/patients/:id", middleware.WithMonitoring(monitor, "patients", handlers.GetPatient))

		api.GET("/call-logs", middleware.WithMonitoring(monitor, "call-logs", handlers.GetCallLogs))

		api.GET("/metrics", handlers.Metrics(monitor))
	}

	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
