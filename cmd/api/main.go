package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	"github.com/cloudshop/backend/internal/config"
	"github.com/cloudshop/backend/internal/database"
	"github.com/cloudshop/backend/internal/handlers"
	"github.com/cloudshop/backend/internal/middleware"
	"github.com/cloudshop/backend/internal/models"
	"github.com/cloudshop/backend/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed admin user if not exists
	seedAdminUser()

	// Initialize services
	inventoryService := services.NewInventoryService()
	serverService := services.NewServerService(cfg.LockTimeoutMillis)
	planService := services.NewPlanService()
	matcherService := services.NewMatcherService(planService)
	subscriptionService := services.NewSubscriptionService(planService, cfg.LockTimeoutMillis)

	// Start expiry sweep (releases capacity held by lapsed subscriptions)
	expirySweep := services.NewExpirySweepService(subscriptionService, cfg.ExpirySweepMinutes)
	expirySweep.Start()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CloudShop API v1.0",
		ServerHeader: "CloudShop",
		BodyLimit:    10 * 1024 * 1024, // 10MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())
	app.Use(middleware.RateLimiter(300, time.Minute))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "cloudshop-api",
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	componentHandler := handlers.NewComponentHandler(inventoryService)
	serverHandler := handlers.NewServerHandler(serverService)
	planHandler := handlers.NewPlanHandler(planService, matcherService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	requestHandler := handlers.NewRequestHandler()
	dashboardHandler := handlers.NewDashboardHandler()

	// Public routes
	api := app.Group("/api/v1")
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", authHandler.Register)
	api.Get("/plans", planHandler.ListPublic)

	// Authenticated routes
	auth := api.Group("", middleware.AuthRequired(cfg))
	auth.Post("/auth/logout", authHandler.Logout)
	auth.Get("/auth/me", authHandler.Me)

	auth.Get("/plans/:id", planHandler.Get)
	auth.Post("/subscriptions/purchase", subscriptionHandler.Purchase)
	auth.Get("/subscriptions", subscriptionHandler.List)
	auth.Get("/purchases", subscriptionHandler.Purchases)
	auth.Post("/requests", requestHandler.Create)
	auth.Get("/requests", requestHandler.List)

	// Admin routes
	admin := auth.Group("", middleware.AdminOnly())
	admin.Get("/components", componentHandler.List)
	admin.Post("/components/cpus", componentHandler.CreateCpu)
	admin.Post("/components/gpus", componentHandler.CreateGpu)
	admin.Post("/components/rams", componentHandler.CreateRam)
	admin.Post("/components/hds", componentHandler.CreateHd)
	admin.Post("/components/oses", componentHandler.CreateOs)
	admin.Put("/components/:kind/:model/stock", componentHandler.Restock)
	admin.Put("/components/:kind/:model/price", componentHandler.SetPrice)
	admin.Delete("/components/:kind/:model", componentHandler.Delete)

	admin.Post("/servers", serverHandler.Create)
	admin.Get("/servers", serverHandler.List)
	admin.Get("/servers/:id", serverHandler.Get)
	admin.Post("/servers/:id/attach", serverHandler.Attach)
	admin.Post("/servers/:id/detach", serverHandler.Detach)
	admin.Put("/servers/:id/cpu", serverHandler.ChangeCpu)
	admin.Get("/servers/:id/invariants", serverHandler.Invariants)

	admin.Post("/plans", planHandler.Create)
	admin.Post("/plans/:id/items", planHandler.AddLineItem)
	admin.Put("/plans/:id/price", planHandler.SetPrice)
	admin.Delete("/plans/:id", planHandler.Delete)
	admin.Get("/plans/:id/matches", planHandler.Matches)

	admin.Post("/subscriptions/:id/reassign", subscriptionHandler.Reassign)
	admin.Post("/subscriptions/:id/release", subscriptionHandler.Release)
	admin.Put("/requests/:id/answer", requestHandler.Answer)
	admin.Get("/dashboard/stats", dashboardHandler.Stats)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		expirySweep.Stop()
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting CloudShop API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func seedAdminUser() {
	var count int64
	database.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&count)

	if count == 0 {
		log.Println("Creating default admin user...")

		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)

		admin := models.User{
			Username: "admin",
			Password: string(hashedPassword),
			Email:    "admin@cloudshop.local",
			UserType: models.UserTypeAdmin,
			IsActive: true,
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created successfully (username: admin, password: admin123)")
		}
	}
}
