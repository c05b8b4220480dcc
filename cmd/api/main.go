package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockflow-backend/internal/bill"
	"stockflow-backend/internal/config"
	"stockflow-backend/internal/handler"
	"stockflow-backend/internal/mailer"
	"stockflow-backend/internal/middleware"
	"stockflow-backend/internal/model"
	"stockflow-backend/internal/repository"
	"stockflow-backend/internal/service"
	"stockflow-backend/internal/storage"
	"stockflow-backend/internal/ws"
	"stockflow-backend/pkg/database"
	"stockflow-backend/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load env + config
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.Load()

	zlog := logger.New()
	defer zlog.Sync()

	// 2. Setup database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.ResetToken{},
		&model.Notification{},
		&model.AuditLog{},
	)

	// 3. External collaborators: bill store + mailer
	billStore, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	if err != nil {
		log.Fatal("Failed to init bill storage: ", err)
	}

	var mail mailer.Mailer
	if cfg.MailProvider == "brevo" {
		mail = mailer.NewBrevoMailer(cfg.BrevoAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, cfg.EmailFromName)
	}

	// 4. WebSocket hub for stock alerts
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency injection (wiring layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	dashRepo := repository.NewDashboardRepo(db)

	notifier := service.NewNotificationService(notificationRepo, wsHub, zlog)
	salesService := service.NewSalesService(productRepo, saleRepo, userRepo, auditRepo, notifier, db, bill.Render, billStore, mail, zlog)
	invService := service.NewInventoryService(productRepo)
	authService := service.NewAuthService(userRepo, tokenRepo, mail, cfg.FrontendURL, zlog)
	dashService := service.NewDashboardService(dashRepo, saleRepo)
	statsService := service.NewStatsService(productRepo, saleRepo, zlog)

	salesHandler := handler.NewSalesHandler(salesService)
	invHandler := handler.NewInventoryHandler(invService)
	authHandler := handler.NewAuthHandler(authService)
	dashHandler := handler.NewDashboardHandler(dashService)
	notifHandler := handler.NewNotificationHandler(notifier)

	// 6. Background sales-velocity recompute (deferred strategy; staleness
	// is bounded by the interval)
	go func() {
		ticker := time.NewTicker(cfg.SalesAvgInterval)
		defer ticker.Stop()
		for range ticker.C {
			updated, err := statsService.RecalculateSalesAverages()
			if err != nil {
				zlog.Error("sales avg recompute failed", zap.Error(err))
				continue
			}
			zlog.Info("sales averages recomputed", zap.Int("products", updated))
		}
	}()

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "StockFlow ERP v1.0",
	})

	app.Use(fiberlogger.New()) // Request logging
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Products
	protected.Get("/products", invHandler.GetProducts)
	protected.Post("/products", invHandler.CreateProduct)
	protected.Put("/products/:id", invHandler.UpdateProduct)

	// Sales + bills
	protected.Post("/sales", salesHandler.CreateSale)
	protected.Get("/sales", salesHandler.GetSales)
	protected.Get("/sales/:id/bill", salesHandler.DownloadBill)

	// Notifications
	protected.Get("/notifications", notifHandler.GetNotifications)
	protected.Put("/notifications/:id/read", notifHandler.MarkRead)

	// Dashboard
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/sales-summary", dashHandler.GetSalesSummary)

	// WebSocket route (stock alerts)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
