package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"productdesk/internal/config"
	"productdesk/internal/handlers"
	"productdesk/internal/logger"
	"productdesk/internal/middleware"
	"productdesk/internal/models"
	"productdesk/internal/repositories"
	"productdesk/internal/services"
	"productdesk/pkg/rabbitmq"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.New(logger.ConfigForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
	defer appLogger.Sync()

	// --- Storage ---
	repo, err := openRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open product storage", zap.Error(err))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		repo = repositories.NewCachedProductRepository(repo, rdb, cfg.CacheTTL, appLogger)
		appLogger.Info("Product list cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	if cfg.Seed {
		seedProducts(context.Background(), repo, appLogger)
	}

	// --- Events ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitQueue}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		publisher = mqClient

		eventLog := appLogger.Named("product_events")
		if err := mqClient.ConsumeProductEvents(func(event models.ProductEvent) error {
			eventLog.Info("Product event",
				zap.String("id", event.ID),
				zap.String("type", event.Type),
				zap.Uint("product_id", event.ProductID))
			return nil
		}); err != nil {
			appLogger.Warn("Failed to start product event consumer", zap.Error(err))
		}
	}

	service := services.NewProductService(repo, publisher, appLogger)
	app := newApp(service, appLogger)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("Starting server", zap.String("addr", cfg.AppPort))
		if err := app.Listen(cfg.AppPort); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	appLogger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	appLogger.Info("Server gracefully stopped")
}

// newApp builds the Fiber app serving the product API under /api.
func newApp(service *services.ProductService, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(middleware.RequestLogger(appLogger))
	app.Use(recover.New())
	app.Use(cors.New()) // any origin

	api := app.Group("/api")
	handlers.NewProductHandler(service, appLogger).RegisterRoutes(api)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}

func openRepository(cfg config.ServerConfig, appLogger *zap.Logger) (repositories.ProductRepository, error) {
	if cfg.DBDriver == "memory" {
		return repositories.NewMemoryProductRepository(), nil
	}
	db, err := openDatabase(cfg.DBDriver, cfg.DatabaseDSN, cfg.LogLevel, appLogger,
		logger.WithSlowThreshold(cfg.DBSlowThreshold))
	if err != nil {
		return nil, err
	}
	return repositories.NewGORMProductRepository(db), nil
}

// openDatabase connects with GORM and migrates the products table.
func openDatabase(driver, dsn, logLevel string, appLogger *zap.Logger, opts ...logger.GormLoggerOption) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(appLogger, logger.MapGormLogLevel(logLevel), opts...),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// seedProducts populates an empty catalog with some initial data.
func seedProducts(ctx context.Context, repo repositories.ProductRepository, appLogger *zap.Logger) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		appLogger.Warn("Skipping seed", zap.Error(err))
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00"), Quantity: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00"), Quantity: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), Quantity: 50},
	}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			appLogger.Warn("Error seeding product", zap.String("name", products[i].Name), zap.Error(err))
			continue
		}
		appLogger.Info("Seeded product", zap.String("name", products[i].Name), zap.Uint("id", products[i].ID))
	}
}
