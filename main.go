package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/akm47777/feriwala-backend-new/catalog"
	"github.com/akm47777/feriwala-backend-new/config"
	"github.com/akm47777/feriwala-backend-new/gateway"
	"github.com/akm47777/feriwala-backend-new/inventory"
	"github.com/akm47777/feriwala-backend-new/middleware"
	"github.com/akm47777/feriwala-backend-new/models"
	"github.com/akm47777/feriwala-backend-new/notify"
	"github.com/akm47777/feriwala-backend-new/orders"
	"github.com/akm47777/feriwala-backend-new/pricing"
	"github.com/akm47777/feriwala-backend-new/routes"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	db := initDatabase(cfg, logger)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Coupon{},
		&models.Address{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.StockReservation{},
	); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	// Catalog reads, optionally fronted by redis
	var products catalog.ProductReader = catalog.NewGorm(db)
	coupons := catalog.NewGorm(db)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, serving catalog reads from postgres", zap.Error(err))
		} else {
			products = catalog.NewCachedReader(products, rdb, logger)
			logger.Info("redis connection established")
		}
		cancel()
	}

	ledger := inventory.NewLedger(db, logger)
	repo := orders.NewGormRepository(db)
	razorpay := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, cfg.Currency, cfg.RazorpayTestMode, logger)
	pricer := pricing.NewCalculator(cfg.FreeShippingThreshold, cfg.FlatShippingRate, cfg.GSTRate)
	hub := notify.NewHub(logger)

	svc := orders.NewService(repo, ledger, razorpay, products, coupons, pricer, hub, logger)

	// Reclaim stock held by abandoned checkouts
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go svc.RunSweeper(sweepCtx, cfg.PendingOrderTTL, cfg.SweepInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, svc, hub, cfg)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	return db
}
