package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/config"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/bomimport"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/entity"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/handler"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/repository"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/mes/service"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/middleware"
	"github.com/jwerthen/Werco-ERP-MES-sub000/internal/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting werco-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Part{},
		&entity.BOM{},
		&entity.BOMItem{},
		&entity.WorkOrder{},
		&entity.WorkOrderMaterial{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	// Import sessions live in Redis so previews survive restarts; without
	// Redis they fall back to process memory.
	var sessions bomimport.SessionStore
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, using in-memory import sessions", zap.Error(err))
		sessions = bomimport.NewMemorySessionStore()
	} else {
		sessions = bomimport.NewRedisSessionStore(rdb)
	}

	var store *storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		store, err = storage.NewObjectStore(context.Background(), cfg.MinIO)
		if err != nil {
			zapLogger.Warn("Object storage unavailable, import archival disabled", zap.Error(err))
			store = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, sessions, store, zapLogger)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	{
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// Part catalog
			parts := authorized.Group("/parts")
			{
				parts.GET("", h.Part.List)
				parts.POST("", h.Part.Create)
				parts.GET("/:id", h.Part.Get)
				parts.PUT("/:id", h.Part.Update)
				parts.DELETE("/:id", h.Part.Delete)

				// Multi-level structure views
				parts.GET("/:id/explode", h.BOM.Explode)
				parts.GET("/:id/requirements", h.BOM.Requirements)
			}

			// BOM structures
			boms := authorized.Group("/boms")
			{
				boms.GET("", h.BOM.List)
				boms.POST("", h.BOM.Create)
				boms.GET("/:id", h.BOM.Get)
				boms.PUT("/:id", h.BOM.Update)
				boms.DELETE("/:id", h.BOM.Delete)

				boms.GET("/:id/items", h.BOM.ListItems)
				boms.POST("/:id/items", h.BOM.AddItem)
				boms.PUT("/:id/items/:itemId", h.BOM.UpdateItem)
				boms.DELETE("/:id/items/:itemId", h.BOM.DeleteItem)

				boms.POST("/:id/release", middleware.RequireRole("mes_engineer"), h.BOM.Release)
				boms.POST("/:id/activate", middleware.RequireRole("mes_engineer"), h.BOM.Activate)
				boms.GET("/:id/compare", h.BOM.Compare)
				boms.GET("/:id/export", h.BOM.Export)
			}

			// Work orders
			workOrders := authorized.Group("/work-orders")
			{
				workOrders.GET("", h.WorkOrder.List)
				workOrders.POST("", h.WorkOrder.Create)
				workOrders.GET("/:id", h.WorkOrder.Get)
				workOrders.POST("/:id/release", h.WorkOrder.Release)
				workOrders.POST("/:id/start", h.WorkOrder.Start)
				workOrders.POST("/:id/complete", h.WorkOrder.Complete)
				workOrders.POST("/:id/cancel", h.WorkOrder.Cancel)
				workOrders.GET("/:id/materials", h.WorkOrder.Materials)
			}

			// Import sessions
			imports := authorized.Group("/imports")
			{
				imports.GET("/template", h.Import.Template)
				imports.POST("/preview", h.Import.Preview)
				imports.POST("/preview-structured", h.Import.PreviewStructured)
				imports.GET("/:id", h.Import.Get)
				imports.GET("/:id/original", h.Import.Original)
				imports.PUT("/:id/assembly", h.Import.UpdateAssembly)
				imports.PUT("/:id/items", h.Import.UpdateItems)
				imports.PUT("/:id/mapping", h.Import.Remap)
				imports.POST("/:id/commit", h.Import.Commit)
				imports.POST("/:id/cancel", h.Import.Cancel)
			}
		}
	}
}
