package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kendall-kelly/tableside-api/config"
	"github.com/kendall-kelly/tableside-api/controllers"
	"github.com/kendall-kelly/tableside-api/logger"
	"github.com/kendall-kelly/tableside-api/middleware"
	"github.com/kendall-kelly/tableside-api/repository"
	"github.com/kendall-kelly/tableside-api/services"
)

// devTableCodeSecret signs table links in development and test when no secret is configured
const devTableCodeSecret = "tableside-development-only"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.NewForEnvironment(cfg.GoEnv, cfg.LogLevel)
	defer func() { _ = zlog.Sync() }()
	zlog.Info("Starting Tableside API server...", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(cfg, zlog); err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	ctx := context.Background()
	collab, deps, closers, err := buildCollaborators(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize collaborators", zap.Error(err))
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	codes, err := tableCodes(cfg)
	if err != nil {
		zlog.Fatal("Failed to initialize table codes", zap.Error(err))
	}
	services.InitServices(deps, collab, codes)

	router, err := setupRouter(cfg, zlog, codes)
	if err != nil {
		zlog.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	zlog.Info("Server exited")
}

// buildCollaborators connects the optional outside systems named by the configuration
func buildCollaborators(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.Collaborators, services.Deps, []io.Closer, error) {
	var closers []io.Closer
	deps := services.Deps{
		Store:  repository.NewGormStore(config.GetDB()),
		Logger: zlog,
	}
	var collab services.Collaborators

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return collab, deps, closers, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, client)
		collab.Guests = services.NewRedisGuestTracker(client)
		if cfg.NotifyDriver == "redis" {
			deps.Notifier = services.NewRedisNotifier(client, services.DefaultOrderChannel)
		}
		zlog.Info("Redis connected", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.NotifyDriver == "rabbitmq" {
		notifier, err := services.NewRabbitMQNotifier(cfg.RabbitMQURL, zlog)
		if err != nil {
			return collab, deps, closers, err
		}
		closers = append(closers, notifier)
		deps.Notifier = notifier
	}

	if cfg.AWSS3Bucket != "" {
		store, err := services.NewS3ObjectStore(ctx, services.S3Settings{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSS3Bucket,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return collab, deps, closers, err
		}
		collab.Receipts = services.NewObjectReceiptArchive(store)
		collab.Images = services.NewImageService(store)
		zlog.Info("S3 storage enabled", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		zlog.Warn("AWS_S3_BUCKET is not set, receipts are not archived and menu photos are disabled")
	}

	if cfg.AuthEnabled() {
		collab.Staff = services.NewAuth0Service(cfg.Auth0Domain)
	}

	return collab, deps, closers, nil
}

func tableCodes(cfg *config.Config) (*services.TableCodeService, error) {
	secret := cfg.TableCodeSecret
	if secret == "" {
		secret = devTableCodeSecret
	}
	return services.NewTableCodeService(secret)
}

// setupRouter builds the engine with logging, CORS and every API route
func setupRouter(cfg *config.Config, zlog *zap.Logger, codes *services.TableCodeService) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logger.GinMiddleware(zlog), logger.Recovery(zlog))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}))

	staffAuth, err := middleware.StaffAuth(cfg, zlog)
	if err != nil {
		return nil, err
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}
	controllers.RegisterRoutes(v1, controllers.RouteOptions{
		TableCodes:    codes,
		SecureCookies: cfg.IsProduction(),
		StaffAuth:     staffAuth,
		Scope: func(scope string) gin.HandlerFunc {
			return middleware.OptionalScope(cfg, scope)
		},
	})

	return router, nil
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tableside API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not connected",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		logger.FromContext(c).Error("Database ping failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		logger.FromContext(c).Error("Listing tables failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
