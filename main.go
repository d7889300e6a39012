package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinic-scheduling-server/internal/cache"
	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/metrics"
	"clinic-scheduling-server/internal/middleware"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/repository"
	"clinic-scheduling-server/internal/routes"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/pkg/logging"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Default().Error("error loading config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Warn("no .env file loaded, using process environment", "error", envErr)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("error connecting to database", "error", err)
		os.Exit(1)
	}

	m := metrics.New(nil, scheduling.Classify)
	opts := []scheduling.Option{scheduling.WithMetrics(m)}
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, doctor directory cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			opts = append(opts, scheduling.WithCache(cache.NewDirectoryCache(client, cfg.Redis.TTL, logger)))
		}
	}
	svc := scheduling.NewService(store, logger, opts...)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics(m))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, svc, cfg)

	logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
	if err := router.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger *logging.Logger) (scheduling.Store, error) {
	if cfg.UseMemoryStore {
		logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", "driver", cfg.Database.Driver)
	return repository.NewGormStore(db), nil
}
