package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/analytics"
	"github.com/crosslens/crosslens-go/internal/api"
	"github.com/crosslens/crosslens-go/internal/cache"
	"github.com/crosslens/crosslens-go/internal/config"
	"github.com/crosslens/crosslens-go/internal/database"
	"github.com/crosslens/crosslens-go/internal/logging"
	"github.com/crosslens/crosslens-go/internal/services"
	"github.com/crosslens/crosslens-go/internal/store"
	"github.com/crosslens/crosslens-go/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize telemetry first
	if err := telemetry.Init(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	}); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	// Structured logger for startup/shutdown events
	stdLogger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.Telemetry.LogLevel,
	})

	// Logrus logger for the service layer
	logrusLogger := logrus.New()
	logrusLogger.SetFormatter(&logrus.JSONFormatter{})
	if level, parseErr := logrus.ParseLevel(cfg.LogLevel); parseErr == nil {
		logrusLogger.SetLevel(level)
	}

	// Database is optional; the in-memory series store carries reads
	var db *database.PostgresDB
	var repo *store.Repository
	if cfg.Database.Enabled {
		db, err = database.NewPostgresConnection(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = store.NewRepository(db)
	}

	// Redis is optional; the result cache falls back to memory
	var redisClient *database.RedisClient
	var cacheStore cache.Store
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient.Client)
	} else {
		cacheStore = cache.NewMemoryStore()
	}

	// Analytics pipeline
	aligner := analytics.NewAligner(cfg.Analytics.MaxGapIntervals, cfg.Analytics.MinOverlap)
	correlator := analytics.NewCorrelationEngine(aligner, logrusLogger)
	forecaster := analytics.NewForecastEngine(logrusLogger)
	resultCache := cache.NewResultCache(cacheStore, logrusLogger)

	insightService := services.NewInsightService(
		store.NewMemoryStore(),
		repo,
		correlator,
		forecaster,
		resultCache,
		cfg.Analytics,
		cfg.Cache,
		logrusLogger,
	)
	monitor := services.NewResourceMonitor(logrusLogger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Service:     insightService,
		Monitor:     monitor,
		DB:          db,
		Redis:       redisClient,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.Telemetry.ServiceVersion,
		Logger:      logrusLogger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		stdLogger.LogStartup(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrusLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stdLogger.LogShutdown(cfg.Telemetry.ServiceName, "signal received")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
