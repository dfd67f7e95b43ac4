package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/crosslens/crosslens-go/internal/api/handlers"
	"github.com/crosslens/crosslens-go/internal/database"
	"github.com/crosslens/crosslens-go/internal/services"
)

// RouterConfig carries the dependencies the HTTP layer needs. DB and Redis
// may be nil when those backends are disabled.
type RouterConfig struct {
	Service     *services.InsightService
	Monitor     *services.ResourceMonitor
	DB          *database.PostgresDB
	Redis       *database.RedisClient
	ServiceName string
	Version     string
	Logger      *logrus.Logger
}

// NewRouter builds the gin engine with middleware and all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	SetupRoutes(router, cfg)
	return router
}

// SetupRoutes registers the health check and the v1 API groups.
func SetupRoutes(router *gin.Engine, cfg RouterConfig) {
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Version)
	seriesHandler := handlers.NewSeriesHandler(cfg.Service, cfg.Logger)
	insightHandler := handlers.NewInsightHandler(cfg.Service, cfg.Logger)
	forecastHandler := handlers.NewForecastHandler(cfg.Service, cfg.Logger)
	cacheHandler := handlers.NewCacheHandler(cfg.Service, cfg.Monitor, cfg.Logger)

	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		series := v1.Group("/series")
		{
			series.POST("/ingest", seriesHandler.Ingest)
			series.GET("", seriesHandler.List)
		}

		v1.GET("/insights", insightHandler.List)

		forecast := v1.Group("/forecast")
		{
			forecast.GET("/:domain/:metric", forecastHandler.Get)
		}

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/stats", cacheHandler.Stats)
		}
	}
}
