package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/cache"
	"github.com/crosslens/crosslens-go/internal/services"
)

type CacheHandler struct {
	service *services.InsightService
	monitor *services.ResourceMonitor
	logger  *logrus.Logger
}

func NewCacheHandler(service *services.InsightService, monitor *services.ResourceMonitor, logger *logrus.Logger) *CacheHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &CacheHandler{service: service, monitor: monitor, logger: logger}
}

// CacheStatsResponse is the body of GET /api/v1/cache/stats.
type CacheStatsResponse struct {
	Categories map[string]cache.Stats    `json:"categories"`
	Resources  services.ResourceSnapshot `json:"resources"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// Stats handles GET /api/v1/cache/stats.
func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, CacheStatsResponse{
		Categories: h.service.CacheStats(),
		Resources:  h.monitor.Snapshot(c.Request.Context()),
		Timestamp:  time.Now(),
	})
}
