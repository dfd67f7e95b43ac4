package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/models"
	"github.com/crosslens/crosslens-go/internal/services"
)

type ForecastHandler struct {
	service *services.InsightService
	logger  *logrus.Logger
}

func NewForecastHandler(service *services.InsightService, logger *logrus.Logger) *ForecastHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ForecastHandler{service: service, logger: logger}
}

// ForecastResponse is the body of GET /api/v1/forecast/:domain/:metric.
type ForecastResponse struct {
	Forecast   *models.Forecast `json:"forecast"`
	Summary    string           `json:"summary"`
	ComputedAt time.Time        `json:"computed_at"`
	Stale      bool             `json:"stale"`
}

// Get handles GET /api/v1/forecast/:domain/:metric. Query params: horizon
// (positive integer), model (linear or exponential_smoothing).
func (h *ForecastHandler) Get(c *gin.Context) {
	domain := c.Param("domain")
	metric := c.Param("metric")
	if domain == "" || metric == "" {
		respondBadRequest(c, "domain and metric are required")
		return
	}

	horizon := 0
	if raw := c.Query("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "horizon must be a positive integer")
			return
		}
		horizon = parsed
	}

	var model models.ForecastModel
	if raw := c.Query("model"); raw != "" {
		parsed, err := models.ParseForecastModel(raw)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		model = parsed
	}

	report, err := h.service.GetForecast(c.Request.Context(), domain, metric, horizon, model)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ForecastResponse{
		Forecast:   report.Forecast,
		Summary:    report.Summary,
		ComputedAt: report.ComputedAt,
		Stale:      report.Stale,
	})
}
