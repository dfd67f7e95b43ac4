package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/models"
	"github.com/crosslens/crosslens-go/internal/services"
)

type SeriesHandler struct {
	service *services.InsightService
	logger  *logrus.Logger
}

func NewSeriesHandler(service *services.InsightService, logger *logrus.Logger) *SeriesHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &SeriesHandler{service: service, logger: logger}
}

// PointInput is one observation in an ingest batch.
type PointInput struct {
	Timestamp time.Time       `json:"timestamp" binding:"required"`
	Value     decimal.Decimal `json:"value"`
}

// IngestRequest is the body of POST /api/v1/series/ingest.
type IngestRequest struct {
	Domain string       `json:"domain" binding:"required"`
	Metric string       `json:"metric" binding:"required"`
	Unit   string       `json:"unit"`
	Points []PointInput `json:"points" binding:"required"`
}

// IngestResponse acknowledges a stored batch.
type IngestResponse struct {
	Series models.SeriesInfo `json:"series"`
	Stored int               `json:"stored"`
}

// Ingest handles POST /api/v1/series/ingest.
func (h *SeriesHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Points) == 0 {
		respondBadRequest(c, "points must not be empty")
		return
	}

	points := make([]models.MetricPoint, len(req.Points))
	for i, p := range req.Points {
		points[i] = models.MetricPoint{Timestamp: p.Timestamp, Value: p.Value}
	}

	series, err := h.service.Ingest(c.Request.Context(), req.Domain, req.Metric, req.Unit, points)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"domain": req.Domain,
		"metric": req.Metric,
		"points": len(points),
	}).Info("Metric batch ingested")

	c.JSON(http.StatusCreated, IngestResponse{
		Series: series.Info(),
		Stored: len(points),
	})
}

// SeriesListResponse lists stored series metadata.
type SeriesListResponse struct {
	Series []models.SeriesInfo `json:"series"`
	Total  int                 `json:"total"`
}

// List handles GET /api/v1/series.
func (h *SeriesHandler) List(c *gin.Context) {
	series := h.service.ListSeries()
	c.JSON(http.StatusOK, SeriesListResponse{Series: series, Total: len(series)})
}
