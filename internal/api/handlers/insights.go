package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/models"
	"github.com/crosslens/crosslens-go/internal/services"
)

type InsightHandler struct {
	service *services.InsightService
	logger  *logrus.Logger
}

func NewInsightHandler(service *services.InsightService, logger *logrus.Logger) *InsightHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &InsightHandler{service: service, logger: logger}
}

// InsightsResponse is the body of GET /api/v1/insights.
type InsightsResponse struct {
	Insights   []models.Insight `json:"insights"`
	Total      int              `json:"total"`
	ComputedAt time.Time        `json:"computed_at"`
	Stale      bool             `json:"stale"`
}

// List handles GET /api/v1/insights. Query params: domains (comma separated),
// min_strength, from, to (RFC 3339), method, max_lag.
func (h *InsightHandler) List(c *gin.Context) {
	query := services.InsightQuery{}

	if domains := c.Query("domains"); domains != "" {
		for _, d := range strings.Split(domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				query.Domains = append(query.Domains, d)
			}
		}
	}

	if raw := c.Query("min_strength"); raw != "" {
		strength := models.Strength(strings.ToLower(raw))
		switch strength {
		case models.StrengthWeak, models.StrengthModerate, models.StrengthStrong:
			query.MinStrength = strength
		default:
			respondBadRequest(c, "min_strength must be one of weak, moderate, strong")
			return
		}
	}

	if raw := c.Query("method"); raw != "" {
		method, err := models.ParseCorrelationMethod(raw)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		query.Method = method
	}

	if raw := c.Query("max_lag"); raw != "" {
		maxLag, err := strconv.Atoi(raw)
		if err != nil || maxLag < 0 {
			respondBadRequest(c, "max_lag must be a non-negative integer")
			return
		}
		query.MaxLag = maxLag
	}

	var err error
	if query.From, err = parseTimeParam(c.Query("from")); err != nil {
		respondBadRequest(c, "from must be an RFC 3339 timestamp")
		return
	}
	if query.To, err = parseTimeParam(c.Query("to")); err != nil {
		respondBadRequest(c, "to must be an RFC 3339 timestamp")
		return
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		respondBadRequest(c, "to must not precede from")
		return
	}

	report, err := h.service.ListInsights(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, InsightsResponse{
		Insights:   report.Insights,
		Total:      len(report.Insights),
		ComputedAt: report.ComputedAt,
		Stale:      report.Stale,
	})
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
