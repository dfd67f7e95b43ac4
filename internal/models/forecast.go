package models

import (
	"fmt"
	"strings"
	"time"
)

// ForecastModel selects the trend extrapolation used by the forecast engine.
type ForecastModel string

const (
	ModelLinear               ForecastModel = "linear"
	ModelExponentialSmoothing ForecastModel = "exponential_smoothing"
)

// ParseForecastModel validates a model string from the API layer.
func ParseForecastModel(s string) (ForecastModel, error) {
	switch ForecastModel(strings.ToLower(s)) {
	case ModelLinear:
		return ModelLinear, nil
	case ModelExponentialSmoothing:
		return ModelExponentialSmoothing, nil
	case "":
		return ModelLinear, nil
	default:
		return "", fmt.Errorf("unknown forecast model %q", s)
	}
}

// ForecastPoint is a single predicted value with its 95% confidence bounds.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Forecast contains the output of a forecasting run for one metric.
type Forecast struct {
	Domain          string          `json:"domain"`
	Metric          string          `json:"metric"`
	Horizon         int             `json:"horizon"`
	HistoryPoints   int             `json:"history_points"`
	Points          []ForecastPoint `json:"points"`
	Confidence      float64         `json:"confidence"`
	Model           ForecastModel   `json:"model"`
	SeasonalApplied bool            `json:"seasonal_applied"`
	SeasonalPeriod  int             `json:"seasonal_period,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
