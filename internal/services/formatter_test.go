package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crosslens/crosslens-go/internal/models"
)

func TestDescribe(t *testing.T) {
	formatter := NewFormatter()

	tests := []struct {
		name     string
		insight  models.Insight
		expected string
	}{
		{
			name: "strong positive with hourly lag",
			insight: models.Insight{
				Domain1: "weather", Metric1: "temperature",
				Domain2: "transportation", Metric2: "ridership",
				Coefficient: 0.83, Lag: 1, LagUnit: time.Hour,
				Strength: models.StrengthStrong,
			},
			expected: "Strong positive correlation between weather:temperature and transportation:ridership (r=0.83, lag 1 hour)",
		},
		{
			name: "moderate negative no lag",
			insight: models.Insight{
				Domain1: "economic", Metric1: "index",
				Domain2: "social", Metric2: "posts",
				Coefficient: -0.52, Lag: 0, LagUnit: time.Hour,
				Strength: models.StrengthModerate,
			},
			expected: "Moderate negative correlation between economic:index and social:posts (r=-0.52, no lag)",
		},
		{
			name: "weak with negative daily lag",
			insight: models.Insight{
				Domain1: "weather", Metric1: "rainfall",
				Domain2: "economic", Metric2: "sales",
				Coefficient: 0.21, Lag: -3, LagUnit: 24 * time.Hour,
				Strength: models.StrengthWeak,
			},
			expected: "Weak positive correlation between weather:rainfall and economic:sales (r=0.21, lag -3 days)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatter.Describe(&tt.insight))
		})
	}
}

func TestLagPhraseUnits(t *testing.T) {
	formatter := NewFormatter()

	assert.Equal(t, "no lag", formatter.lagPhrase(0, time.Hour))
	assert.Equal(t, "lag 2 hours", formatter.lagPhrase(2, time.Hour))
	assert.Equal(t, "lag 1 day", formatter.lagPhrase(1, 24*time.Hour))
	assert.Equal(t, "lag 5 minutes", formatter.lagPhrase(5, 10*time.Minute))
	assert.Equal(t, "lag 1 interval", formatter.lagPhrase(1, 30*time.Second))
}

func TestDescribeForecast(t *testing.T) {
	formatter := NewFormatter()

	fc := &models.Forecast{
		Domain:          "weather",
		Metric:          "temperature",
		Horizon:         12,
		Model:           models.ModelLinear,
		SeasonalApplied: true,
		Confidence:      0.87,
	}
	assert.Equal(t,
		"12-step linear forecast for weather:temperature (seasonally adjusted, confidence 0.87)",
		formatter.DescribeForecast(fc))
}
