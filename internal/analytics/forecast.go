package analytics

import (
	"context"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/models"
)

// ForecastEngine produces point forecasts with 95% confidence bands from a
// trend/seasonal decomposition. It is stateless and safe for concurrent use.
type ForecastEngine struct {
	logger *logrus.Logger
}

// NewForecastEngine creates a forecast engine.
func NewForecastEngine(logger *logrus.Logger) *ForecastEngine {
	if logger == nil {
		logger = logrus.New()
	}
	return &ForecastEngine{logger: logger}
}

const (
	// z-score for a 95% confidence interval.
	confidenceZ = 1.96
	// Per-step widening of the confidence band with forecast distance.
	bandWidening = 0.05
	// History length at which the history factor of the confidence score
	// saturates.
	historySaturation = 60

	holtAlpha = 0.5
	holtBeta  = 0.3
)

// Forecast extrapolates the series horizon points past its last observation.
// History shorter than twice the horizon fails with InsufficientHistoryError.
// When fewer than two full seasonal cycles exist the seasonal step is skipped
// and the result reports SeasonalApplied=false.
func (e *ForecastEngine) Forecast(ctx context.Context, series *models.TimeSeries, horizon int, model models.ForecastModel) (*models.Forecast, error) {
	started := time.Now()

	if horizon <= 0 {
		horizon = 1
	}
	times, values := series.Values()
	n := len(values)
	if n < 2*horizon || n < 3 {
		return nil, &InsufficientHistoryError{History: n, Horizon: horizon}
	}

	interval := series.Interval()
	period := seasonalPeriodFor(interval)

	var seasonal []float64
	base := values
	seasonalApplied := false
	if period > 0 && n >= 2*period {
		seasonal = seasonalIndices(values, period)
		base = make([]float64, n)
		for i, v := range values {
			base[i] = v - seasonal[i%period]
		}
		seasonalApplied = true
	}

	if ctx.Err() != nil {
		return nil, &ComputationTimeoutError{Operation: "forecast", Elapsed: time.Since(started)}
	}

	// Trend extrapolation over the deseasonalized series.
	var fitted []float64
	var extrapolate func(h int) float64
	switch model {
	case models.ModelExponentialSmoothing:
		level, trendSlope, holtFitted := holtFit(base, holtAlpha, holtBeta)
		fitted = holtFitted
		extrapolate = func(h int) float64 { return level + float64(h)*trendSlope }
	default:
		model = models.ModelLinear
		slope, intercept := linearFit(base)
		fitted = make([]float64, n)
		for i := range fitted {
			fitted[i] = intercept + slope*float64(i)
		}
		extrapolate = func(h int) float64 { return intercept + slope*float64(n-1+h) }
	}

	residuals := make([]float64, n)
	for i := range values {
		expected := fitted[i]
		if seasonalApplied {
			expected += seasonal[i%period]
		}
		residuals[i] = values[i] - expected
	}
	sigma := stdDev(residuals)

	last := times[n-1]
	points := make([]models.ForecastPoint, 0, horizon)
	for h := 1; h <= horizon; h++ {
		value := extrapolate(h)
		if seasonalApplied {
			value += seasonal[(n-1+h)%period]
		}
		// Band widens linearly with distance to reflect growing uncertainty.
		half := confidenceZ * sigma * (1 + bandWidening*float64(h-1))
		points = append(points, models.ForecastPoint{
			Timestamp: last.Add(time.Duration(h) * interval),
			Value:     value,
			Lower:     value - half,
			Upper:     value + half,
		})
	}

	confidence := forecastConfidence(sigma, values, n)

	e.logger.WithFields(logrus.Fields{
		"domain":           series.Domain,
		"metric":           series.Metric,
		"model":            model,
		"horizon":          horizon,
		"history":          n,
		"seasonal_applied": seasonalApplied,
		"confidence":       confidence,
	}).Debug("Forecast generated")

	return &models.Forecast{
		Domain:          series.Domain,
		Metric:          series.Metric,
		Horizon:         horizon,
		HistoryPoints:   n,
		Points:          points,
		Confidence:      confidence,
		Model:           model,
		SeasonalApplied: seasonalApplied,
		SeasonalPeriod:  seasonalPeriodIfApplied(period, seasonalApplied),
		GeneratedAt:     time.Now(),
	}, nil
}

// seasonalPeriodFor maps the native sampling interval to a fixed seasonal
// period: daily seasonality for hourly data, weekly for daily data.
func seasonalPeriodFor(interval time.Duration) int {
	switch {
	case interval <= 0:
		return 0
	case interval <= 90*time.Minute:
		return 24
	case interval >= 20*time.Hour && interval <= 28*time.Hour:
		return 7
	default:
		return 0
	}
}

func seasonalPeriodIfApplied(period int, applied bool) int {
	if !applied {
		return 0
	}
	return period
}

// seasonalIndices estimates the additive seasonal component per phase after
// removing a moving-average trend, normalized to zero mean.
func seasonalIndices(values []float64, period int) []float64 {
	n := len(values)

	sma := trend.NewSmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	// The trailing SMA emits its first value once the window fills; reuse
	// that value for the warm-up prefix.
	trendAt := func(i int) float64 {
		j := i - period + 1
		if j < 0 {
			j = 0
		}
		if j >= len(smoothed) {
			j = len(smoothed) - 1
		}
		return smoothed[j]
	}

	sums := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		sums[i%period] += values[i] - trendAt(i)
		counts[i%period]++
	}

	indices := make([]float64, period)
	var total float64
	for k := 0; k < period; k++ {
		if counts[k] > 0 {
			indices[k] = sums[k] / float64(counts[k])
		}
		total += indices[k]
	}
	// Normalize so the seasonal component carries no net trend.
	offset := total / float64(period)
	for k := range indices {
		indices[k] -= offset
	}
	return indices
}

// forecastConfidence scores the forecast from the in-sample fit error
// relative to the series variability, scaled by history length. Bounded to
// [0, 1]; lower error and longer history both raise the score.
func forecastConfidence(sigma float64, values []float64, history int) float64 {
	variability := stdDev(values)
	fitFactor := 1.0
	if variability > 0 {
		fitFactor = 1 / (1 + sigma/variability)
	}
	historyFactor := math.Min(1, float64(history)/historySaturation)
	return clamp01(fitFactor * historyFactor)
}
