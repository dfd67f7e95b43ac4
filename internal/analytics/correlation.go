package analytics

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/models"
)

// CorrelationEngine computes lag-aware correlation scores between series
// from different domains. It is stateless and safe for concurrent use.
type CorrelationEngine struct {
	aligner *Aligner
	logger  *logrus.Logger
}

// NewCorrelationEngine creates a correlation engine using the given aligner.
func NewCorrelationEngine(aligner *Aligner, logger *logrus.Logger) *CorrelationEngine {
	if logger == nil {
		logger = logrus.New()
	}
	return &CorrelationEngine{
		aligner: aligner,
		logger:  logger,
	}
}

// sampleSizeSaturation is the overlap count at which the sample-size factor
// of the confidence score reaches 1.
const sampleSizeSaturation = 30

// Correlate searches lags in [-maxLag, maxLag] grid steps, scores each
// aligned window with the requested method, and returns the insight for the
// lag with the maximal |coefficient|. Ties prefer the smaller |lag|, then the
// non-negative one. Weak correlations are returned tagged, never suppressed.
func (e *CorrelationEngine) Correlate(ctx context.Context, a *models.TimeSeries, b *models.TimeSeries, method models.CorrelationMethod, maxLag int) (*models.Insight, error) {
	started := time.Now()

	if err := constantSeries(a); err != nil {
		return nil, err
	}
	if err := constantSeries(b); err != nil {
		return nil, err
	}
	if maxLag < 0 {
		maxLag = -maxLag
	}

	scores := make(map[int]lagScore)

	var interval time.Duration
	var lastAlignErr error
	sawZeroVariance := false

	for lag := -maxLag; lag <= maxLag; lag++ {
		if ctx.Err() != nil {
			return nil, &ComputationTimeoutError{Operation: "correlate", Elapsed: time.Since(started)}
		}

		pair, err := e.aligner.Align(a, b, lag)
		if err != nil {
			lastAlignErr = err
			continue
		}
		interval = pair.Interval

		var r float64
		var defined bool
		switch method {
		case models.MethodSpearman:
			r, defined = spearman(pair.A, pair.B)
		default:
			r, defined = pearson(pair.A, pair.B)
		}
		if !defined {
			sawZeroVariance = true
			continue
		}
		scores[lag] = lagScore{coefficient: r, samples: len(pair.A)}
	}

	if len(scores) == 0 {
		if sawZeroVariance {
			return nil, &UndefinedCorrelationError{Domain: a.Domain, Metric: a.Metric}
		}
		if lastAlignErr != nil {
			return nil, lastAlignErr
		}
		return nil, &InsufficientDataError{Points: 0, Required: e.aligner.MinOverlap}
	}

	bestLag := 0
	bestSet := false
	for lag, score := range scores {
		if !bestSet {
			bestLag = lag
			bestSet = true
			continue
		}
		if betterLag(score.coefficient, lag, scores[bestLag].coefficient, bestLag) {
			bestLag = lag
		}
	}

	best := scores[bestLag]
	confidence := e.confidence(best, bestLag, scores)

	e.logger.WithFields(logrus.Fields{
		"domain1":     a.Domain,
		"metric1":     a.Metric,
		"domain2":     b.Domain,
		"metric2":     b.Metric,
		"method":      method,
		"lag":         bestLag,
		"coefficient": best.coefficient,
		"samples":     best.samples,
	}).Debug("Correlation computed")

	return &models.Insight{
		ID:          uuid.New(),
		Domain1:     a.Domain,
		Domain2:     b.Domain,
		Metric1:     a.Metric,
		Metric2:     b.Metric,
		Coefficient: best.coefficient,
		Method:      method,
		Lag:         bestLag,
		LagUnit:     interval,
		Strength:    models.ClassifyStrength(best.coefficient),
		Confidence:  confidence,
		SampleSize:  best.samples,
		ComputedAt:  time.Now(),
	}, nil
}

// betterLag reports whether candidate (rc, lc) beats incumbent (ri, li):
// larger |r| wins, then smaller |lag|, then the non-negative lag.
func betterLag(rc float64, lc int, ri float64, li int) bool {
	absRC, absRI := math.Abs(rc), math.Abs(ri)
	if absRC != absRI {
		return absRC > absRI
	}
	absLC, absLI := abs(lc), abs(li)
	if absLC != absLI {
		return absLC < absLI
	}
	return lc > li
}

// lagScore holds the coefficient and overlap count computed at one lag.
type lagScore struct {
	coefficient float64
	samples     int
}

// confidence combines a sample-size factor that saturates at 30 overlapping
// points with a stability factor that penalizes a best lag whose neighbors
// score far lower (an isolated spike is likely noise).
func (e *CorrelationEngine) confidence(best lagScore, bestLag int, scores map[int]lagScore) float64 {
	sizeFactor := math.Min(1, float64(best.samples)/sampleSizeSaturation)

	neighborAbs := make([]float64, 0, 2)
	for _, lag := range []int{bestLag - 1, bestLag + 1} {
		if s, ok := scores[lag]; ok {
			neighborAbs = append(neighborAbs, math.Abs(s.coefficient))
		}
	}
	stability := 1.0
	if len(neighborAbs) > 0 {
		spike := math.Abs(best.coefficient) - mean(neighborAbs)
		if spike > 0 {
			stability = 1 - spike
		}
	}

	return clamp01(sizeFactor * stability)
}

// constantSeries returns UndefinedCorrelationError when the series carries
// at least two points but zero variance.
func constantSeries(ts *models.TimeSeries) error {
	if ts.Len() < 2 {
		return nil
	}
	_, values := ts.Values()
	if stdDev(values) == 0 {
		return &UndefinedCorrelationError{Domain: ts.Domain, Metric: ts.Metric}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
