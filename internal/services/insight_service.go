package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crosslens/crosslens-go/internal/analytics"
	"github.com/crosslens/crosslens-go/internal/cache"
	"github.com/crosslens/crosslens-go/internal/config"
	"github.com/crosslens/crosslens-go/internal/models"
	"github.com/crosslens/crosslens-go/internal/observability"
	"github.com/crosslens/crosslens-go/internal/store"
)

const (
	cacheCategoryInsights = "insights"
	cacheCategoryForecast = "forecast"

	// TTLs are scaled down for query windows shorter than this reference.
	ttlReferenceWindow = 24 * time.Hour
)

// InsightQuery selects which correlations to compute and how.
type InsightQuery struct {
	Domains     []string
	MinStrength models.Strength
	From        time.Time
	To          time.Time
	Method      models.CorrelationMethod
	MaxLag      int
}

// InsightReport is the cached, serializable outcome of an insight query.
type InsightReport struct {
	Insights   []models.Insight `json:"insights"`
	ComputedAt time.Time        `json:"computed_at"`
	Stale      bool             `json:"stale"`
}

// ForecastReport wraps a forecast with cache freshness metadata.
type ForecastReport struct {
	Forecast   *models.Forecast `json:"forecast"`
	Summary    string           `json:"summary"`
	ComputedAt time.Time        `json:"computed_at"`
	Stale      bool             `json:"stale"`
}

// InsightService orchestrates the series store, the analytics engines, the
// result cache and the formatter behind the HTTP API.
type InsightService struct {
	store      *store.MemoryStore
	repo       *store.Repository
	correlator *analytics.CorrelationEngine
	forecaster *analytics.ForecastEngine
	cache      *cache.ResultCache
	formatter  *Formatter
	analyticsC config.AnalyticsConfig
	cacheC     config.CacheConfig
	logger     *logrus.Logger
}

// NewInsightService wires the analytics pipeline together. repo may be nil
// when no database is configured.
func NewInsightService(
	memStore *store.MemoryStore,
	repo *store.Repository,
	correlator *analytics.CorrelationEngine,
	forecaster *analytics.ForecastEngine,
	resultCache *cache.ResultCache,
	analyticsCfg config.AnalyticsConfig,
	cacheCfg config.CacheConfig,
	logger *logrus.Logger,
) *InsightService {
	if logger == nil {
		logger = logrus.New()
	}
	return &InsightService{
		store:      memStore,
		repo:       repo,
		correlator: correlator,
		forecaster: forecaster,
		cache:      resultCache,
		formatter:  NewFormatter(),
		analyticsC: analyticsCfg,
		cacheC:     cacheCfg,
		logger:     logger,
	}
}

// Ingest stores a metric batch in memory and, when a database is configured,
// appends it to the durable batch log. Durable persistence is best effort;
// a write failure is logged and does not fail the ingest.
func (s *InsightService) Ingest(ctx context.Context, domain, metric, unit string, points []models.MetricPoint) (*models.TimeSeries, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanOpSeriesStore, "ingest")
	var err error
	defer func() { observability.FinishSpan(span, err) }()

	ts, err := s.store.Ingest(domain, metric, unit, points)
	if err != nil {
		return nil, err
	}

	if s.repo != nil && s.repo.Available() {
		if saveErr := s.repo.SaveBatch(ctx, ts); saveErr != nil {
			s.logger.WithFields(logrus.Fields{
				"domain": domain,
				"metric": metric,
				"error":  saveErr.Error(),
			}).Warn("Failed to persist metric batch")
		}
	}

	return ts, nil
}

// ListSeries returns metadata for every stored series.
func (s *InsightService) ListSeries() []models.SeriesInfo {
	return s.store.List()
}

// ListInsights computes (or serves from cache) cross-domain correlations for
// every pair of series whose domains differ, restricted to the queried
// domains and window. Results below the minimum strength are filtered out.
func (s *InsightService) ListInsights(ctx context.Context, query InsightQuery) (*InsightReport, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanOpCorrelate, "list_insights")
	var err error
	defer func() { observability.FinishSpan(span, err) }()

	if query.Method == "" {
		query.Method = models.MethodPearson
	}
	if query.MaxLag <= 0 {
		query.MaxLag = s.analyticsC.MaxLag
	}

	ctx, cancel := context.WithTimeout(ctx, s.analyticsC.ComputeTimeoutDuration())
	defer cancel()

	ttl := s.ttlForQuery(query)
	key := s.insightCacheKey(query)

	result, err := s.cache.GetOrCompute(ctx, cacheCategoryInsights, key, ttl, func(ctx context.Context) (interface{}, error) {
		insights, computeErr := s.computeInsights(ctx, query)
		if computeErr != nil {
			return nil, computeErr
		}
		return insights, nil
	})
	if err != nil {
		return nil, err
	}

	var insights []models.Insight
	if err = json.Unmarshal(result.Payload, &insights); err != nil {
		return nil, fmt.Errorf("decode cached insights: %w", err)
	}

	return &InsightReport{
		Insights:   insights,
		ComputedAt: result.ComputedAt,
		Stale:      result.Stale,
	}, nil
}

// GetForecast computes (or serves from cache) a forecast for one metric.
func (s *InsightService) GetForecast(ctx context.Context, domain, metric string, horizon int, model models.ForecastModel) (*ForecastReport, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanOpForecast, "get_forecast")
	var err error
	defer func() { observability.FinishSpan(span, err) }()

	if horizon <= 0 {
		horizon = s.analyticsC.ForecastHorizon
	}
	if model == "" {
		model = models.ModelLinear
	}

	ctx, cancel := context.WithTimeout(ctx, s.analyticsC.ComputeTimeoutDuration())
	defer cancel()

	ttl := s.clampTTL(s.cacheC.TTLFor(domain))
	key := hashKey(fmt.Sprintf("forecast|%s|%s|%d|%s", domain, metric, horizon, model))

	result, err := s.cache.GetOrCompute(ctx, cacheCategoryForecast, key, ttl, func(ctx context.Context) (interface{}, error) {
		series, ok := s.store.Get(domain, metric)
		if !ok {
			return nil, &analytics.InsufficientDataError{Points: 0, Required: 2 * horizon}
		}
		return s.forecaster.Forecast(ctx, series, horizon, model)
	})
	if err != nil {
		return nil, err
	}

	var fc models.Forecast
	if err = json.Unmarshal(result.Payload, &fc); err != nil {
		return nil, fmt.Errorf("decode cached forecast: %w", err)
	}

	return &ForecastReport{
		Forecast:   &fc,
		Summary:    s.formatter.DescribeForecast(&fc),
		ComputedAt: result.ComputedAt,
		Stale:      result.Stale,
	}, nil
}

// CacheStats exposes per-category hit/miss counters.
func (s *InsightService) CacheStats() map[string]cache.Stats {
	return s.cache.GetStats()
}

func (s *InsightService) computeInsights(ctx context.Context, query InsightQuery) ([]models.Insight, error) {
	series := s.selectSeries(query)

	insights := make([]models.Insight, 0)
	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			a, b := series[i], series[j]
			if a.Domain == b.Domain {
				continue
			}

			insight, err := s.correlator.Correlate(ctx, a, b, query.Method, query.MaxLag)
			if err != nil {
				var timeoutErr *analytics.ComputationTimeoutError
				if errors.As(err, &timeoutErr) {
					return nil, err
				}
				s.logger.WithFields(logrus.Fields{
					"domain1": a.Domain,
					"metric1": a.Metric,
					"domain2": b.Domain,
					"metric2": b.Metric,
					"error":   err.Error(),
				}).Debug("Skipping pair")
				continue
			}

			if query.MinStrength != "" && !insight.Strength.AtLeast(query.MinStrength) {
				continue
			}
			insight.Description = s.formatter.Describe(insight)
			insights = append(insights, *insight)
		}
	}

	sort.Slice(insights, func(i, j int) bool {
		ai, aj := insights[i].Coefficient, insights[j].Coefficient
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})

	return insights, nil
}

// selectSeries returns the stored series restricted to the query's domains
// and window, skipping series that end up empty after windowing.
func (s *InsightService) selectSeries(query InsightQuery) []*models.TimeSeries {
	wanted := make(map[string]bool, len(query.Domains))
	for _, d := range query.Domains {
		wanted[strings.ToLower(strings.TrimSpace(d))] = true
	}

	var out []*models.TimeSeries
	for _, info := range s.store.List() {
		if len(wanted) > 0 && !wanted[strings.ToLower(info.Domain)] {
			continue
		}
		series, ok := s.store.Get(info.Domain, info.Metric)
		if !ok {
			continue
		}
		if !query.From.IsZero() || !query.To.IsZero() {
			series = series.Window(query.From, query.To)
		}
		if series.Len() == 0 {
			continue
		}
		out = append(out, series)
	}
	return out
}

// ttlForQuery picks the shortest TTL among the involved domains, then scales
// it down proportionally for query windows under the reference window.
func (s *InsightService) ttlForQuery(query InsightQuery) time.Duration {
	domains := query.Domains
	if len(domains) == 0 {
		for _, d := range s.store.Domains() {
			domains = append(domains, d)
		}
	}

	ttl := s.cacheC.TTLFor("")
	for i, d := range domains {
		dttl := s.cacheC.TTLFor(strings.ToLower(strings.TrimSpace(d)))
		if i == 0 || dttl < ttl {
			ttl = dttl
		}
	}

	if !query.From.IsZero() && !query.To.IsZero() {
		window := query.To.Sub(query.From)
		if window > 0 && window < ttlReferenceWindow {
			ttl = time.Duration(float64(ttl) * float64(window) / float64(ttlReferenceWindow))
		}
	}

	return s.clampTTL(ttl)
}

func (s *InsightService) clampTTL(ttl time.Duration) time.Duration {
	if min := s.cacheC.MinTTLDuration(); ttl < min {
		return min
	}
	return ttl
}

func (s *InsightService) insightCacheKey(query InsightQuery) string {
	domains := append([]string(nil), query.Domains...)
	for i := range domains {
		domains[i] = strings.ToLower(strings.TrimSpace(domains[i]))
	}
	sort.Strings(domains)

	raw := fmt.Sprintf("insights|%s|%s|%d|%s|%d|%d",
		strings.Join(domains, ","),
		query.Method,
		query.MaxLag,
		query.MinStrength,
		query.From.UnixNano(),
		query.To.UnixNano(),
	)
	return hashKey(raw)
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}
