package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crosslens/crosslens-go/internal/models"
	"github.com/crosslens/crosslens-go/internal/utils"
)

// MemoryStore holds the normalized per-domain series the engines read.
// Ingestion is append-only per batch; a later batch with overlapping
// timestamps supersedes the stored points (most-recent ingestion wins).
// Reads return copies, so stored series are effectively immutable.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string]*models.TimeSeries
}

// NewMemoryStore creates an empty series store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string]*models.TimeSeries)}
}

func seriesKey(domain string, metric string) string {
	return domain + "/" + metric
}

// Ingest validates and merges a batch of points into the series for
// (domain, metric). The batch must be sortable to strictly increasing
// timestamps; duplicate timestamps within one batch are rejected.
func (s *MemoryStore) Ingest(domain string, metric string, unit string, points []models.MetricPoint) (*models.TimeSeries, error) {
	if domain == "" || metric == "" {
		return nil, utils.NewValidationError("domain and metric are required")
	}
	if len(points) == 0 {
		return nil, utils.NewValidationError("at least one point is required")
	}

	batch := make([]models.MetricPoint, len(points))
	copy(batch, points)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Timestamp.Before(batch[j].Timestamp) })
	for i := 1; i < len(batch); i++ {
		if !batch[i].Timestamp.After(batch[i-1].Timestamp) {
			return nil, utils.NewValidationErrorf("duplicate timestamp %s in batch", batch[i].Timestamp.Format(time.RFC3339))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := batch
	if existing, ok := s.series[seriesKey(domain, metric)]; ok {
		merged = mergePoints(existing.Points, batch)
	}

	ts := &models.TimeSeries{
		Domain:     domain,
		Metric:     metric,
		Unit:       unit,
		Points:     merged,
		BatchID:    uuid.NewString(),
		IngestedAt: time.Now(),
	}
	s.series[seriesKey(domain, metric)] = ts
	return copySeries(ts), nil
}

// Get returns a copy of the stored series, or false when absent.
func (s *MemoryStore) Get(domain string, metric string) (*models.TimeSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.series[seriesKey(domain, metric)]
	if !ok {
		return nil, false
	}
	return copySeries(ts), true
}

// Range returns a copy of the stored series restricted to [from, to].
func (s *MemoryStore) Range(domain string, metric string, from time.Time, to time.Time) (*models.TimeSeries, bool) {
	ts, ok := s.Get(domain, metric)
	if !ok {
		return nil, false
	}
	return ts.Window(from, to), true
}

// List returns summaries of all stored series, ordered by domain then metric.
func (s *MemoryStore) List() []models.SeriesInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SeriesInfo, 0, len(s.series))
	for _, ts := range s.series {
		out = append(out, ts.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Metric < out[j].Metric
	})
	return out
}

// Domains returns the distinct domains with at least one stored series.
func (s *MemoryStore) Domains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, ts := range s.series {
		seen[ts.Domain] = true
	}
	out := make([]string, 0, len(seen))
	for domain := range seen {
		out = append(out, domain)
	}
	sort.Strings(out)
	return out
}

// mergePoints overlays batch onto existing; batch wins on equal timestamps.
func mergePoints(existing []models.MetricPoint, batch []models.MetricPoint) []models.MetricPoint {
	inBatch := make(map[int64]bool, len(batch))
	for _, p := range batch {
		inBatch[p.Timestamp.UnixNano()] = true
	}

	merged := make([]models.MetricPoint, 0, len(existing)+len(batch))
	for _, p := range existing {
		if !inBatch[p.Timestamp.UnixNano()] {
			merged = append(merged, p)
		}
	}
	merged = append(merged, batch...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	return merged
}

func copySeries(ts *models.TimeSeries) *models.TimeSeries {
	copied := *ts
	copied.Points = make([]models.MetricPoint, len(ts.Points))
	copy(copied.Points, ts.Points)
	return &copied
}
