package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MetricPoint represents a single observation in a time series.
type MetricPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// TimeSeries holds the normalized observations for one metric in one domain.
// Points are strictly increasing in time with no duplicate timestamps. A
// series is immutable once stored; newer ingestion batches supersede it.
type TimeSeries struct {
	Domain     string        `json:"domain"`
	Metric     string        `json:"metric"`
	Unit       string        `json:"unit,omitempty"`
	Points     []MetricPoint `json:"points"`
	BatchID    string        `json:"batch_id"`
	IngestedAt time.Time     `json:"ingested_at"`
}

// SeriesInfo summarizes a stored series for listing endpoints.
type SeriesInfo struct {
	Domain     string    `json:"domain"`
	Metric     string    `json:"metric"`
	Unit       string    `json:"unit,omitempty"`
	PointCount int       `json:"point_count"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
	BatchID    string    `json:"batch_id"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Len returns the number of points in the series.
func (ts *TimeSeries) Len() int {
	return len(ts.Points)
}

// Values returns the observations as float64 slices for the analytics layer.
func (ts *TimeSeries) Values() ([]time.Time, []float64) {
	times := make([]time.Time, len(ts.Points))
	values := make([]float64, len(ts.Points))
	for i, p := range ts.Points {
		times[i] = p.Timestamp
		values[i] = p.Value.InexactFloat64()
	}
	return times, values
}

// Interval estimates the native sampling interval as the median gap between
// consecutive points. Returns zero for series with fewer than two points.
func (ts *TimeSeries) Interval() time.Duration {
	if len(ts.Points) < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, len(ts.Points)-1)
	for i := 1; i < len(ts.Points); i++ {
		gaps = append(gaps, ts.Points[i].Timestamp.Sub(ts.Points[i-1].Timestamp))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}

// Window returns a copy of the series restricted to [from, to]. Zero bounds
// are treated as open.
func (ts *TimeSeries) Window(from, to time.Time) *TimeSeries {
	out := &TimeSeries{
		Domain:     ts.Domain,
		Metric:     ts.Metric,
		Unit:       ts.Unit,
		BatchID:    ts.BatchID,
		IngestedAt: ts.IngestedAt,
	}
	for _, p := range ts.Points {
		if !from.IsZero() && p.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && p.Timestamp.After(to) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// Info returns the listing summary for the series.
func (ts *TimeSeries) Info() SeriesInfo {
	info := SeriesInfo{
		Domain:     ts.Domain,
		Metric:     ts.Metric,
		Unit:       ts.Unit,
		PointCount: len(ts.Points),
		BatchID:    ts.BatchID,
		IngestedAt: ts.IngestedAt,
	}
	if len(ts.Points) > 0 {
		info.First = ts.Points[0].Timestamp
		info.Last = ts.Points[len(ts.Points)-1].Timestamp
	}
	return info
}
