package analytics

import (
	"sort"
	"time"

	"github.com/crosslens/crosslens-go/internal/models"
)

// AlignedPair holds two series resampled onto a common timestamp grid with a
// lag offset applied to the second series. It exists only for the duration of
// the correlation computation that consumes it.
type AlignedPair struct {
	Timestamps []time.Time
	A          []float64
	B          []float64
	Lag        int
	Interval   time.Duration
}

// Aligner resamples series pairs onto a shared grid before correlation.
// Missing grid points are linearly interpolated when the surrounding gap is
// at most MaxGapIntervals grid steps; wider gaps are excluded rather than
// zero-filled, since zero-filling would bias the coefficient.
type Aligner struct {
	MaxGapIntervals int
	MinOverlap      int
}

const (
	defaultMaxGapIntervals = 2
	defaultMinOverlap      = 3
)

// NewAligner creates an aligner. Non-positive arguments fall back to the
// defaults (max gap 2 intervals, minimum overlap 3 points).
func NewAligner(maxGapIntervals int, minOverlap int) *Aligner {
	if maxGapIntervals <= 0 {
		maxGapIntervals = defaultMaxGapIntervals
	}
	if minOverlap <= 0 {
		minOverlap = defaultMinOverlap
	}
	return &Aligner{
		MaxGapIntervals: maxGapIntervals,
		MinOverlap:      minOverlap,
	}
}

// Align resamples a and b onto a grid at the coarser of their native
// intervals, pairing a(t) with b(t + lag*interval). A positive lag therefore
// means b trails a. Returns InsufficientDataError when fewer than MinOverlap
// valid overlapping points remain.
func (al *Aligner) Align(a *models.TimeSeries, b *models.TimeSeries, lag int) (*AlignedPair, error) {
	aTimes, aValues := a.Values()
	bTimes, bValues := b.Values()

	if len(aTimes) == 0 || len(bTimes) == 0 {
		return nil, &InsufficientDataError{Points: 0, Required: al.MinOverlap}
	}

	interval := a.Interval()
	if bi := b.Interval(); bi > interval {
		interval = bi
	}
	if interval <= 0 {
		return nil, &InsufficientDataError{Points: 0, Required: al.MinOverlap}
	}

	shift := time.Duration(lag) * interval

	start := aTimes[0]
	if s := bTimes[0].Add(-shift); s.After(start) {
		start = s
	}
	end := aTimes[len(aTimes)-1]
	if e := bTimes[len(bTimes)-1].Add(-shift); e.Before(end) {
		end = e
	}
	if end.Before(start) {
		return nil, &InsufficientDataError{Points: 0, Required: al.MinOverlap}
	}

	maxGap := time.Duration(al.MaxGapIntervals) * interval
	pair := &AlignedPair{Lag: lag, Interval: interval}

	for t := start; !t.After(end); t = t.Add(interval) {
		av, ok := sampleAt(aTimes, aValues, t, maxGap)
		if !ok {
			continue
		}
		bv, ok := sampleAt(bTimes, bValues, t.Add(shift), maxGap)
		if !ok {
			continue
		}
		pair.Timestamps = append(pair.Timestamps, t)
		pair.A = append(pair.A, av)
		pair.B = append(pair.B, bv)
	}

	if len(pair.A) < al.MinOverlap {
		return nil, &InsufficientDataError{Points: len(pair.A), Required: al.MinOverlap}
	}
	return pair, nil
}

// sampleAt reads the series at t, interpolating linearly between the two
// surrounding points when their gap is at most maxGap. Samples outside the
// series range or across wider gaps are invalid.
func sampleAt(times []time.Time, values []float64, t time.Time, maxGap time.Duration) (float64, bool) {
	n := len(times)
	if n == 0 {
		return 0, false
	}

	i := sort.Search(n, func(k int) bool { return !times[k].Before(t) })
	if i < n && times[i].Equal(t) {
		return values[i], true
	}
	if i == 0 || i == n {
		return 0, false
	}

	gap := times[i].Sub(times[i-1])
	if gap > maxGap {
		return 0, false
	}

	frac := float64(t.Sub(times[i-1])) / float64(gap)
	return values[i-1] + frac*(values[i]-values[i-1]), true
}
