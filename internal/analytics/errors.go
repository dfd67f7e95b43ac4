package analytics

import (
	"fmt"
	"time"
)

// InsufficientDataError indicates too few valid overlapping points remained
// after alignment to support a statistical computation.
type InsufficientDataError struct {
	Points   int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d valid overlapping points, need at least %d", e.Points, e.Required)
}

// UndefinedCorrelationError indicates a zero-variance input, for which the
// correlation coefficient is mathematically undefined. It is never reported
// as a coefficient of zero.
type UndefinedCorrelationError struct {
	Domain string
	Metric string
}

func (e *UndefinedCorrelationError) Error() string {
	return fmt.Sprintf("correlation undefined: series %s:%s has zero variance", e.Domain, e.Metric)
}

// InsufficientHistoryError indicates the requested forecast horizon exceeds
// the safe extrapolation ratio for the available history.
type InsufficientHistoryError struct {
	History int
	Horizon int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %d points cannot support a %d-point horizon (need at least %d)", e.History, e.Horizon, 2*e.Horizon)
}

// ComputationTimeoutError indicates a caller-imposed deadline elapsed before
// a correlation or forecast computation finished.
type ComputationTimeoutError struct {
	Operation string
	Elapsed   time.Duration
}

func (e *ComputationTimeoutError) Error() string {
	return fmt.Sprintf("computation timed out: %s after %s", e.Operation, e.Elapsed)
}

// CacheCorruptionError indicates a cached envelope did not match the key it
// was fetched under.
type CacheCorruptionError struct {
	Key      string
	FoundKey string
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("cache corruption: entry under key %q claims key %q", e.Key, e.FoundKey)
}
