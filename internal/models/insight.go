package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CorrelationMethod selects the correlation coefficient computed by the
// engine. The set is closed; callers pick a method explicitly so results
// stay deterministic.
type CorrelationMethod string

const (
	MethodPearson  CorrelationMethod = "pearson"
	MethodSpearman CorrelationMethod = "spearman"
)

// ParseCorrelationMethod validates a method string from the API layer.
func ParseCorrelationMethod(s string) (CorrelationMethod, error) {
	switch CorrelationMethod(strings.ToLower(s)) {
	case MethodPearson:
		return MethodPearson, nil
	case MethodSpearman:
		return MethodSpearman, nil
	case "":
		return MethodPearson, nil
	default:
		return "", fmt.Errorf("unknown correlation method %q", s)
	}
}

// Strength buckets a correlation coefficient by magnitude.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"

	// |r| thresholds for the strength buckets.
	StrongThreshold   = 0.7
	ModerateThreshold = 0.4
)

// ClassifyStrength maps a coefficient to its strength bucket.
func ClassifyStrength(coefficient float64) Strength {
	abs := coefficient
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= StrongThreshold:
		return StrengthStrong
	case abs >= ModerateThreshold:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// AtLeast reports whether s meets the given minimum strength.
func (s Strength) AtLeast(min Strength) bool {
	return s.rank() >= min.rank()
}

func (s Strength) rank() int {
	switch s {
	case StrengthStrong:
		return 2
	case StrengthModerate:
		return 1
	default:
		return 0
	}
}

// Insight is a scored cross-domain correlation. Read-only once emitted.
// A positive lag means the second series trails the first by Lag grid
// intervals of LagUnit.
type Insight struct {
	ID          uuid.UUID         `json:"id"`
	Domain1     string            `json:"domain1"`
	Domain2     string            `json:"domain2"`
	Metric1     string            `json:"metric1"`
	Metric2     string            `json:"metric2"`
	Coefficient float64           `json:"coefficient"`
	Method      CorrelationMethod `json:"method"`
	Lag         int               `json:"lag"`
	LagUnit     time.Duration     `json:"lag_unit"`
	Strength    Strength          `json:"strength"`
	Description string            `json:"description"`
	Confidence  float64           `json:"confidence"`
	SampleSize  int               `json:"sample_size"`
	ComputedAt  time.Time         `json:"computed_at"`
}
