package services

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/crosslens/crosslens-go/internal/models"
)

// Formatter renders human-readable insight descriptions.
type Formatter struct {
	printer *message.Printer
	caser   cases.Caser
}

// NewFormatter creates a formatter for English output.
func NewFormatter() *Formatter {
	return &Formatter{
		printer: message.NewPrinter(language.English),
		caser:   cases.Title(language.English),
	}
}

// Describe produces a one-line description for a correlation insight, e.g.
// "Strong positive correlation between weather:temperature and
// transportation:ridership (r=0.83, lag 1 hour)".
func (f *Formatter) Describe(insight *models.Insight) string {
	direction := "positive"
	if insight.Coefficient < 0 {
		direction = "negative"
	}
	strength := f.caser.String(string(insight.Strength))

	return f.printer.Sprintf("%s %s correlation between %s:%s and %s:%s (r=%.2f, %s)",
		strength, direction,
		insight.Domain1, insight.Metric1,
		insight.Domain2, insight.Metric2,
		insight.Coefficient,
		f.lagPhrase(insight.Lag, insight.LagUnit),
	)
}

// DescribeForecast produces a one-line summary for a forecast result.
func (f *Formatter) DescribeForecast(fc *models.Forecast) string {
	seasonal := "no seasonal component"
	if fc.SeasonalApplied {
		seasonal = "seasonally adjusted"
	}
	return f.printer.Sprintf("%d-step %s forecast for %s:%s (%s, confidence %.2f)",
		fc.Horizon, string(fc.Model), fc.Domain, fc.Metric, seasonal, fc.Confidence)
}

func (f *Formatter) lagPhrase(lag int, unit time.Duration) string {
	if lag == 0 {
		return "no lag"
	}
	steps := lag
	if steps < 0 {
		steps = -steps
	}
	name := unitName(unit)
	if steps != 1 {
		name += "s"
	}
	if lag < 0 {
		return f.printer.Sprintf("lag -%d %s", steps, name)
	}
	return f.printer.Sprintf("lag %d %s", steps, name)
}

func unitName(unit time.Duration) string {
	switch {
	case unit >= 24*time.Hour:
		return "day"
	case unit >= time.Hour:
		return "hour"
	case unit >= time.Minute:
		return "minute"
	default:
		return "interval"
	}
}
