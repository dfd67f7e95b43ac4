package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name     string
		x        []float64
		y        []float64
		expected float64
		defined  bool
	}{
		{
			name:     "perfect positive",
			x:        []float64{1, 2, 3, 4, 5},
			y:        []float64{2, 4, 6, 8, 10},
			expected: 1,
			defined:  true,
		},
		{
			name:     "perfect negative",
			x:        []float64{1, 2, 3, 4, 5},
			y:        []float64{10, 8, 6, 4, 2},
			expected: -1,
			defined:  true,
		},
		{
			name:    "zero variance in y",
			x:       []float64{1, 2, 3, 4, 5},
			y:       []float64{7, 7, 7, 7, 7},
			defined: false,
		},
		{
			name:    "empty",
			x:       nil,
			y:       nil,
			defined: false,
		},
		{
			name:    "length mismatch",
			x:       []float64{1, 2, 3},
			y:       []float64{1, 2},
			defined: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, defined := pearson(tt.x, tt.y)
			assert.Equal(t, tt.defined, defined)
			if tt.defined {
				assert.InDelta(t, tt.expected, r, 1e-9)
			}
		})
	}
}

func TestPearsonBounded(t *testing.T) {
	x := []float64{1.0000001, 2.0000002, 3.0000003, 4.0000001, 5.0000004}
	y := []float64{1, 2, 3, 4, 5}
	r, defined := pearson(x, y)
	require.True(t, defined)
	assert.LessOrEqual(t, r, 1.0)
	assert.GreaterOrEqual(t, r, -1.0)
}

func TestSpearmanMonotonicNonlinear(t *testing.T) {
	// Monotonic but nonlinear relation has perfect rank correlation.
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 8, 27, 64, 125}
	r, defined := spearman(x, y)
	require.True(t, defined)
	assert.InDelta(t, 1, r, 1e-9)
}

func TestRanksAveragesTies(t *testing.T) {
	got := ranks([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, got)
}

func TestLinearFit(t *testing.T) {
	slope, intercept := linearFit([]float64{3, 5, 7, 9, 11})
	assert.InDelta(t, 2, slope, 1e-9)
	assert.InDelta(t, 3, intercept, 1e-9)
}

func TestLinearFitDegenerate(t *testing.T) {
	slope, intercept := linearFit([]float64{42})
	assert.Zero(t, slope)
	assert.Equal(t, 42.0, intercept)

	slope, intercept = linearFit(nil)
	assert.Zero(t, slope)
	assert.Zero(t, intercept)
}

func TestHoltFitLinearSeries(t *testing.T) {
	// On a perfectly linear series Holt smoothing recovers the slope.
	values := []float64{10, 12, 14, 16, 18, 20}
	level, trendSlope, fitted := holtFit(values, 0.5, 0.3)
	require.Len(t, fitted, len(values))
	assert.InDelta(t, 20, level, 1e-6)
	assert.InDelta(t, 2, trendSlope, 1e-6)
	for i := 1; i < len(values); i++ {
		assert.InDelta(t, values[i], fitted[i], 1e-6)
	}
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 1, stdDev([]float64{1, 2, 3}), 1e-9)
	assert.Zero(t, stdDev([]float64{5}))
	assert.Zero(t, stdDev(nil))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.3))
	assert.Equal(t, 1.0, clamp01(1.7))
	assert.Equal(t, 0.5, clamp01(0.5))
}
