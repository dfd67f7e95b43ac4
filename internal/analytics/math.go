package analytics

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(len(values)-1)
	return math.Sqrt(variance)
}

// pearson computes the Pearson correlation coefficient over paired samples.
// Returns (0, false) when either sample has zero variance.
func pearson(x []float64, y []float64) (float64, bool) {
	n := len(x)
	if n == 0 || len(y) != n {
		return 0, false
	}
	meanX := mean(x)
	meanY := mean(y)

	var numerator float64
	var denomX float64
	var denomY float64

	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	denom := math.Sqrt(denomX * denomY)
	if denom == 0 {
		return 0, false
	}

	corr := numerator / denom
	if corr > 1 {
		return 1, true
	}
	if corr < -1 {
		return -1, true
	}
	return corr, true
}

// spearman computes the Spearman rank correlation: Pearson over the rank
// transforms, with ties assigned their average rank.
func spearman(x []float64, y []float64) (float64, bool) {
	if len(x) == 0 || len(y) != len(x) {
		return 0, false
	}
	return pearson(ranks(x), ranks(y))
}

// ranks assigns 1-based ranks, averaging over ties.
func ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Average rank across the tie group [i, j].
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// linearFit estimates y = intercept + slope*x over the sample indices.
func linearFit(values []float64) (slope float64, intercept float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, values[0]
	}

	var sumX, sumY, sumXX, sumXY float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXX += x * x
		sumXY += x * v
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, mean(values)
	}
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept
}

// holtFit runs Holt's double exponential smoothing and returns the final
// level and trend plus the one-step-ahead fitted values.
func holtFit(values []float64, alpha float64, beta float64) (level float64, trend float64, fitted []float64) {
	n := len(values)
	fitted = make([]float64, n)
	if n == 0 {
		return 0, 0, fitted
	}

	level = values[0]
	fitted[0] = values[0]
	if n > 1 {
		trend = values[1] - values[0]
	}

	for i := 1; i < n; i++ {
		fitted[i] = level + trend
		prevLevel := level
		level = alpha*values[i] + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return level, trend, fitted
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
