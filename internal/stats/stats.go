// Package stats provides the numeric primitives used by the analytics layer.
// Functions never return NaN: empty input is reported through a boolean.
package stats

import (
	"math"
	"sort"
)

// Pair is a paired (x, y) observation
type Pair struct {
	X float64
	Y float64
}

// Sum adds up values
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean; ok is false for empty input
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	return Sum(values) / float64(len(values)), true
}

// Median returns the middle value (average of the two middle values for even length).
// The input slice is not modified.
func Median(values []float64) (median float64, ok bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// MinMax returns the smallest and largest value; ok is false for empty input
func MinMax(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// Pearson computes the product-moment correlation coefficient.
// Returns 0 for fewer than two pairs or when either variable has zero variance.
func Pearson(pairs []Pair) float64 {
	n := float64(len(pairs))
	if len(pairs) < 2 {
		return 0
	}

	var sumX, sumY float64
	for _, p := range pairs {
		sumX += p.X
		sumY += p.Y
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for _, p := range pairs {
		dx, dy := p.X-meanX, p.Y-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0
	}
	return cov / denom
}

// Percent returns part/total*100; 0 when total is zero
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
