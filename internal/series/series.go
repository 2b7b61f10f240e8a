// Package series holds positional time-series transforms over daily columns.
//
// Columns are plain float64 slices ordered by date; NaN marks a missing value.
// Every transform follows the same rule: a value that needs data outside the
// slice, or touches a NaN, is NaN itself.
package series

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Reducer collapses a full, NaN-free window to a single value.
type Reducer func(window []float64) float64

var (
	Mean Reducer = func(w []float64) float64 { return reduce(stats.Mean, w) }
	// Std is the sample standard deviation (n-1 denominator).
	Std Reducer = func(w []float64) float64 { return reduce(stats.StandardDeviationSample, w) }
	Min Reducer = func(w []float64) float64 { return reduce(stats.Min, w) }
	Max Reducer = func(w []float64) float64 { return reduce(stats.Max, w) }
	Sum Reducer = func(w []float64) float64 { return reduce(stats.Sum, w) }
)

func reduce(fn func(stats.Float64Data) (float64, error), w []float64) float64 {
	v, err := fn(stats.Float64Data(w))
	if err != nil {
		return math.NaN()
	}
	return v
}

// NaNs returns a column of n missing values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Shift moves values k positions forward: out[i] = xs[i-k].
func Shift(xs []float64, k int) []float64 {
	out := NaNs(len(xs))
	for i := range xs {
		if j := i - k; j >= 0 && j < len(xs) {
			out[i] = xs[j]
		}
	}
	return out
}

// Rolling applies fn over trailing windows of size w ending at each position.
// Windows that are incomplete or contain NaN yield NaN.
func Rolling(xs []float64, w int, fn Reducer) []float64 {
	out := NaNs(len(xs))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		window := xs[i-w+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = fn(window)
	}
	return out
}

// Lagged is the strict look-back rolling statistic: the window ending at
// position i covers i-w .. i-1 and never includes i itself.
func Lagged(xs []float64, w int, fn Reducer) []float64 {
	return Rolling(Shift(xs, 1), w, fn)
}

// Mul multiplies two columns element-wise.
func Mul(a, b []float64) []float64 {
	out := NaNs(len(a))
	for i := range a {
		if i < len(b) {
			out[i] = a[i] * b[i]
		}
	}
	return out
}

// Stagnation returns p / (w + 1) element-wise. A wind speed of exactly -1
// would divide by zero; it yields NaN instead of Inf.
func Stagnation(p, w []float64) []float64 {
	out := NaNs(len(p))
	for i := range p {
		if i >= len(w) {
			break
		}
		d := w[i] + 1
		if d == 0 {
			continue
		}
		out[i] = p[i] / d
	}
	return out
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
