// Package smooth turns monthly totals into a dense, visually continuous
// curve using an interpolating cubic spline.
package smooth

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"

	"salescharts/internal/core"
)

// MinPoints is the smallest number of points a spline is fitted to. Shorter
// inputs are returned unchanged.
const MinPoints = 4

// DefaultSamples matches the density used for a 12-month axis.
const DefaultSamples = 300

var (
	ErrLengthMismatch = errors.New("xs and ys differ in length")
	ErrNotIncreasing  = errors.New("xs must be strictly increasing")
)

// Point is one sample of a curve.
type Point struct {
	X, Y float64
}

// Curve smooths a monthly series over x = 1..12.
func Curve(series core.MonthlySeries, samples int) ([]Point, bool, error) {
	xs := make([]float64, 12)
	ys := make([]float64, 12)
	for i, v := range series.Values {
		xs[i] = float64(i + 1)
		ys[i] = v
	}
	return Interpolate(xs, ys, samples)
}

// Interpolate fits a not-a-knot cubic spline through (xs, ys) and samples it
// at evenly spaced x between the first and last knot. Every knot is part of
// the output so the curve passes through each original point. The boolean
// result is false when there were too few points to smooth, in which case
// the input points are returned as-is.
func Interpolate(xs, ys []float64, samples int) ([]Point, bool, error) {
	if len(xs) != len(ys) {
		return nil, false, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, false, fmt.Errorf("%w at index %d", ErrNotIncreasing, i)
		}
	}
	if len(xs) < MinPoints {
		out := make([]Point, len(xs))
		for i := range xs {
			out[i] = Point{X: xs[i], Y: ys[i]}
		}
		return out, false, nil
	}
	if samples < len(xs) {
		samples = DefaultSamples
	}

	var spline interp.NotAKnotCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, false, fmt.Errorf("fit spline: %w", err)
	}

	grid := sampleGrid(xs, samples)
	out := make([]Point, len(grid))
	for i, x := range grid {
		out[i] = Point{X: x, Y: spline.Predict(x)}
	}
	// Pin knots to their exact values; Predict may differ in the last ulp.
	k := 0
	for i := range out {
		if k < len(xs) && out[i].X == xs[k] {
			out[i].Y = ys[k]
			k++
		}
	}
	return out, true, nil
}

// sampleGrid returns n evenly spaced values over [xs[0], xs[len-1]] merged
// with the knots themselves, sorted and without duplicates.
func sampleGrid(xs []float64, n int) []float64 {
	lo, hi := xs[0], xs[len(xs)-1]
	grid := make([]float64, 0, n+len(xs))
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		grid = append(grid, lo+float64(i)*step)
	}
	grid[n-1] = hi
	grid = append(grid, xs...)
	sort.Float64s(grid)

	out := grid[:1]
	for _, x := range grid[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
