package smooth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescharts/internal/core"
)

func TestCurvePassesThroughMonths(t *testing.T) {
	series := core.MonthlySeries{Values: [12]float64{120, 80, 95, 140, 60, 0, 30, 210, 180, 175, 90, 300}}

	pts, smoothed, err := Curve(series, DefaultSamples)
	require.NoError(t, err)
	require.True(t, smoothed)
	assert.GreaterOrEqual(t, len(pts), DefaultSamples)

	assert.Equal(t, 1.0, pts[0].X)
	assert.Equal(t, 12.0, pts[len(pts)-1].X)

	for m := 1; m <= 12; m++ {
		found := false
		for _, p := range pts {
			if p.X == float64(m) {
				assert.InDelta(t, series.Value(m), p.Y, 1e-9, "month %d", m)
				found = true
				break
			}
		}
		assert.True(t, found, "month %d missing from curve", m)
	}
}

func TestCurveIsSortedAndFinite(t *testing.T) {
	series := core.MonthlySeries{Values: [12]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}
	pts, _, err := Curve(series, 50)
	require.NoError(t, err)
	for i := 1; i < len(pts); i++ {
		require.Greater(t, pts[i].X, pts[i-1].X)
		require.False(t, math.IsNaN(pts[i].Y) || math.IsInf(pts[i].Y, 0))
	}
	// A straight line stays straight under a not-a-knot spline.
	for _, p := range pts {
		assert.InDelta(t, p.X, p.Y, 1e-9)
	}
}

func TestInterpolateTooFewPoints(t *testing.T) {
	pts, smoothed, err := Interpolate([]float64{1, 2, 3}, []float64{5, 6, 4}, 300)
	require.NoError(t, err)
	assert.False(t, smoothed)
	assert.Equal(t, []Point{{1, 5}, {2, 6}, {3, 4}}, pts)
}

func TestInterpolateValidation(t *testing.T) {
	_, _, err := Interpolate([]float64{1, 2}, []float64{1}, 10)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, _, err = Interpolate([]float64{1, 3, 2, 4}, []float64{1, 1, 1, 1}, 10)
	assert.ErrorIs(t, err, ErrNotIncreasing)
}

func TestSampleGridMergesKnots(t *testing.T) {
	grid := sampleGrid([]float64{0, 0.3, 1}, 3)
	assert.Equal(t, []float64{0, 0.3, 0.5, 1}, grid)
}
