package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, mean(values), 1e-9)
	assert.InDelta(t, 2.0, stdDev(values), 1e-9)

	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, stdDev(nil))
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, percentile(values, 25), 1e-9)
	assert.InDelta(t, 3.25, percentile(values, 75), 1e-9)
	assert.InDelta(t, 2.5, percentile(values, 50), 1e-9)

	assert.Equal(t, 7.0, percentile([]float64{7}, 75))
}

func TestLinearSlope(t *testing.T) {
	assert.InDelta(t, 2.0, linearSlope([]float64{1, 3, 5, 7}), 1e-9)
	assert.InDelta(t, -1.0, linearSlope([]float64{10, 9, 8, 7}), 1e-9)
	assert.InDelta(t, 0.0, linearSlope([]float64{5, 5, 5}), 1e-9)
	assert.Equal(t, 0.0, linearSlope([]float64{42}))
}

func TestDiffs(t *testing.T) {
	assert.Equal(t, []float64{2, -1, 4}, diffs([]float64{1, 3, 2, 6}))
	assert.Nil(t, diffs([]float64{1}))
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, 1, 4, 1, 5})
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 5.0, hi)
}
