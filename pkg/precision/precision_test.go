package precision

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		zoom float64
		want int
	}{
		{-10, 1},
		{0, 1},
		{3, 1},
		{3.01, 2},
		{6, 2},
		{7.5, 3},
		{12, 4},
		{13, 5},
		{16, 6},
		{17, 6},
		{18, 7},
		{20, 8},
		{21, 8},
		{21.5, 9},
		{1e9, 9},
		{math.Inf(1), 9},
		{math.Inf(-1), 1},
		{math.NaN(), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Select(tt.zoom), "zoom %v", tt.zoom)
	}
}

func TestSelectMonotonicAndBounded(t *testing.T) {
	prev := Select(-100)
	for z := -100.0; z <= 100; z += 0.25 {
		p := Select(z)
		assert.GreaterOrEqual(t, p, prev, "zoom %v", z)
		assert.True(t, Valid(p), "zoom %v gave %d", z, p)
		prev = p
	}
}

func TestZoomTableOrdered(t *testing.T) {
	for i := 1; i < len(ZoomTable); i++ {
		assert.Less(t, ZoomTable[i-1].MaxZoom, ZoomTable[i].MaxZoom)
		assert.Less(t, ZoomTable[i-1].Precision, ZoomTable[i].Precision)
	}
}

func TestClampAndLabels(t *testing.T) {
	assert.Equal(t, 1, Clamp(-3))
	assert.Equal(t, 9, Clamp(12))
	assert.Equal(t, 7, Clamp(7))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, Levels())
	assert.Equal(t, "~5000 km", Label(1))
	assert.Equal(t, "~2.4 m", Label(9))
	assert.Equal(t, "~unknown", Label(0))
	assert.Equal(t, 1.2, ApproxRangeKm(6))
	assert.Zero(t, ApproxRangeKm(10))

	assert.Equal(t, "1 character (~5000 km)", Describe(1))
	assert.Equal(t, "6 characters (~1.2 km)", Describe(6))

	for p := Min; p < Max; p++ {
		assert.Greater(t, ApproxRangeKm(p), ApproxRangeKm(p+1))
	}
}
