package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1F47E/geohash-zones/pkg/active"
)

func TestIntensity(t *testing.T) {
	tests := []struct {
		name  string
		mode  active.Mode
		fixed int
		zoom  float64
		want  float64
	}{
		{"optimal is constant", active.Optimal, 9, 2, 0.6},
		{"fixed matches zoom", active.Fixed, 6, 16, 0},
		{"one step off at precision 6", active.Fixed, 7, 16, 0.2},
		{"two steps off at precision 1", active.Fixed, 3, 2, 2.0 / 3},
		{"three steps off gets the boost", active.Fixed, 4, 2, 1},
		{"far finer than optimal", active.Fixed, 9, 4, 1},
		{"coarser than optimal", active.Fixed, 3, 18, 4.0/6 + 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Intensity(tt.mode, tt.fixed, tt.zoom), 1e-9)
		})
	}
}

func TestZoneStyle(t *testing.T) {
	s := ZoneStyle(0.6)
	assert.Equal(t, ZoneColor, s.Color)
	assert.InDelta(t, 0.88, s.Opacity, 1e-9)
	assert.Equal(t, 15, s.Weight)
	assert.False(t, s.Fill)

	s = ZoneStyle(0)
	assert.InDelta(t, 0.4, s.Opacity, 1e-9)
	assert.Equal(t, 3, s.Weight)

	s = ZoneStyle(0.2)
	assert.Equal(t, 7, s.Weight)
}
