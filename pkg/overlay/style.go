package overlay

import (
	"math"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

const (
	ZoneColor = "#FF4500"
	GridColor = "#64748b"

	optimalIntensity = 0.6
)

// GridStyle is shared by every grid cell.
var GridStyle = models.Style{Color: GridColor, Opacity: 0.3, Weight: 1, Fill: false}

// Intensity grades how far a fixed precision is from the one the zoom would
// pick, in [0, 1]. Optimal mode always returns 0.6. The normalisation is a
// visual heuristic.
func Intensity(mode active.Mode, fixedPrecision int, zoom float64) float64 {
	if mode != active.Fixed {
		return optimalIntensity
	}

	optimal := precision.Select(zoom)
	diff := math.Abs(float64(fixedPrecision - optimal))
	maxDiff := math.Max(float64(4-optimal), float64(optimal-1))

	i := math.Min(1, diff/maxDiff)
	if diff > 2 {
		i = math.Min(1, i+0.2)
	}
	return i
}

// ZoneStyle turns an intensity into the zone rectangle style.
func ZoneStyle(intensity float64) models.Style {
	return models.Style{
		Color:   ZoneColor,
		Opacity: 0.4 + intensity*0.8,
		Weight:  int(math.Round(3 + intensity*20)),
		Fill:    false,
	}
}
