package overlay

import (
	"math"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/models"
)

// DefaultMaxGridCells caps a single grid redraw.
const DefaultMaxGridCells = 2500

// CellSize returns the latitude and longitude span in degrees of every cell at
// precision p.
func CellSize(p int) (latDeg, lonDeg float64) {
	bits := 5 * p
	lonBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lonBits))
}

// CoverBox returns the hashes at precision p of every cell that intersects
// box, row by row from the south-west. A box whose west edge is east of its
// east edge is taken to cross the antimeridian. At most maxCells hashes are
// returned; truncated reports whether the cover was cut short.
func CoverBox(box models.BoundingBox, p, maxCells int) (hashes []string, truncated bool) {
	if p <= 0 || maxCells <= 0 {
		return nil, false
	}

	south := clamp(box.BottomLeft.Lat, -90, 90)
	north := clamp(box.TopRight.Lat, -90, 90)
	if north < south {
		south, north = north, south
	}
	west := clamp(box.BottomLeft.Lon, -180, 180)
	east := clamp(box.TopRight.Lon, -180, 180)

	spans := [][2]float64{{west, east}}
	if west > east {
		spans = [][2]float64{{west, 180}, {-180, east}}
	}

	for _, span := range spans {
		var full bool
		hashes, full = coverSpan(hashes, south, north, span[0], span[1], p, maxCells)
		if full {
			return hashes, true
		}
	}
	return hashes, false
}

func coverSpan(out []string, south, north, west, east float64, p, maxCells int) ([]string, bool) {
	cellLat, cellLon := CellSize(p)
	origin, _ := geohash.Decode(geohash.Encode(south, west, p))

	rows := spanCount(origin.Lat.Low, north, cellLat)
	cols := spanCount(origin.Lon.Low, east, cellLon)

	for r := 0; r < rows; r++ {
		lat := origin.Lat.Low + (float64(r)+0.5)*cellLat
		if lat > 90 {
			break
		}
		for c := 0; c < cols; c++ {
			lon := origin.Lon.Low + (float64(c)+0.5)*cellLon
			if lon > 180 {
				break
			}
			if len(out) >= maxCells {
				return out, true
			}
			out = append(out, geohash.Encode(lat, lon, p))
		}
	}
	return out, false
}

// spanCount returns how many steps of size step starting at low are needed to
// reach high, never less than one.
func spanCount(low, high, step float64) int {
	n := int(math.Ceil((high - low) / step))
	if n < 1 {
		return 1
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
