// Package precision maps map zoom levels to geohash precisions.
package precision

import (
	"fmt"
	"math"
)

const (
	// Min is the coarsest precision in use.
	Min = 1
	// Max is the finest precision in use.
	Max = 9
)

// Threshold binds every zoom up to MaxZoom to Precision.
type Threshold struct {
	MaxZoom   float64
	Precision int
}

// ZoomTable is ordered by ascending MaxZoom. Zooms above the last entry map
// to Max.
var ZoomTable = []Threshold{
	{MaxZoom: 3, Precision: 1},
	{MaxZoom: 6, Precision: 2},
	{MaxZoom: 9, Precision: 3},
	{MaxZoom: 12, Precision: 4},
	{MaxZoom: 15, Precision: 5},
	{MaxZoom: 17, Precision: 6},
	{MaxZoom: 19, Precision: 7},
	{MaxZoom: 21, Precision: 8},
}

var labels = map[int]string{
	1: "~5000 km",
	2: "~630 km",
	3: "~78 km",
	4: "~20 km",
	5: "~2.4 km",
	6: "~1.2 km",
	7: "~152 m",
	8: "~19 m",
	9: "~2.4 m",
}

var approxRangeKm = map[int]float64{
	1: 5000,
	2: 630,
	3: 78,
	4: 20,
	5: 2.4,
	6: 1.2,
	7: 0.152,
	8: 0.019,
	9: 0.0024,
}

// Select returns the precision of the first table entry whose MaxZoom is at
// least zoom, or Max when zoom is past every entry. The result is
// non-decreasing in zoom and always within [Min, Max]; NaN maps to Min.
func Select(zoom float64) int {
	if math.IsNaN(zoom) {
		return Min
	}
	for _, t := range ZoomTable {
		if zoom <= t.MaxZoom {
			return t.Precision
		}
	}
	return Max
}

// Valid reports whether p is a precision in use.
func Valid(p int) bool {
	return p >= Min && p <= Max
}

// Clamp forces p into [Min, Max].
func Clamp(p int) int {
	if p < Min {
		return Min
	}
	if p > Max {
		return Max
	}
	return p
}

// Levels returns Min..Max in ascending order.
func Levels() []int {
	out := make([]int, 0, Max-Min+1)
	for p := Min; p <= Max; p++ {
		out = append(out, p)
	}
	return out
}

// Label returns the approximate cell size of p, e.g. "~1.2 km".
func Label(p int) string {
	if l, ok := labels[p]; ok {
		return l
	}
	return "~unknown"
}

// ApproxRangeKm returns the approximate cell size of p in kilometres, or 0
// for a precision outside [Min, Max].
func ApproxRangeKm(p int) float64 {
	return approxRangeKm[p]
}

// Describe formats p as "6 characters (~1.2 km)".
func Describe(p int) string {
	suffix := "s"
	if p == 1 {
		suffix = ""
	}
	return fmt.Sprintf("%d character%s (%s)", p, suffix, Label(p))
}
