// Package livehash builds the geohash of a single center at every precision.
package livehash

import (
	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

// Set is an immutable snapshot of the hashes of Center at precisions
// precision.Min..precision.Max. A new Set is built for every center change.
type Set struct {
	Center models.Location `json:"center"`
	Hashes map[int]string  `json:"hashes"`
}

// Row is one precision level of a Set, ready for display.
type Row struct {
	Precision int     `json:"precision"`
	Hash      string  `json:"hash"`
	Label     string  `json:"label"`
	RangeKm   float64 `json:"range_km"`
}

// Build encodes center once per precision level.
func Build(center models.Location) *Set {
	hashes := make(map[int]string, precision.Max)
	for _, p := range precision.Levels() {
		hashes[p] = geohash.EncodeLocation(center, p)
	}
	return &Set{Center: center, Hashes: hashes}
}

// Hash returns the hash at precision p, or "" if p is out of range. A nil
// Set has no hashes.
func (s *Set) Hash(p int) string {
	if s == nil {
		return ""
	}
	return s.Hashes[p]
}

// Rows returns the set ordered from the coarsest precision to the finest.
func (s *Set) Rows() []Row {
	if s == nil {
		return nil
	}
	rows := make([]Row, 0, len(s.Hashes))
	for _, p := range precision.Levels() {
		h, ok := s.Hashes[p]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			Precision: p,
			Hash:      h,
			Label:     precision.Label(p),
			RangeKm:   precision.ApproxRangeKm(p),
		})
	}
	return rows
}
