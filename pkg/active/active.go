// Package active resolves the one geohash cell that the detail panel and the
// map overlay both treat as selected.
package active

import (
	"fmt"
	"strings"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

// Mode selects how the active precision is chosen.
type Mode int

const (
	// Optimal follows the map zoom.
	Optimal Mode = iota
	// Fixed uses the precision picked by the user.
	Fixed
)

// Modes lists every mode in tab order.
var Modes = []Mode{Optimal, Fixed}

func (m Mode) String() string {
	switch m {
	case Optimal:
		return "optimal"
	case Fixed:
		return "fixed"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "optimal" or "fixed", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optimal":
		return Optimal, nil
	case "fixed":
		return Fixed, nil
	}
	return Optimal, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Inputs are everything the selection depends on.
type Inputs struct {
	Mode           Mode
	FixedPrecision int
	Center         models.Location
	Zoom           float64
	MapLoaded      bool
	Live           *livehash.Set
}

// Selection is the active cell. The zero Hash with Precision 0 means nothing
// is ready to show yet.
type Selection struct {
	Hash      string `json:"hash"`
	Precision int    `json:"precision"`
	Mode      Mode   `json:"mode"`
}

// Ready reports whether the selection names a cell.
func (s Selection) Ready() bool {
	return s.Precision > 0 && s.Hash != ""
}

// Label returns the approximate cell size, or "" when not ready.
func (s Selection) Label() string {
	if !s.Ready() {
		return ""
	}
	return precision.Label(s.Precision)
}

// Resolve computes the selection from scratch. It must be called again
// whenever any input changes.
func Resolve(in Inputs) Selection {
	if !in.MapLoaded || in.Live == nil {
		return Selection{Mode: in.Mode}
	}

	if in.Mode == Fixed {
		p := precision.Clamp(in.FixedPrecision)
		return Selection{
			Hash:      geohash.EncodeLocation(in.Center, p),
			Precision: p,
			Mode:      Fixed,
		}
	}

	p := precision.Select(in.Zoom)
	return Selection{
		Hash:      in.Live.Hash(p),
		Precision: p,
		Mode:      in.Mode,
	}
}
