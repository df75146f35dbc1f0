package session

import (
	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/models"
)

// Event is something that happened to the map or to the user's settings.
type Event interface {
	event()
}

// MapLoaded marks the map as ready. A zero Viewport keeps the stored view.
type MapLoaded struct {
	Viewport models.Viewport
}

// ViewportChanged is sent after every pan or zoom.
type ViewportChanged struct {
	Viewport     models.Viewport
	ScreenWidth  int
	ScreenHeight int
}

// MarkerPlaced moves the live center to Location without moving the map.
type MarkerPlaced struct {
	Location models.Location
	Label    string
}

type SetShowGrid struct{ On bool }

type SetShowZone struct{ On bool }

type SetMode struct{ Mode active.Mode }

type SetFixedPrecision struct{ Precision int }

func (MapLoaded) event()         {}
func (ViewportChanged) event()   {}
func (MarkerPlaced) event()      {}
func (SetShowGrid) event()       {}
func (SetShowZone) event()       {}
func (SetMode) event()           {}
func (SetFixedPrecision) event() {}
