package wsmap

import (
	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/session"
)

// Message types sent by the browser.
const (
	TypeMapLoaded      = "map_loaded"
	TypeViewport       = "viewport"
	TypeMarker         = "marker"
	TypeShowGrid       = "show_grid"
	TypeShowZone       = "show_zone"
	TypeMode           = "mode"
	TypeFixedPrecision = "fixed_precision"
	TypeSearch         = "search"
	TypeClick          = "click"
)

// Message types sent to the browser.
const (
	TypeDraw         = "draw"
	TypeRemove       = "remove"
	TypeState        = "state"
	TypeSearchResult = "search_result"
	TypeHits         = "hits"
	TypeError        = "error"
)

// Inbound is a message from the browser. Only the fields of its Type are set.
type Inbound struct {
	Type         string           `json:"type"`
	Viewport     *models.Viewport `json:"viewport,omitempty"`
	ScreenWidth  int              `json:"screen_width,omitempty"`
	ScreenHeight int              `json:"screen_height,omitempty"`
	Location     *models.Location `json:"location,omitempty"`
	Label        string           `json:"label,omitempty"`
	On           bool             `json:"on,omitempty"`
	Mode         string           `json:"mode,omitempty"`
	Precision    int              `json:"precision,omitempty"`
	Address      string           `json:"address,omitempty"`
}

// Outbound is a message to the browser.
type Outbound struct {
	Type      string             `json:"type"`
	Rectangle *models.Rectangle  `json:"rectangle,omitempty"`
	ID        string             `json:"id,omitempty"`
	State     *session.Snapshot  `json:"state,omitempty"`
	Result    *geocode.Result    `json:"result,omitempty"`
	Hits      []models.Rectangle `json:"hits,omitempty"`
	Error     string             `json:"error,omitempty"`
}
