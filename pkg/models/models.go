package models

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// BoundingBox represents a rectangular area defined by its south-west and
// north-east corners
type BoundingBox struct {
	BottomLeft Location `json:"south_west"`
	TopRight   Location `json:"north_east"`
}

// Contains reports whether loc lies inside the box, edges included
func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lat >= b.BottomLeft.Lat && loc.Lat <= b.TopRight.Lat &&
		loc.Lon >= b.BottomLeft.Lon && loc.Lon <= b.TopRight.Lon
}

// Intersects reports whether the two boxes overlap, touching edges included
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.BottomLeft.Lat <= o.TopRight.Lat && b.TopRight.Lat >= o.BottomLeft.Lat &&
		b.BottomLeft.Lon <= o.TopRight.Lon && b.TopRight.Lon >= o.BottomLeft.Lon
}

// Viewport is what the map widget currently shows
type Viewport struct {
	Center Location    `json:"center"`
	Zoom   float64     `json:"zoom"`
	Bounds BoundingBox `json:"bounds"`
}

// Style carries the stroke and fill settings of a drawn rectangle
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Weight  int     `json:"weight"`
	Fill    bool    `json:"fill"`
}

// Layer identifies which overlay a rectangle belongs to
type Layer string

const (
	LayerGrid Layer = "grid"
	LayerZone Layer = "zone"
)

// Rectangle is an overlay drawn on the map
type Rectangle struct {
	ID     string      `json:"id"`
	Layer  Layer       `json:"layer"`
	Hash   string      `json:"hash,omitempty"`
	Bounds BoundingBox `json:"bounds"`
	Style  Style       `json:"style"`
}
