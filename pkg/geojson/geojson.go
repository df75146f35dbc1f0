// Package geojson renders geohash cells and map overlays as GeoJSON.
package geojson

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

// Bound converts a bounding box to an orb bound. orb points are [lon, lat].
func Bound(b models.BoundingBox) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.BottomLeft.Lon, b.BottomLeft.Lat},
		Max: orb.Point{b.TopRight.Lon, b.TopRight.Lat},
	}
}

// Cell returns the polygon feature of a geohash cell.
func Cell(hash string) (*geojson.Feature, error) {
	cell, err := geohash.Decode(hash)
	if err != nil {
		return nil, err
	}

	f := geojson.NewFeature(Bound(cell.Bounds()).ToPolygon())
	f.ID = hash
	center := cell.Center()
	f.Properties["geohash"] = hash
	f.Properties["precision"] = len(hash)
	f.Properties["label"] = precision.Label(len(hash))
	f.Properties["center"] = []float64{center.Lon, center.Lat}
	return f, nil
}

// Cells returns a collection with one polygon per hash.
func Cells(hashes []string) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, h := range hashes {
		f, err := Cell(h)
		if err != nil {
			return nil, fmt.Errorf("failed to build feature for %q: %w", h, err)
		}
		fc.Append(f)
	}
	return fc, nil
}

// LiveSet returns the nested cells of a live hash set, coarsest first, plus a
// point feature for its center.
func LiveSet(set *livehash.Set) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if set == nil {
		return fc
	}

	for _, row := range set.Rows() {
		f, err := Cell(row.Hash)
		if err != nil {
			continue
		}
		fc.Append(f)
	}

	center := geojson.NewFeature(orb.Point{set.Center.Lon, set.Center.Lat})
	center.Properties["role"] = "center"
	fc.Append(center)
	return fc
}

// Rectangles returns drawn overlays with simplestyle properties.
func Rectangles(rects []models.Rectangle) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range rects {
		f := geojson.NewFeature(Bound(r.Bounds).ToPolygon())
		if r.ID != "" {
			f.ID = r.ID
		}
		f.Properties["layer"] = string(r.Layer)
		if r.Hash != "" {
			f.Properties["geohash"] = r.Hash
		}
		f.Properties["stroke"] = r.Style.Color
		f.Properties["stroke-opacity"] = r.Style.Opacity
		f.Properties["stroke-width"] = r.Style.Weight
		if r.Style.Fill {
			f.Properties["fill"] = r.Style.Color
		} else {
			f.Properties["fill-opacity"] = 0
		}
		fc.Append(f)
	}
	return fc
}
