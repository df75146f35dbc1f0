package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/geojson"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

const (
	msgEmptyAddress = "Please enter an address"
	msgNotFound     = "Address not found. Try a city name or landmark"
)

type pointQuery struct {
	Lat       *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng       *float64 `form:"lng" binding:"required,min=-180,max=180"`
	Precision int      `form:"precision" binding:"omitempty,min=1,max=9"`
	Zoom      *float64 `form:"zoom"`
}

func (q pointQuery) validate() error {
	return finite(map[string]*float64{"lat": q.Lat, "lng": q.Lng, "zoom": q.Zoom})
}

// finite rejects NaN and infinite values, which the min/max rules let through.
func finite(values map[string]*float64) error {
	for name, v := range values {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}
	return nil
}

// precision picks the explicit precision, else the zoom's, else the maximum.
func (q pointQuery) precision() int {
	switch {
	case q.Precision > 0:
		return q.Precision
	case q.Zoom != nil:
		return precision.Select(*q.Zoom)
	}
	return precision.Max
}

type cellResponse struct {
	Hash      string             `json:"hash"`
	Precision int                `json:"precision"`
	Label     string             `json:"label"`
	Center    models.Location    `json:"center"`
	Bounds    models.BoundingBox `json:"bounds"`
	Width     float64            `json:"width_deg"`
	Height    float64            `json:"height_deg"`
}

func newCellResponse(cell geohash.Cell) cellResponse {
	return cellResponse{
		Hash:      cell.Hash,
		Precision: cell.Precision(),
		Label:     precision.Label(cell.Precision()),
		Center:    cell.Center(),
		Bounds:    cell.Bounds(),
		Width:     cell.Width(),
		Height:    cell.Height(),
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// decodeParam decodes the :hash parameter, answering 400 on failure.
func decodeParam(c *gin.Context) (geohash.Cell, bool) {
	cell, err := geohash.Decode(c.Param("hash"))
	if err != nil {
		badRequest(c, err)
		return geohash.Cell{}, false
	}
	return cell, true
}

// Encode handles GET /api/v1/encode
func (r *Router) Encode(c *gin.Context) {
	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if err := q.validate(); err != nil {
		badRequest(c, err)
		return
	}
	hash := geohash.Encode(*q.Lat, *q.Lng, q.precision())
	cell, err := geohash.Decode(hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newCellResponse(cell))
}

// Decode handles GET /api/v1/decode/:hash
func (r *Router) Decode(c *gin.Context) {
	cell, ok := decodeParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCellResponse(cell))
}

// Cell handles GET /api/v1/cell/:hash and answers with a GeoJSON feature.
func (r *Router) Cell(c *gin.Context) {
	f, err := geojson.Cell(c.Param("hash"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Neighbors handles GET /api/v1/neighbors/:hash
func (r *Router) Neighbors(c *gin.Context) {
	cell, ok := decodeParam(c)
	if !ok {
		return
	}
	hashes, err := geohash.Neighbors(cell.Hash)
	if err != nil {
		badRequest(c, err)
		return
	}

	out := make(map[string]string, len(hashes))
	for i, h := range hashes {
		if h != "" {
			out[geohash.Direction(i).String()] = h
		}
	}
	c.JSON(http.StatusOK, gin.H{"hash": cell.Hash, "neighbors": out})
}

// Precision handles GET /api/v1/precision
func (r *Router) Precision(c *gin.Context) {
	var q struct {
		Zoom *float64 `form:"zoom" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if err := finite(map[string]*float64{"zoom": q.Zoom}); err != nil {
		badRequest(c, err)
		return
	}
	p := precision.Select(*q.Zoom)
	c.JSON(http.StatusOK, gin.H{
		"zoom":        *q.Zoom,
		"precision":   p,
		"label":       precision.Label(p),
		"range_km":    precision.ApproxRangeKm(p),
		"description": precision.Describe(p),
	})
}

// Live handles GET /api/v1/live. format=geojson answers with the cells.
func (r *Router) Live(c *gin.Context) {
	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if err := q.validate(); err != nil {
		badRequest(c, err)
		return
	}
	set := livehash.Build(models.Location{Lat: *q.Lat, Lon: *q.Lng})

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, geojson.LiveSet(set))
		return
	}
	resp := gin.H{"center": set.Center, "rows": set.Rows()}
	if q.Zoom != nil {
		p := precision.Select(*q.Zoom)
		resp["optimal"] = gin.H{"precision": p, "hash": set.Hash(p)}
	}
	c.JSON(http.StatusOK, resp)
}

type boxQuery struct {
	South     *float64 `form:"south" binding:"required,min=-90,max=90"`
	West      *float64 `form:"west" binding:"required,min=-180,max=180"`
	North     *float64 `form:"north" binding:"required,min=-90,max=90"`
	East      *float64 `form:"east" binding:"required,min=-180,max=180"`
	Precision int      `form:"precision" binding:"omitempty,min=1,max=9"`
	Zoom      *float64 `form:"zoom"`
}

// Cover handles GET /api/v1/cover and answers with the grid cells covering
// the box as GeoJSON.
func (r *Router) Cover(c *gin.Context) {
	var q boxQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if err := finite(map[string]*float64{
		"south": q.South, "west": q.West, "north": q.North, "east": q.East, "zoom": q.Zoom,
	}); err != nil {
		badRequest(c, err)
		return
	}
	if *q.South > *q.North {
		badRequest(c, errors.New("south must not exceed north"))
		return
	}

	p := q.Precision
	if p == 0 {
		if q.Zoom == nil {
			badRequest(c, errors.New("precision or zoom is required"))
			return
		}
		p = precision.Select(*q.Zoom)
	}

	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: *q.South, Lon: *q.West},
		TopRight:   models.Location{Lat: *q.North, Lon: *q.East},
	}
	hashes, truncated := overlay.CoverBox(box, p, r.maxGridCells)
	fc, err := geojson.Cells(hashes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if truncated {
		c.Header("X-Cover-Truncated", "true")
	}
	c.JSON(http.StatusOK, fc)
}

// Geocode handles GET /api/v1/geocode
func (r *Router) Geocode(c *gin.Context) {
	res, err := r.geocoder.Resolve(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, geocode.ErrEmptyAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyAddress})
		return
	case errors.Is(err, geocode.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
