// Package overlay decides which geohash rectangles a map must show and
// issues the minimal set of draw and remove commands to get there.
//
// Two overlays are managed. The grid covers the viewport with cells at the
// zoom's precision and is redrawn in full whenever the view changes. The zone
// is the single active cell; it is redrawn only when its hash changes, when
// the mode changes, or when the zone is switched back on. Zone draws are
// debounced so that a burst of passes results in one visible draw.
package overlay

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/geohash"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

// DefaultZoneDelay is the debounce window of zone draws.
const DefaultZoneDelay = 20 * time.Millisecond

// MapHandle is the map widget the reconciler draws on.
type MapHandle interface {
	// Ready reports whether the widget can accept commands.
	Ready() bool
	// DrawRectangle adds r and returns the id to remove it with. r.ID is
	// ignored.
	DrawRectangle(r models.Rectangle) (string, error)
	// Remove deletes a previously drawn rectangle. Unknown ids are ignored.
	Remove(id string)
	// Viewport returns the current view, or false when none is known. It
	// supplies the grid bounds when a pass carries none.
	Viewport() (models.Viewport, bool)
}

// Inputs are the values one reconciliation pass reads.
type Inputs struct {
	MapLoaded      bool
	ShowGrid       bool
	ShowZone       bool
	Zoom           float64
	Bounds         models.BoundingBox
	FixedPrecision int
	Selection      active.Selection
}

// State is a copy of what the reconciler remembers between passes.
type State struct {
	GridPrecision int                    `json:"grid_precision"`
	GridCells     int                    `json:"grid_cells"`
	ZoneHash      map[active.Mode]string `json:"zone_hash"`
	LastMode      *active.Mode           `json:"last_mode,omitempty"`
	LastShowZone  bool                   `json:"last_show_zone"`
	ZoneDrawn     string                 `json:"zone_drawn,omitempty"`
	Pending       string                 `json:"pending,omitempty"`
}

type pendingDraw struct {
	rect models.Rectangle
	mode active.Mode
	due  time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithZoneDelay sets the zone debounce window. Zero dispatches immediately.
func WithZoneDelay(d time.Duration) Option {
	return func(r *Reconciler) {
		if d >= 0 {
			r.zoneDelay = d
		}
	}
}

// WithMaxGridCells caps the number of grid cells drawn per redraw.
func WithMaxGridCells(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxGridCells = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Reconciler) {
		r.log = logging.OrDiscard(l)
	}
}

// Reconciler owns the overlay state of one map session. It is not safe for
// concurrent use; callers drive it from a single goroutine.
type Reconciler struct {
	handle       MapHandle
	zoneDelay    time.Duration
	maxGridCells int
	log          *logrus.Logger

	gridShown     bool
	gridPrecision int
	gridZoom      float64
	gridBounds    models.BoundingBox
	gridIDs       []string

	zoneHash     map[active.Mode]string
	lastMode     active.Mode
	modeSeen     bool
	lastShowZone bool
	zoneID       string
	zoneRect     models.Rectangle
	pending      *pendingDraw
}

// New returns a reconciler drawing on handle. A nil handle is treated as a
// map that is never ready.
func New(handle MapHandle, opts ...Option) *Reconciler {
	r := &Reconciler{
		handle:       handle,
		zoneDelay:    DefaultZoneDelay,
		maxGridCells: DefaultMaxGridCells,
		log:          logging.Discard(),
		zoneHash:     make(map[active.Mode]string, len(active.Modes)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) ready() bool {
	return r.handle != nil && r.handle.Ready()
}

// Reconcile runs one pass against in. now is the time of the pass; a zone
// draw it schedules becomes due at now plus the zone delay.
func (r *Reconciler) Reconcile(in Inputs, now time.Time) {
	if !r.ready() || !in.MapLoaded {
		r.log.Debug("Map not ready, overlay pass suppressed")
		return
	}

	r.reconcileGrid(in)
	r.reconcileZone(in, now)
}

func (r *Reconciler) reconcileGrid(in Inputs) {
	if !in.ShowGrid {
		if r.gridShown {
			r.clearGrid()
			metrics.OverlayClearsTotal.WithLabelValues(string(models.LayerGrid)).Inc()
		}
		return
	}

	bounds := in.Bounds
	if bounds == (models.BoundingBox{}) {
		if vp, ok := r.handle.Viewport(); ok {
			bounds = vp.Bounds
		}
	}

	p := precision.Select(in.Zoom)
	if r.gridShown && r.gridZoom == in.Zoom && r.gridBounds == bounds {
		return
	}

	r.clearGrid()
	hashes, truncated := CoverBox(bounds, p, r.maxGridCells)
	if truncated {
		r.log.WithFields(logging.Fields{
			"precision": p,
			"max_cells": r.maxGridCells,
		}).Warn("Grid cover truncated")
	}

	for _, h := range hashes {
		cell, err := geohash.Decode(h)
		if err != nil {
			r.log.WithError(err).Error("Failed to decode grid cell")
			continue
		}
		id, err := r.handle.DrawRectangle(models.Rectangle{
			Layer:  models.LayerGrid,
			Hash:   h,
			Bounds: cell.Bounds(),
			Style:  GridStyle,
		})
		if err != nil {
			r.log.WithError(err).WithField("hash", h).Warn("Failed to draw grid cell")
			continue
		}
		r.gridIDs = append(r.gridIDs, id)
	}

	r.gridShown = true
	r.gridPrecision = p
	r.gridZoom = in.Zoom
	r.gridBounds = bounds
	metrics.GridDrawsTotal.Inc()
	metrics.GridCells.Observe(float64(len(r.gridIDs)))
	r.log.WithFields(logging.Fields{
		"precision": p,
		"cells":     len(r.gridIDs),
	}).Debug("Grid redrawn")
}

func (r *Reconciler) clearGrid() {
	for _, id := range r.gridIDs {
		r.handle.Remove(id)
	}
	r.gridIDs = nil
	r.gridShown = false
	r.gridPrecision = 0
}

func (r *Reconciler) reconcileZone(in Inputs, now time.Time) {
	if !in.ShowZone {
		r.hideZone()
		r.lastShowZone = false
		return
	}

	sel := in.Selection
	if !sel.Ready() {
		metrics.ZoneSkipsTotal.WithLabelValues("unready").Inc()
		return
	}

	modeChanged := r.modeSeen && sel.Mode != r.lastMode
	rearmed := !r.lastShowZone
	r.lastShowZone = true

	if sel.Hash == r.zoneHash[sel.Mode] && !modeChanged && !rearmed {
		metrics.ZoneSkipsTotal.WithLabelValues("unchanged").Inc()
		return
	}

	r.zoneHash[sel.Mode] = sel.Hash
	r.lastMode = sel.Mode
	r.modeSeen = true

	cell, err := geohash.Decode(sel.Hash)
	if err != nil {
		r.log.WithError(err).Error("Failed to decode zone hash")
		return
	}

	if r.pending != nil {
		metrics.ZoneSupersededTotal.Inc()
	}
	r.pending = &pendingDraw{
		rect: models.Rectangle{
			Layer:  models.LayerZone,
			Hash:   sel.Hash,
			Bounds: cell.Bounds(),
			Style:  ZoneStyle(Intensity(sel.Mode, in.FixedPrecision, in.Zoom)),
		},
		mode: sel.Mode,
		due:  now.Add(r.zoneDelay),
	}

	if r.zoneDelay == 0 {
		r.Flush(now)
	}
}

func (r *Reconciler) hideZone() {
	r.pending = nil
	if r.zoneID == "" {
		return
	}
	if r.ready() {
		r.handle.Remove(r.zoneID)
	}
	r.zoneID = ""
	r.zoneRect = models.Rectangle{}
	metrics.OverlayClearsTotal.WithLabelValues(string(models.LayerZone)).Inc()
}

// Deadline returns when the pending zone draw is due, if there is one.
func (r *Reconciler) Deadline() (time.Time, bool) {
	if r.pending == nil {
		return time.Time{}, false
	}
	return r.pending.due, true
}

// Flush dispatches the pending zone draw if it is due at now and reports
// whether a draw was issued. A draw that comes due while the map is not
// ready is dropped, and a failed draw keeps the previous zone on the map.
// Either way the next pass redraws.
func (r *Reconciler) Flush(now time.Time) bool {
	p := r.pending
	if p == nil || now.Before(p.due) {
		return false
	}
	r.pending = nil

	if !r.ready() {
		r.log.Debug("Map not ready, pending zone draw dropped")
		r.forget(p)
		return false
	}

	id, err := r.handle.DrawRectangle(p.rect)
	if err != nil {
		r.log.WithError(err).WithField("hash", p.rect.Hash).Warn("Failed to draw zone")
		r.forget(p)
		return false
	}
	if r.zoneID != "" {
		r.handle.Remove(r.zoneID)
	}
	r.zoneID = id
	p.rect.ID = id
	r.zoneRect = p.rect

	metrics.ZoneDrawsTotal.WithLabelValues(p.mode.String()).Inc()
	r.log.WithFields(logging.Fields{
		"hash": p.rect.Hash,
		"mode": p.mode.String(),
	}).Debug("Zone drawn")
	return true
}

// forget clears the mode's memory of an undelivered draw so the next pass
// with the same hash redraws it.
func (r *Reconciler) forget(p *pendingDraw) {
	if r.zoneHash[p.mode] == p.rect.Hash {
		delete(r.zoneHash, p.mode)
	}
}

// Zone returns the zone rectangle currently on the map.
func (r *Reconciler) Zone() (models.Rectangle, bool) {
	return r.zoneRect, r.zoneID != ""
}

// State returns a copy of the reconciler's memory.
func (r *Reconciler) State() State {
	s := State{
		GridPrecision: r.gridPrecision,
		GridCells:     len(r.gridIDs),
		ZoneHash:      make(map[active.Mode]string, len(r.zoneHash)),
		LastShowZone:  r.lastShowZone,
		ZoneDrawn:     r.zoneRect.Hash,
	}
	for m, h := range r.zoneHash {
		s.ZoneHash[m] = h
	}
	if r.modeSeen {
		m := r.lastMode
		s.LastMode = &m
	}
	if r.pending != nil {
		s.Pending = r.pending.rect.Hash
	}
	return s
}

// Close removes every rectangle the reconciler drew and drops any pending
// draw. The reconciler must not be used afterwards.
func (r *Reconciler) Close() {
	r.pending = nil
	if !r.ready() {
		r.gridIDs = nil
		r.zoneID = ""
		return
	}
	r.clearGrid()
	r.hideZone()
}
