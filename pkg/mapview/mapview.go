// Package mapview is a headless map widget. It keeps every drawn rectangle in
// an R-Tree so the visible overlays and the overlays under a point can be
// queried without scanning.
package mapview

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"

	"github.com/1F47E/geohash-zones/pkg/models"
)

const (
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// ErrNotReady is returned by DrawRectangle before the map is marked ready.
var ErrNotReady = errors.New("map not ready")

// spatialRect wraps a rectangle for R-Tree indexing
type spatialRect struct {
	models.Rectangle
	rect rtreego.Rect
}

func (s *spatialRect) Bounds() rtreego.Rect {
	return s.rect
}

func toRect(b models.BoundingBox) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.BottomLeft.Lat, b.BottomLeft.Lon},
		rtreego.Point{b.TopRight.Lat, b.TopRight.Lon},
	)
}

// Map is a thread-safe in-memory map widget.
type Map struct {
	mu       sync.RWMutex
	tree     *rtreego.Rtree
	items    map[string]*spatialRect
	viewport models.Viewport
	hasView  bool

	ready    atomic.Bool
	draws    atomic.Int64
	removals atomic.Int64
}

// New creates an empty map that is not ready yet.
func New() *Map {
	return &Map{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		items: make(map[string]*spatialRect),
	}
}

// SetReady marks the widget as able (or unable) to accept commands.
func (m *Map) SetReady(ready bool) {
	m.ready.Store(ready)
}

// Ready reports whether the widget accepts commands.
func (m *Map) Ready() bool {
	return m.ready.Load()
}

// SetViewport records what the map currently shows.
func (m *Map) SetViewport(vp models.Viewport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = vp
	m.hasView = true
}

// Viewport returns the last recorded viewport.
func (m *Map) Viewport() (models.Viewport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport, m.hasView
}

// DrawRectangle adds r under a fresh id.
func (m *Map) DrawRectangle(r models.Rectangle) (string, error) {
	if !m.Ready() {
		return "", ErrNotReady
	}
	rect, err := toRect(r.Bounds)
	if err != nil {
		return "", fmt.Errorf("invalid rectangle bounds: %w", err)
	}

	r.ID = uuid.NewString()
	item := &spatialRect{Rectangle: r, rect: rect}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Insert(item)
	m.items[r.ID] = item
	m.draws.Add(1)
	return r.ID, nil
}

// Remove deletes the rectangle with the given id. Unknown ids are ignored.
func (m *Map) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return
	}
	m.tree.Delete(item)
	delete(m.items, id)
	m.removals.Add(1)
}

// Get returns the rectangle with the given id.
func (m *Map) Get(id string) (models.Rectangle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return models.Rectangle{}, false
	}
	return item.Rectangle, true
}

// Search returns the rectangles intersecting box, optionally restricted to
// the given layers.
func (m *Map) Search(box models.BoundingBox, layers ...models.Layer) ([]models.Rectangle, error) {
	bb, err := toRect(box)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := m.tree.SearchIntersect(bb)
	out := make([]models.Rectangle, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialRect)
		if !ok || !inLayers(item.Layer, layers) {
			continue
		}
		out = append(out, item.Rectangle)
	}
	sortRects(out)
	return out, nil
}

// Visible returns the rectangles inside the current viewport.
func (m *Map) Visible(layers ...models.Layer) ([]models.Rectangle, error) {
	vp, ok := m.Viewport()
	if !ok {
		return nil, nil
	}
	return m.Search(vp.Bounds, layers...)
}

// At returns the rectangles containing the point.
func (m *Map) At(loc models.Location, layers ...models.Layer) ([]models.Rectangle, error) {
	return m.Search(models.BoundingBox{BottomLeft: loc, TopRight: loc}, layers...)
}

// All returns every rectangle on the map.
func (m *Map) All(layers ...models.Layer) []models.Rectangle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Rectangle, 0, len(m.items))
	for _, item := range m.items {
		if inLayers(item.Layer, layers) {
			out = append(out, item.Rectangle)
		}
	}
	sortRects(out)
	return out
}

// Count returns the number of rectangles on the map.
func (m *Map) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Stats returns how many draw and remove commands the map has applied.
func (m *Map) Stats() (draws, removals int64) {
	return m.draws.Load(), m.removals.Load()
}

// Clear removes every rectangle.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removals.Add(int64(len(m.items)))
	m.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	m.items = make(map[string]*spatialRect)
}

func inLayers(l models.Layer, layers []models.Layer) bool {
	if len(layers) == 0 {
		return true
	}
	for _, want := range layers {
		if l == want {
			return true
		}
	}
	return false
}

func sortRects(rs []models.Rectangle) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Layer != rs[j].Layer {
			return rs[i].Layer < rs[j].Layer
		}
		if rs[i].Hash != rs[j].Hash {
			return rs[i].Hash < rs[j].Hash
		}
		return rs[i].ID < rs[j].ID
	})
}
