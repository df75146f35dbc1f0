package mapview

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/1F47E/geohash-zones/pkg/models"
)

// Snapshot is the serializable form of a map.
type Snapshot struct {
	Viewport   models.Viewport    `json:"viewport"`
	HasView    bool               `json:"has_view"`
	Rectangles []models.Rectangle `json:"rectangles"`
}

// Snapshot copies the viewport and every rectangle.
func (m *Map) Snapshot() Snapshot {
	vp, ok := m.Viewport()
	return Snapshot{Viewport: vp, HasView: ok, Rectangles: m.All()}
}

// Restore replaces the map contents with s, keeping the rectangle ids.
func (m *Map) Restore(s Snapshot) error {
	items := make(map[string]*spatialRect, len(s.Rectangles))
	for _, r := range s.Rectangles {
		if r.ID == "" {
			return fmt.Errorf("rectangle %s has no id", r.Hash)
		}
		rect, err := toRect(r.Bounds)
		if err != nil {
			return fmt.Errorf("invalid bounds for %s: %w", r.Hash, err)
		}
		items[r.ID] = &spatialRect{Rectangle: r, rect: rect}
	}

	m.Clear()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, item := range items {
		m.tree.Insert(item)
		m.items[id] = item
	}
	m.viewport = s.Viewport
	m.hasView = s.HasView
	return nil
}

// SaveToFile writes the map to a binary file
func (m *Map) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(m.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode map: %w", err)
	}
	return nil
}

// LoadFromFile replaces the map with the contents of a binary file
func (m *Map) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var s Snapshot
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return fmt.Errorf("failed to decode map: %w", err)
	}
	return m.Restore(s)
}
