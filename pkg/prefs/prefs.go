package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/config"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
	"github.com/1F47E/geohash-zones/pkg/precision"
)

// Keys of the stored preferences.
const (
	KeyShowGrid           = "showGrid"
	KeyShowZone           = "showZone"
	KeyActiveTab          = "activeTab"
	KeyFixedZonePrecision = "fixedZonePrecision"
	KeyMapContext         = "mapContext"
)

// Settings are the user toggles.
type Settings struct {
	ShowGrid       bool        `json:"showGrid"`
	ShowZone       bool        `json:"showZone"`
	Mode           active.Mode `json:"activeTab"`
	FixedPrecision int         `json:"fixedZonePrecision"`
}

// DefaultSettings: grid hidden, zone shown, optimal mode, fixed precision 7.
func DefaultSettings() Settings {
	return Settings{ShowGrid: false, ShowZone: true, Mode: active.Optimal, FixedPrecision: 7}
}

// MapContext is the last map view.
type MapContext struct {
	Zoom         float64 `json:"zoom"`
	ScreenWidth  int     `json:"screenWidth"`
	ScreenHeight int     `json:"screenHeight"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// DefaultMapContext centres on cell 9q at zoom 6.
func DefaultMapContext() MapContext {
	return MapContext{Zoom: 6, ScreenWidth: 1280, ScreenHeight: 800, Latitude: 36.5625, Longitude: -118.125}
}

// Preferences reads and writes typed values through a Store.
type Preferences struct {
	store       Store
	log         *logrus.Logger
	mapDefaults MapContext
}

// New wraps store. A nil store behaves as an empty in-memory store.
func New(store Store, logger *logrus.Logger) *Preferences {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Preferences{store: store, log: logging.OrDiscard(logger), mapDefaults: DefaultMapContext()}
}

// SetMapDefaults replaces the view LoadMapContext falls back to. Zero
// fields keep the built-in default.
func (p *Preferences) SetMapDefaults(mc MapContext) {
	def := DefaultMapContext()
	if mc.Zoom == 0 {
		mc.Zoom = def.Zoom
	}
	if mc.ScreenWidth == 0 {
		mc.ScreenWidth = def.ScreenWidth
	}
	if mc.ScreenHeight == 0 {
		mc.ScreenHeight = def.ScreenHeight
	}
	p.mapDefaults = mc
}

// Load decodes key into out. It returns false, leaving out untouched, when
// the key is unset or cannot be read; failures are logged as warnings.
func (p *Preferences) Load(ctx context.Context, key string, out any) bool {
	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		metrics.PrefsErrorsTotal.WithLabelValues("load").Inc()
		p.log.WithError(err).WithField("key", key).Warn("Failed to load preference, using default")
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		metrics.PrefsErrorsTotal.WithLabelValues("decode").Inc()
		p.log.WithError(err).WithField("key", key).Warn("Failed to decode preference, using default")
		return false
	}
	return true
}

// Save encodes value under key. Failures are logged and returned.
func (p *Preferences) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		metrics.PrefsErrorsTotal.WithLabelValues("encode").Inc()
		p.log.WithError(err).WithField("key", key).Warn("Failed to encode preference")
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.store.Set(ctx, key, string(data)); err != nil {
		metrics.PrefsErrorsTotal.WithLabelValues("save").Inc()
		p.log.WithError(err).WithField("key", key).Warn("Failed to save preference")
		return err
	}
	return nil
}

// LoadSettings reads every toggle, falling back to DefaultSettings key by key.
func (p *Preferences) LoadSettings(ctx context.Context) Settings {
	s := DefaultSettings()

	showGrid := s.ShowGrid
	if p.Load(ctx, KeyShowGrid, &showGrid) {
		s.ShowGrid = showGrid
	}
	showZone := s.ShowZone
	if p.Load(ctx, KeyShowZone, &showZone) {
		s.ShowZone = showZone
	}

	var tab string
	if p.Load(ctx, KeyActiveTab, &tab) {
		if m, err := active.ParseMode(tab); err == nil {
			s.Mode = m
		} else {
			p.log.WithField("tab", tab).Warn("Unknown stored tab, using optimal")
		}
	}

	var fixed int
	if p.Load(ctx, KeyFixedZonePrecision, &fixed) {
		if precision.Valid(fixed) {
			s.FixedPrecision = fixed
		} else {
			p.log.WithField("precision", fixed).Warn("Stored fixed precision out of range, using default")
		}
	}
	return s
}

// SaveSettings writes every toggle. It keeps going after a failure and
// returns the first error.
func (p *Preferences) SaveSettings(ctx context.Context, s Settings) error {
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}
	if err := p.Save(ctx, KeyShowGrid, s.ShowGrid); err != nil {
		keep(err)
	}
	if err := p.Save(ctx, KeyShowZone, s.ShowZone); err != nil {
		keep(err)
	}
	if err := p.Save(ctx, KeyActiveTab, s.Mode.String()); err != nil {
		keep(err)
	}
	if err := p.Save(ctx, KeyFixedZonePrecision, s.FixedPrecision); err != nil {
		keep(err)
	}
	return first
}

// LoadMapContext reads the last map view. Missing fields keep their default
// and a zero zoom counts as missing.
func (p *Preferences) LoadMapContext(ctx context.Context) MapContext {
	mc := p.mapDefaults
	var stored struct {
		Zoom         float64  `json:"zoom"`
		ScreenWidth  int      `json:"screenWidth"`
		ScreenHeight int      `json:"screenHeight"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if !p.Load(ctx, KeyMapContext, &stored) {
		return mc
	}
	if stored.Zoom != 0 {
		mc.Zoom = stored.Zoom
	}
	if stored.ScreenWidth != 0 {
		mc.ScreenWidth = stored.ScreenWidth
	}
	if stored.ScreenHeight != 0 {
		mc.ScreenHeight = stored.ScreenHeight
	}
	if stored.Latitude != nil {
		mc.Latitude = *stored.Latitude
	}
	if stored.Longitude != nil {
		mc.Longitude = *stored.Longitude
	}
	return mc
}

// SaveMapContext writes the map view.
func (p *Preferences) SaveMapContext(ctx context.Context, mc MapContext) error {
	return p.Save(ctx, KeyMapContext, mc)
}

// Close closes the underlying store.
func (p *Preferences) Close() error {
	return p.store.Close()
}

// Open builds the store selected by cfg.Prefs.Backend: "memory", "file",
// "postgres" or "redis".
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch strings.ToLower(cfg.Prefs.Backend) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Prefs.File)
	case "postgres":
		return OpenPostgres(ctx, cfg.PostgresDSN())
	case "redis":
		return OpenRedis(ctx, RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	return nil, fmt.Errorf("unknown preference backend %q", cfg.Prefs.Backend)
}
