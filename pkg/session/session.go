// Package session ties one map to the user's settings. Every event updates
// the session state, recomputes the active selection and runs one overlay
// pass; the debounced zone draw is flushed by the Run loop when it comes due.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/livehash"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/overlay"
	"github.com/1F47E/geohash-zones/pkg/precision"
	"github.com/1F47E/geohash-zones/pkg/prefs"
)

var (
	ErrClosed           = errors.New("session closed")
	ErrInvalidPrecision = errors.New("precision out of range")
	ErrUnknownEvent     = errors.New("unknown event")
)

// Marker is the last placed marker.
type Marker struct {
	Location models.Location `json:"location"`
	Label    string          `json:"label,omitempty"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        string            `json:"id"`
	MapLoaded bool              `json:"map_loaded"`
	Settings  prefs.Settings    `json:"settings"`
	Viewport  models.Viewport   `json:"viewport"`
	Selection active.Selection  `json:"selection"`
	Label     string            `json:"label,omitempty"`
	Live      []livehash.Row    `json:"live,omitempty"`
	Marker    *Marker           `json:"marker,omitempty"`
	Zone      *models.Rectangle `json:"zone,omitempty"`
	Overlay   overlay.State     `json:"overlay"`
}

type options struct {
	log         *logrus.Logger
	prefs       *prefs.Preferences
	now         func() time.Time
	overlayOpts []overlay.Option
	buffer      int
}

// Option configures a Session.
type Option func(*options)

func WithLogger(l *logrus.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPreferences loads the initial settings and view from p and saves
// every change back.
func WithPreferences(p *prefs.Preferences) Option {
	return func(o *options) { o.prefs = p }
}

// WithClock replaces time.Now for overlay passes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithOverlay passes options through to the reconciler.
func WithOverlay(opts ...overlay.Option) Option {
	return func(o *options) { o.overlayOpts = append(o.overlayOpts, opts...) }
}

// WithBuffer sets the event queue length used by Send.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.buffer = n
		}
	}
}

// Session owns the state and overlays of one map. Apply, Flush and Close
// are safe to call from any goroutine.
type Session struct {
	ID string

	log    *logrus.Entry
	prefs  *prefs.Preferences
	now    func() time.Time
	rec    *overlay.Reconciler
	events chan Event
	done   chan struct{}

	mu       sync.RWMutex
	settings prefs.Settings
	view     models.Viewport
	screenW  int
	screenH  int
	loaded   bool
	live     *livehash.Set
	marker   *Marker
	sel      active.Selection
	closed   bool
	wake     chan struct{}
}

// New opens a session on handle. Stored settings and the stored view are
// loaded when preferences are configured.
func New(ctx context.Context, handle overlay.MapHandle, opts ...Option) *Session {
	o := options{now: time.Now, buffer: 16}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrDiscard(o.log)
	if o.prefs == nil {
		o.prefs = prefs.New(nil, log)
	}

	mc := o.prefs.LoadMapContext(ctx)
	s := &Session{
		ID:       uuid.NewString(),
		prefs:    o.prefs,
		now:      o.now,
		rec:      overlay.New(handle, append([]overlay.Option{overlay.WithLogger(log)}, o.overlayOpts...)...),
		events:   make(chan Event, o.buffer),
		done:     make(chan struct{}),
		settings: o.prefs.LoadSettings(ctx),
		view: models.Viewport{
			Center: models.Location{Lat: mc.Latitude, Lon: mc.Longitude},
			Zoom:   mc.Zoom,
		},
		screenW: mc.ScreenWidth,
		screenH: mc.ScreenHeight,
		wake:    make(chan struct{}, 1),
	}
	s.log = log.WithField("session", s.ID)
	s.sel = s.resolve()
	return s
}

// Apply handles ev synchronously and runs one overlay pass.
func (s *Session) Apply(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.apply(ctx, ev); err != nil {
		return err
	}
	s.sel = s.resolve()
	s.rec.Reconcile(s.inputs(), s.now())
	s.notify()
	return nil
}

func (s *Session) apply(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case MapLoaded:
		s.loaded = true
		if e.Viewport != (models.Viewport{}) {
			s.view = e.Viewport
		}
		s.live = livehash.Build(s.view.Center)
		s.log.WithFields(logging.Fields{
			"lat":  s.view.Center.Lat,
			"lon":  s.view.Center.Lon,
			"zoom": s.view.Zoom,
		}).Info("Map loaded")

	case ViewportChanged:
		s.view = e.Viewport
		if e.ScreenWidth > 0 {
			s.screenW = e.ScreenWidth
		}
		if e.ScreenHeight > 0 {
			s.screenH = e.ScreenHeight
		}
		s.live = livehash.Build(s.view.Center)
		s.prefs.SaveMapContext(ctx, prefs.MapContext{
			Zoom:         s.view.Zoom,
			ScreenWidth:  s.screenW,
			ScreenHeight: s.screenH,
			Latitude:     s.view.Center.Lat,
			Longitude:    s.view.Center.Lon,
		})

	case MarkerPlaced:
		s.marker = &Marker{Location: e.Location, Label: e.Label}
		s.live = livehash.Build(e.Location)

	case SetShowGrid:
		s.settings.ShowGrid = e.On
		s.prefs.Save(ctx, prefs.KeyShowGrid, e.On)

	case SetShowZone:
		s.settings.ShowZone = e.On
		s.prefs.Save(ctx, prefs.KeyShowZone, e.On)

	case SetMode:
		if _, err := active.ParseMode(e.Mode.String()); err != nil {
			return err
		}
		s.settings.Mode = e.Mode
		s.prefs.Save(ctx, prefs.KeyActiveTab, e.Mode.String())

	case SetFixedPrecision:
		if !precision.Valid(e.Precision) {
			return fmt.Errorf("%w: %d", ErrInvalidPrecision, e.Precision)
		}
		s.settings.FixedPrecision = e.Precision
		s.prefs.Save(ctx, prefs.KeyFixedZonePrecision, e.Precision)

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	return nil
}

func (s *Session) resolve() active.Selection {
	center := s.view.Center
	if s.live != nil {
		center = s.live.Center
	}
	return active.Resolve(active.Inputs{
		Mode:           s.settings.Mode,
		FixedPrecision: s.settings.FixedPrecision,
		Center:         center,
		Zoom:           s.view.Zoom,
		MapLoaded:      s.loaded,
		Live:           s.live,
	})
}

func (s *Session) inputs() overlay.Inputs {
	return overlay.Inputs{
		MapLoaded:      s.loaded,
		ShowGrid:       s.settings.ShowGrid,
		ShowZone:       s.settings.ShowZone,
		Zoom:           s.view.Zoom,
		Bounds:         s.view.Bounds,
		FixedPrecision: s.settings.FixedPrecision,
		Selection:      s.sel,
	}
}

func (s *Session) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush dispatches the pending zone draw if it is due.
func (s *Session) Flush() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.rec.Flush(s.now())
}

// Deadline returns when the pending zone draw is due.
func (s *Session) Deadline() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Deadline()
}

// Send queues ev for Run.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued events and flushes zone draws when they come due. It
// returns when ctx is done, after closing the session.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var due <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case ev := <-s.events:
			if err := s.Apply(ctx, ev); err != nil {
				s.log.WithError(err).WithField("event", fmt.Sprintf("%T", ev)).Warn("Event rejected")
			}
		case <-s.wake:
		case <-due:
			s.Flush()
		}

		if at, ok := s.Deadline(); ok {
			wait := at.Sub(s.now())
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
			due = timer.C
		} else {
			timer.Stop()
			due = nil
		}
	}
}

// Snapshot returns the current state for display.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:        s.ID,
		MapLoaded: s.loaded,
		Settings:  s.settings,
		Viewport:  s.view,
		Selection: s.sel,
		Label:     s.sel.Label(),
		Live:      s.live.Rows(),
		Overlay:   s.rec.State(),
	}
	if s.marker != nil {
		m := *s.marker
		snap.Marker = &m
	}
	if z, ok := s.rec.Zone(); ok {
		snap.Zone = &z
	}
	return snap
}

// Close removes every overlay the session drew. It is safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	s.rec.Close()
	s.log.Debug("Session closed")
	return nil
}
