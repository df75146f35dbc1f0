// Package tui is a terminal explorer for geohash zones. It drives a session
// over a headless map and renders the live hashes and the active zone.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/mapview"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/session"
)

const (
	minZoom    = 0
	maxZoom    = 22
	tileSize   = 256
	defaultW   = 1280
	defaultH   = 800
	panDivisor = 4
)

type searchResultMsg struct {
	result geocode.Result
	err    error
}

type flushMsg struct{}

type errMsg struct{ err error }

// Model is the bubbletea model of the explorer.
type Model struct {
	ctx      context.Context
	sess     *session.Session
	view     *mapview.Map
	geocoder *geocode.Resolver

	input     textinput.Model
	spinner   spinner.Model
	searching bool

	status string
	err    string
	width  int
	height int
}

// New opens the explorer on sess, which must draw on view. A nil geocoder
// disables search.
func New(ctx context.Context, sess *session.Session, view *mapview.Map, geocoder *geocode.Resolver) Model {
	ti := textinput.New()
	ti.Placeholder = "Search an address, e.g. Times Square"
	ti.CharLimit = 120
	ti.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return Model{
		ctx:      ctx,
		sess:     sess,
		view:     view,
		geocoder: geocoder,
		input:    ti,
		spinner:  s,
		width:    80,
		height:   24,
	}
}

// Init marks the map loaded at the stored view.
func (m Model) Init() tea.Cmd {
	m.view.SetReady(true)
	snap := m.sess.Snapshot()
	vp := viewportAt(snap.Viewport.Center, snap.Viewport.Zoom, defaultW, defaultH)
	m.view.SetViewport(vp)
	return tea.Batch(m.apply(session.MapLoaded{Viewport: vp}), m.spinner.Tick)
}

// apply sends ev to the session and schedules the zone flush.
func (m Model) apply(ev session.Event) tea.Cmd {
	if err := m.sess.Apply(m.ctx, ev); err != nil {
		return func() tea.Msg { return errMsg{err: err} }
	}
	return m.scheduleFlush()
}

func (m Model) scheduleFlush() tea.Cmd {
	due, ok := m.sess.Deadline()
	if !ok {
		return nil
	}
	wait := time.Until(due)
	if wait < 0 {
		wait = 0
	}
	return tea.Tick(wait, func(time.Time) tea.Msg { return flushMsg{} })
}

func (m Model) search(address string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.geocoder.Resolve(m.ctx, address)
		return searchResultMsg{result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case flushMsg:
		if m.sess.Flush() {
			if z := m.sess.Snapshot().Zone; z != nil {
				m.status = fmt.Sprintf("Zone %s drawn", z.Hash)
			}
		}
		return m, m.scheduleFlush()

	case errMsg:
		m.err = msg.err.Error()
		return m, nil

	case searchResultMsg:
		m.searching = false
		if msg.err != nil {
			m.err = searchError(msg.err)
			return m, nil
		}
		m.err = ""
		m.status = fmt.Sprintf("%s (%s) via %s", msg.result.Label, msg.result.Geohash, msg.result.Source)
		return m, m.apply(session.MarkerPlaced{
			Location: models.Location{Lat: msg.result.Lat, Lon: msg.result.Lng},
			Label:    msg.result.Label,
		})

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func searchError(err error) string {
	switch {
	case errors.Is(err, geocode.ErrEmptyAddress):
		return "Please enter an address"
	case errors.Is(err, geocode.ErrNotFound):
		return "Address not found. Try a city name or landmark"
	}
	return err.Error()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		if m.geocoder == nil {
			m.err = "search disabled"
			return m, nil
		}
		m.searching = true
		m.err = ""
		return m, m.search(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.sess.Snapshot()
	vp := snap.Viewport

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case "g":
		return m, m.apply(session.SetShowGrid{On: !snap.Settings.ShowGrid})
	case "z":
		return m, m.apply(session.SetShowZone{On: !snap.Settings.ShowZone})
	case "tab", "m":
		next := active.Fixed
		if snap.Settings.Mode == active.Fixed {
			next = active.Optimal
		}
		return m, m.apply(session.SetMode{Mode: next})
	case "]":
		return m, m.apply(session.SetFixedPrecision{Precision: snap.Settings.FixedPrecision + 1})
	case "[":
		return m, m.apply(session.SetFixedPrecision{Precision: snap.Settings.FixedPrecision - 1})
	case "+", "=":
		return m, m.move(vp.Center, vp.Zoom+1)
	case "-", "_":
		return m, m.move(vp.Center, vp.Zoom-1)
	case "up", "k":
		return m, m.move(pan(vp, 1, 0), vp.Zoom)
	case "down", "j":
		return m, m.move(pan(vp, -1, 0), vp.Zoom)
	case "left", "h":
		return m, m.move(pan(vp, 0, -1), vp.Zoom)
	case "right", "l":
		return m, m.move(pan(vp, 0, 1), vp.Zoom)
	}
	return m, nil
}

func (m Model) move(center models.Location, zoom float64) tea.Cmd {
	zoom = math.Max(minZoom, math.Min(maxZoom, zoom))
	vp := viewportAt(center, zoom, defaultW, defaultH)
	m.view.SetViewport(vp)
	return m.apply(session.ViewportChanged{Viewport: vp})
}

// pan moves the center by a quarter of the visible span.
func pan(vp models.Viewport, dLat, dLon float64) models.Location {
	latSpan := vp.Bounds.TopRight.Lat - vp.Bounds.BottomLeft.Lat
	lonSpan := vp.Bounds.TopRight.Lon - vp.Bounds.BottomLeft.Lon
	if latSpan <= 0 || lonSpan <= 0 {
		vp = viewportAt(vp.Center, vp.Zoom, defaultW, defaultH)
		latSpan = vp.Bounds.TopRight.Lat - vp.Bounds.BottomLeft.Lat
		lonSpan = vp.Bounds.TopRight.Lon - vp.Bounds.BottomLeft.Lon
	}

	lat := vp.Center.Lat + dLat*latSpan/panDivisor
	lon := vp.Center.Lon + dLon*lonSpan/panDivisor
	lat = math.Max(-85, math.Min(85, lat))
	if lon >= 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return models.Location{Lat: lat, Lon: lon}
}

// viewportAt approximates the box a web map of w x h pixels shows at zoom.
// Latitude span is scaled by the Mercator factor at the center.
func viewportAt(center models.Location, zoom float64, w, h int) models.Viewport {
	lonSpan := 360 * float64(w) / (tileSize * math.Pow(2, zoom))
	latSpan := 360 * float64(h) / (tileSize * math.Pow(2, zoom)) * math.Cos(center.Lat*math.Pi/180)
	lonSpan = math.Min(lonSpan, 360)
	latSpan = math.Min(latSpan, 180)

	south := math.Max(-90, center.Lat-latSpan/2)
	north := math.Min(90, center.Lat+latSpan/2)
	west := center.Lon - lonSpan/2
	east := center.Lon + lonSpan/2
	if lonSpan >= 360 {
		west, east = -180, 180
	} else {
		if west < -180 {
			west += 360
		}
		if east > 180 {
			east -= 360
		}
	}

	return models.Viewport{
		Center: center,
		Zoom:   zoom,
		Bounds: models.BoundingBox{
			BottomLeft: models.Location{Lat: south, Lon: west},
			TopRight:   models.Location{Lat: north, Lon: east},
		},
	}
}
