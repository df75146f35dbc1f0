// Package wsmap bridges a browser map to a session over a websocket. The
// browser reports map events and the server answers with draw and remove
// commands plus the resulting state.
package wsmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/geohash-zones/pkg/active"
	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
	"github.com/1F47E/geohash-zones/pkg/models"
	"github.com/1F47E/geohash-zones/pkg/session"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to client with this period. Must be less than pongWait.
	pingPeriod = 15 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server upgrades requests to map sessions.
type Server struct {
	log      *logrus.Logger
	geocoder *geocode.Resolver
	opts     []session.Option
	buffer   int
}

// NewServer returns a server. opts are applied to every session; a nil
// geocoder disables search.
func NewServer(logger *logrus.Logger, geocoder *geocode.Resolver, opts ...session.Option) *Server {
	return &Server{log: logging.OrDiscard(logger), geocoder: geocoder, opts: opts, buffer: sendBuffer}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	h := newHandle(s.buffer)
	opts := append([]session.Option{session.WithLogger(s.log)}, s.opts...)
	sess := session.New(r.Context(), h, opts...)

	c := &client{
		conn:     conn,
		handle:   h,
		sess:     sess,
		geocoder: s.geocoder,
		log:      s.log.WithField("session", sess.ID),
	}
	metrics.MapSessions.Inc()
	defer metrics.MapSessions.Dec()

	c.log.Info("Map session opened")
	c.run()
	c.log.Info("Map session closed")
}

type client struct {
	conn     *websocket.Conn
	handle   *handle
	sess     *session.Session
	geocoder *geocode.Resolver
	log      *logrus.Entry
}

func (c *client) run() {
	defer c.conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.sess.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		c.writeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		c.readLoop(ctx)
	}()

	select {
	case <-ctx.Done():
	case <-c.handle.Overflowed():
		c.log.Warn("Send buffer full, closing slow client")
		metrics.SlowClientsTotal.Inc()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "send buffer full"),
			time.Now().Add(writeWait))
		cancel()
	}
	c.handle.SetReady(false)
	c.conn.Close()
	wg.Wait()
}

func (c *client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Websocket read failed")
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(Outbound{Type: TypeError, Error: "invalid message"})
			continue
		}
		if err := c.handleMessage(ctx, msg); err != nil {
			c.log.WithError(err).WithField("type", msg.Type).Debug("Message rejected")
			c.reply(Outbound{Type: TypeError, Error: errorText(err)})
		}
	}
}

func (c *client) handleMessage(ctx context.Context, msg Inbound) error {
	switch msg.Type {
	case TypeMapLoaded:
		ev := session.MapLoaded{}
		if msg.Viewport != nil {
			ev.Viewport = *msg.Viewport
			c.handle.SetViewport(*msg.Viewport)
		}
		c.handle.SetReady(true)
		return c.apply(ctx, ev)

	case TypeViewport:
		if msg.Viewport == nil {
			return fmt.Errorf("viewport missing")
		}
		c.handle.SetViewport(*msg.Viewport)
		return c.apply(ctx, session.ViewportChanged{
			Viewport:     *msg.Viewport,
			ScreenWidth:  msg.ScreenWidth,
			ScreenHeight: msg.ScreenHeight,
		})

	case TypeMarker:
		if msg.Location == nil {
			return fmt.Errorf("location missing")
		}
		return c.apply(ctx, session.MarkerPlaced{Location: *msg.Location, Label: msg.Label})

	case TypeShowGrid:
		return c.apply(ctx, session.SetShowGrid{On: msg.On})

	case TypeShowZone:
		return c.apply(ctx, session.SetShowZone{On: msg.On})

	case TypeMode:
		mode, err := active.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		return c.apply(ctx, session.SetMode{Mode: mode})

	case TypeFixedPrecision:
		return c.apply(ctx, session.SetFixedPrecision{Precision: msg.Precision})

	case TypeSearch:
		return c.search(ctx, msg.Address)

	case TypeClick:
		if msg.Location == nil {
			return fmt.Errorf("location missing")
		}
		hits, err := c.handle.At(*msg.Location)
		if err != nil {
			return err
		}
		c.reply(Outbound{Type: TypeHits, Hits: hits})
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (c *client) apply(ctx context.Context, ev session.Event) error {
	if err := c.sess.Apply(ctx, ev); err != nil {
		return err
	}
	snap := c.sess.Snapshot()
	c.reply(Outbound{Type: TypeState, State: &snap})
	return nil
}

func (c *client) search(ctx context.Context, address string) error {
	if c.geocoder == nil {
		return fmt.Errorf("search disabled")
	}
	res, err := c.geocoder.Resolve(ctx, address)
	if err != nil {
		return err
	}
	c.reply(Outbound{Type: TypeSearchResult, Result: &res})
	return c.apply(ctx, session.MarkerPlaced{
		Location: models.Location{Lat: res.Lat, Lon: res.Lng},
		Label:    res.Label,
	})
}

// errorText is the wording shown to the user for err.
func errorText(err error) string {
	switch {
	case errors.Is(err, geocode.ErrEmptyAddress):
		return "Please enter an address"
	case errors.Is(err, geocode.ErrNotFound):
		return "Address not found. Try a city name or landmark"
	}
	return err.Error()
}

func (c *client) reply(msg Outbound) {
	if err := c.handle.send(msg); err != nil {
		c.log.WithError(err).WithField("type", msg.Type).Warn("Dropped outbound message")
	}
}

func (c *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case b := <-c.handle.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
