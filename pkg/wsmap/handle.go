package wsmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/1F47E/geohash-zones/pkg/mapview"
	"github.com/1F47E/geohash-zones/pkg/models"
)

var errBufferFull = errors.New("send buffer full")

// handle draws on the browser map. It mirrors every rectangle in a local
// mapview so clicks can be answered without a round trip. Once a message
// does not fit the send buffer the mirror can no longer be trusted: the
// handle stops accepting commands and signals overflow so the client is
// disconnected.
type handle struct {
	*mapview.Map
	out      chan []byte
	overflow chan struct{}
	once     sync.Once
}

func newHandle(buffer int) *handle {
	return &handle{
		Map:      mapview.New(),
		out:      make(chan []byte, buffer),
		overflow: make(chan struct{}),
	}
}

// Overflowed is closed when a message was dropped for a full buffer.
func (h *handle) Overflowed() <-chan struct{} {
	return h.overflow
}

func (h *handle) send(msg Outbound) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	select {
	case h.out <- b:
		return nil
	default:
		h.once.Do(func() {
			h.SetReady(false)
			close(h.overflow)
		})
		return errBufferFull
	}
}

func (h *handle) DrawRectangle(r models.Rectangle) (string, error) {
	id, err := h.Map.DrawRectangle(r)
	if err != nil {
		return "", err
	}
	r.ID = id
	if err := h.send(Outbound{Type: TypeDraw, Rectangle: &r}); err != nil {
		h.Map.Remove(id)
		return "", err
	}
	return id, nil
}

func (h *handle) Remove(id string) {
	if _, ok := h.Map.Get(id); !ok {
		return
	}
	h.Map.Remove(id)
	// A failed send marks the handle overflowed and the client is dropped.
	_ = h.send(Outbound{Type: TypeRemove, ID: id})
}
