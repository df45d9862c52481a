package api

import (
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// updateBroker wakes every open stream after the board or filter changed.
// Closing it ends all streams, including ones that subscribe afterwards.
type updateBroker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func newUpdateBroker() *updateBroker {
	return &updateBroker{subs: make(map[chan struct{}]struct{}), done: make(chan struct{})}
}

// close is registered as a server shutdown hook; http.Server.Shutdown does
// not cancel the contexts of requests still in flight.
func (b *updateBroker) close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *updateBroker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *updateBroker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// notify never blocks; a subscriber with a wakeup pending misses nothing
// because it re-reads the whole board.
func (b *updateBroker) notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// streamBoard sends the visible board as a server-sent event on connect and
// after every change until the client goes away or the server shuts down.
func (h *handlers) streamBoard(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	ch := h.updates.subscribe()
	defer h.updates.unsubscribe(ch)
	for {
		data, err := sonic.ConfigStd.Marshal(newBoardResponse(h.board.VisibleBoard(), h.board.Filter()))
		if err != nil {
			h.log.WithError(err).Error("encode board event")
			return err
		}
		if _, err := c.Response().Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := c.Response().Write(data); err != nil {
			return err
		}
		if _, err := c.Response().Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		select {
		case <-ctx.Done():
			return nil
		case <-h.updates.done:
			return nil
		case <-ch:
		}
	}
}
