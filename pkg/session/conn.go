package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/notifystream/pkg/registry"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// Conn is the transport of one session. Done is closed once the connection
// is closed, either explicitly or after a failed write; Err then reports the
// write error, or nil for an explicit close.
type Conn interface {
	registry.Connection
	Done() <-chan struct{}
	Err() error
}

// streamConn writes frames through a datastar SSE generator. The generator,
// and with it the response headers, is created on the first Send so that an
// error response can still be written if registration fails.
type streamConn struct {
	id           string
	w            http.ResponseWriter
	r            *http.Request
	rc           *http.ResponseController
	clock        clock.Clock
	writeTimeout time.Duration

	mu      sync.Mutex
	gen     *datastar.ServerSentEventGenerator
	started bool

	once sync.Once
	done chan struct{}
	err  error
}

func newStreamConn(id string, w http.ResponseWriter, r *http.Request, clk clock.Clock, writeTimeout time.Duration) *streamConn {
	return &streamConn{
		id:           id,
		w:            w,
		r:            r,
		rc:           http.NewResponseController(w),
		clock:        clk,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

func (c *streamConn) ID() string { return c.id }

func (c *streamConn) Send(ctx context.Context, f sse.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	if c.gen == nil {
		c.w.Header().Set("X-Accel-Buffering", "no")
		c.gen = datastar.NewSSE(c.w, c.r)
		c.started = true
	}
	if c.writeTimeout > 0 {
		err := c.rc.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			c.closeLocked(err)
			return err
		}
	}
	if err := c.gen.Send(datastar.EventType(f.Event), f.DataLines()); err != nil {
		c.closeLocked(err)
		return err
	}
	return nil
}

// Close waits for an in-flight Send, so no write reaches the ResponseWriter
// once the handler returns. It never fails; closing twice is a no-op.
func (c *streamConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(nil)
	return nil
}

func (c *streamConn) Done() <-chan struct{} { return c.done }

func (c *streamConn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Started reports whether any bytes of the stream were written.
func (c *streamConn) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// closeLocked must be called with c.mu held.
func (c *streamConn) closeLocked(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}
