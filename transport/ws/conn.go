// Package ws provides the websocket connection to the settlement node.
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
	"github.com/layer-3/clearport/wire"
)

// inboundBuffer bounds how many decoded frames may sit between the read loop
// and the awaiting exchange.
const inboundBuffer = 16

// Dialer opens websocket connections to the settlement node.
type Dialer struct {
	log zerolog.Logger
}

// NewDialer creates a dialer logging through the given logger.
func NewDialer(log zerolog.Logger) *Dialer {
	return &Dialer{log: log}
}

// Dial connects to the node and starts the read loop.
func (d *Dialer) Dial(ctx context.Context, url string) (ports.Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", core.ErrConnection, url, err)
	}

	conn := &Conn{
		ws:     ws,
		frames: make(chan *wire.Frame, inboundBuffer),
		log:    d.log.With().Str("endpoint", url).Logger(),
	}
	go conn.readLoop()

	return conn, nil
}

// Conn is a live connection. Inbound frames are decoded by the read loop and
// consumed one at a time by the single pending exchange.
type Conn struct {
	ws     *websocket.Conn
	frames chan *wire.Frame
	log    zerolog.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   string

	closeOnce sync.Once
}

// Send marshals and writes one signed request frame.
func (c *Conn) Send(req *wire.Request, sigs ...string) error {
	env, err := req.Envelope(sigs...)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.TextMessage, env); err != nil {
		return fmt.Errorf("%w: send %s: %v", core.ErrConnection, req.Method, err)
	}

	c.log.Debug().Str("method", req.Method).Msg("frame sent")
	return nil
}

// Await blocks until a frame with the given method arrives. Error frames
// reject the exchange; unrelated frames are skipped. Only one exchange may be
// pending at a time.
func (c *Conn) Await(ctx context.Context, method string) (*wire.Frame, error) {
	c.pendingMu.Lock()
	if c.pending != "" {
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("%w: awaiting %s", core.ErrExchangePending, c.pending)
	}
	c.pending = method
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		c.pending = ""
		c.pendingMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: awaiting %s", core.ErrTimeout, method)
			}
			return nil, ctx.Err()

		case frame, ok := <-c.frames:
			if !ok {
				return nil, fmt.Errorf("%w: awaiting %s", core.ErrConnectionClosed, method)
			}

			switch frame.Method {
			case method:
				return frame, nil
			case wire.MethodError:
				return nil, &wire.ServerError{Message: frame.ErrorMessage()}
			default:
				c.log.Debug().Str("method", frame.Method).Str("want", method).Msg("skipping unexpected frame")
			}
		}
	}
}

// Close tears the connection down and unblocks the pending exchange.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.frames)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("read loop terminated")
			}
			return
		}

		frame, err := wire.DecodeFrame(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping undecodable frame")
			continue
		}

		select {
		case c.frames <- frame:
		default:
			c.log.Warn().Str("method", frame.Method).Msg("inbound buffer full, dropping frame")
		}
	}
}

var _ ports.Conn = (*Conn)(nil)
