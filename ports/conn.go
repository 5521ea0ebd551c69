package ports

import (
	"context"

	"github.com/layer-3/clearport/wire"
)

// Conn is one persistent connection to the settlement node. A transfer owns
// its connection exclusively for its lifetime; the protocol is strictly
// sequential, so at most one exchange may be awaiting a response at a time.
type Conn interface {
	// Send writes one signed request frame
	Send(req *wire.Request, sigs ...string) error

	// Await blocks until a frame with the given method arrives. An "error"
	// frame rejects the exchange with a *wire.ServerError; frames for other
	// methods are skipped. A second concurrent Await fails with
	// core.ErrExchangePending.
	Await(ctx context.Context, method string) (*wire.Frame, error)

	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Dialer opens connections to the settlement node.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}
