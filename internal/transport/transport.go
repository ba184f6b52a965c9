// Package transport implements the client-side transport contract from
// spec.md §4.9: a Unix domain socket transport, an HTTP transport, a
// streaming extension used by the Unix transport, and a pooled
// transport that multiplexes N underlying streaming connections.
package transport

import (
	"context"
	"time"

	"github.com/opsnest/adminshell/internal/model"
)

// Transport is the common contract every client transport implements.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	Send(ctx context.Context, cmd model.ParsedCommand) (model.CommandResult, error)
	Ping(ctx context.Context) bool
	Endpoint() string
	Info() map[string]any
}

// Streaming extends Transport with the async operations the streaming
// engine (internal/streaming) drives. Only transports that maintain a
// persistent duplex channel (the Unix socket transport, and a
// PooledTransport wrapping it) implement this.
type Streaming interface {
	Transport

	// SendAsync emits a request frame without waiting for its matching
	// result frame. Receive returns only pushed Messages, never result
	// frames; UnixTransport queues result frames separately.
	SendAsync(ctx context.Context, cmd model.ParsedCommand) error

	// Receive waits up to timeout for the next pushed Message. timeout
	// == 0 means non-blocking (return immediately if nothing is
	// queued); timeout < 0 means wait forever.
	Receive(timeout time.Duration) (model.Message, bool)

	// OnMessage registers a callback invoked for every Message that
	// arrives while streaming is active, in addition to it being
	// queued for Receive.
	OnMessage(cb func(model.Message))

	StartStreaming(ctx context.Context) error
	StopStreaming()
	IsStreaming() bool
	SupportsStreaming() bool
}
