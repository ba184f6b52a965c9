package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opsnest/adminshell/internal/model"
)

// PooledTransport wraps N underlying Streaming connections (typically
// UnixTransport instances) behind the same Streaming contract, per
// spec.md §4.9. Per-call Send/Ping acquire a connection, run one op,
// and release it back to the pool. Streaming methods instead acquire
// and hold one connection for the lifetime of the stream.
type PooledTransport struct {
	factory func() Streaming
	size    int

	mu      sync.Mutex
	idle    []Streaming
	closed  bool
	created int

	streamMu sync.Mutex
	held     Streaming
}

// NewPooledTransport builds a pool of up to size connections, created
// lazily via factory on first use.
func NewPooledTransport(size int, factory func() Streaming) *PooledTransport {
	if size <= 0 {
		size = 1
	}
	return &PooledTransport{factory: factory, size: size}
}

func (p *PooledTransport) acquire(ctx context.Context) (Streaming, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool is closed")
	}
	if len(p.idle) > 0 {
		conn := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		p.mu.Unlock()
		return conn, nil
	}
	if p.created >= p.size {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool exhausted: %d connections in use", p.size)
	}
	p.created++
	p.mu.Unlock()

	conn := p.factory()
	if err := conn.Connect(ctx); err != nil {
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		return nil, err
	}
	return conn, nil
}

func (p *PooledTransport) release(conn Streaming) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		conn.Disconnect()
		return
	}
	p.idle = append(p.idle, conn)
}

func (p *PooledTransport) Connect(ctx context.Context) error {
	// Connections are established lazily per acquire; this validates the
	// pool can produce at least one live connection.
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	p.release(conn)
	return nil
}

func (p *PooledTransport) Disconnect() error {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, c := range idle {
		c.Disconnect()
	}

	p.streamMu.Lock()
	held := p.held
	p.held = nil
	p.streamMu.Unlock()
	if held != nil {
		held.StopStreaming()
		held.Disconnect()
	}
	return nil
}

func (p *PooledTransport) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && (len(p.idle) > 0 || p.created > 0)
}

func (p *PooledTransport) Endpoint() string { return "pool" }

func (p *PooledTransport) Info() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{
		"transport": "pool",
		"size":      p.size,
		"created":   p.created,
		"idle":      len(p.idle),
		"closed":    p.closed,
	}
}

func (p *PooledTransport) Send(ctx context.Context, cmd model.ParsedCommand) (model.CommandResult, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return model.CommandResult{}, err
	}
	defer p.release(conn)
	return conn.Send(ctx, cmd)
}

func (p *PooledTransport) Ping(ctx context.Context) bool {
	conn, err := p.acquire(ctx)
	if err != nil {
		return false
	}
	defer p.release(conn)
	return conn.Ping(ctx)
}

func (p *PooledTransport) SendAsync(ctx context.Context, cmd model.ParsedCommand) error {
	p.streamMu.Lock()
	held := p.held
	p.streamMu.Unlock()
	if held == nil {
		return fmt.Errorf("no active streaming connection")
	}
	return held.SendAsync(ctx, cmd)
}

func (p *PooledTransport) Receive(timeout time.Duration) (model.Message, bool) {
	p.streamMu.Lock()
	held := p.held
	p.streamMu.Unlock()
	if held == nil {
		return model.Message{}, false
	}
	return held.Receive(timeout)
}

func (p *PooledTransport) OnMessage(cb func(model.Message)) {
	p.streamMu.Lock()
	held := p.held
	p.streamMu.Unlock()
	if held != nil {
		held.OnMessage(cb)
	}
}

func (p *PooledTransport) StartStreaming(ctx context.Context) error {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	if p.held != nil {
		return nil
	}
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	if err := conn.StartStreaming(ctx); err != nil {
		p.release(conn)
		return err
	}
	p.held = conn
	return nil
}

func (p *PooledTransport) StopStreaming() {
	p.streamMu.Lock()
	held := p.held
	p.held = nil
	p.streamMu.Unlock()
	if held != nil {
		held.StopStreaming()
		p.release(held)
	}
}

func (p *PooledTransport) IsStreaming() bool {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	return p.held != nil && p.held.IsStreaming()
}

func (p *PooledTransport) SupportsStreaming() bool { return true }

var _ Streaming = (*PooledTransport)(nil)
