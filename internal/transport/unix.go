package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/wire"
)

// UnixTransport maintains one framed duplex channel per logical shell
// over a Unix domain socket. Send blocks for exactly one matching
// result frame; in streaming mode a background reader demultiplexes
// pushed Message frames from result frames onto separate channels.
type UnixTransport struct {
	path string

	mu       sync.Mutex
	conn     net.Conn
	welcome  string
	streamMu sync.Mutex
	streamOn bool
	readerWG sync.WaitGroup
	cancel   context.CancelFunc

	messages chan model.Message
	results  chan map[string]any

	callbacksMu sync.Mutex
	callbacks   []func(model.Message)
}

// NewUnixTransport builds a transport targeting the socket at path.
func NewUnixTransport(path string) *UnixTransport {
	return &UnixTransport{
		path:     path,
		messages: make(chan model.Message, 100),
		results:  make(chan map[string]any, 1),
	}
}

func (t *UnixTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", t.path)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", t.path, err)
	}
	t.conn = conn

	frame, err := wire.ReadFrame(conn)
	if err != nil {
		conn.Close()
		t.conn = nil
		return fmt.Errorf("read welcome frame: %w", err)
	}
	if payload, ok := frame["payload"].(string); ok {
		t.welcome = payload
	}
	return nil
}

func (t *UnixTransport) Disconnect() error {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	conn := t.conn
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if conn != nil {
		// Closing unblocks a reader goroutine parked in Read; waiting
		// on ctx.Done alone would leave it stuck until the peer writes.
		err = conn.Close()
	}
	t.readerWG.Wait()

	t.mu.Lock()
	t.conn = nil
	t.mu.Unlock()
	t.drainQueues()
	return err
}

func (t *UnixTransport) drainQueues() {
	for {
		select {
		case <-t.messages:
		default:
			return
		}
	}
}

func (t *UnixTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *UnixTransport) Endpoint() string { return "unix://" + t.path }

func (t *UnixTransport) Info() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{
		"transport": "unix",
		"path":      t.path,
		"connected": t.conn != nil,
		"welcome":   t.welcome,
		"streaming": t.streamOn,
	}
}

// Send writes a request frame and blocks for exactly one matching
// result frame. It is only safe to call when streaming is not active —
// once StartStreaming is running, use SendAsync + Receive instead, since
// a background reader owns the connection's read side.
func (t *UnixTransport) Send(ctx context.Context, cmd model.ParsedCommand) (model.CommandResult, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return model.CommandResult{}, fmt.Errorf("not connected")
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
		defer conn.SetDeadline(time.Time{})
	}

	if err := wire.WriteFrame(conn, requestPayload(cmd)); err != nil {
		return model.CommandResult{}, err
	}

	frame, err := wire.ReadFrame(conn)
	if err != nil {
		return model.CommandResult{}, err
	}
	return model.FromResponse(frame), nil
}

func (t *UnixTransport) Ping(ctx context.Context) bool {
	result, err := t.Send(ctx, model.ParsedCommand{Command: "ping"})
	return err == nil && result.Success
}

func requestPayload(cmd model.ParsedCommand) map[string]any {
	return map[string]any{
		"command":  cmd.Command,
		"args":     cmd.Args,
		"options":  cmd.Options,
		"raw":      cmd.Raw,
		"vertical": cmd.Vertical,
	}
}

var _ Transport = (*UnixTransport)(nil)
