package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/wire"
)

// SendAsync writes a request frame without waiting for its result; the
// background reader started by StartStreaming demultiplexes the
// eventual result frame into the results channel.
func (t *UnixTransport) SendAsync(ctx context.Context, cmd model.ParsedCommand) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return wire.WriteFrame(conn, requestPayload(cmd))
}

// Receive waits up to timeout for the next queued Message. timeout==0
// is non-blocking; timeout<0 waits forever.
func (t *UnixTransport) Receive(timeout time.Duration) (model.Message, bool) {
	if timeout == 0 {
		select {
		case m := <-t.messages:
			return m, true
		default:
			return model.Message{}, false
		}
	}
	if timeout < 0 {
		m := <-t.messages
		return m, true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-t.messages:
		return m, true
	case <-timer.C:
		return model.Message{}, false
	}
}

// OnMessage registers a callback invoked for every Message received
// while streaming is active.
func (t *UnixTransport) OnMessage(cb func(model.Message)) {
	t.callbacksMu.Lock()
	defer t.callbacksMu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// StartStreaming launches the background frame reader. Calling it
// without a prior successful Connect is a hard failure per spec.md
// §4.9.
func (t *UnixTransport) StartStreaming(ctx context.Context) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("cannot start streaming: not connected")
	}

	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	if t.streamOn {
		return nil
	}

	readCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	t.streamOn = true
	t.readerWG.Add(1)
	go t.readLoop(readCtx, conn)
	return nil
}

func (t *UnixTransport) readLoop(ctx context.Context, conn net.Conn) {
	defer t.readerWG.Done()
	defer func() {
		t.streamMu.Lock()
		t.streamOn = false
		t.streamMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}

		if _, isResult := frame["success"]; isResult {
			select {
			case t.results <- frame:
			default:
			}
			continue
		}

		msg := model.MessageFromMap(frame)
		select {
		case t.messages <- msg:
		case <-ctx.Done():
			return
		}

		t.callbacksMu.Lock()
		cbs := append([]func(model.Message){}, t.callbacks...)
		t.callbacksMu.Unlock()
		for _, cb := range cbs {
			cb(msg)
		}
	}
}

// StopStreaming cancels the background reader. Since the reader is
// typically blocked in a Read call, cancellation alone won't wake it —
// a past read deadline forces the in-flight Read to return so the loop
// observes ctx.Done on its next pass.
func (t *UnixTransport) StopStreaming() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	conn := t.conn
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.SetReadDeadline(time.Now())
	}
	t.readerWG.Wait()
	if conn != nil {
		conn.SetReadDeadline(time.Time{})
	}
}

func (t *UnixTransport) IsStreaming() bool {
	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	return t.streamOn
}

func (t *UnixTransport) SupportsStreaming() bool { return true }

var _ Streaming = (*UnixTransport)(nil)
