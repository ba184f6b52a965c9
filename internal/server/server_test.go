package server_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/registry"
	"github.com/opsnest/adminshell/internal/server"
	"github.com/opsnest/adminshell/internal/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type echoHandler struct{}

func (echoHandler) Command() string { return "echo" }
func (echoHandler) Handle(cmd model.ParsedCommand, _ model.Context) model.CommandResult {
	return model.Success(cmd.Args, "", nil)
}
func (echoHandler) Description() string { return "echoes its arguments" }
func (echoHandler) Usage() []string     { return []string{"echo <text...>"} }

type panicHandler struct{}

func (panicHandler) Command() string { return "explode" }
func (panicHandler) Handle(model.ParsedCommand, model.Context) model.CommandResult {
	panic("boom")
}
func (panicHandler) Description() string { return "always panics" }
func (panicHandler) Usage() []string     { return nil }

type pushHandler struct{}

func (pushHandler) Command() string { return "notify" }
func (pushHandler) Handle(cmd model.ParsedCommand, ctx model.Context) model.CommandResult {
	v, ok := ctx.Container().Get(server.ContainerKey)
	if !ok {
		return model.Failure("no pusher", nil, nil)
	}
	pusher := v.(server.Pusher)
	_ = pusher.Push(model.Message{Type: model.MessageTypeData, Source: "notify", Payload: map[string]any{"ok": true}})
	return model.Success(nil, "queued", nil)
}
func (pushHandler) Description() string { return "pushes a message frame then returns" }
func (pushHandler) Usage() []string     { return nil }

func newTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	reg := registry.New()
	reg.Register(echoHandler{})
	reg.Register(panicHandler{})
	reg.Register(pushHandler{})

	socketPath := filepath.Join(t.TempDir(), "adminshell.sock")
	srv := server.New(server.Config{SocketPath: socketPath}, reg, nil, nil, nil)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { srv.Stop() })
	return srv, socketPath
}

func dial(t *testing.T, socketPath string) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, "system", welcome["type"])
	return conn
}

func TestServer_WelcomeThenEchoRoundTrip(t *testing.T) {
	_, socketPath := newTestServer(t)
	conn := dial(t, socketPath)

	require.NoError(t, wire.WriteFrame(conn, map[string]any{
		"command": "echo", "args": []string{"a", "b"}, "options": map[string]any{}, "raw": "echo a b",
	}))

	result, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
}

func TestServer_UnknownCommandFails(t *testing.T) {
	_, socketPath := newTestServer(t)
	conn := dial(t, socketPath)

	require.NoError(t, wire.WriteFrame(conn, map[string]any{"command": "nope", "args": []string{}, "options": map[string]any{}}))
	result, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, false, result["success"])
}

func TestServer_HandlerPanicBecomesFailureAndSessionStaysOpen(t *testing.T) {
	_, socketPath := newTestServer(t)
	conn := dial(t, socketPath)

	require.NoError(t, wire.WriteFrame(conn, map[string]any{"command": "explode", "args": []string{}, "options": map[string]any{}}))
	result, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, false, result["success"])

	// Session must still be alive: a second request gets a normal reply.
	require.NoError(t, wire.WriteFrame(conn, map[string]any{"command": "echo", "args": []string{"still-alive"}, "options": map[string]any{}}))
	result2, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, true, result2["success"])
}

func TestServer_PushesMessageFrameThenResult(t *testing.T) {
	_, socketPath := newTestServer(t)
	conn := dial(t, socketPath)

	require.NoError(t, wire.WriteFrame(conn, map[string]any{"command": "notify", "args": []string{}, "options": map[string]any{}}))

	pushed, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, "data", pushed["type"])

	result, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, true, result["success"])
}

func TestServer_ConcurrentSessionsMakeIndependentProgress(t *testing.T) {
	_, socketPath := newTestServer(t)

	const clients = 8
	done := make(chan struct{}, clients)
	for i := 0; i < clients; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			conn := dial(t, socketPath)
			defer conn.Close()
			for j := 0; j < 5; j++ {
				wire.WriteFrame(conn, map[string]any{"command": "echo", "args": []string{"x"}, "options": map[string]any{}})
				wire.ReadFrame(conn)
			}
		}()
	}
	for i := 0; i < clients; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for concurrent sessions")
		}
	}
}

func TestServer_StopUnblocksSessionsAndClosesListener(t *testing.T) {
	srv, socketPath := newTestServer(t)
	conn := dial(t, socketPath)

	require.NoError(t, srv.Stop())

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := conn.Read(buf)
	assert.Error(t, err) // the session's connection was actively closed

	_, dialErr := net.Dial("unix", socketPath)
	assert.Error(t, dialErr) // socket file was unlinked
}

func TestServer_StartFailsWhenAlreadyRunning(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Error(t, srv.Start(context.Background()))
}
