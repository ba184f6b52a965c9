package shellio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnest/adminshell/internal/model"
)

// fakeTransport is a minimal transport.Transport double for exercising
// Shell's forward-to-transport path without a real socket or HTTP server.
type fakeTransport struct {
	connected bool
	endpoint  string
	sent      []model.ParsedCommand
	response  model.CommandResult
	sendErr   error
	pingOK    bool
}

func (f *fakeTransport) Connect(context.Context) error { f.connected = true; return nil }
func (f *fakeTransport) Disconnect() error              { f.connected = false; return nil }
func (f *fakeTransport) IsConnected() bool              { return f.connected }
func (f *fakeTransport) Endpoint() string               { return f.endpoint }
func (f *fakeTransport) Info() map[string]any           { return map[string]any{"endpoint": f.endpoint} }
func (f *fakeTransport) Ping(context.Context) bool      { return f.pingOK }
func (f *fakeTransport) Send(_ context.Context, cmd model.ParsedCommand) (model.CommandResult, error) {
	f.sent = append(f.sent, cmd)
	if f.sendErr != nil {
		return model.CommandResult{}, f.sendErr
	}
	return f.response, nil
}

func newTestShell(t *testing.T, in string, tr *fakeTransport) (*Shell, *strings.Builder) {
	t.Helper()
	var out strings.Builder
	cfg := Config{
		In:  strings.NewReader(in),
		Out: &out,
	}
	if tr != nil {
		cfg.Transport = tr
	}
	return New(cfg), &out
}

func TestDispatch_UnknownBuiltinForwardsToTransport(t *testing.T) {
	tr := &fakeTransport{connected: true, endpoint: "unix:///tmp/x.sock", response: model.Success("ok", "", nil)}
	sh, _ := newTestShell(t, "", tr)

	result, _ := sh.Dispatch("restart-service web")
	require.True(t, result.Success)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "restart-service", tr.sent[0].Command)
}

func TestDispatch_NoTransportConfiguredFails(t *testing.T) {
	sh, _ := newTestShell(t, "", nil)

	result, _ := sh.Dispatch("restart-service web")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not connected")
}

func TestDispatch_HelpWritesDirectlyAndSkipsFormatter(t *testing.T) {
	sh, out := newTestShell(t, "", nil)

	sh.handleLine("help")
	assert.Contains(t, out.String(), "adminshell")
	assert.NotContains(t, out.String(), "Command completed successfully")
}

func TestDispatch_ExitSetsExitFlag(t *testing.T) {
	sh, _ := newTestShell(t, "", nil)

	result, _ := sh.Dispatch("exit")
	assert.True(t, result.Success)
	assert.True(t, sh.exit)
}

func TestDispatch_AliasExpansionAppliesBeforeParsing(t *testing.T) {
	tr := &fakeTransport{connected: true, endpoint: "unix:///tmp/x.sock", response: model.Success(nil, "", nil)}
	sh, _ := newTestShell(t, "", tr)

	require.NoError(t, sh.aliases.SetAlias("ls", "list-services"))
	sh.Dispatch("ls")
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "list-services", tr.sent[0].Command)
}

func TestRun_DispatchesLinesUntilExit(t *testing.T) {
	tr := &fakeTransport{connected: true, endpoint: "unix:///tmp/x.sock", response: model.Success(nil, "done", nil)}
	sh, out := newTestShell(t, "ping\nexit\n", tr)
	tr.pingOK = true

	err := sh.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "reachable")
}

func TestBuiltinAlias_ListDefineAndRemove(t *testing.T) {
	sh, _ := newTestShell(t, "", nil)

	result, _ := sh.Dispatch("alias fast=run-quick")
	require.True(t, result.Success)

	result, _ = sh.Dispatch("alias fast")
	require.True(t, result.Success)
	m := result.Data.(map[string]any)
	assert.Equal(t, "run-quick", m["expansion"])

	result, _ = sh.Dispatch("unalias fast")
	require.True(t, result.Success)

	result, _ = sh.Dispatch("unalias fast")
	assert.False(t, result.Success)
}

func TestBuiltinHistory_RecordsDispatchedLines(t *testing.T) {
	sh, _ := newTestShell(t, "", nil)

	sh.Dispatch("help")
	result, _ := sh.Dispatch("history")
	require.True(t, result.Success)
	rows := result.Data.([]map[string]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "help", rows[0]["command"])
	assert.Equal(t, "history", rows[1]["command"])
}

func TestBuiltinStatus_ReportsTransportConnection(t *testing.T) {
	tr := &fakeTransport{connected: true, endpoint: "unix:///tmp/x.sock"}
	sh, _ := newTestShell(t, "", tr)

	result, _ := sh.Dispatch("status")
	require.True(t, result.Success)
	m := result.Data.(map[string]any)
	assert.Equal(t, true, m["transport_connected"])
}

func TestBuiltinPing_ReportsUnreachable(t *testing.T) {
	tr := &fakeTransport{connected: true, endpoint: "unix:///tmp/x.sock", pingOK: false}
	sh, _ := newTestShell(t, "", tr)

	result, _ := sh.Dispatch("ping")
	assert.False(t, result.Success)
	assert.Equal(t, "ping failed", result.Error)
}
