package state_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opsnest/adminshell/internal/clock"
	"github.com/opsnest/adminshell/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellState_RecordCommandAndMessage(t *testing.T) {
	s := state.New("unix:///tmp/admin.sock")
	s.RecordCommand("status")
	s.RecordCommand("help")
	s.RecordMessage()

	assert.Equal(t, 2, s.CommandsRun)
	assert.Equal(t, 1, s.MessagesCount)
	assert.Equal(t, "help", s.LastCommand)
}

func TestShellState_UptimeAndLastCommandTimeUseInjectedClock(t *testing.T) {
	mock := clock.NewMock()
	s := state.NewWithClock("endpoint", mock)
	assert.Equal(t, mock.Now(), s.ConnectedAt)

	mock.Add(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, s.Uptime())

	s.RecordCommand("status")
	assert.Equal(t, mock.Now(), s.LastCommandTime)

	mock.Add(30 * time.Second)
	assert.Equal(t, 5*time.Minute+30*time.Second, s.Uptime())
	assert.NotEqual(t, mock.Now(), s.LastCommandTime)
}

func TestShellState_SetGetValues(t *testing.T) {
	s := state.New("endpoint")
	s.Set("target", "prod-1")
	v, ok := s.Get("target")
	require.True(t, ok)
	assert.Equal(t, "prod-1", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestShellState_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	s := state.New("unix:///tmp/admin.sock")
	s.RecordCommand("status")
	s.Set("target", "prod-1")
	require.NoError(t, s.Save(path))

	loaded, err := state.Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Endpoint, loaded.Endpoint)
	assert.Equal(t, s.CommandsRun, loaded.CommandsRun)
	assert.Equal(t, "prod-1", loaded.Values["target"])
}

func TestShellState_MultilineContinuation(t *testing.T) {
	s := state.New("endpoint")
	assert.False(t, s.InMultiline())

	s.BeginMultiline(`echo hello \`)
	assert.True(t, s.InMultiline())

	joined := s.FinishMultiline("world")
	assert.Equal(t, "echo hello  world", joined)
	assert.False(t, s.InMultiline())
}

func TestShellState_CancelMultiline(t *testing.T) {
	s := state.New("endpoint")
	s.BeginMultiline(`echo hello \`)
	s.CancelMultiline()
	assert.False(t, s.InMultiline())
}

func TestShellState_SaveAggregatesTotalsAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	first := state.New("endpoint")
	first.RecordCommand("status")
	first.RecordCommand("help")
	require.NoError(t, first.Save(path))

	second := state.New("endpoint")
	second.RecordCommand("status")
	require.NoError(t, second.Save(path))

	loaded, err := state.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TotalCommands)
	assert.Equal(t, 2, loaded.TotalSessions)
}

func TestShellState_LoadMissingFile(t *testing.T) {
	_, err := state.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestHistoryManager_CoalescesConsecutiveDuplicates(t *testing.T) {
	h := state.NewHistoryManager(10)
	h.Add("status")
	h.Add("status")
	h.Add("help")
	assert.Equal(t, []string{"status", "help"}, h.Entries())
}

func TestHistoryManager_TrimsToMaxEntries(t *testing.T) {
	h := state.NewHistoryManager(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		h.Add(line)
	}
	assert.Equal(t, []string{"c", "d", "e"}, h.Entries())
}

func TestHistoryManager_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")

	h := state.NewHistoryManager(10)
	h.Add("status")
	h.Add("help")
	h.Add("filter topic:sensors/*")
	require.NoError(t, h.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := state.NewHistoryManager(10)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, h.Entries(), loaded.Entries())
}

func TestHistoryManager_LoadMissingFileIsNotError(t *testing.T) {
	h := state.NewHistoryManager(10)
	err := h.Load(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestHistoryManager_LoadCollapsesDuplicatesAndTrims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")
	content := "a\na\nb\nb\nb\nc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	h := state.NewHistoryManager(2)
	require.NoError(t, h.Load(path))
	assert.Equal(t, []string{"b", "c"}, h.Entries())
}
