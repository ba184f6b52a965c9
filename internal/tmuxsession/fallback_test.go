package tmuxsession_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsnest/adminshell/internal/state"
	"github.com/opsnest/adminshell/internal/tmuxsession"
)

func TestNewOutputManager_FallsBackToStdoutWhenTmuxNotPreferred(t *testing.T) {
	om, err := tmuxsession.NewOutputManager(false, &tmuxsession.Config{SessionName: "adminshell-test"})
	require.NoError(t, err)

	assert.Equal(t, tmuxsession.OutputModeStdout, om.Mode())
	assert.False(t, om.IsTmuxMode())
	assert.Equal(t, "stdout", om.ModeString())
	assert.Empty(t, om.AttachCommand())
	assert.Empty(t, om.SessionName())
	assert.NotNil(t, om.Writer())
}

func TestOutputManager_AnnounceSession_NoOpInStdoutMode(t *testing.T) {
	om, err := tmuxsession.NewOutputManager(false, &tmuxsession.Config{SessionName: "adminshell-test"})
	require.NoError(t, err)

	s := state.New("unix:///tmp/admin.sock")
	assert.NoError(t, om.AnnounceSession(s, []string{"status", "help"}))
}

func TestOutputManager_CleanupWithoutTmuxIsSafe(t *testing.T) {
	om, err := tmuxsession.NewOutputManager(false, &tmuxsession.Config{SessionName: "adminshell-test"})
	require.NoError(t, err)
	om.Cleanup()
}
