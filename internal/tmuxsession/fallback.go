package tmuxsession

import (
	"io"
	"os"

	"github.com/opsnest/adminshell/internal/state"
)

// OutputMode is the destination a shell's output is currently routed to.
type OutputMode int

const (
	OutputModeTmux   OutputMode = iota // routed into a tmux pane
	OutputModeStdout                   // routed directly to stdout
)

// OutputManager picks a tmux pane when available and falls back to
// stdout transparently, so `adminshell session tmux` degrades to a
// normal foreground shell on a host without tmux installed.
type OutputManager struct {
	mode     OutputMode
	tmux     *Manager
	writer   io.Writer
	flushErr error
}

// NewOutputManager builds an OutputManager, trying tmux first when
// preferTmux is set and falling back to stdout on any failure.
func NewOutputManager(preferTmux bool, tmuxConfig *Config) (*OutputManager, error) {
	om := &OutputManager{}

	if preferTmux && IsTmuxAvailable() {
		mgr, err := NewManager(tmuxConfig)
		if err != nil {
			om.mode = OutputModeStdout
			om.writer = os.Stdout
			return om, nil
		}
		if err := mgr.GetOrCreateSession(); err != nil {
			om.mode = OutputModeStdout
			om.writer = os.Stdout
			return om, nil
		}
		om.mode = OutputModeTmux
		om.tmux = mgr
		om.writer = NewWriter(mgr)
		return om, nil
	}

	om.mode = OutputModeStdout
	om.writer = os.Stdout
	return om, nil
}

func (om *OutputManager) Writer() io.Writer { return om.writer }
func (om *OutputManager) Mode() OutputMode  { return om.mode }
func (om *OutputManager) TmuxManager() *Manager { return om.tmux }
func (om *OutputManager) IsTmuxMode() bool  { return om.mode == OutputModeTmux }

func (om *OutputManager) AttachCommand() string {
	if om.tmux != nil {
		return om.tmux.AttachCommand()
	}
	return ""
}

func (om *OutputManager) SessionName() string {
	if om.tmux != nil {
		return om.tmux.SessionName()
	}
	return ""
}

// Cleanup flushes any buffered output and releases local tmux
// references; the tmux session itself is left running for reattach.
func (om *OutputManager) Cleanup() {
	if om.tmux != nil {
		if w, ok := om.writer.(*Writer); ok {
			if err := w.Flush(); err != nil {
				om.flushErr = err
			}
		}
		om.tmux.Cleanup()
	}
}

// AnnounceSession clears the pane and writes s's Banner plus the tail of
// recent command history, so a reattaching operator has context without
// scrolling back. It is a no-op in stdout mode, where the banner would
// just scroll past like any other prompt output.
func (om *OutputManager) AnnounceSession(s *state.ShellState, historyTail []string) error {
	if om.mode != OutputModeTmux || om.tmux == nil {
		return nil
	}
	if err := om.tmux.ClearPaneWithBanner(s); err != nil {
		return err
	}
	return om.tmux.WriteHistory(historyTail)
}

func (om *OutputManager) ModeString() string {
	switch om.mode {
	case OutputModeTmux:
		return "tmux session: " + om.SessionName()
	case OutputModeStdout:
		return "stdout"
	default:
		return "unknown"
	}
}
