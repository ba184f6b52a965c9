package tmuxsession

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opsnest/adminshell/internal/state"
)

// ClearPane resets the pane's scrollback and screen, used when a
// reconnecting client asks for a clean slate on the shared session.
func (m *Manager) ClearPane() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pane == nil {
		return ErrNoPaneAvailable
	}

	paneTarget := fmt.Sprintf("%s:0.0", m.config.SessionName)

	if _, err := m.tmux.Command("send-keys", "-t", paneTarget, "-R"); err != nil {
		return fmt.Errorf("reset terminal: %w", err)
	}
	if _, err := m.tmux.Command("clear-history", "-t", paneTarget); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if _, err := m.tmux.Command("send-keys", "-t", paneTarget, "clear", "Enter"); err != nil {
		return fmt.Errorf("clear screen: %w", err)
	}
	return nil
}

// Banner renders a reattach marker summarizing s, the shell session this
// pane belongs to: endpoint, uptime, and how many commands have run
// survive a detach/reattach within one process, even though ShellState
// itself starts fresh on every new `session tmux` invocation (spec.md's
// Lifecycle section covers only save/restore across separate runs, not a
// shared live pane).
func Banner(s *state.ShellState, sessionName string) string {
	return fmt.Sprintf(
		"═══════════════════════════════════════════════════════════\n"+
			"  adminshell session: %s\n"+
			"  endpoint: %s | uptime: %s | commands: %d | messages: %d\n"+
			"═══════════════════════════════════════════════════════════",
		sessionName, s.Endpoint, s.Uptime().Round(time.Second), s.CommandsRun, s.MessagesCount,
	)
}

// ClearPaneWithBanner clears the pane and writes s's Banner, so a
// reattaching client sees the session's identity and metrics instead of a
// blank prompt.
func (m *Manager) ClearPaneWithBanner(s *state.ShellState) error {
	if err := m.ClearPane(); err != nil {
		return err
	}
	return m.WriteLines(strings.Split(Banner(s, m.config.SessionName), "\n"))
}

// WriteHistory echoes the tail of the shell's line-editor history into the
// pane, so a reconnecting operator sees recent commands without scrolling
// back through tmux's own scrollback buffer.
func (m *Manager) WriteHistory(entries []string) error {
	if len(entries) == 0 {
		return nil
	}
	if err := m.WriteLine("  recent commands:"); err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.WriteLine("    " + e); err != nil {
			return err
		}
	}
	return nil
}

// WriteLine echoes a single line into the tmux pane.
func (m *Manager) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pane == nil {
		return ErrNoPaneAvailable
	}

	escaped := escapeTmuxString(line)
	paneTarget := fmt.Sprintf("%s:0.0", m.config.SessionName)
	_, err := m.tmux.Command("send-keys", "-t", paneTarget, fmt.Sprintf("echo '%s'", escaped), "Enter")
	return err
}

func (m *Manager) WriteLines(lines []string) error {
	for _, line := range lines {
		if err := m.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func escapeTmuxString(s string) string {
	s = strings.ReplaceAll(s, "'", "'\"'\"'")
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return s
}

// Writer adapts a Manager to io.Writer, line-buffering so the shell's
// formatted output (table rows, streamed messages) lands in the tmux
// pane a line at a time instead of mid-write.
type Writer struct {
	manager *Manager
	buffer  strings.Builder
}

func NewWriter(manager *Manager) *Writer {
	return &Writer{manager: manager}
}

func (w *Writer) Write(p []byte) (n int, err error) {
	w.buffer.Write(p)

	content := w.buffer.String()
	lines := strings.Split(content, "\n")

	if !strings.HasSuffix(content, "\n") && len(lines) > 0 {
		w.buffer.Reset()
		w.buffer.WriteString(lines[len(lines)-1])
		lines = lines[:len(lines)-1]
	} else {
		w.buffer.Reset()
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		if err := w.manager.WriteLine(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *Writer) Flush() error {
	if w.buffer.Len() > 0 {
		err := w.manager.WriteLine(w.buffer.String())
		w.buffer.Reset()
		return err
	}
	return nil
}

var _ io.Writer = (*Writer)(nil)
