// Package tmuxsession wraps a shell session in a tmux pane so a client
// connected over SSH can detach and reattach without losing its
// streaming output, per SPEC_FULL.md §4.1.
package tmuxsession

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Config configures a tmux-backed shell session.
type Config struct {
	SessionName    string // e.g., "adminshell-prod-1"
	Label          string // human label shown in the banner
	StartDirectory string
	Detached       bool
}

// Manager owns the tmux session and pane backing a shell connection.
type Manager struct {
	tmux    *gotmux.Tmux
	session *gotmux.Session
	pane    *gotmux.Pane
	config  *Config
	mu      sync.Mutex
}

var (
	ErrTmuxNotInstalled   = fmt.Errorf("tmux is not installed")
	ErrNoSessionAvailable = fmt.Errorf("no tmux session available")
	ErrNoPaneAvailable    = fmt.Errorf("no tmux pane available")
)

// IsTmuxAvailable reports whether the tmux binary is on PATH.
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// NewManager builds a Manager, failing fast if tmux isn't installed.
func NewManager(cfg *Config) (*Manager, error) {
	if !IsTmuxAvailable() {
		return nil, ErrTmuxNotInstalled
	}

	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("initialize tmux: %w", err)
	}

	return &Manager{tmux: tmux, config: cfg}, nil
}

// GetOrCreateSession finds an existing session by name — letting a
// reconnecting client resume the same pane — or creates a fresh one.
func (m *Manager) GetOrCreateSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.tmux.ListSessions()
	if err == nil {
		for _, s := range sessions {
			if s.Name == m.config.SessionName {
				m.session = s
				return m.attachToExistingPane()
			}
		}
	}

	return m.createNewSession()
}

func (m *Manager) createNewSession() error {
	session, err := m.tmux.NewSession(&gotmux.SessionOptions{
		Name:           m.config.SessionName,
		StartDirectory: m.config.StartDirectory,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	m.session = session

	windows, err := session.ListWindows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	if len(windows) > 0 {
		panes, err := windows[0].ListPanes()
		if err != nil {
			return fmt.Errorf("list panes: %w", err)
		}
		if len(panes) > 0 {
			m.pane = panes[0]
		}
	}
	return nil
}

func (m *Manager) attachToExistingPane() error {
	windows, err := m.session.ListWindows()
	if err != nil {
		return err
	}
	if len(windows) > 0 {
		panes, err := windows[0].ListPanes()
		if err != nil {
			return err
		}
		if len(panes) > 0 {
			m.pane = panes[0]
		}
	}
	return nil
}

func (m *Manager) SessionName() string { return m.config.SessionName }

func (m *Manager) AttachCommand() string {
	return fmt.Sprintf("tmux attach -t %s", m.config.SessionName)
}

// IsAttachable reports whether the session is still alive server-side,
// i.e. this Manager has already attached to it and it hasn't since died.
func (m *Manager) IsAttachable() bool {
	m.mu.Lock()
	attached := m.session != nil
	m.mu.Unlock()
	return attached && m.Exists()
}

// Exists reports whether a tmux session with this name is currently
// running, without creating one — unlike GetOrCreateSession, a miss here
// is not an error, it's the expected answer for a name nothing has
// started yet. `session tmux --kill` uses this so killing such a name
// doesn't spuriously create and then immediately destroy a session.
func (m *Manager) Exists() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, err := m.tmux.ListSessions()
	if err != nil {
		return false
	}
	for _, s := range sessions {
		if s.Name == m.config.SessionName {
			m.session = s
			return true
		}
	}
	return false
}

// Cleanup drops local references; the tmux session itself persists so a
// later reconnect can find it again.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	m.pane = nil
}

// KillSession tears the tmux session down explicitly, used by `session
// tmux --kill`.
func (m *Manager) KillSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return m.session.Kill()
	}
	return nil
}

func (m *Manager) GetPane() *gotmux.Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pane
}

var sessionNameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSessionName derives a tmux-safe session name from a free-form
// label, e.g. a connection target or shell state identifier.
func GenerateSessionName(label string) string {
	name := strings.ToLower(label)
	name = sessionNameSanitizer.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	return fmt.Sprintf("adminshell-%s", name)
}
