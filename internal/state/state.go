// Package state implements the shell's per-session state: ShellState
// (session metrics plus a small persisted key/value map) and
// HistoryManager (bounded command-line history persisted atomically to
// disk), per spec.md §4.7/§4.11.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opsnest/adminshell/internal/clock"
)

// ShellState tracks per-session metrics (connection time, command and
// message counters) plus an arbitrary key/value bag that survives a
// save/load round trip through the session file. It is single-owner:
// the shell session that creates it is the only goroutine that touches
// it, per spec.md's shared resource policy.
type ShellState struct {
	ConnectedAt     time.Time      `json:"connected_at"`
	Endpoint        string         `json:"endpoint"`
	CommandsRun     int            `json:"commands_run"`
	MessagesCount   int            `json:"messages_count"`
	LastCommand     string         `json:"last_command,omitempty"`
	LastCommandTime time.Time      `json:"last_command_time,omitzero"`
	TotalCommands   int            `json:"total_commands"` // aggregated across every session that has saved to this file
	TotalSessions   int            `json:"total_sessions"`
	Values          map[string]any `json:"values,omitempty"`

	// multiline input buffer: not persisted, lives only for the duration
	// of a continuation sequence within the current session.
	multilineBuffer []string
	inMultiline     bool

	clk clock.Clock
}

// New returns a fresh ShellState for a session connecting to endpoint,
// timestamped by the real wall clock.
func New(endpoint string) *ShellState {
	return NewWithClock(endpoint, clock.New())
}

// NewWithClock is New with an injectable clock, so ConnectedAt, Uptime,
// and LastCommandTime can be driven by a clock.Mock in tests instead of
// wall-clock time.
func NewWithClock(endpoint string, c clock.Clock) *ShellState {
	return &ShellState{
		ConnectedAt: c.Now(),
		Endpoint:    endpoint,
		Values:      make(map[string]any),
		clk:         c,
	}
}

// RecordCommand updates the command counter and last-command bookkeeping.
func (s *ShellState) RecordCommand(raw string) {
	s.CommandsRun++
	s.LastCommand = raw
	s.LastCommandTime = s.clk.Now()
}

// RecordMessage increments the streaming message counter.
func (s *ShellState) RecordMessage() {
	s.MessagesCount++
}

// BeginMultiline starts (or continues) buffering a multi-line input
// sequence, triggered when a trimmed line ends with a trailing
// backslash per spec.md §6's input conventions.
func (s *ShellState) BeginMultiline(line string) {
	s.inMultiline = true
	s.multilineBuffer = append(s.multilineBuffer, line)
}

// InMultiline reports whether a continuation sequence is in progress.
func (s *ShellState) InMultiline() bool {
	return s.inMultiline
}

// CancelMultiline discards the buffered continuation lines, triggered
// by an empty line while in-multiline.
func (s *ShellState) CancelMultiline() {
	s.inMultiline = false
	s.multilineBuffer = nil
}

// FinishMultiline appends the final (non-continued) line, joins the
// buffered sequence with spaces, clears the buffer, and returns the
// assembled command line.
func (s *ShellState) FinishMultiline(lastLine string) string {
	lines := append(s.multilineBuffer, lastLine)
	s.inMultiline = false
	s.multilineBuffer = nil

	joined := ""
	for i, l := range lines {
		if i > 0 {
			joined += " "
		}
		joined += strings.TrimSuffix(l, "\\")
	}
	return joined
}

// Set stores an arbitrary value under key, for use by handlers that
// want session-scoped state (e.g. a picked default target).
func (s *ShellState) Set(key string, value any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = value
}

// Get retrieves a previously Set value.
func (s *ShellState) Get(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Uptime reports how long the session has been connected.
func (s *ShellState) Uptime() time.Duration {
	return s.clk.Since(s.ConnectedAt)
}

// SessionFile returns the default session file path: $HOME or /tmp,
// matching spec.md §6's "default creation uses HOME env var or /tmp".
func SessionFile() string {
	return defaultPath(".interactive_shell_session")
}

// HistoryFile returns the default history file path.
func HistoryFile() string {
	return defaultPath(".interactive_shell_history")
}

func defaultPath(name string) string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, name)
}

// Save writes s as pretty-printed JSON to path, first folding this
// session's counters into the totals carried over from any existing
// session file so TotalCommands/TotalSessions accumulate across runs.
func (s *ShellState) Save(path string) error {
	if prior, err := Load(path); err == nil {
		s.TotalCommands = prior.TotalCommands
		s.TotalSessions = prior.TotalSessions
	}
	s.TotalCommands += s.CommandsRun
	s.TotalSessions++

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a previously saved ShellState from path.
func Load(path string) (*ShellState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s ShellState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	return &s, nil
}
