// Package clock re-exports benbjohnson/clock's Clock under a
// package-local alias so internal/state, internal/history, and
// internal/streaming inject one fakeable clock type without each
// importing benbjohnson/clock directly: ShellState.Uptime/RecordCommand,
// MessageHistory.Add's fallback timestamp, and the streaming engine's
// poll/pause waits all take a clock.Clock and default to New() when the
// caller doesn't supply one.
package clock

import "github.com/benbjohnson/clock"

type Clock = clock.Clock
type Mock = clock.Mock

// New returns the real wall clock.
func New() Clock { return clock.New() }

// NewMock returns a controllable clock for deterministic tests of
// time-driven behavior (session durations, ring timestamps, streaming
// timeouts).
func NewMock() *Mock { return clock.NewMock() }
