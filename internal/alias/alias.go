// Package alias implements the shell's alias table: non-recursive,
// first-token-only expansion that can never shadow a built-in command.
package alias

import (
	"fmt"
	"strings"
)

// Reserved lists built-in command names that may never be shadowed by an
// alias, per spec.md §3/§4.2.
var Reserved = map[string]bool{
	"help":    true,
	"exit":    true,
	"quit":    true,
	"status":  true,
	"clear":   true,
	"connect": true,
}

// Manager owns the alias table and a snapshot of the defaults it was
// constructed with, so Reset can restore them.
type Manager struct {
	aliases  map[string]string
	defaults map[string]string
}

// New builds a Manager seeded with defaults. The defaults are validated
// the same way SetAlias validates a runtime call; a default that collides
// with a reserved name is skipped rather than causing New to fail, since
// defaults are typically compiled in rather than operator-supplied.
func New(defaults map[string]string) *Manager {
	m := &Manager{
		aliases:  map[string]string{},
		defaults: map[string]string{},
	}
	for name, expansion := range defaults {
		name = strings.TrimSpace(name)
		expansion = strings.TrimSpace(expansion)
		if name == "" || expansion == "" || Reserved[name] {
			continue
		}
		m.defaults[name] = expansion
		m.aliases[name] = expansion
	}
	return m
}

// SetAlias registers or overwrites an alias. Both name and expansion are
// trimmed; an empty name/expansion or a reserved name fails.
func (m *Manager) SetAlias(name, expansion string) error {
	name = strings.TrimSpace(name)
	expansion = strings.TrimSpace(expansion)
	if name == "" {
		return fmt.Errorf("invalid argument: alias name must not be empty")
	}
	if expansion == "" {
		return fmt.Errorf("invalid argument: alias expansion must not be empty")
	}
	if Reserved[name] {
		return fmt.Errorf("invalid argument: %q is a built-in command and cannot be aliased", name)
	}
	m.aliases[name] = expansion
	return nil
}

// RemoveAlias deletes an alias by name and reports whether it existed.
func (m *Manager) RemoveAlias(name string) bool {
	name = strings.TrimSpace(name)
	if _, ok := m.aliases[name]; !ok {
		return false
	}
	delete(m.aliases, name)
	return true
}

// Get returns an alias's expansion and whether it exists.
func (m *Manager) Get(name string) (string, bool) {
	v, ok := m.aliases[name]
	return v, ok
}

// All returns a copy of the current alias table.
func (m *Manager) All() map[string]string {
	out := make(map[string]string, len(m.aliases))
	for k, v := range m.aliases {
		out[k] = v
	}
	return out
}

// Reset restores the alias table to the defaults captured at construction
// time (empty if the Manager was built with none).
func (m *Manager) Reset() {
	m.aliases = map[string]string{}
	for k, v := range m.defaults {
		m.aliases[k] = v
	}
}

// Expand performs non-recursive, first-token-only alias expansion: if the
// first whitespace-delimited word of input matches an alias, it is
// substituted and the remainder is reattached with a single separating
// space. Expansion never recurses into the substituted head, so `f -> g`
// followed by input "f x" yields "g x" even if "g" is itself an alias.
func (m *Manager) Expand(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return input
	}

	head, rest, hasRest := trimmed, "", false
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		head, rest, hasRest = trimmed[:i], trimmed[i+1:], true
	}
	expansion, ok := m.aliases[head]
	if !ok {
		return input
	}
	if !hasRest || strings.TrimSpace(rest) == "" {
		return expansion
	}
	return expansion + " " + strings.TrimLeft(rest, " \t")
}
