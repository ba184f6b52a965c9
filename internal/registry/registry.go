// Package registry implements the command registry and dispatch described
// in spec.md §4.4: an ordered name->handler map plus a single fallback
// slot, populated once at server startup and read concurrently afterward.
package registry

import (
	"fmt"

	"github.com/opsnest/adminshell/internal/model"
)

// CommandRegistry is safe for concurrent reads once Start()-time
// registration has finished; it performs no internal locking because
// spec.md's concurrency model assigns that discipline to the caller
// (writable only at startup, read-only afterward).
type CommandRegistry struct {
	handlers map[string]model.Handler
	order    []string
	fallback model.Handler
}

func New() *CommandRegistry {
	return &CommandRegistry{handlers: map[string]model.Handler{}}
}

// Register inserts handler under handler.Command(). A duplicate name
// overwrites the previous handler but keeps its position in iteration
// order.
func (r *CommandRegistry) Register(h model.Handler) {
	name := h.Command()
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = h
}

// RegisterMany applies Register to each handler in turn.
func (r *CommandRegistry) RegisterMany(handlers []model.Handler) {
	for _, h := range handlers {
		r.Register(h)
	}
}

// SetFallback installs the single fallback handler, invoked only when an
// exact lookup misses.
func (r *CommandRegistry) SetFallback(h model.Handler) { r.fallback = h }

// Has reports whether name is registered.
func (r *CommandRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Get returns the handler registered under name, if any.
func (r *CommandRegistry) Get(name string) (model.Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Remove deletes a handler by name and reports whether it existed.
func (r *CommandRegistry) Remove(name string) bool {
	if _, ok := r.handlers[name]; !ok {
		return false
	}
	delete(r.handlers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every registered handler and the fallback.
func (r *CommandRegistry) Clear() {
	r.handlers = map[string]model.Handler{}
	r.order = nil
	r.fallback = nil
}

// Count returns the number of registered (non-fallback) handlers.
func (r *CommandRegistry) Count() int { return len(r.handlers) }

// Names returns registered command names in registration order.
func (r *CommandRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Execute looks up cmd.Command; on a hit it invokes that handler, on a
// miss it invokes the fallback (if any), and otherwise returns an
// "unknown command" failure.
func (r *CommandRegistry) Execute(cmd model.ParsedCommand, ctx model.Context) model.CommandResult {
	if h, ok := r.handlers[cmd.Command]; ok {
		return h.Handle(cmd, ctx)
	}
	if r.fallback != nil {
		return r.fallback.Handle(cmd, ctx)
	}
	return model.Failure(fmt.Sprintf("Unknown command: %s", cmd.Command), nil, nil)
}
