package server

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/registry"
	"github.com/opsnest/adminshell/internal/wire"
)

// Pusher is the capability a handler fetches out of its Context to push an
// asynchronous Message frame to its own session between results, per
// spec.md §4.8's streaming mode ("the server may additionally push Message
// frames between results").
type Pusher interface {
	Push(model.Message) error
}

// ContainerKey is the ServiceLocator key under which the current session's
// Pusher is registered for the lifetime of a Handle call.
const ContainerKey = "server.session"

// session is one accepted connection: spec.md §4.8 mandates one scheduling
// unit per session sharing nothing but the read-only registry, so session
// carries no state another session ever touches.
type session struct {
	id       string
	conn     net.Conn
	registry *registry.CommandRegistry
	locator  model.ServiceLocator
	config   map[string]any
	logger   *zap.SugaredLogger

	writeMu sync.Mutex
}

func newSession(conn net.Conn, reg *registry.CommandRegistry, locator model.ServiceLocator, cfg map[string]any, logger *zap.SugaredLogger) *session {
	return &session{
		id:       uuid.NewString(),
		conn:     conn,
		registry: reg,
		locator:  locator,
		config:   cfg,
		logger:   logger,
	}
}

// close unblocks a session's blocking frame read so its run loop returns,
// per spec.md §4.8's Stop contract ("actively close all session endpoints
// so their read loops wake and return").
func (s *session) close() {
	s.conn.Close()
}

// Push writes a Message frame out-of-band from request/result processing.
// Writes are serialized against result-frame writes with writeMu so a
// pushed Message can never interleave with a half-written result frame on
// the wire.
func (s *session) Push(msg model.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wire.WriteFrame(s.conn, msg.ToMap())
}

// sessionLocator wraps the server's root ServiceLocator, shadowing it with
// this session's Pusher under ContainerKey so a handler can resolve
// ctx.Container().Get(server.ContainerKey) to push streaming events without
// the registry or any other handler ever seeing another session's Pusher.
type sessionLocator struct {
	root    model.ServiceLocator
	session *session
}

func (l sessionLocator) Get(name string) (any, bool) {
	if name == ContainerKey {
		return l.session, true
	}
	if l.root == nil {
		return nil, false
	}
	return l.root.Get(name)
}

// run performs the per-session protocol from spec.md §4.8: emit a welcome
// frame, then loop reading request frames, dispatching each through the
// registry, and writing back a result frame — in receive order, per
// session, with no ordering guarantee between sessions.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()

	welcome := wire.NewWelcomeFrame("adminshell session " + s.id)
	if err := wire.WriteFrame(s.conn, welcome); err != nil {
		s.logger.Debugw("session: welcome frame failed", "session", s.id, "error", err)
		return
	}

	sessionCtx := model.NewContext(sessionLocator{root: s.locator, session: s}, s.config)

	for {
		req, err := wire.ReadFrame(s.conn)
		if err != nil {
			// Normal on a closed/reset connection (client disconnect, or
			// Server.Stop closing us to unblock this read); nothing to log
			// as an error.
			return
		}

		cmd := parsedCommandFromFrame(req)

		result := s.dispatch(cmd, sessionCtx)

		s.writeMu.Lock()
		writeErr := wire.WriteFrame(s.conn, result.ToMap())
		s.writeMu.Unlock()
		if writeErr != nil {
			s.logger.Debugw("session: result write failed", "session", s.id, "error", writeErr)
			return
		}
	}
}

// dispatch recovers a panicking handler into a failure result tagged with
// metadata.exception, per spec.md §7's HandlerException contract ("any
// exception inside a handler is captured by the server and encoded as a
// failure result... The session stays open").
func (s *session) dispatch(cmd model.ParsedCommand, ctx model.Context) (result model.CommandResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warnw("session: handler panic", "session", s.id, "command", cmd.Command, "panic", r)
			result = model.Failure("internal handler error", nil, map[string]any{
				"exception": r,
				"exit_code": 2,
			})
		}
	}()
	return s.registry.Execute(cmd, ctx)
}

func parsedCommandFromFrame(req map[string]any) model.ParsedCommand {
	cmd := model.ParsedCommand{}
	if v, ok := req["command"].(string); ok {
		cmd.Command = v
	}
	if v, ok := req["raw"].(string); ok {
		cmd.Raw = v
	}
	if v, ok := req["vertical"].(bool); ok {
		cmd.Vertical = v
	}
	if rawArgs, ok := req["args"].([]any); ok {
		args := make([]string, 0, len(rawArgs))
		for _, a := range rawArgs {
			if s, ok := a.(string); ok {
				args = append(args, s)
			}
		}
		cmd.Args = args
	}
	if opts, ok := req["options"].(map[string]any); ok {
		cmd.Options = opts
	}
	return cmd
}
