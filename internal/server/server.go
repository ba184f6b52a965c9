// Package server implements the Unix domain socket server described in
// spec.md §4.8: a concurrent accept loop, one goroutine per session,
// length-prefixed JSON framing (internal/wire), and cooperative shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/registry"
)

// Config is the subset of spec.md §6's bootstrap configuration the server
// core itself consumes. Provider/handler/discovery fields are consumed
// earlier, by registry.Bootstrap, before a Server is constructed.
type Config struct {
	SocketPath string
	// SocketPermissions is the octal file mode applied to the socket file
	// after it is created; spec.md §6 default is 0660.
	SocketPermissions os.FileMode
}

// Server owns one listening Unix domain socket endpoint from Start until
// Stop, per spec.md §4.8's lifecycle ("SocketServer owns the listening
// endpoint from start until stop").
type Server struct {
	cfg      Config
	registry *registry.CommandRegistry
	locator  model.ServiceLocator
	config   map[string]any
	logger   *zap.SugaredLogger

	mu       sync.Mutex
	ln       net.Listener
	running  bool
	sessions map[*session]struct{}
	wg       sync.WaitGroup
}

// New builds a Server. reg must already be fully populated (registry.Bootstrap
// run to completion) since the registry is read-only for the server's
// entire lifetime per spec.md §5's shared-resource policy.
func New(cfg Config, reg *registry.CommandRegistry, locator model.ServiceLocator, rootConfig map[string]any, logger *zap.SugaredLogger) *Server {
	if cfg.SocketPermissions == 0 {
		cfg.SocketPermissions = 0660
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		cfg:      cfg,
		registry: reg,
		locator:  locator,
		config:   rootConfig,
		logger:   logger,
		sessions: make(map[*session]struct{}),
	}
}

// Start unlinks any stale socket file, binds a new listener, sets its file
// permissions, and begins accepting connections in the background. It
// returns once the listener is live; Accept errors after that point are
// logged, not returned. The first such error ends the accept loop, after
// which no new connections are accepted.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server: already running")
	}

	if err := os.Remove(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		s.mu.Unlock()
		return fmt.Errorf("server: unlink stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("server: listen: %w", err)
	}
	if err := os.Chmod(s.cfg.SocketPath, s.cfg.SocketPermissions); err != nil {
		ln.Close()
		s.mu.Unlock()
		return fmt.Errorf("server: chmod socket: %w", err)
	}

	s.ln = ln
	s.running = true
	s.mu.Unlock()

	s.logger.Infow("server started", "socket", s.cfg.SocketPath, "permissions", s.cfg.SocketPermissions)

	s.wg.Add(1)
	go s.acceptLoop(ctx, ln)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := !s.running
			s.mu.Unlock()
			if stopped {
				return
			}
			s.logger.Warnw("accept error", "error", err)
			return
		}

		sess := newSession(conn, s.registry, s.locator, s.config, s.logger)
		s.mu.Lock()
		s.sessions[sess] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.sessions, sess)
				s.mu.Unlock()
			}()
			sess.run(ctx)
		}()
	}
}

// Stop flips the running flag, closes the listener, actively closes every
// open session endpoint so their read loops observe an error and return,
// then unlinks the socket file. It blocks until every session goroutine
// and the accept loop have exited.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	ln := s.ln
	s.ln = nil
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, sess := range sessions {
		sess.close()
	}

	s.wg.Wait()

	if removeErr := os.Remove(s.cfg.SocketPath); removeErr != nil && !os.IsNotExist(removeErr) {
		if err == nil {
			err = removeErr
		}
	}
	s.logger.Infow("server stopped", "socket", s.cfg.SocketPath)
	return err
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SessionCount returns the number of currently connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
