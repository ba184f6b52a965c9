// Package streaming implements the client-side streaming engine from
// spec.md §4.10: three cooperative tasks (receiver, dispatcher, input)
// coordinated through atomic flags and a bounded channel, so pause gates
// display without ever dropping an incoming message.
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opsnest/adminshell/internal/clock"
	"github.com/opsnest/adminshell/internal/filter"
	"github.com/opsnest/adminshell/internal/history"
	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/parser"
	"github.com/opsnest/adminshell/internal/transport"
)

const (
	// DefaultChannelBufferSize is spec.md §4.10's channelBufferSize default.
	DefaultChannelBufferSize = 100
	shortPollInterval        = 50 * time.Millisecond
)

// MessageWriter renders one pushed Message to the shell's output. Supplied
// by the caller (internal/shellio, backed by internal/output) so the
// engine stays agnostic of table/json/csv/vertical formatting.
type MessageWriter func(model.Message) error

// LineHandler processes one line of input that isn't a streaming-mode
// verb the Engine owns itself (filter/pause/resume/stats): built-ins,
// aliases, or commands sent on to the server via SendAsync. It reports
// whether the shell should exit.
type LineHandler func(line string) (exit bool)

// Stats is the snapshot stats returns.
type Stats struct {
	Received   int64
	Dispatched int64
	Filtered   int64
	Paused     bool
	QueueLen   int
	QueueCap   int
	Filter     string
}

// Engine runs the three tasks over one Streaming transport. Zero value is
// not usable; construct with New.
type Engine struct {
	transport transport.Streaming
	history   *history.MessageHistory
	write     MessageWriter
	onLine    LineHandler
	stdin     io.Reader

	channel chan model.Message

	running atomic.Bool
	paused  atomic.Bool

	filterMu sync.RWMutex
	current  *filter.Expression

	received    atomic.Int64
	dispatched  atomic.Int64
	filteredOut atomic.Int64

	lines chan string
	clk   clock.Clock
}

// Config carries Engine's wiring. ChannelBufferSize defaults to
// DefaultChannelBufferSize when <= 0. Clock defaults to the real wall
// clock; tests inject a clock.Mock to advance the dispatcher's poll/pause
// waits deterministically instead of sleeping shortPollInterval for real.
type Config struct {
	Transport         transport.Streaming
	History           *history.MessageHistory
	Write             MessageWriter
	OnLine            LineHandler
	Stdin             io.Reader
	ChannelBufferSize int
	Clock             clock.Clock
}

// New builds an Engine. It does not start any task; call Run.
func New(cfg Config) *Engine {
	size := cfg.ChannelBufferSize
	if size <= 0 {
		size = DefaultChannelBufferSize
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		transport: cfg.Transport,
		history:   cfg.History,
		write:     cfg.Write,
		onLine:    cfg.OnLine,
		stdin:     cfg.Stdin,
		channel:   make(chan model.Message, size),
		lines:     make(chan string, 1),
		clk:       clk,
	}
}

// Run starts the receiver, dispatcher, and input tasks and blocks until
// either ctx is cancelled, Stop is called, or one task returns a non-nil
// error (e.g. the input reader hitting EOF cleanly returns nil, a
// transport send error propagates). It always stops the other two tasks
// before returning, per spec.md §4.10's cancellation contract.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, gctx := errgroup.WithContext(runCtx)
	group.Go(func() error { return e.receiveTask(gctx) })
	group.Go(func() error { return e.dispatchTask(gctx) })
	if e.stdin != nil && e.onLine != nil {
		// The reader can block in Scan indefinitely, so it runs outside
		// the group and Run does not wait for it.
		go func() { _ = e.readStdinTask(gctx) }()
		group.Go(func() error { return e.inputTask(gctx) })
	}

	err := group.Wait()
	e.running.Store(false)
	return err
}

// Stop flips the running flag; every task observes it on its next loop
// iteration and returns. It does not itself close the transport — the
// caller performs the clean-shutdown sequence spec.md §4.10 describes
// (stop streaming, disconnect, save history and session).
func (e *Engine) Stop() {
	e.running.Store(false)
}

func (e *Engine) IsRunning() bool { return e.running.Load() }
func (e *Engine) IsPaused() bool  { return e.paused.Load() }

// receiveTask is Task R: it never drops a message on pause — pause gates
// display (the dispatcher), not ingestion. A full channel blocks this
// task, which is the intended backpressure onto the transport.
func (e *Engine) receiveTask(ctx context.Context) error {
	for e.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, ok := e.transport.Receive(shortPollInterval)
		if !ok {
			continue
		}
		e.received.Add(1)
		if e.history != nil {
			e.history.Add(msg)
		}
		select {
		case e.channel <- msg:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// dispatchTask is Task D: while paused it sleeps without popping, so the
// queue accumulates up to its capacity instead of losing messages.
func (e *Engine) dispatchTask(ctx context.Context) error {
	for e.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if e.paused.Load() {
			select {
			case <-e.clk.After(shortPollInterval):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		select {
		case msg := <-e.channel:
			if !e.matches(msg) {
				e.filteredOut.Add(1)
				continue
			}
			e.dispatched.Add(1)
			if e.write != nil {
				if err := e.write(msg); err != nil {
					return fmt.Errorf("streaming: write message: %w", err)
				}
			}
		case <-e.clk.After(shortPollInterval):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// readStdinTask feeds complete lines into e.lines; it is the one
// genuinely blocking call in the engine (bufio.Scanner has no
// context-aware read), so inputTask polls e.lines instead of calling
// Scan directly — that keeps the "non-blocking poll" contract for the
// task that owns pause/resume around each line.
func (e *Engine) readStdinTask(ctx context.Context) error {
	scanner := bufio.NewScanner(e.stdin)
	defer close(e.lines)
	for scanner.Scan() {
		if !e.running.Load() {
			return nil
		}
		select {
		case e.lines <- scanner.Text():
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

// inputTask is Task I: a short poll for a line that's already arrived,
// auto-pausing display for the duration of handling it so messages don't
// scroll past the prompt mid-typing, then auto-resuming.
func (e *Engine) inputTask(ctx context.Context) error {
	for e.running.Load() {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-e.lines:
			if !ok {
				e.Stop()
				return nil
			}
			e.paused.Store(true)
			exit := e.handleLine(line)
			e.paused.Store(false)
			if exit {
				e.Stop()
				return nil
			}
		case <-e.clk.After(shortPollInterval):
		}
	}
	return nil
}

// handleLine intercepts the streaming-mode verbs Engine owns
// (filter/pause/resume/stats) and otherwise delegates to onLine.
func (e *Engine) handleLine(line string) bool {
	cmd := parser.Parse(line)
	if !cmd.Empty() {
		if _, handled := e.HandleStreamingCommand(cmd); handled {
			return false
		}
	}
	if e.onLine == nil {
		return false
	}
	return e.onLine(line)
}

func (e *Engine) matches(msg model.Message) bool {
	e.filterMu.RLock()
	current := e.current
	e.filterMu.RUnlock()
	if current == nil {
		return true
	}
	return current.Matches(msg)
}

// Stats reports a point-in-time snapshot for the `stats` streaming
// command.
func (e *Engine) Stats() Stats {
	e.filterMu.RLock()
	var filterStr string
	if e.current != nil {
		filterStr = e.current.String()
	}
	e.filterMu.RUnlock()

	return Stats{
		Received:   e.received.Load(),
		Dispatched: e.dispatched.Load(),
		Filtered:   e.filteredOut.Load(),
		Paused:     e.paused.Load(),
		QueueLen:   len(e.channel),
		QueueCap:   cap(e.channel),
		Filter:     filterStr,
	}
}
