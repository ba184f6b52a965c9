// Package shellio wires the non-streaming run loop spec.md §5 describes
// as "single-threaded": tokenize, alias-expand, parse, dispatch either to
// a built-in or the configured transport, then render through
// internal/output. internal/streaming is the cooperative-multitasking
// sibling of this package, used instead when the transport is streaming
// and the caller wants live pushed messages interleaved with the prompt.
package shellio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/opsnest/adminshell/internal/alias"
	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/output"
	"github.com/opsnest/adminshell/internal/parser"
	"github.com/opsnest/adminshell/internal/registry"
	"github.com/opsnest/adminshell/internal/state"
	"github.com/opsnest/adminshell/internal/transport"
)

// rawOutputKey is the CommandResult.Metadata flag a built-in sets when it
// has already written everything it needs directly to Shell.out (help,
// clear): the run loop skips the normal formatter for that one result so
// a raw escape sequence or pre-rendered text block isn't double-printed.
const rawOutputKey = "shellio.raw_output"

// Config wires one Shell instance.
type Config struct {
	Transport   transport.Transport // nil runs built-ins-only, offline
	Aliases     map[string]string
	HistoryFile string
	SessionFile string
	HistorySize int
	Format      output.Format
	In          io.Reader
	Out         io.Writer
	Logger      *zap.SugaredLogger
	Prompt      string
}

// Shell is the non-streaming interactive session: built-ins never reach
// the transport (spec.md §4.3); anything else is forwarded to it.
type Shell struct {
	transport   transport.Transport
	aliases     *alias.Manager
	builtins    *registry.CommandRegistry
	lineHistory *state.HistoryManager
	session     *state.ShellState
	format      output.Format
	in          *bufio.Scanner
	out         io.Writer
	logger      *zap.SugaredLogger
	prompt      string

	historyFile string
	sessionFile string

	exit   bool
	runCtx context.Context
}

// New builds a Shell and registers its built-in commands.
func New(cfg Config) *Shell {
	if cfg.Out == nil {
		panic("shellio: Config.Out is required")
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "adminshell> "
	}
	format := cfg.Format
	if format == "" {
		format = output.FormatTable
	}

	endpoint := "(offline)"
	if cfg.Transport != nil {
		endpoint = cfg.Transport.Endpoint()
	}

	sh := &Shell{
		transport:   cfg.Transport,
		aliases:     alias.New(cfg.Aliases),
		builtins:    registry.New(),
		lineHistory: state.NewHistoryManager(cfg.HistorySize),
		session:     state.New(endpoint),
		format:      format,
		in:          bufio.NewScanner(cfg.In),
		out:         cfg.Out,
		logger:      cfg.Logger,
		prompt:      prompt,
		historyFile: cfg.HistoryFile,
		sessionFile: cfg.SessionFile,
		runCtx:      context.Background(),
	}
	sh.registerBuiltins()

	if sh.historyFile != "" {
		if err := sh.lineHistory.Load(sh.historyFile); err != nil && sh.logger != nil {
			sh.logger.Warnw("load history file", "path", sh.historyFile, "error", err)
		}
	}
	return sh
}

// Run drives the read-dispatch-format loop until ctx is cancelled, the
// input reader hits EOF, or a built-in sets the exit flag (exit/quit).
// It always persists history and session state before returning, mirroring
// spec.md §4.3's "exit/quit ... persists state and returns 0".
func (sh *Shell) Run(ctx context.Context) error {
	sh.runCtx = ctx
	defer sh.persist()

	for !sh.exit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(sh.out, sh.currentPrompt())
		if !sh.in.Scan() {
			return sh.in.Err()
		}
		sh.handleLine(sh.in.Text())
	}
	return nil
}

func (sh *Shell) currentPrompt() string {
	if sh.session.InMultiline() {
		return "... "
	}
	return sh.prompt
}

// handleLine implements spec.md §6's multi-line continuation convention
// (a trailing backslash buffers; an empty line cancels) before handing a
// complete line to Dispatch.
func (sh *Shell) handleLine(line string) {
	if sh.session.InMultiline() {
		if strings.TrimSpace(line) == "" {
			sh.session.CancelMultiline()
			return
		}
		if strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) {
			sh.session.BeginMultiline(line)
			return
		}
		line = sh.session.FinishMultiline(line)
	} else if strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) {
		sh.session.BeginMultiline(line)
		return
	}

	result, vertical := sh.Dispatch(line)
	if result.Metadata != nil {
		if v, ok := result.Metadata[rawOutputKey]; ok && v == true {
			return
		}
	}

	format := sh.format
	if vertical {
		format = output.FormatVertical
	}
	if err := output.Write(sh.out, result, format); err != nil && sh.logger != nil {
		sh.logger.Warnw("write output", "error", err)
	}
}

// Dispatch expands aliases, parses, and routes one line to a built-in or
// the transport, recording it into history and session metrics exactly
// once regardless of outcome.
func (sh *Shell) Dispatch(line string) (model.CommandResult, bool) {
	expanded := sh.aliases.Expand(line)
	cmd := parser.Parse(expanded)
	if cmd.Empty() {
		return model.CommandResult{}, false
	}

	sh.lineHistory.Add(line)
	sh.session.RecordCommand(line)

	ctx := model.NewContext(model.NewMapServiceLocator(), nil)
	result := sh.builtins.Execute(cmd, ctx)
	if !result.Success && strings.HasPrefix(result.Error, "Unknown command: ") {
		result = sh.sendToTransport(cmd)
	}
	return result, cmd.Vertical
}

func (sh *Shell) sendToTransport(cmd model.ParsedCommand) model.CommandResult {
	if sh.transport == nil {
		return model.Failure("not connected: no transport configured", nil, nil)
	}
	if !sh.transport.IsConnected() {
		return model.Failure("not connected: "+sh.transport.Endpoint(), nil, nil)
	}
	result, err := sh.transport.Send(sh.runCtx, cmd)
	if err != nil {
		return model.FromException(err, map[string]any{"server_url": sh.transport.Endpoint()})
	}
	sh.session.RecordMessage()
	return result
}

// State exposes the session's metrics (endpoint, uptime, command/message
// counters) for a caller that wants to surface them outside the normal
// output path, e.g. a tmux pane banner announcing the session to a
// reattaching operator.
func (sh *Shell) State() *state.ShellState { return sh.session }

// RecentHistory returns up to n of the most recently entered lines,
// oldest first.
func (sh *Shell) RecentHistory(n int) []string {
	entries := sh.lineHistory.Entries()
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}

func (sh *Shell) persist() {
	if sh.historyFile != "" {
		if err := sh.lineHistory.Save(sh.historyFile); err != nil && sh.logger != nil {
			sh.logger.Warnw("save history file", "path", sh.historyFile, "error", err)
		}
	}
	if sh.sessionFile != "" {
		if err := sh.session.Save(sh.sessionFile); err != nil && sh.logger != nil {
			sh.logger.Warnw("save session file", "path", sh.sessionFile, "error", err)
		}
	}
}
