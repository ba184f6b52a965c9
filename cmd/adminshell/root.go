package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/opsnest/adminshell/internal/config"
	"github.com/opsnest/adminshell/internal/output"
	"github.com/opsnest/adminshell/internal/shellio"
	"github.com/opsnest/adminshell/internal/telemetry"
	"github.com/opsnest/adminshell/internal/transport"
)

// CLI is the root command structure for adminshell.
type CLI struct {
	Format  string `short:"f" default:"${config_format}" enum:",table,json,csv,vertical" help:"Output format for non-interactive results"`
	Socket  string `short:"s" default:"${config_socket}" help:"Unix domain socket path"`
	HTTP    string `help:"HTTP endpoint, used instead of the socket when set" default:"${config_http}"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Start the interactive shell (default)"`
	Ping    PingCmd    `cmd:"" help:"Check whether the server is reachable, then exit"`
	Exec    ExecCmd    `cmd:"" help:"Execute a single command non-interactively and exit"`
	Session SessionCmd `cmd:"" help:"Session management (tmux-backed persistence)"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds state shared by every command.
type Globals struct {
	Format  output.Format
	Socket  string
	HTTP    string
	Verbose bool
	Config  *config.Config
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *zap.SugaredLogger
}

// NewGlobals builds Globals from parsed flags layered over config defaults.
func NewGlobals(c *CLI, cfg *config.Config) *Globals {
	format := c.Format
	if format == "" {
		format = cfg.Client.Format
	}
	return &Globals{
		Format:  output.ParseFormat(format),
		Socket:  c.Socket,
		HTTP:    c.HTTP,
		Verbose: c.Verbose,
		Config:  cfg,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  telemetry.NewClientLogger(c.Verbose),
	}
}

// dialTransport builds the configured transport (HTTP takes precedence
// over the socket when both are set) and connects it; a connect failure
// is returned to the caller rather than treated as fatal, since built-ins
// still work offline per spec.md §4.3.
func dialTransport(ctx context.Context, g *Globals) (transport.Transport, error) {
	var t transport.Transport
	if g.HTTP != "" {
		t = transport.NewHTTPTransport(g.HTTP)
	} else if g.Socket != "" {
		t = transport.NewUnixTransport(g.Socket)
	} else {
		return nil, nil
	}
	if err := t.Connect(ctx); err != nil {
		return t, fmt.Errorf("connect: %w", err)
	}
	return t, nil
}

type VersionCmd struct{}

func (v *VersionCmd) Run(g *Globals) error {
	fmt.Fprintln(g.Stdout, "adminshell (development build)")
	return nil
}

// RunCmd drops into the interactive shellio.Shell loop.
type RunCmd struct{}

func (r *RunCmd) Run(g *Globals) error {
	ctx := context.Background()
	t, err := dialTransport(ctx, g)
	if err != nil && g.Verbose {
		fmt.Fprintf(g.Stderr, "warning: %v\n", err)
	}

	sh := shellio.New(shellio.Config{
		Transport:   t,
		Aliases:     g.Config.Client.Aliases,
		HistoryFile: g.Config.Client.HistoryFile,
		SessionFile: g.Config.Client.SessionFile,
		HistorySize: g.Config.Client.HistorySize,
		Format:      g.Format,
		In:          os.Stdin,
		Out:         g.Stdout,
		Logger:      g.Logger,
	})
	return sh.Run(ctx)
}

// ExecCmd runs a single command non-interactively, per SPEC_FULL.md's
// scripting supplement to spec.md's interactive-only scope.
type ExecCmd struct {
	Command string `arg:"" help:"Command line to execute"`
}

func (e *ExecCmd) Run(g *Globals) error {
	ctx := context.Background()
	t, err := dialTransport(ctx, g)
	if err != nil {
		return err
	}

	sh := shellio.New(shellio.Config{
		Transport: t,
		Aliases:   g.Config.Client.Aliases,
		Format:    g.Format,
		In:        os.Stdin,
		Out:       g.Stdout,
	})
	result, vertical := sh.Dispatch(e.Command)
	format := g.Format
	if vertical {
		format = output.FormatVertical
	}
	if err := output.Write(g.Stdout, result, format); err != nil {
		return err
	}
	if !result.Success {
		os.Exit(result.ExitCode())
	}
	return nil
}

// PingCmd checks server reachability and exits, without entering the loop.
type PingCmd struct{}

func (p *PingCmd) Run(g *Globals) error {
	ctx := context.Background()
	t, err := dialTransport(ctx, g)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("no transport configured: pass --socket or --http")
	}
	if !t.Ping(ctx) {
		fmt.Fprintln(g.Stderr, "unreachable")
		os.Exit(1)
	}
	fmt.Fprintln(g.Stdout, "reachable")
	return nil
}
