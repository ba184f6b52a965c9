package main

import (
	"context"
	"fmt"
	"os"

	"github.com/opsnest/adminshell/internal/shellio"
	"github.com/opsnest/adminshell/internal/tmuxsession"
)

// SessionCmd groups session-management subcommands.
type SessionCmd struct {
	Tmux SessionTmuxCmd `cmd:"" help:"Route the shell's output into a managed tmux session"`
}

// SessionTmuxCmd implements SPEC_FULL.md §4.1: start or attach a tmux
// session named adminshell-<label> and run the shell's output through it,
// falling back to a plain foreground shell when tmux isn't installed.
type SessionTmuxCmd struct {
	Label string `arg:"" optional:"" default:"default" help:"Session label; the tmux session is named adminshell-<label>"`
	Kill  bool   `help:"Kill the named session instead of attaching to it"`
}

func (s *SessionTmuxCmd) Run(g *Globals) error {
	cfg := &tmuxsession.Config{
		SessionName: tmuxsession.GenerateSessionName(s.Label),
		Label:       s.Label,
	}

	if s.Kill {
		mgr, err := tmuxsession.NewManager(cfg)
		if err != nil {
			return err
		}
		if !mgr.Exists() {
			return fmt.Errorf("no such tmux session: %s", cfg.SessionName)
		}
		return mgr.KillSession()
	}

	om, err := tmuxsession.NewOutputManager(true, cfg)
	if err != nil {
		return err
	}
	defer om.Cleanup()

	if om.IsTmuxMode() {
		fmt.Fprintf(g.Stdout, "tmux session %s ready; attach from another terminal with: %s\n", om.SessionName(), om.AttachCommand())
	} else {
		fmt.Fprintln(g.Stderr, "tmux not available; running in the foreground instead")
	}

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
		Out:         om.Writer(),
		Logger:      g.Logger,
	})

	if err := om.AnnounceSession(sh.State(), sh.RecentHistory(5)); err != nil && g.Verbose {
		fmt.Fprintf(g.Stderr, "warning: announce session: %v\n", err)
	}

	return sh.Run(ctx)
}
