package shellio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opsnest/adminshell/internal/model"
	"github.com/opsnest/adminshell/internal/output"
)

// builtinHandler adapts a closure to model.Handler, the same "wrap a func"
// pattern the registry package already uses for ApplyOverride/withOverride.
type builtinHandler struct {
	command     string
	description string
	usage       []string
	fn          func(cmd model.ParsedCommand, ctx model.Context) model.CommandResult
}

func (h builtinHandler) Command() string     { return h.command }
func (h builtinHandler) Description() string { return h.description }
func (h builtinHandler) Usage() []string     { return h.usage }
func (h builtinHandler) Handle(cmd model.ParsedCommand, ctx model.Context) model.CommandResult {
	return h.fn(cmd, ctx)
}

// registerBuiltins installs the nine commands spec.md §4.3 says never
// reach the transport. Help and clear write their output directly and
// mark the result with rawOutputKey so Shell's dispatch loop skips the
// formatter pass for them.
func (sh *Shell) registerBuiltins() {
	sh.builtins.RegisterMany([]model.Handler{
		builtinHandler{
			command:     "help",
			description: "show built-in command documentation",
			usage:       []string{"help [--json]"},
			fn:          sh.builtinHelp,
		},
		builtinHandler{
			command:     "exit",
			description: "save state and leave the shell",
			usage:       []string{"exit"},
			fn:          sh.builtinExit,
		},
		builtinHandler{
			command:     "quit",
			description: "alias for exit",
			usage:       []string{"quit"},
			fn:          sh.builtinExit,
		},
		builtinHandler{
			command:     "status",
			description: "show session metrics and transport state",
			usage:       []string{"status [--format=table|json|csv|vertical]"},
			fn:          sh.builtinStatus,
		},
		builtinHandler{
			command:     "clear",
			description: "clear the terminal screen",
			usage:       []string{"clear"},
			fn:          sh.builtinClear,
		},
		builtinHandler{
			command:     "history",
			description: "list recorded input lines",
			usage:       []string{"history"},
			fn:          sh.builtinHistory,
		},
		builtinHandler{
			command:     "alias",
			description: "list, inspect, or define command aliases",
			usage:       []string{"alias", "alias <name>", "alias <name>=<expansion>"},
			fn:          sh.builtinAlias,
		},
		builtinHandler{
			command:     "unalias",
			description: "remove a previously defined alias",
			usage:       []string{"unalias <name>"},
			fn:          sh.builtinUnalias,
		},
		builtinHandler{
			command:     "reconnect",
			description: "disconnect and reconnect the active transport",
			usage:       []string{"reconnect"},
			fn:          sh.builtinReconnect,
		},
		builtinHandler{
			command:     "ping",
			description: "check whether the transport endpoint is reachable",
			usage:       []string{"ping"},
			fn:          sh.builtinPing,
		},
	})
}

func (sh *Shell) builtinHelp(cmd model.ParsedCommand, _ model.Context) model.CommandResult {
	text, html := renderHelp()
	if cmd.OptBool("json") {
		return model.Success(map[string]any{"html": html}, "", nil)
	}
	fmt.Fprint(sh.out, text)
	return model.Success(nil, "", map[string]any{rawOutputKey: true})
}

func (sh *Shell) builtinExit(_ model.ParsedCommand, _ model.Context) model.CommandResult {
	sh.exit = true
	return model.Success(nil, "goodbye", nil)
}

func (sh *Shell) builtinStatus(cmd model.ParsedCommand, _ model.Context) model.CommandResult {
	data := map[string]any{
		"connected_at":   sh.session.ConnectedAt,
		"endpoint":       sh.session.Endpoint,
		"uptime_seconds": sh.session.Uptime().Seconds(),
		"commands_run":   sh.session.CommandsRun,
		"messages_count": sh.session.MessagesCount,
		"last_command":   sh.session.LastCommand,
		"total_commands": sh.session.TotalCommands,
		"total_sessions": sh.session.TotalSessions,
	}
	if sh.transport != nil {
		data["transport_connected"] = sh.transport.IsConnected()
	} else {
		data["transport_connected"] = false
	}

	if f, ok := cmd.OptString("format"); ok {
		format := output.ParseFormat(f)
		if err := output.Write(sh.out, model.Success(data, "", nil), format); err != nil {
			return model.FromException(err, nil)
		}
		return model.Success(nil, "", map[string]any{rawOutputKey: true})
	}
	return model.Success(data, "", nil)
}

func (sh *Shell) builtinClear(_ model.ParsedCommand, _ model.Context) model.CommandResult {
	fmt.Fprint(sh.out, "\x1b[H\x1b[2J")
	return model.Success(nil, "", map[string]any{rawOutputKey: true})
}

func (sh *Shell) builtinHistory(_ model.ParsedCommand, _ model.Context) model.CommandResult {
	entries := sh.lineHistory.Entries()
	rows := make([]map[string]any, len(entries))
	for i, line := range entries {
		rows[i] = map[string]any{"index": i + 1, "command": line}
	}
	return model.Success(rows, "", nil)
}

func (sh *Shell) builtinAlias(cmd model.ParsedCommand, _ model.Context) model.CommandResult {
	arg := cmd.Arg(0)
	if arg == "" {
		all := sh.aliases.All()
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]map[string]any, len(names))
		for i, name := range names {
			rows[i] = map[string]any{"name": name, "expansion": all[name]}
		}
		return model.Success(rows, "", nil)
	}

	if name, expansion, ok := strings.Cut(arg, "="); ok {
		if err := sh.aliases.SetAlias(name, expansion); err != nil {
			return model.Failure(err.Error(), nil, nil)
		}
		return model.Success(nil, fmt.Sprintf("alias %s=%s", name, expansion), nil)
	}

	expansion, ok := sh.aliases.Get(arg)
	if !ok {
		return model.Failure(fmt.Sprintf("no such alias: %s", arg), nil, nil)
	}
	return model.Success(map[string]any{"name": arg, "expansion": expansion}, "", nil)
}

func (sh *Shell) builtinUnalias(cmd model.ParsedCommand, _ model.Context) model.CommandResult {
	name := cmd.Arg(0)
	if name == "" {
		return model.Failure("invalid argument: usage is unalias <name>", nil, nil)
	}
	if !sh.aliases.RemoveAlias(name) {
		return model.Failure(fmt.Sprintf("no such alias: %s", name), nil, nil)
	}
	return model.Success(nil, fmt.Sprintf("removed alias %s", name), nil)
}

func (sh *Shell) builtinReconnect(_ model.ParsedCommand, _ model.Context) model.CommandResult {
	if sh.transport == nil {
		return model.Failure("not connected: no transport configured", nil, nil)
	}
	_ = sh.transport.Disconnect()
	if err := sh.transport.Connect(sh.runCtx); err != nil {
		return model.FromException(err, map[string]any{"server_url": sh.transport.Endpoint()})
	}
	return model.Success(nil, fmt.Sprintf("reconnected to %s", sh.transport.Endpoint()), nil)
}

func (sh *Shell) builtinPing(_ model.ParsedCommand, _ model.Context) model.CommandResult {
	if sh.transport == nil {
		return model.Failure("not connected: no transport configured", nil, nil)
	}
	ok := sh.transport.Ping(sh.runCtx)
	data := map[string]any{"endpoint": sh.transport.Endpoint(), "reachable": ok}
	if !ok {
		return model.CommandResult{Success: false, Data: data, Error: "ping failed"}
	}
	return model.Success(data, "", nil)
}
