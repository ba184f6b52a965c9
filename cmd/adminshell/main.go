// Command adminshell is the interactive administrative shell client from
// spec.md §1/§4.1: it connects to a running adminshelld over a Unix
// domain socket (or HTTP) and drops into a read-dispatch-format loop.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/opsnest/adminshell/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c CLI
	vars := kong.Vars{
		"config_format":  cfg.Client.Format,
		"config_socket":  cfg.Client.SocketPath,
		"config_http":    cfg.Client.HTTPEndpoint,
		"config_history": cfg.Client.HistoryFile,
		"config_session": cfg.Client.SessionFile,
	}

	kctx := kong.Parse(&c,
		kong.Name("adminshell"),
		kong.Description("adminshell: interactive administrative shell client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
		vars,
	)

	globals := NewGlobals(&c, cfg)
	if err := kctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
