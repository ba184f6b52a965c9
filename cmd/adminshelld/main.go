// Command adminshelld is the server-side bootstrap from spec.md §4.8/§6:
// it reads the server half of the configuration, builds the command
// registry from configured providers/handlers and optional namespace
// discovery (no built-in or fallback handlers are registered), and serves
// it over a Unix domain socket until signaled to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsnest/adminshell/internal/config"
	"github.com/opsnest/adminshell/internal/registry"
	"github.com/opsnest/adminshell/internal/server"
	"github.com/opsnest/adminshell/internal/telemetry"
)

func main() {
	root := &cobra.Command{
		Use:   "adminshelld",
		Short: "adminshelld: administrative shell server",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(discoverDryRunCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file (overrides auto-discovery)")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := loadServerConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Server.Enabled {
		return fmt.Errorf("server.enabled is false in configuration; nothing to do")
	}

	logger := telemetry.NewServerLogger(cfg.Server.Verbose)
	defer logger.Sync() //nolint:errcheck

	reg := registry.New()
	book := registry.NewFactoryBook()
	bootCfg := registry.BootstrapConfig{
		Providers:                  cfg.Server.Providers,
		Handlers:                   cfg.Server.Handlers,
		HandlerDiscoveryEnabled:    cfg.Server.HandlerDiscovery.Enabled,
		HandlerDiscoveryNamespaces: cfg.Server.HandlerDiscovery.Namespaces,
	}
	registry.Bootstrap(reg, book, bootCfg, nil, nil)
	logger.Infow("registry bootstrapped", "commands", reg.Names())

	srv := server.New(server.Config{
		SocketPath:        cfg.Server.SocketPath,
		SocketPermissions: os.FileMode(cfg.Server.SocketPermissions),
	}, reg, nil, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	<-ctx.Done()
	logger.Infow("shutdown signal received")
	return srv.Stop()
}

func discoverDryRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "discover-dry-run",
		Short: "print the handlers that auto-discovery would register, without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig(configPath)
			if err != nil {
				return err
			}
			book := registry.NewFactoryBook()
			if !cfg.Server.HandlerDiscovery.Enabled {
				fmt.Println("handler_discovery.enabled is false; nothing would be auto-discovered")
				return nil
			}
			for _, name := range book.ProviderNames(cfg.Server.HandlerDiscovery.Namespaces) {
				fmt.Println("provider:", name)
			}
			for _, name := range book.HandlerNames(cfg.Server.HandlerDiscovery.Namespaces) {
				fmt.Println("handler:", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file (overrides auto-discovery)")
	return cmd
}

func loadServerConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
