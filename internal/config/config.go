// Package config loads configuration for both halves of adminshell, the
// same viper-backed way the teacher loads its own CLI defaults: a
// Default(), a Load() that layers a discovered file over those defaults
// with environment overrides, and a Validate() that rejects malformed
// values before the caller ever constructs a component from them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ClientConfig holds the interactive shell client's defaults, per
// spec.md §4.2/§4.9/§4.11 (aliases, transport endpoint, history/session
// file locations).
type ClientConfig struct {
	Format       string            `mapstructure:"format"`
	SocketPath   string            `mapstructure:"socket_path"`
	HTTPEndpoint string            `mapstructure:"http_endpoint"`
	Verbose      bool              `mapstructure:"verbose"`
	HistoryFile  string            `mapstructure:"history_file"`
	SessionFile  string            `mapstructure:"session_file"`
	HistorySize  int               `mapstructure:"history_size"`
	Aliases      map[string]string `mapstructure:"aliases"`
}

// ServerConfig is spec.md §6's bootstrap configuration, consumed by
// cmd/adminshelld to build a registry.BootstrapConfig and a
// server.Config.
type ServerConfig struct {
	Enabled           bool                   `mapstructure:"enabled"`
	SocketPath        string                 `mapstructure:"socket_path"`
	SocketPermissions int                    `mapstructure:"socket_permissions"`
	Providers         []string               `mapstructure:"providers"`
	Handlers          []string               `mapstructure:"handlers"`
	HandlerDiscovery  HandlerDiscoveryConfig `mapstructure:"handler_discovery"`
	Verbose           bool                   `mapstructure:"verbose"`
}

// HandlerDiscoveryConfig is spec.md §6's handler_discovery.* sub-tree.
type HandlerDiscoveryConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Namespaces []string `mapstructure:"namespaces"`
}

// Config is the top-level document; a single config file may carry both
// a `client:` and a `server:` section, matching how the teacher's single
// file doubles for every subcommand's defaults.
type Config struct {
	Client ClientConfig `mapstructure:"client"`
	Server ServerConfig `mapstructure:"server"`
}

// DefaultClient returns spec.md's client defaults: the socket transport,
// the HOME-or-/tmp history/session paths spec.md §6 names.
func DefaultClient() ClientConfig {
	return ClientConfig{
		Format:      "table",
		SocketPath:  defaultSocketPath(),
		HistoryFile: defaultPath(".interactive_shell_history"),
		SessionFile: defaultPath(".interactive_shell_session"),
		HistorySize: 1000,
		Aliases:     map[string]string{},
	}
}

// DefaultServer returns spec.md §6's server defaults: disabled until a
// bootstrap explicitly enables it, socket permissions 0660, discovery off.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Enabled:           false,
		SocketPath:        defaultSocketPath(),
		SocketPermissions: 0660,
	}
}

// Default returns a Config with both halves at their defaults.
func Default() *Config {
	return &Config{Client: DefaultClient(), Server: DefaultServer()}
}

func defaultSocketPath() string {
	return defaultPath(".adminshell.sock")
}

// defaultPath joins name under HOME, falling back to /tmp, mirroring
// spec.md §6's "Default creation uses HOME env var or /tmp".
func defaultPath(name string) string {
	home := os.Getenv("HOME")
	if home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, name)
}

// Load loads configuration from files and environment, in the teacher's
// precedence order (highest first):
//  1. ./.adminshell.yaml or ./.adminshell.yml
//  2. ~/.adminshell.yaml or ~/.adminshell.yml
//  3. $XDG_CONFIG_HOME/adminshell/config.yaml (or ~/.config/adminshell/config.yaml)
//  4. /etc/adminshell/config.yaml
func Load() (*Config, error) {
	cfg := Default()
	v := viper.New()

	setDefaults(v, cfg)

	v.SetEnvPrefix("ADMINSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := findConfigFile(); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from one explicit file, for
// `adminshelld --config <path>`.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("client.format", cfg.Client.Format)
	v.SetDefault("client.socket_path", cfg.Client.SocketPath)
	v.SetDefault("client.http_endpoint", cfg.Client.HTTPEndpoint)
	v.SetDefault("client.verbose", cfg.Client.Verbose)
	v.SetDefault("client.history_file", cfg.Client.HistoryFile)
	v.SetDefault("client.session_file", cfg.Client.SessionFile)
	v.SetDefault("client.history_size", cfg.Client.HistorySize)

	v.SetDefault("server.enabled", cfg.Server.Enabled)
	v.SetDefault("server.socket_path", cfg.Server.SocketPath)
	v.SetDefault("server.socket_permissions", cfg.Server.SocketPermissions)
	v.SetDefault("server.handler_discovery.enabled", cfg.Server.HandlerDiscovery.Enabled)
}

// findConfigFile searches standard locations in precedence order.
func findConfigFile() string {
	names := []string{".adminshell.yaml", ".adminshell.yml", "adminshell.yaml", "adminshell.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "adminshell"))
	}
	searchPaths = append(searchPaths, "/etc/adminshell")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigFile returns the path to the config file Load would read, or ""
// if none is found.
func ConfigFile() string {
	return findConfigFile()
}

// Validate checks config values for basic correctness. spec.md §6 names
// socket_permissions as an octal file mode; anything outside the 0000-0777
// range cannot be a valid Unix permission bitmask.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Client.Format) {
	case "", "table", "json", "csv", "vertical":
	default:
		return fmt.Errorf("invalid client.format: %q (expected table, json, csv, or vertical)", c.Client.Format)
	}
	if c.Client.HistorySize < 0 {
		return fmt.Errorf("client.history_size must be >= 0")
	}
	if c.Server.SocketPermissions < 0 || c.Server.SocketPermissions > 0o777 {
		return fmt.Errorf("server.socket_permissions must be a valid octal file mode (0-0777), got %#o", c.Server.SocketPermissions)
	}
	return nil
}
