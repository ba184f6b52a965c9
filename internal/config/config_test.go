package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "table", cfg.Client.Format)
	assert.False(t, cfg.Client.Verbose)
	assert.Equal(t, 1000, cfg.Client.HistorySize)
	assert.NotEmpty(t, cfg.Client.HistoryFile)
	assert.NotEmpty(t, cfg.Client.SessionFile)

	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, 0o660, cfg.Server.SocketPermissions)
	assert.False(t, cfg.Server.HandlerDiscovery.Enabled)
}

func TestLoad_ReturnsDefaultsWhenNoConfigFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })
	t.Setenv("HOME", tmpDir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Client.Format)
	assert.False(t, cfg.Server.Enabled)
}

func TestLoad_ReadsConfigFileOverCurrentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })
	t.Setenv("HOME", tmpDir)

	contents := []byte(`
client:
  format: json
  verbose: true
server:
  enabled: true
  socket_path: /tmp/custom.sock
  socket_permissions: 384
  providers:
    - pkg.MetricsProvider
  handler_discovery:
    enabled: true
    namespaces:
      - pkg/handlers
`)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".adminshell.yaml"), contents, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Client.Format)
	assert.True(t, cfg.Client.Verbose)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, "/tmp/custom.sock", cfg.Server.SocketPath)
	assert.Equal(t, 384, cfg.Server.SocketPermissions)
	assert.Equal(t, []string{"pkg.MetricsProvider"}, cfg.Server.Providers)
	assert.True(t, cfg.Server.HandlerDiscovery.Enabled)
	assert.Equal(t, []string{"pkg/handlers"}, cfg.Server.HandlerDiscovery.Namespaces)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0o644))

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("parses server section", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  enabled: true\n"), 0o644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.True(t, cfg.Server.Enabled)
	})
}

func TestValidate_RejectsBadFormat(t *testing.T) {
	cfg := Default()
	cfg.Client.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadSocketPermissions(t *testing.T) {
	cfg := Default()
	cfg.Server.SocketPermissions = 0o1000
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeHistorySize(t *testing.T) {
	cfg := Default()
	cfg.Client.HistorySize = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_NilReceiverIsNoop(t *testing.T) {
	var cfg *Config
	assert.NoError(t, cfg.Validate())
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds .adminshell.yaml in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })

		configPath := filepath.Join(tmpDir, ".adminshell.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("client:\n  format: table\n"), 0o644))

		found := findConfigFile()
		expectedPath, err := filepath.EvalSymlinks(configPath)
		require.NoError(t, err)
		foundPath, err := filepath.EvalSymlinks(found)
		require.NoError(t, err)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("prefers .adminshell.yaml over .adminshell.yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })

		yamlPath := filepath.Join(tmpDir, ".adminshell.yaml")
		ymlPath := filepath.Join(tmpDir, ".adminshell.yml")
		require.NoError(t, os.WriteFile(yamlPath, []byte("client:\n  format: json\n"), 0o644))
		require.NoError(t, os.WriteFile(ymlPath, []byte("client:\n  format: csv\n"), 0o644))

		found := findConfigFile()
		expectedPath, err := filepath.EvalSymlinks(yamlPath)
		require.NoError(t, err)
		foundPath, err := filepath.EvalSymlinks(found)
		require.NoError(t, err)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })
		t.Setenv("HOME", tmpDir)

		assert.Empty(t, findConfigFile())
	})
}

func TestEnvOverridesViaViper(t *testing.T) {
	t.Run("format overrides from env", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })
		t.Setenv("HOME", tmpDir)
		t.Setenv("ADMINSHELL_CLIENT_FORMAT", "json")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.Client.Format)
	})

	t.Run("server enabled overrides from env", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { require.NoError(t, os.Chdir(origDir)) })
		t.Setenv("HOME", tmpDir)
		t.Setenv("ADMINSHELL_SERVER_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Server.Enabled)
	})
}
