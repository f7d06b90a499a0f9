package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullDefinition(t *testing.T) {
	path := writeConfig(t, `
version: 0
backend: secret-service
serialize: true
cache:
  enabled: true
  ttl: 30s
metrics:
  textfile: /var/lib/node_exporter/keyring.prom
keyutils:
  scope: session
  keyring: work
secret_service:
  collection: login
wincred:
  persist: enterprise
`)

	cfg := &Config{Path: path}
	require.NoError(t, cfg.Load())
	def := cfg.Definition

	assert.Equal(t, "secret-service", def.Backend)
	assert.True(t, def.Serialize)
	assert.True(t, def.Cache.Enabled)
	assert.Equal(t, "/var/lib/node_exporter/keyring.prom", def.Metrics.Textfile)

	ttl, err := def.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)

	opts := def.NativeOptions()
	assert.Equal(t, "session", opts.KeyutilsScope)
	assert.Equal(t, "work", opts.KeyutilsKeyring)
	assert.Equal(t, "login", opts.SecretServiceCollection)
	assert.Equal(t, "enterprise", opts.WincredPersist)
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Run("default path missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())

		var buf bytes.Buffer
		cfg := &Config{Logger: logging.NewWithWriter(&buf, true, true)}
		require.NoError(t, cfg.Load())
		require.NotNil(t, cfg.Definition)
		assert.Empty(t, cfg.Definition.Backend)
		assert.Contains(t, buf.String(), "using defaults")
	})

	t.Run("explicit path missing", func(t *testing.T) {
		cfg := &Config{Path: filepath.Join(t.TempDir(), "absent.yaml")}
		err := cfg.Load()
		require.Error(t, err)

		var ce kerrors.ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "path", ce.Field)
		assert.Nil(t, cfg.Definition)
	})
}

func TestLoad_DefaultPathUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path := DefaultPath()
	require.NotEmpty(t, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("backend: mock\n"), 0o600))

	cfg := &Config{}
	require.NoError(t, cfg.Load())
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "mock", cfg.Definition.Backend)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unsupported version", "version: 1\n", "version"},
		{"unknown key", "backnd: mock\n", ""},
		{"bad scope", "keyutils:\n  scope: global\n", ""},
		{"bad persistence", "wincred:\n  persist: forever\n", ""},
		{"serialize not bool", "serialize: sometimes\n", "serialize"},
		{"bad ttl syntax", "cache:\n  ttl: soon\n", ""},
		{"zero ttl", "cache:\n  ttl: 0s\n", "cache.ttl"},
		{"malformed yaml", "backend: [mock\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)

			var ce kerrors.ConfigError
			require.ErrorAs(t, err, &ce)
			if tt.field != "" {
				assert.Equal(t, tt.field, ce.Field)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	def, err := Parse([]byte("# nothing configured\n"))
	require.NoError(t, err)

	ttl, err := def.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheTTL, ttl)
	assert.Equal(t, "", def.NativeOptions().KeyutilsScope)
}
