// Package testutil provides shared helpers for keyring tests: a
// configuration builder and assertions on errors, output and files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/keyring/internal/config"
)

// TestConfigBuilder provides a fluent API for building test configurations.
//
//	def := testutil.NewTestConfig(t).
//	    WithBackend("mock").
//	    WithCache("1m").
//	    Build()
type TestConfigBuilder struct {
	config  *config.Definition
	tempDir string
	t       *testing.T
}

// NewTestConfig starts from an empty version 0 configuration.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{
		config:  &config.Definition{},
		tempDir: t.TempDir(),
		t:       t,
	}
}

// WithBackend selects the credential store by name.
func (b *TestConfigBuilder) WithBackend(name string) *TestConfigBuilder {
	b.config.Backend = name
	return b
}

// WithSerialize serializes operations per identity.
func (b *TestConfigBuilder) WithSerialize() *TestConfigBuilder {
	b.config.Serialize = true
	return b
}

// WithCache enables the lookup cache. An empty ttl keeps the default.
func (b *TestConfigBuilder) WithCache(ttl string) *TestConfigBuilder {
	b.config.Cache = config.CacheConfig{Enabled: true, TTL: ttl}
	return b
}

// WithMetricsTextfile writes metrics to a file in the builder's temporary
// directory and returns the builder. MetricsPath reports the file.
func (b *TestConfigBuilder) WithMetricsTextfile() *TestConfigBuilder {
	b.config.Metrics.Textfile = b.MetricsPath()
	return b
}

// MetricsPath is where WithMetricsTextfile points the metrics textfile.
func (b *TestConfigBuilder) MetricsPath() string {
	return filepath.Join(b.tempDir, "keyring.prom")
}

// Build returns the in-memory configuration.
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.config
}

// Write marshals the configuration to config.yaml in a temporary
// directory and returns its path.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	if err != nil {
		b.t.Fatalf("Failed to marshal test config: %v", err)
	}
	return WriteTestConfig(b.t, string(data))
}

// WriteTestConfig writes raw YAML to a temporary config.yaml and returns
// its path.
func WriteTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}
