package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
	"github.com/systmms/keyring/pkg/keyring/backends/native"
)

//go:embed schema.json
var schema string

// DefaultCacheTTL applies when caching is enabled without a ttl.
const DefaultCacheTTL = 5 * time.Minute

// Config holds the runtime configuration
type Config struct {
	// Path of the configuration file. Empty means DefaultPath, which may
	// be missing; an explicit path must exist.
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition is the structure of config.yaml.
type Definition struct {
	Version       int                 `yaml:"version" json:"version"`
	Backend       string              `yaml:"backend,omitempty" json:"backend,omitempty"`
	Serialize     bool                `yaml:"serialize,omitempty" json:"serialize,omitempty"`
	Cache         CacheConfig         `yaml:"cache,omitempty" json:"cache,omitempty"`
	Metrics       MetricsConfig       `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Keyutils      KeyutilsConfig      `yaml:"keyutils,omitempty" json:"keyutils,omitempty"`
	SecretService SecretServiceConfig `yaml:"secret_service,omitempty" json:"secret_service,omitempty"`
	Wincred       WincredConfig       `yaml:"wincred,omitempty" json:"wincred,omitempty"`
}

// CacheConfig enables the lookup cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	TTL     string `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// MetricsConfig names the Prometheus textfile written after each command.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" json:"textfile,omitempty"`
}

// KeyutilsConfig tunes the kernel keyring store.
type KeyutilsConfig struct {
	Scope   string `yaml:"scope,omitempty" json:"scope,omitempty"`
	Keyring string `yaml:"keyring,omitempty" json:"keyring,omitempty"`
}

// SecretServiceConfig tunes the Secret Service store.
type SecretServiceConfig struct {
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`
}

// WincredConfig tunes the Credential Manager store.
type WincredConfig struct {
	Persist string `yaml:"persist,omitempty" json:"persist,omitempty"`
}

// DefaultPath is config.yaml in the keyring directory of the user config
// directory ($XDG_CONFIG_HOME on Linux).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "keyring", "config.yaml")
}

// Load reads, validates and parses the configuration file.
func (c *Config) Load() error {
	explicit := c.Path != ""
	path := c.Path
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) || path == "" {
			if !explicit {
				c.debug("no configuration at %q, using defaults", path)
				c.Definition = &Definition{}
				return nil
			}
			return kerrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path or omit it to use " + DefaultPath(),
			}
		}
		return kerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}
	c.debug("loaded configuration from %q", path)
	c.Path = path
	c.Definition = def
	return nil
}

// Parse validates data against the configuration schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, kerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	if raw == nil {
		return &Definition{}, nil
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, kerrors.ConfigError{
			Message:    err.Error(),
			Suggestion: "Check value types against the documented configuration",
		}
	}
	if _, err := def.CacheTTL(); err != nil {
		return nil, err
	}
	return &def, nil
}

func validate(raw map[string]interface{}) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	var messages []string
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return kerrors.ConfigError{
		Field:      first.Field(),
		Value:      first.Value(),
		Message:    strings.Join(messages, "; "),
		Suggestion: "Remove unknown keys and check allowed values",
	}
}

// CacheTTL returns the cache lifetime, DefaultCacheTTL when unset.
func (d *Definition) CacheTTL() (time.Duration, error) {
	if d.Cache.TTL == "" {
		return DefaultCacheTTL, nil
	}
	ttl, err := time.ParseDuration(d.Cache.TTL)
	if err != nil || ttl <= 0 {
		return 0, kerrors.ConfigError{
			Field:      "cache.ttl",
			Value:      d.Cache.TTL,
			Message:    "invalid duration",
			Suggestion: "Use a positive Go duration such as 30s or 5m",
		}
	}
	return ttl, nil
}

// NativeOptions maps the backend sections to native store options.
func (d *Definition) NativeOptions() native.Options {
	return native.Options{
		KeyutilsScope:           d.Keyutils.Scope,
		KeyutilsKeyring:         d.Keyutils.Keyring,
		SecretServiceCollection: d.SecretService.Collection,
		WincredPersist:          d.Wincred.Persist,
	}
}

func (c *Config) debug(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(format, args...)
	}
}
