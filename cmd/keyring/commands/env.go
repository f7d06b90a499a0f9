package commands

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/native"
	"github.com/systmms/keyring/pkg/keyring/cache"
	"github.com/systmms/keyring/pkg/keyring/metrics"
	"github.com/systmms/keyring/pkg/keyring/serial"
)

// Env carries the global flags and the store chain shared by all commands.
type Env struct {
	Config *config.Config

	Backend string
	Service string
	User    string
	Target  string

	// Registry resolves stores. When nil, one is built from the
	// configuration with the native stores registered.
	Registry *keyring.Registry

	gatherer *prometheus.Registry
}

// load reads the configuration once.
func (e *Env) load() (*config.Definition, error) {
	if e.Config.Definition == nil {
		if err := e.Config.Load(); err != nil {
			return nil, err
		}
	}
	return e.Config.Definition, nil
}

func (e *Env) registry(def *config.Definition) *keyring.Registry {
	if e.Registry == nil {
		e.Registry = keyring.NewRegistry()
		names := native.RegisterAll(e.Registry, def.NativeOptions())
		e.Config.Logger.Debug("registered credential stores: %v", names)
	}
	return e.Registry
}

// backendName is the --backend flag, else the configured backend. Empty
// means the registry default.
func (e *Env) backendName(def *config.Definition) string {
	if e.Backend != "" {
		return e.Backend
	}
	return def.Backend
}

// Store resolves the selected store and wraps it as configured: the
// resolved store, then serialization, then caching, then metrics.
func (e *Env) Store() (keyring.CredentialStore, error) {
	def, err := e.load()
	if err != nil {
		return nil, err
	}

	name := e.backendName(def)
	store, err := e.registry(def).Store(name)
	if err != nil {
		if name == "" {
			name = "default"
		}
		return nil, kerrors.KeyringError(name, "resolve", err)
	}
	e.Config.Logger.Debug("using credential store %q", store.Name())

	if def.Serialize {
		store = serial.New(store)
	}
	if def.Cache.Enabled {
		ttl, err := def.CacheTTL()
		if err != nil {
			return nil, err
		}
		store = cache.New(store, ttl)
	}
	if def.Metrics.Textfile != "" {
		e.gatherer = prometheus.NewRegistry()
		store = metrics.NewCollector(e.gatherer).Instrument(store)
	}
	return store, nil
}

// Entry builds the entry named by --service, --user and --target. Whether
// an empty user is allowed is up to the store.
func (e *Env) Entry() (*keyring.Entry, error) {
	if e.Service == "" {
		return nil, kerrors.UserError{
			Message:    "Service is required",
			Suggestion: "Pass --service <name>",
		}
	}

	store, err := e.Store()
	if err != nil {
		return nil, err
	}
	id := keyring.Identity{Service: e.Service, User: e.User, Target: e.Target}
	entry, err := keyring.NewEntryFromStore(store, id)
	if err != nil {
		return nil, kerrors.KeyringError(store.Name(), "build", err)
	}
	return entry, nil
}

// Flush writes the collected metrics to the configured textfile.
func (e *Env) Flush() error {
	if e.gatherer == nil {
		return nil
	}
	path := e.Config.Definition.Metrics.Textfile
	if err := prometheus.WriteToTextfile(path, e.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	e.Config.Logger.Debug("wrote metrics to %s", path)
	return nil
}

func (e *Env) fail(entry *keyring.Entry, operation string, err error) error {
	return kerrors.KeyringError(entry.Backend(), operation, err)
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

// finish flushes metrics after a command; a failed write is only reported.
func (e *Env) finish() {
	if err := e.Flush(); err != nil {
		e.Config.Logger.Warn("%v", err)
	}
}
