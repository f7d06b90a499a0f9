package keyring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/systmms/keyring/internal/logging"
)

// Factory creates a store. It runs at most once per registry, on first
// resolution, and should not block on the underlying platform service.
type Factory func() (CredentialStore, error)

// Priority orders backends for default selection. Lower wins.
type Priority int

const (
	PriorityNative        Priority = 10
	PriorityKernelKeyring Priority = 20
	PrioritySecretService Priority = 30
	PriorityCustom        Priority = 50
	PriorityMock          Priority = 100
)

// MockBackend is the name the mock store is always registered under.
const MockBackend = "mock"

// BackendInfo describes one registration.
type BackendInfo struct {
	Name       string
	Priority   Priority
	Platforms  []Platform
	Applicable bool
	Default    bool
	Err        error
}

type registration struct {
	name     string
	priority Priority
	factory  Factory
	// anyPlatform marks the built-in mock, which serves every platform
	// whatever its store declares.
	anyPlatform bool

	once  sync.Once
	store CredentialStore
	err   error
}

func (r *registration) instance() (CredentialStore, error) {
	r.once.Do(func() {
		r.store, r.err = r.factory()
		if r.err == nil && r.store == nil {
			r.err = fmt.Errorf("factory for %q returned no store", r.name)
		}
	})
	return r.store, r.err
}

func (r *registration) applies(store CredentialStore, p Platform) bool {
	return r.anyPlatform || Supports(store.SupportedPlatforms(), p)
}

// Registry maps backend names to factories and resolves which store serves
// new entries. It is sealed by its first resolution; registering afterwards
// panics, as does registering a name twice.
type Registry struct {
	mu          sync.Mutex
	platform    Platform
	backends    map[string]*registration
	sealed      bool
	defaultName string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPlatform overrides the platform used to filter backends.
func WithPlatform(p Platform) RegistryOption {
	return func(r *Registry) {
		r.platform = p
	}
}

// NewRegistry creates a registry holding only the mock backend.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		platform: CurrentPlatform(),
		backends: make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.backends[MockBackend] = &registration{
		name:        MockBackend,
		priority:    PriorityMock,
		anyPlatform: true,
		factory: func() (CredentialStore, error) {
			return NewMockStore(), nil
		},
	}
	return r
}

// Platform returns the platform the registry resolves for.
func (r *Registry) Platform() Platform {
	return r.platform
}

// Register adds a backend. It panics if name is empty, already taken, or the
// registry has already resolved a store.
func (r *Registry) Register(name string, priority Priority, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		panic("keyring: Register with empty name")
	}
	if factory == nil {
		panic("keyring: Register factory is nil for " + name)
	}
	if r.sealed {
		panic("keyring: Register called after resolution for " + name)
	}
	if _, dup := r.backends[name]; dup {
		panic("keyring: Register called twice for " + name)
	}
	r.backends[name] = &registration{name: name, priority: priority, factory: factory}
}

// Names returns the registered backend names in priority order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := r.ordered()
	names := make([]string, len(ordered))
	for i, reg := range ordered {
		names[i] = reg.name
	}
	return names
}

// Store returns the store registered as name, or the default store when
// name is empty. Unknown names and stores that do not support the registry
// platform are PlatformFailure errors.
func (r *Registry) Store(name string) (CredentialStore, error) {
	if name == "" {
		return r.Default()
	}

	r.mu.Lock()
	r.sealed = true
	reg, ok := r.backends[name]
	r.mu.Unlock()

	if !ok {
		return nil, &Error{Kind: PlatformFailure, Message: fmt.Sprintf("store %q", name), Err: ErrBackendNotRegistered}
	}
	store, err := reg.instance()
	if err != nil {
		return nil, Wrap(err)
	}
	if !reg.applies(store, r.platform) {
		return nil, &Error{
			Kind:    PlatformFailure,
			Message: fmt.Sprintf("store %q on %s", name, r.platform),
			Err:     ErrBackendUnsupported,
		}
	}
	return store, nil
}

// Default returns the highest priority store that builds successfully and
// supports the registry platform. The mock store is the fallback on every
// platform, including ones no store declares.
func (r *Registry) Default() (CredentialStore, error) {
	r.mu.Lock()
	r.sealed = true
	if r.defaultName != "" {
		reg := r.backends[r.defaultName]
		r.mu.Unlock()
		return reg.instance()
	}
	candidates := r.ordered()
	r.mu.Unlock()

	log := logging.Default()
	for _, reg := range candidates {
		store, err := reg.instance()
		if err != nil {
			log.Debug("skipping credential store %q: %v", reg.name, err)
			continue
		}
		if !reg.applies(store, r.platform) {
			log.Debug("skipping credential store %q: not available on %s", reg.name, r.platform)
			continue
		}

		r.mu.Lock()
		r.defaultName = reg.name
		r.mu.Unlock()
		log.Debug("default credential store is %q", reg.name)
		return store, nil
	}

	// Only reached when the mock's factory fails.
	return nil, &Error{Kind: PlatformFailure, Message: "no default store", Err: ErrBackendNotRegistered}
}

// Backends reports every registration in priority order. It resolves the
// default store and so seals the registry.
func (r *Registry) Backends() []BackendInfo {
	_, _ = r.Default()

	r.mu.Lock()
	ordered := r.ordered()
	defaultName := r.defaultName
	r.mu.Unlock()

	infos := make([]BackendInfo, 0, len(ordered))
	for _, reg := range ordered {
		info := BackendInfo{Name: reg.name, Priority: reg.priority}
		store, err := reg.instance()
		if err != nil {
			info.Err = err
		} else {
			info.Platforms = store.SupportedPlatforms()
			info.Applicable = reg.applies(store, r.platform)
			info.Default = reg.name == defaultName
		}
		infos = append(infos, info)
	}
	return infos
}

// ordered must be called with mu held.
func (r *Registry) ordered() []*registration {
	out := make([]*registration, 0, len(r.backends))
	for _, reg := range r.backends {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].name < out[j].name
	})
	return out
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that New and the
// backend packages use.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a backend to the process-wide registry. Backend packages
// call it from init.
func Register(name string, priority Priority, factory Factory) {
	defaultRegistry.Register(name, priority, factory)
}

// Backends reports the registrations of the process-wide registry.
func Backends() []BackendInfo {
	return defaultRegistry.Backends()
}
