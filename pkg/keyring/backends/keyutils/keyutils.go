// Package keyutils stores credentials in the Linux kernel keyring through
// the keyctl backend of github.com/99designs/keyring.
//
// Secrets live as "user" keys in the configured scope ("user" by default)
// and do not survive a reboot. Every operation is a single keyctl syscall,
// so operations on the same identity are ordered by the kernel.
package keyutils

import (
	"errors"
	"fmt"
	"sync"

	ring "github.com/99designs/keyring"

	"github.com/systmms/keyring/pkg/keyring"
)

const (
	// Name is the registry name of the store.
	Name = "keyutils"

	// MaxPayload is the kernel limit for "user" key payloads.
	MaxPayload = 32767

	// MaxDescription is the kernel limit for key descriptions.
	MaxDescription = 4095

	defaultScope  = "user"
	defaultPrefix = "keyring"
)

// Opener opens the kernel keyring.
type Opener func() (ring.Keyring, error)

// Store is the kernel keyring credential store. The keyring is opened on
// the first credential operation, not by New or Build.
type Store struct {
	scope       string
	keyringName string
	prefix      string
	open        Opener

	mu sync.Mutex
	kr ring.Keyring
}

// Option configures a Store.
type Option func(*Store)

// WithScope selects the parent keyring: "user", "session", "process" or
// "thread".
func WithScope(scope string) Option {
	return func(s *Store) { s.scope = scope }
}

// WithKeyringName stores keys in a named keyring below the scope keyring,
// creating it when missing.
func WithKeyringName(name string) Option {
	return func(s *Store) { s.keyringName = name }
}

// WithPrefix changes the prefix of generated key descriptions.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithKeyring uses kr instead of opening the kernel keyring.
func WithKeyring(kr ring.Keyring) Option {
	return func(s *Store) {
		s.open = func() (ring.Keyring, error) { return kr, nil }
	}
}

// New returns a kernel keyring store.
func New(opts ...Option) *Store {
	s := &Store{scope: defaultScope, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	if s.open == nil {
		s.open = s.openKeyctl
	}
	return s
}

// Factory adapts New for keyring.Register.
func Factory() (keyring.CredentialStore, error) {
	return New(), nil
}

func (s *Store) Name() string {
	return Name
}

func (s *Store) SupportedPlatforms() []keyring.Platform {
	return []keyring.Platform{keyring.Linux}
}

// Build derives the key description. The service must be non-empty; an
// empty user is allowed since descriptions are matched exactly.
func (s *Store) Build(id keyring.Identity) (keyring.Credential, error) {
	if id.Service == "" {
		return nil, keyring.InvalidError("service", "must not be empty")
	}
	desc := id.Target
	if desc == "" {
		desc = fmt.Sprintf("%s:%s@%s", s.prefix, id.User, id.Service)
	}
	if len(desc) > MaxDescription {
		return nil, keyring.TooLongError("key description", MaxDescription)
	}
	return &credential{store: s, description: desc}, nil
}

func (s *Store) openRing() (ring.Keyring, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kr != nil {
		return s.kr, nil
	}
	kr, err := s.open()
	if err != nil {
		return nil, keyring.NoStorageAccessError(err)
	}
	s.kr = kr
	return kr, nil
}

func (s *Store) openKeyctl() (ring.Keyring, error) {
	return ring.Open(ring.Config{
		AllowedBackends: []ring.BackendType{ring.KeyCtlBackend},
		KeyCtlScope:     s.scope,
		ServiceName:     s.keyringName,
	})
}

type credential struct {
	store       *Store
	description string
}

func (c *credential) SetSecret(secret []byte) error {
	if len(secret) > MaxPayload {
		return keyring.TooLongError("secret", MaxPayload)
	}
	kr, err := c.store.openRing()
	if err != nil {
		return err
	}
	data := make([]byte, len(secret))
	copy(data, secret)
	return mapError(kr.Set(ring.Item{Key: c.description, Data: data}))
}

func (c *credential) GetSecret() ([]byte, error) {
	kr, err := c.store.openRing()
	if err != nil {
		return nil, err
	}
	item, err := kr.Get(c.description)
	if err != nil {
		return nil, mapError(err)
	}
	return item.Data, nil
}

func (c *credential) DeleteCredential() error {
	kr, err := c.store.openRing()
	if err != nil {
		return err
	}
	// Not every ring.Keyring reports a missing key from Remove.
	if _, err := kr.Get(c.description); err != nil {
		return mapError(err)
	}
	return mapError(kr.Remove(c.description))
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ring.ErrKeyNotFound):
		return keyring.NoEntryError(err)
	case errors.Is(err, ring.ErrNoAvailImpl):
		return keyring.NoStorageAccessError(err)
	default:
		return keyring.PlatformError(err)
	}
}
