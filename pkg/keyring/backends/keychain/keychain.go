// Package keychain binds the macOS and iOS Keychain to the credential
// store contract through github.com/zalando/go-keyring.
//
// Items are generic passwords keyed by (service, user). Each call runs
// /usr/bin/security, so concurrent operations on the same identity are not
// ordered relative to each other; wrap the store with the serial package
// when that matters.
package keychain

import (
	"errors"
	"strings"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/systmms/keyring/pkg/keyring"
)

// Name is the registry name of the store.
const Name = "keychain"

// Store is the Keychain credential store.
type Store struct {
	ring gokeyring.Keyring
}

// Option configures a Store.
type Option func(*Store)

// WithKeyring replaces the platform keyring, for tests.
func WithKeyring(ring gokeyring.Keyring) Option {
	return func(s *Store) {
		s.ring = ring
	}
}

// New returns a Keychain store.
func New(opts ...Option) *Store {
	s := &Store{ring: packageKeyring{}}
	for _, opt := range opts {
		opt(s)
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
	return []keyring.Platform{keyring.MacOS, keyring.IOS}
}

// Build accepts identities with a non-empty service and user. Keychain
// items are addressed by those two attributes only, so a target is
// rejected.
func (s *Store) Build(id keyring.Identity) (keyring.Credential, error) {
	if err := id.RequireNonEmpty(); err != nil {
		return nil, err
	}
	if id.Target != "" {
		return nil, keyring.InvalidError("target", "is not supported by the keychain store")
	}
	return &credential{ring: s.ring, id: id}, nil
}

// DeleteService removes every item stored for service.
func (s *Store) DeleteService(service string) error {
	if service == "" {
		return keyring.InvalidError("service", "must not be empty")
	}
	return mapError(s.ring.DeleteAll(service))
}

type credential struct {
	ring gokeyring.Keyring
	id   keyring.Identity
}

func (c *credential) SetSecret(secret []byte) error {
	return mapError(c.ring.Set(c.id.Service, c.id.User, string(secret)))
}

func (c *credential) GetSecret() ([]byte, error) {
	value, err := c.ring.Get(c.id.Service, c.id.User)
	if err != nil {
		return nil, mapError(err)
	}
	return []byte(value), nil
}

func (c *credential) DeleteCredential() error {
	return mapError(c.ring.Delete(c.id.Service, c.id.User))
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gokeyring.ErrNotFound):
		return keyring.NoEntryError(err)
	case errors.Is(err, gokeyring.ErrSetDataTooBig):
		return keyring.NewError(keyring.TooLong, "service, user and secret exceed the keychain item limit", err)
	case isAccessDenied(err):
		return keyring.NoStorageAccessError(err)
	default:
		return keyring.PlatformError(err)
	}
}

// security(1) reports a locked or inaccessible keychain only in its output.
func isAccessDenied(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"user interaction is not allowed",
		"user canceled",
		"keychain is locked",
		"unsupported platform",
		"could not be found in the keychain search list",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// packageKeyring routes through go-keyring's package functions so that
// gokeyring.MockInit also reaches stores created with New.
type packageKeyring struct{}

func (packageKeyring) Set(service, user, password string) error {
	return gokeyring.Set(service, user, password)
}

func (packageKeyring) Get(service, user string) (string, error) {
	return gokeyring.Get(service, user)
}

func (packageKeyring) Delete(service, user string) error {
	return gokeyring.Delete(service, user)
}

func (packageKeyring) DeleteAll(service string) error {
	return gokeyring.DeleteAll(service)
}
