// Package serial orders concurrent operations on the same identity for
// credential stores that give no such guarantee (Keychain, Credential
// Manager). Operations on different identities still run in parallel.
package serial

import (
	"sync"

	"github.com/systmms/keyring/pkg/keyring"
)

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// Store wraps a credential store with per-identity locking.
type Store struct {
	inner keyring.CredentialStore

	mu    sync.Mutex
	locks map[keyring.Identity]*identityLock
}

// New wraps inner.
func New(inner keyring.CredentialStore) *Store {
	return &Store{inner: inner, locks: make(map[keyring.Identity]*identityLock)}
}

func (s *Store) Name() string {
	return s.inner.Name()
}

func (s *Store) SupportedPlatforms() []keyring.Platform {
	return s.inner.SupportedPlatforms()
}

func (s *Store) Build(id keyring.Identity) (keyring.Credential, error) {
	cred, err := s.inner.Build(id)
	if err != nil {
		return nil, err
	}
	return &credential{store: s, id: id, inner: cred}, nil
}

// held reports how many identities currently have a lock allocated.
func (s *Store) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *Store) lock(id keyring.Identity) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &identityLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

type credential struct {
	store *Store
	id    keyring.Identity
	inner keyring.Credential
}

func (c *credential) SetSecret(secret []byte) error {
	defer c.store.lock(c.id)()
	return c.inner.SetSecret(secret)
}

func (c *credential) GetSecret() ([]byte, error) {
	defer c.store.lock(c.id)()
	return c.inner.GetSecret()
}

func (c *credential) DeleteCredential() error {
	defer c.store.lock(c.id)()
	return c.inner.DeleteCredential()
}
