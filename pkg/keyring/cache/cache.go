// Package cache is a caching proxy for credential stores whose lookups are
// slow or prompt the user (Keychain, Secret Service).
//
// Successful lookups are kept, sealed in memguard enclaves, for a fixed
// TTL. Writes go through to the wrapped store and refresh the cache;
// deletes and failed writes drop the cached value. Failures are never
// cached.
package cache

import (
	"sync"
	"time"

	"github.com/systmms/keyring/internal/secure"
	"github.com/systmms/keyring/pkg/keyring"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type cached struct {
	buf     *secure.SecureBuffer
	expires time.Time
}

// version identifies the state of one identity's cache slot. A lookup that
// misses records it and fills the slot only if it is unchanged, so a value
// read before a concurrent write or delete is never cached after it.
type version struct {
	epoch uint64
	gen   uint64
}

// Store wraps a credential store with a lookup cache keyed by identity.
type Store struct {
	inner keyring.CredentialStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[keyring.Identity]*cached
	gens    map[keyring.Identity]uint64
	epoch   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps inner with a cache holding lookups for ttl.
func New(inner keyring.CredentialStore, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[keyring.Identity]*cached),
		gens:    make(map[keyring.Identity]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
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

// Len reports how many identities have a live cached value.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, c := range s.entries {
		if now.Before(c.expires) {
			n++
		}
	}
	return n
}

// Invalidate drops the cached value for id.
func (s *Store) Invalidate(id keyring.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop(id)
}

// Purge drops every cached value.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	for id := range s.entries {
		s.drop(id)
	}
}

func (s *Store) snapshot(id keyring.Identity) version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return version{epoch: s.epoch, gen: s.gens[id]}
}

func (s *Store) lookup(id keyring.Identity) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(c.expires) {
		s.drop(id)
		return nil, false
	}
	secret, err := c.buf.Bytes()
	if err != nil {
		s.drop(id)
		return nil, false
	}
	return secret, true
}

// put caches secret after a successful write.
func (s *Store) put(id keyring.Identity, secret []byte) {
	s.store(id, secret, nil)
}

// fill caches secret after a lookup, unless the slot changed since seen.
func (s *Store) fill(id keyring.Identity, secret []byte, seen version) {
	s.store(id, secret, &seen)
}

func (s *Store) store(id keyring.Identity, secret []byte, seen *version) {
	buf, err := secure.NewSecureBuffer(secret)
	if err != nil {
		s.Invalidate(id)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seen != nil && *seen != (version{epoch: s.epoch, gen: s.gens[id]}) {
		buf.Destroy()
		return
	}
	s.drop(id)
	s.entries[id] = &cached{buf: buf, expires: s.now().Add(s.ttl)}
}

// drop must be called with mu held. It moves the slot to a new
// generation even when nothing was cached.
func (s *Store) drop(id keyring.Identity) {
	s.gens[id]++
	if c, ok := s.entries[id]; ok {
		c.buf.Destroy()
		delete(s.entries, id)
	}
}

type credential struct {
	store *Store
	id    keyring.Identity
	inner keyring.Credential
}

func (c *credential) SetSecret(secret []byte) error {
	if err := c.inner.SetSecret(secret); err != nil {
		c.store.Invalidate(c.id)
		return err
	}
	c.store.put(c.id, secret)
	return nil
}

func (c *credential) GetSecret() ([]byte, error) {
	if secret, ok := c.store.lookup(c.id); ok {
		return secret, nil
	}
	seen := c.store.snapshot(c.id)
	secret, err := c.inner.GetSecret()
	if err != nil {
		c.store.Invalidate(c.id)
		return nil, err
	}
	c.store.fill(c.id, secret, seen)
	return secret, nil
}

func (c *credential) DeleteCredential() error {
	defer c.store.Invalidate(c.id)
	return c.inner.DeleteCredential()
}
