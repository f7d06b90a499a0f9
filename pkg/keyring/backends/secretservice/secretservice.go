// Package secretservice stores credentials through the freedesktop.org
// Secret Service API (GNOME Keyring, KWallet, KeePassXC) on the D-Bus
// session bus.
//
// Items carry the attributes "service" and "username", the same ones
// github.com/zalando/go-keyring writes, plus "target" when the identity has
// one. Lookups are attribute searches, so an item created by another tool
// with matching attributes is found too. The service matches attribute
// subsets, so lookups for an identity without a target skip items that
// carry a "target" attribute. When more than one item remains the
// operation fails with Ambiguous.
//
// Calls are serialized by the session bus connection.
package secretservice

import (
	"fmt"
	"sync"
	"unicode/utf8"

	dbus "github.com/godbus/dbus/v5"

	"github.com/systmms/keyring/pkg/keyring"
)

// Name is the registry name of the store.
const Name = "secret-service"

const (
	attrService  = "service"
	attrUser     = "username"
	attrTarget   = "target"
	textContent  = "text/plain; charset=utf8"
	octetContent = "application/octet-stream"
)

// Store is the Secret Service credential store. The bus connection is made
// on the first credential operation and kept for the life of the store.
type Store struct {
	collection string
	connect    func() (client, error)

	mu     sync.Mutex
	client client
}

// Option configures a Store.
type Option func(*Store)

// WithCollection uses the named collection instead of the login
// collection.
func WithCollection(name string) Option {
	return func(s *Store) { s.collection = name }
}

// New returns a Secret Service store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.connect == nil {
		s.connect = func() (client, error) { return dial(s.collection) }
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
	return []keyring.Platform{keyring.Linux, keyring.FreeBSD, keyring.OpenBSD}
}

// Build requires a non-empty service and user: the Secret Service treats
// an empty attribute as matching anything.
func (s *Store) Build(id keyring.Identity) (keyring.Credential, error) {
	if err := id.RequireNonEmpty(); err != nil {
		return nil, err
	}
	attrs := map[string]string{
		attrService: id.Service,
		attrUser:    id.User,
	}
	if id.Target != "" {
		attrs[attrTarget] = id.Target
	}
	return &credential{
		store: s,
		attrs: attrs,
		label: fmt.Sprintf("Password for '%s' on '%s'", id.User, id.Service),
	}, nil
}

func (s *Store) conn() (client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	c, err := s.connect()
	if err != nil {
		return nil, keyring.NoStorageAccessError(err)
	}
	s.client = c
	return c, nil
}

type credential struct {
	store *Store
	attrs map[string]string
	label string
}

// lookup returns the single item matching the credential's attributes.
func (c *credential) lookup(cl client) (dbus.ObjectPath, error) {
	items, err := cl.search(c.attrs)
	if err != nil {
		return "", mapError(err)
	}
	if _, targeted := c.attrs[attrTarget]; !targeted {
		if items, err = withoutTarget(cl, items); err != nil {
			return "", mapError(err)
		}
	}
	switch len(items) {
	case 0:
		return "", keyring.NoEntryError(nil)
	case 1:
		return items[0], nil
	default:
		return "", keyring.AmbiguousError(len(items))
	}
}

func (c *credential) SetSecret(secret []byte) error {
	cl, err := c.store.conn()
	if err != nil {
		return err
	}
	// Refuse to overwrite when the attributes already match several items.
	if _, err := c.lookup(cl); err != nil && !isNoEntry(err) {
		return err
	}
	contentType := octetContent
	if utf8.Valid(secret) {
		contentType = textContent
	}
	return mapError(cl.create(c.label, c.attrs, secret, contentType))
}

func (c *credential) GetSecret() ([]byte, error) {
	cl, err := c.store.conn()
	if err != nil {
		return nil, err
	}
	item, err := c.lookup(cl)
	if err != nil {
		return nil, err
	}
	secret, err := cl.secret(item)
	if err != nil {
		return nil, mapError(err)
	}
	return secret, nil
}

func (c *credential) DeleteCredential() error {
	cl, err := c.store.conn()
	if err != nil {
		return err
	}
	item, err := c.lookup(cl)
	if err != nil {
		return err
	}
	return mapError(cl.remove(item))
}

// withoutTarget drops the items that belong to a targeted identity.
func withoutTarget(cl client, items []dbus.ObjectPath) ([]dbus.ObjectPath, error) {
	kept := items[:0]
	for _, item := range items {
		attrs, err := cl.attributes(item)
		if err != nil {
			return nil, err
		}
		if _, ok := attrs[attrTarget]; !ok {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func isNoEntry(err error) bool {
	return keyring.KindOf(err) == keyring.NoEntry
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case unreachable(err):
		return keyring.NoStorageAccessError(err)
	default:
		return keyring.PlatformError(err)
	}
}
