// Package wincred stores credentials as generic credentials in the Windows
// Credential Manager through github.com/danieljoos/wincred.
//
// The target name is "{user}.{service}" unless the identity names a target.
// Credential Manager offers no ordering guarantee between threads writing
// the same target; wrap the store with the serial package when that
// matters.
package wincred

import (
	"errors"
	"fmt"
	"unicode/utf16"

	"github.com/danieljoos/wincred"

	"github.com/systmms/keyring/pkg/keyring"
)

// Name is the registry name of the store.
const Name = "wincred"

// Credential Manager limits, in bytes for the blob and UTF-16 code units
// for strings.
const (
	MaxBlobSize       = 5 * 512
	MaxTargetLength   = 32767
	MaxUserNameLength = 513
	MaxCommentLength  = 256
)

// vault is the part of the Credential Manager API the store uses.
type vault interface {
	read(target string) (*wincred.GenericCredential, error)
	write(cred *wincred.GenericCredential) error
	remove(cred *wincred.GenericCredential) error
}

type systemVault struct{}

func (systemVault) read(target string) (*wincred.GenericCredential, error) {
	return wincred.GetGenericCredential(target)
}

func (systemVault) write(cred *wincred.GenericCredential) error {
	return cred.Write()
}

func (systemVault) remove(cred *wincred.GenericCredential) error {
	return cred.Delete()
}

// Store is the Windows Credential Manager credential store.
type Store struct {
	vault   vault
	persist wincred.CredentialPersistence
}

// Option configures a Store.
type Option func(*Store)

// WithPersistence sets how long written credentials live. The default is
// wincred.PersistLocalMachine.
func WithPersistence(p wincred.CredentialPersistence) Option {
	return func(s *Store) { s.persist = p }
}

// New returns a Credential Manager store.
func New(opts ...Option) *Store {
	s := &Store{vault: systemVault{}, persist: wincred.PersistLocalMachine}
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
	return []keyring.Platform{keyring.Windows}
}

// Build derives the target name and checks the Credential Manager length
// limits.
func (s *Store) Build(id keyring.Identity) (keyring.Credential, error) {
	target := id.Target
	if target == "" {
		target = fmt.Sprintf("%s.%s", id.User, id.Service)
	}
	comment := fmt.Sprintf("%s@%s", id.User, id.Service)

	if utf16Len(target) > MaxTargetLength {
		return nil, keyring.TooLongError("target", MaxTargetLength)
	}
	if utf16Len(id.User) > MaxUserNameLength {
		return nil, keyring.TooLongError("user", MaxUserNameLength)
	}
	if utf16Len(comment) > MaxCommentLength {
		comment = ""
	}
	return &credential{store: s, target: target, user: id.User, comment: comment}, nil
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

type credential struct {
	store   *Store
	target  string
	user    string
	comment string
}

func (c *credential) SetSecret(secret []byte) error {
	if len(secret) > MaxBlobSize {
		return keyring.TooLongError("secret", MaxBlobSize)
	}
	cred := wincred.NewGenericCredential(c.target)
	cred.UserName = c.user
	cred.Comment = c.comment
	cred.Persist = c.store.persist
	cred.CredentialBlob = append([]byte(nil), secret...)
	return mapError(c.store.vault.write(cred))
}

func (c *credential) GetSecret() ([]byte, error) {
	cred, err := c.store.vault.read(c.target)
	if err != nil {
		return nil, mapError(err)
	}
	if cred == nil {
		return nil, keyring.NoEntryError(nil)
	}
	return cred.CredentialBlob, nil
}

func (c *credential) DeleteCredential() error {
	return mapError(c.store.vault.remove(wincred.NewGenericCredential(c.target)))
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wincred.ErrElementNotFound):
		return keyring.NoEntryError(err)
	case errors.Is(err, wincred.ErrBadUsername):
		return keyring.NewError(keyring.Invalid, "user rejected by Credential Manager", err)
	case errors.Is(err, wincred.ErrInvalidParameter):
		return keyring.NewError(keyring.Invalid, "target rejected by Credential Manager", err)
	default:
		return keyring.PlatformError(err)
	}
}
