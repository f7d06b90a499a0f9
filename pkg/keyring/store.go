package keyring

// CredentialStore is the contract every backend implements, native or
// custom. Implementations must be safe for concurrent use.
type CredentialStore interface {
	// Name identifies the store in the registry and in diagnostics.
	Name() string

	// Build validates id and returns a handle bound to it. Build must not
	// touch the underlying storage; a missing credential is not an error
	// until the handle is used.
	Build(id Identity) (Credential, error)

	// SupportedPlatforms declares where the store can run. The dispatcher
	// consults it; the store does not enforce it.
	SupportedPlatforms() []Platform
}

// Credential is a handle to one stored secret.
type Credential interface {
	// SetSecret creates or replaces the secret.
	SetSecret(secret []byte) error

	// GetSecret returns the stored bytes, ErrNoEntry when nothing is
	// stored and ErrAmbiguous when the lookup matches several items.
	GetSecret() ([]byte, error)

	// DeleteCredential removes the secret, or returns ErrNoEntry.
	DeleteCredential() error
}
