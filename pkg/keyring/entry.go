package keyring

// Entry is a client handle bound to one identity and one resolved store.
// The store is chosen once, at construction, and never changes.
type Entry struct {
	id      Identity
	backend string
	cred    Credential
}

// New creates an entry for service and user on the default store of the
// process-wide registry.
func New(service, user string) (*Entry, error) {
	return defaultRegistry.NewEntry(NewIdentity(service, user))
}

// NewWithTarget is New with a backend-specific target attribute.
func NewWithTarget(target, service, user string) (*Entry, error) {
	return defaultRegistry.NewEntry(Identity{Service: service, User: user, Target: target})
}

// NewWithBackend creates an entry on the store registered as backend.
func NewWithBackend(backend, service, user string) (*Entry, error) {
	return defaultRegistry.NewEntryWithBackend(backend, NewIdentity(service, user))
}

// NewWithStore creates an entry on a caller-supplied store, bypassing the
// registry.
func NewWithStore(store CredentialStore, service, user string) (*Entry, error) {
	return NewEntryFromStore(store, NewIdentity(service, user))
}

// NewEntryFromStore builds id on store.
func NewEntryFromStore(store CredentialStore, id Identity) (*Entry, error) {
	cred, err := store.Build(id)
	if err != nil {
		return nil, Wrap(err)
	}
	return &Entry{id: id, backend: store.Name(), cred: cred}, nil
}

// NewEntry creates an entry for id on the registry's default store.
func (r *Registry) NewEntry(id Identity) (*Entry, error) {
	return r.NewEntryWithBackend("", id)
}

// NewEntryWithBackend creates an entry for id on the named store. An empty
// name selects the default store.
func (r *Registry) NewEntryWithBackend(backend string, id Identity) (*Entry, error) {
	store, err := r.Store(backend)
	if err != nil {
		return nil, err
	}
	return NewEntryFromStore(store, id)
}

// Identity returns the identity the entry was created for.
func (e *Entry) Identity() Identity {
	return e.id
}

// Backend returns the name of the store serving the entry.
func (e *Entry) Backend() string {
	return e.backend
}

// Credential returns the store handle, for store specific extensions such
// as MockCredential.SetError.
func (e *Entry) Credential() Credential {
	return e.cred
}

// SetPassword stores password as its UTF-8 bytes.
func (e *Entry) SetPassword(password string) error {
	return e.SetSecret([]byte(password))
}

// GetPassword returns the stored secret as a string. Stored bytes that are
// not UTF-8 fail with BadEncoding.
func (e *Entry) GetPassword() (string, error) {
	secret, err := e.GetSecret()
	if err != nil {
		return "", err
	}
	return DecodePassword(secret)
}

// SetSecret stores secret verbatim, replacing any previous value.
func (e *Entry) SetSecret(secret []byte) error {
	return Wrap(e.cred.SetSecret(secret))
}

// GetSecret returns the stored bytes.
func (e *Entry) GetSecret() ([]byte, error) {
	secret, err := e.cred.GetSecret()
	if err != nil {
		return nil, Wrap(err)
	}
	return secret, nil
}

// DeleteCredential removes the stored secret.
func (e *Entry) DeleteCredential() error {
	return Wrap(e.cred.DeleteCredential())
}
