package keyring

import (
	"sync"

	"github.com/google/uuid"

	"github.com/systmms/keyring/internal/secure"
)

// Operation names a credential store operation for error injection and the
// call log.
type Operation string

const (
	OpBuild     Operation = "build"
	OpSetSecret Operation = "set_secret"
	OpGetSecret Operation = "get_secret"
	OpDelete    Operation = "delete"
)

// Call is one entry of the mock call log.
type Call struct {
	Seq      uint64
	Op       Operation
	Identity Identity
	Handle   uuid.UUID
	Err      error
}

// MockStore is an in-memory store keyed by Identity. Secrets are sealed in
// memguard enclaves while resident. It is always registered as "mock" and
// backs the default registry when nothing else applies.
//
// Errors can be injected per operation with FailNext or per handle with
// MockCredential.SetError; each injected error is returned once, without
// performing the operation.
type MockStore struct {
	mu        sync.Mutex
	name      string
	platforms []Platform
	maxLen    int
	nonEmpty  bool

	entries  map[Identity]*secure.SecureBuffer
	failNext map[Operation]error
	calls    []Call
	seq      uint64
}

// MockOption configures a MockStore.
type MockOption func(*MockStore)

// WithMockName changes the name the store reports.
func WithMockName(name string) MockOption {
	return func(m *MockStore) { m.name = name }
}

// WithMaxSecretLen makes SetSecret fail with TooLong above n bytes.
func WithMaxSecretLen(n int) MockOption {
	return func(m *MockStore) { m.maxLen = n }
}

// WithNonEmptyIdentity makes Build reject empty service or user, like
// stores that treat empty attributes as wildcards.
func WithNonEmptyIdentity() MockOption {
	return func(m *MockStore) { m.nonEmpty = true }
}

// WithPlatforms overrides the declared platforms.
func WithPlatforms(platforms ...Platform) MockOption {
	return func(m *MockStore) { m.platforms = platforms }
}

// NewMockStore returns an empty mock store supporting every platform.
func NewMockStore(opts ...MockOption) *MockStore {
	m := &MockStore{
		name:      MockBackend,
		platforms: AllPlatforms,
		entries:   make(map[Identity]*secure.SecureBuffer),
		failNext:  make(map[Operation]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockStore) Name() string {
	return m.name
}

func (m *MockStore) SupportedPlatforms() []Platform {
	return m.platforms
}

// Build returns a fresh handle for id. Every call yields a distinct handle.
func (m *MockStore) Build(id Identity) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(OpBuild); err != nil {
		m.record(OpBuild, id, uuid.Nil, err)
		return nil, err
	}
	if m.nonEmpty {
		if err := id.RequireNonEmpty(); err != nil {
			m.record(OpBuild, id, uuid.Nil, err)
			return nil, err
		}
	}

	cred := &MockCredential{store: m, id: id, handle: uuid.New()}
	m.record(OpBuild, id, cred.handle, nil)
	return cred, nil
}

// FailNext makes the next op on any handle of this store return err.
func (m *MockStore) FailNext(op Operation, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext[op] = err
}

// Calls returns the call log in invocation order.
func (m *MockStore) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Len reports how many credentials are stored.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops stored secrets, pending failures and the call log.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, buf := range m.entries {
		buf.Destroy()
		delete(m.entries, id)
	}
	m.failNext = make(map[Operation]error)
	m.calls = nil
	m.seq = 0
}

// takeFailure must be called with mu held.
func (m *MockStore) takeFailure(op Operation) error {
	err, ok := m.failNext[op]
	if !ok {
		return nil
	}
	delete(m.failNext, op)
	return err
}

// record must be called with mu held.
func (m *MockStore) record(op Operation, id Identity, handle uuid.UUID, err error) {
	m.seq++
	m.calls = append(m.calls, Call{Seq: m.seq, Op: op, Identity: id, Handle: handle, Err: err})
}

// MockCredential is the handle returned by MockStore.Build.
type MockCredential struct {
	store    *MockStore
	id       Identity
	handle   uuid.UUID
	injected error
}

// Identity returns the identity the handle was built for.
func (c *MockCredential) Identity() Identity {
	return c.id
}

// Handle returns the unique id of this handle.
func (c *MockCredential) Handle() uuid.UUID {
	return c.handle
}

// SetError makes the next operation on this handle return err.
func (c *MockCredential) SetError(err error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.injected = err
}

func (c *MockCredential) SetSecret(secret []byte) error {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()

	err := c.pending(OpSetSecret)
	if err == nil && m.maxLen > 0 && len(secret) > m.maxLen {
		err = TooLongError("secret", m.maxLen)
	}
	if err == nil {
		var buf *secure.SecureBuffer
		buf, err = secure.NewSecureBuffer(secret)
		if err == nil {
			if old, ok := m.entries[c.id]; ok {
				old.Destroy()
			}
			m.entries[c.id] = buf
		}
	}
	m.record(OpSetSecret, c.id, c.handle, err)
	return err
}

func (c *MockCredential) GetSecret() ([]byte, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()

	var secret []byte
	err := c.pending(OpGetSecret)
	if err == nil {
		buf, ok := m.entries[c.id]
		if !ok {
			err = NoEntryError(nil)
		} else {
			secret, err = buf.Bytes()
		}
	}
	m.record(OpGetSecret, c.id, c.handle, err)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

func (c *MockCredential) DeleteCredential() error {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()

	err := c.pending(OpDelete)
	if err == nil {
		buf, ok := m.entries[c.id]
		if !ok {
			err = NoEntryError(nil)
		} else {
			buf.Destroy()
			delete(m.entries, c.id)
		}
	}
	m.record(OpDelete, c.id, c.handle, err)
	return err
}

// pending returns and clears the injected error for op. The handle level
// error takes precedence over the store level one. Called with mu held.
func (c *MockCredential) pending(op Operation) error {
	if err := c.injected; err != nil {
		c.injected = nil
		return err
	}
	return c.store.takeFailure(op)
}
