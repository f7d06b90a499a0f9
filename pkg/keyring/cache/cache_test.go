package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/pkg/keyring"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func countOps(m *keyring.MockStore, op keyring.Operation) int {
	n := 0
	for _, call := range m.Calls() {
		if call.Op == op {
			n++
		}
	}
	return n
}

func TestCacheContract(t *testing.T) {
	t.Parallel()

	keyring.RunContractTests(t, keyring.ContractTest{
		NewStore: func(t *testing.T) keyring.CredentialStore {
			return New(keyring.NewMockStore(), time.Minute)
		},
	})
}

func TestCacheServesRepeatedLookups(t *testing.T) {
	t.Parallel()

	mock := keyring.NewMockStore()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := New(mock, time.Minute, WithClock(clock.Now))
	assert.Equal(t, keyring.MockBackend, store.Name())

	seed, err := mock.Build(keyring.NewIdentity("my-service", "my-name"))
	require.NoError(t, err)
	require.NoError(t, seed.SetSecret([]byte("topS3cr3tP4$$w0rd")))

	entry, err := keyring.NewWithStore(store, "my-service", "my-name")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := entry.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "topS3cr3tP4$$w0rd", got)
	}
	assert.Equal(t, 1, countOps(mock, keyring.OpGetSecret))
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, store.Len())
	_, err = entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, 2, countOps(mock, keyring.OpGetSecret))
}

func TestCacheWriteThrough(t *testing.T) {
	t.Parallel()

	mock := keyring.NewMockStore()
	store := New(mock, time.Minute)
	entry, err := keyring.NewWithStore(store, "svc", "user")
	require.NoError(t, err)

	require.NoError(t, entry.SetPassword("v1"))
	got, err := entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, 0, countOps(mock, keyring.OpGetSecret), "set populates the cache")

	require.NoError(t, entry.SetPassword("v2"))
	got, err = entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestCacheDeleteInvalidates(t *testing.T) {
	t.Parallel()

	store := New(keyring.NewMockStore(), time.Minute)
	entry, err := keyring.NewWithStore(store, "svc", "user")
	require.NoError(t, err)

	require.NoError(t, entry.SetPassword("gone-soon"))
	require.NoError(t, entry.DeleteCredential())
	assert.Equal(t, 0, store.Len())

	_, err = entry.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)
}

func TestCacheFailedWriteInvalidates(t *testing.T) {
	t.Parallel()

	mock := keyring.NewMockStore()
	store := New(mock, time.Minute)
	entry, err := keyring.NewWithStore(store, "svc", "user")
	require.NoError(t, err)
	require.NoError(t, entry.SetPassword("cached"))

	mock.FailNext(keyring.OpSetSecret, keyring.NoStorageAccessError(errors.New("locked")))
	require.ErrorIs(t, entry.SetPassword("new"), keyring.ErrNoStorageAccess)
	assert.Equal(t, 0, store.Len())

	got, err := entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "cached", got, "value comes from the wrapped store again")
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	mock := keyring.NewMockStore()
	store := New(mock, time.Minute)
	entry, err := keyring.NewWithStore(store, "svc", "user")
	require.NoError(t, err)

	_, err = entry.GetSecret()
	require.ErrorIs(t, err, keyring.ErrNoEntry)

	seed, err := mock.Build(keyring.NewIdentity("svc", "user"))
	require.NoError(t, err)
	require.NoError(t, seed.SetSecret([]byte("late")))

	got, err := entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "late", got)
}

func TestCachePurgeAndInvalidate(t *testing.T) {
	t.Parallel()

	store := New(keyring.NewMockStore(), 0)
	assert.Equal(t, DefaultTTL, store.ttl)

	for _, user := range []string{"a", "b"} {
		entry, err := keyring.NewWithStore(store, "svc", user)
		require.NoError(t, err)
		require.NoError(t, entry.SetPassword(user))
	}
	assert.Equal(t, 2, store.Len())

	store.Invalidate(keyring.NewIdentity("svc", "a"))
	assert.Equal(t, 1, store.Len())

	store.Purge()
	assert.Equal(t, 0, store.Len())
}

// gatedStore parks the next GetSecret after it has read from the wrapped
// store, until the test releases it.
type gatedStore struct {
	keyring.CredentialStore

	mu      sync.Mutex
	read    chan struct{}
	release chan struct{}
}

func (g *gatedStore) arm() (read, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.read, g.release = make(chan struct{}), make(chan struct{})
	return g.read, g.release
}

func (g *gatedStore) Build(id keyring.Identity) (keyring.Credential, error) {
	cred, err := g.CredentialStore.Build(id)
	if err != nil {
		return nil, err
	}
	return &gatedCredential{Credential: cred, store: g}, nil
}

type gatedCredential struct {
	keyring.Credential
	store *gatedStore
}

func (c *gatedCredential) GetSecret() ([]byte, error) {
	secret, err := c.Credential.GetSecret()

	c.store.mu.Lock()
	read, release := c.store.read, c.store.release
	c.store.read, c.store.release = nil, nil
	c.store.mu.Unlock()

	if read != nil {
		close(read)
		<-release
	}
	return secret, err
}

func TestCacheLookupRacingWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		write   func(t *testing.T, store *Store, cred, direct keyring.Credential)
		want    string
		wantErr error
	}{
		{
			name: "set",
			write: func(t *testing.T, _ *Store, cred, _ keyring.Credential) {
				require.NoError(t, cred.SetSecret([]byte("B")))
			},
			want: "B",
		},
		{
			name: "delete",
			write: func(t *testing.T, _ *Store, cred, _ keyring.Credential) {
				require.NoError(t, cred.DeleteCredential())
			},
			wantErr: keyring.ErrNoEntry,
		},
		{
			name: "purge after write behind the cache",
			write: func(t *testing.T, store *Store, _, direct keyring.Credential) {
				require.NoError(t, direct.SetSecret([]byte("B")))
				store.Purge()
			},
			want: "B",
		},
		{
			name: "invalidate after write behind the cache",
			write: func(t *testing.T, store *Store, _, direct keyring.Credential) {
				require.NoError(t, direct.SetSecret([]byte("B")))
				store.Invalidate(keyring.NewIdentity("svc", "user"))
			},
			want: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := keyring.NewMockStore()
			gated := &gatedStore{CredentialStore: mock}
			store := New(gated, time.Minute)
			id := keyring.NewIdentity("svc", "user")

			cred, err := store.Build(id)
			require.NoError(t, err)
			direct, err := mock.Build(id)
			require.NoError(t, err)

			require.NoError(t, direct.SetSecret([]byte("A")))

			read, release := gated.arm()
			stale := make(chan []byte, 1)
			go func() {
				secret, _ := cred.GetSecret()
				stale <- secret
			}()

			<-read
			tt.write(t, store, cred, direct)
			close(release)
			assert.Equal(t, []byte("A"), <-stale)

			got, err := cred.GetSecret()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, 1, store.Len())
		})
	}
}
