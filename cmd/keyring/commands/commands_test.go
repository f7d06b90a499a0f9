package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/testutil"
	"github.com/systmms/keyring/pkg/keyring"
)

func newTestEnv(def *config.Definition) *Env {
	if def == nil {
		def = &config.Definition{}
	}
	return &Env{
		Config:   &config.Config{Definition: def},
		Registry: keyring.NewRegistry(),
	}
}

func execute(t *testing.T, env *Env, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand(env, "test")

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--no-color"}, args...))

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func mockStore(t *testing.T, env *Env) *keyring.MockStore {
	t.Helper()
	store, err := env.Registry.Store(keyring.MockBackend)
	require.NoError(t, err)
	mock, ok := store.(*keyring.MockStore)
	require.True(t, ok)
	return mock
}

func TestSetGetDelete(t *testing.T) {
	env := newTestEnv(nil)
	id := []string{"-s", "my-service", "-u", "my-name"}

	_, stderr, err := execute(t, env, "", append(id, "set", "topS3cr3tP4$$w0rd")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "stored my-name@my-service in mock")

	stdout, _, err := execute(t, env, "", append(id, "get")...)
	require.NoError(t, err)
	assert.Equal(t, "topS3cr3tP4$$w0rd", stdout)

	_, _, err = execute(t, env, "", append(id, "delete")...)
	require.NoError(t, err)

	_, _, err = execute(t, env, "", append(id, "get")...)
	require.Error(t, err)
	testutil.AssertErrorKind(t, err, keyring.NoEntry)
	assert.Contains(t, err.Error(), "mock: get failed: no entry")
	assert.Contains(t, err.Error(), "keyring set")

	_, _, err = execute(t, env, "", append(id, "delete")...)
	assert.True(t, errors.Is(err, keyring.ErrNoEntry))
}

func TestSetFromStdin(t *testing.T) {
	env := newTestEnv(nil)

	_, _, err := execute(t, env, "first line\r\nsecond line\n", "-s", "svc", "-u", "alice", "set")
	require.NoError(t, err)

	stdout, _, err := execute(t, env, "", "-s", "svc", "-u", "alice", "get")
	require.NoError(t, err)
	assert.Equal(t, "first line", stdout)

	_, _, err = execute(t, env, "", "-s", "svc", "-u", "alice", "set")
	var ue kerrors.UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "No value given", ue.Message)
}

func TestBinarySecrets(t *testing.T) {
	env := newTestEnv(nil)
	id := []string{"-s", "svc", "-u", "bob", "--target", "blob"}

	_, _, err := execute(t, env, "", append(id, "set", "--binary", "AAEC/w==")...)
	require.NoError(t, err)

	_, _, err = execute(t, env, "", append(id, "get")...)
	require.Error(t, err)
	testutil.AssertErrorKind(t, err, keyring.BadEncoding)
	assert.Contains(t, err.Error(), "--binary")

	stdout, _, err := execute(t, env, "", append(id, "get", "--binary")...)
	require.NoError(t, err)
	assert.Equal(t, "AAEC/w==\n", stdout)

	_, _, err = execute(t, env, "", append(id, "set", "--binary", "not base64!")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid base64")
}

func TestEntryErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing service",
			args: []string{"-u", "bob", "get"},
			check: func(t *testing.T, err error) {
				var ue kerrors.UserError
				require.ErrorAs(t, err, &ue)
				assert.Equal(t, "Service is required", ue.Message)
			},
		},
		{
			name: "unknown backend",
			args: []string{"-b", "nope", "-s", "svc", "-u", "bob", "get"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, keyring.ErrBackendNotRegistered))
				assert.Contains(t, err.Error(), "keyring backends")
			},
		},
		{
			name: "unexpected argument",
			args: []string{"-s", "svc", "-u", "bob", "get", "extra"},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "unknown command")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, newTestEnv(nil), "", tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestEmptyUserIsDecidedByStore(t *testing.T) {
	env := newTestEnv(nil)
	env.Registry.Register("strict", keyring.PriorityCustom+1, func() (keyring.CredentialStore, error) {
		return keyring.NewMockStore(keyring.WithMockName("strict"), keyring.WithNonEmptyIdentity()), nil
	})

	_, _, err := execute(t, env, "", "-b", keyring.MockBackend, "-s", "svc", "set", "no-user")
	require.NoError(t, err)

	stdout, _, err := execute(t, env, "", "-b", keyring.MockBackend, "-s", "svc", "get")
	require.NoError(t, err)
	assert.Equal(t, "no-user", stdout)

	_, _, err = execute(t, env, "", "-b", "strict", "-s", "svc", "get")
	require.Error(t, err)
	testutil.AssertErrorKind(t, err, keyring.Invalid)
	assert.Contains(t, err.Error(), "strict: build failed: invalid: user must not be empty")
}

func TestInjectedStoreFailure(t *testing.T) {
	env := newTestEnv(nil)
	id := []string{"-s", "svc", "-u", "carol"}

	_, _, err := execute(t, env, "", append(id, "set", "hunter2")...)
	require.NoError(t, err)

	mockStore(t, env).FailNext(keyring.OpGetSecret, keyring.NoStorageAccessError(errors.New("collection is locked")))

	_, _, err = execute(t, env, "", append(id, "get")...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, keyring.ErrNoStorageAccess))
	assert.Contains(t, err.Error(), "collection is locked")
	assert.Contains(t, err.Error(), "Unlock your keyring")

	stdout, _, err := execute(t, env, "", append(id, "get")...)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", stdout)
}

func TestDecoratedChain(t *testing.T) {
	builder := testutil.NewTestConfig(t).
		WithSerialize().
		WithCache("1m").
		WithMetricsTextfile()
	env := newTestEnv(builder.Build())
	id := []string{"-s", "svc", "-u", "dave"}

	_, _, err := execute(t, env, "", append(id, "set", "s3cret")...)
	require.NoError(t, err)

	stdout, stderr, err := execute(t, env, "", append(id, "--debug", "get")...)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", stdout)
	assert.Contains(t, stderr, "wrote metrics to")
	testutil.AssertNoSecretLeak(t, stderr, []string{"s3cret"})

	testutil.AssertFileContainsAll(t, builder.MetricsPath(), []string{
		`keyring_operations_total{backend="mock",operation="get_secret",result="ok"} 1`,
		`keyring_operations_total{backend="mock",operation="build",result="ok"} 1`,
		`keyring_operation_duration_seconds_count{backend="mock",operation="get_secret"} 1`,
	})
	data, err := os.ReadFile(builder.MetricsPath())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "set_secret")
}

func TestBackends(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		stdout, _, err := execute(t, newTestEnv(nil), "", "backends")
		require.NoError(t, err)
		assert.Contains(t, stdout, "NAME")
		assert.Contains(t, stdout, "mock")
		assert.Contains(t, stdout, "default")
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(nil)
		env.Registry.Register("broken", keyring.PriorityCustom, func() (keyring.CredentialStore, error) {
			return nil, errors.New("no daemon")
		})

		stdout, _, err := execute(t, env, "", "backends", "--json")
		require.NoError(t, err)

		var out []backendOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		require.Len(t, out, 2)

		assert.Equal(t, "broken", out[0].Name)
		assert.Equal(t, "no daemon", out[0].Error)
		assert.False(t, out[0].Default)

		assert.Equal(t, keyring.MockBackend, out[1].Name)
		assert.Equal(t, int(keyring.PriorityMock), out[1].Priority)
		assert.True(t, out[1].Default)
		assert.True(t, out[1].Applicable)
	})
}

func TestConfigFlag(t *testing.T) {
	path := testutil.NewTestConfig(t).WithBackend("mock").WithSerialize().Write()

	env := &Env{Registry: keyring.NewRegistry()}
	_, _, err := execute(t, env, "", "--config", path, "-s", "svc", "-u", "erin", "set", "pw")
	require.NoError(t, err)
	assert.Equal(t, "mock", env.Config.Definition.Backend)
	assert.True(t, env.Config.Definition.Serialize)

	bad := testutil.WriteTestConfig(t, "version: 3\n")

	_, _, err = execute(t, &Env{Registry: keyring.NewRegistry()}, "", "--config", bad, "backends")
	var ce kerrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "version", ce.Field)
}
