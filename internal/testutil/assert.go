package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/keyring/pkg/keyring"
)

// AssertErrorKind verifies that err is a credential store error of kind.
func AssertErrorKind(t *testing.T, err error, kind keyring.ErrorKind) bool {
	t.Helper()

	if !assert.Error(t, err, "Expected a %s error", kind) {
		return false
	}
	return assert.Equal(t, kind.String(), keyring.KindOf(err).String(),
		"Unexpected error kind for %v", err)
}

// AssertNoSecretLeak verifies that none of the secrets appear in output.
func AssertNoSecretLeak(t *testing.T, output string, secrets []string) {
	t.Helper()

	for _, secret := range secrets {
		assert.NotContains(t, output, secret,
			"Secret %q leaked in output", secret)
	}
}

// AssertFileContainsAll verifies that the file at path contains every
// substring.
func AssertFileContainsAll(t *testing.T, path string, substrings []string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, "Failed to read file %s", path) {
		return
	}
	for _, s := range substrings {
		assert.Contains(t, string(data), s, "File %s should contain %q", path, s)
	}
}
