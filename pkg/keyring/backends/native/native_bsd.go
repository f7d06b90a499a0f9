//go:build freebsd || openbsd

package native

import (
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/secretservice"
)

func registerPlatform(r *keyring.Registry, opts Options) []string {
	registerSecretService(r, opts)
	return []string{secretservice.Name}
}
