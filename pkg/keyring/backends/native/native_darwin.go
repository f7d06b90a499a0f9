package native

import (
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/keychain"
)

func registerPlatform(r *keyring.Registry, _ Options) []string {
	r.Register(keychain.Name, keyring.PriorityNative, keychain.Factory)
	return []string{keychain.Name}
}
