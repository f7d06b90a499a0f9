//go:build !android

package native

import (
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/keyutils"
	"github.com/systmms/keyring/pkg/keyring/backends/secretservice"
)

func registerPlatform(r *keyring.Registry, opts Options) []string {
	var keyOpts []keyutils.Option
	if opts.KeyutilsScope != "" {
		keyOpts = append(keyOpts, keyutils.WithScope(opts.KeyutilsScope))
	}
	if opts.KeyutilsKeyring != "" {
		keyOpts = append(keyOpts, keyutils.WithKeyringName(opts.KeyutilsKeyring))
	}
	r.Register(keyutils.Name, keyring.PriorityKernelKeyring, func() (keyring.CredentialStore, error) {
		return keyutils.New(keyOpts...), nil
	})
	registerSecretService(r, opts)
	return []string{keyutils.Name, secretservice.Name}
}
