//go:build (linux && !android) || freebsd || openbsd

package native

import (
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/secretservice"
)

func registerSecretService(r *keyring.Registry, opts Options) {
	var ssOpts []secretservice.Option
	if opts.SecretServiceCollection != "" {
		ssOpts = append(ssOpts, secretservice.WithCollection(opts.SecretServiceCollection))
	}
	r.Register(secretservice.Name, keyring.PrioritySecretService, func() (keyring.CredentialStore, error) {
		return secretservice.New(ssOpts...), nil
	})
}
