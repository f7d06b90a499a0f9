package native

import (
	dwincred "github.com/danieljoos/wincred"

	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/backends/wincred"
)

var persistence = map[string]dwincred.CredentialPersistence{
	"session":       dwincred.PersistSession,
	"local_machine": dwincred.PersistLocalMachine,
	"enterprise":    dwincred.PersistEnterprise,
}

func registerPlatform(r *keyring.Registry, opts Options) []string {
	var storeOpts []wincred.Option
	if p, ok := persistence[opts.WincredPersist]; ok {
		storeOpts = append(storeOpts, wincred.WithPersistence(p))
	}
	r.Register(wincred.Name, keyring.PriorityNative, func() (keyring.CredentialStore, error) {
		return wincred.New(storeOpts...), nil
	})
	return []string{wincred.Name}
}
