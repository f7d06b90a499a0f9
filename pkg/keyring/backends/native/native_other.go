//go:build !darwin && !windows && (!linux || android) && !freebsd && !openbsd

package native

import "github.com/systmms/keyring/pkg/keyring"

func registerPlatform(*keyring.Registry, Options) []string {
	return nil
}
