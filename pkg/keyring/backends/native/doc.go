// Package native registers the credential stores available on the build
// platform. Importing it registers them, with default options, in the
// process-wide keyring registry:
//
//	import _ "github.com/systmms/keyring/pkg/keyring/backends/native"
//
//	macOS, iOS   keychain
//	Windows      wincred
//	Linux        keyutils, secret-service
//	FreeBSD      secret-service
//	OpenBSD      secret-service
//
// Android and every other platform register nothing; entries there use the
// mock store.
//
// On Linux the kernel keyring outranks the Secret Service, so
// secret-service is used only when selected by name.
package native

import "github.com/systmms/keyring/pkg/keyring"

// Options tunes the stores RegisterAll creates. Fields for stores that do
// not exist on the build platform are ignored.
type Options struct {
	// KeyutilsScope is the kernel keyring scope: user, session, process
	// or thread.
	KeyutilsScope string
	// KeyutilsKeyring names a keyring below the scope keyring.
	KeyutilsKeyring string
	// SecretServiceCollection replaces the login collection.
	SecretServiceCollection string
	// WincredPersist is session, local_machine or enterprise.
	WincredPersist string
}

// Registered lists the stores registered in the process-wide registry.
var Registered []string

func init() {
	Registered = RegisterAll(keyring.DefaultRegistry(), Options{})
}

// RegisterAll registers the platform's stores in r and returns their names
// in registration order.
func RegisterAll(r *keyring.Registry, opts Options) []string {
	return registerPlatform(r, opts)
}
