// Package keyring stores, retrieves and deletes secrets in whatever
// credential store the host platform offers, behind one API.
//
// # Entries
//
// An Entry binds an Identity (service and user, plus an optional
// backend-specific target) to a store chosen when the entry is created:
//
//	entry, err := keyring.New("my-service", "my-name")
//	if err != nil {
//	    return err
//	}
//	if err := entry.SetPassword("topS3cr3tP4$$w0rd"); err != nil {
//	    return err
//	}
//	password, err := entry.GetPassword()
//
// Passwords are stored as UTF-8 bytes. SetSecret and GetSecret move
// arbitrary bytes; GetPassword on bytes that are not UTF-8 fails with
// BadEncoding.
//
// # Stores and the registry
//
// A CredentialStore builds Credential handles for identities. Stores are
// registered by name with a priority, usually from an init function in
// their package; import github.com/systmms/keyring/pkg/keyring/backends/native
// to register every store available on the build platform. When no name is
// given, the highest priority store that supports the current platform
// serves new entries, and the in-memory mock store is the fallback.
//
// Selecting a store that is not registered, or that does not support the
// current platform, fails with a PlatformFailure error wrapping
// ErrBackendNotRegistered or ErrBackendUnsupported.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of PlatformFailure,
// NoStorageAccess, NoEntry, BadEncoding, TooLong, Invalid or Ambiguous:
//
//	if errors.Is(err, keyring.ErrNoEntry) {
//	    // nothing stored yet
//	}
//
// # Concurrency
//
// All operations are synchronous. Entries may be used from several
// goroutines; whether concurrent operations on the same identity are
// ordered depends on the store (see each backend package).
package keyring
