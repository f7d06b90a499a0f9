// Package secure keeps secrets sealed while they live in process memory.
//
// It wraps memguard so that credential bytes held by the in-memory mock
// store and the lookup cache are:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Excluded from swap via mlock where the platform allows it
//   - Wiped by memguard.Purge at process exit
//
// # Usage
//
//	buf, err := secure.NewSecureBuffer(secret)
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//
//	plain, err := buf.Bytes()
//
// Bytes hands back an ordinary slice, which is what the credential store
// contract returns to callers. Use Open when the plaintext should stay in a
// locked buffer.
//
// It does NOT protect against attackers with access to the running process
// or against hardware-level attacks.
package secure
