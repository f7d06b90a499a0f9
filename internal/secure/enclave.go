package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed buffer is read.
var ErrDestroyed = errors.New("secure buffer destroyed")

// SecureBuffer keeps a secret sealed in a memguard enclave while it is
// resident in process memory (mock store entries, cached lookups).
//
// memguard refuses to create zero-length enclaves, so an empty secret is
// tracked by the empty flag instead of an enclave.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	empty     bool
	destroyed bool
}

// NewSecureBuffer seals a copy of data. The caller's slice is left intact;
// memguard wipes the copy it is handed.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	if len(data) == 0 {
		return &SecureBuffer{empty: true}, nil
	}

	plain := make([]byte, len(data))
	copy(plain, data)

	return &SecureBuffer{
		enclave: memguard.NewEnclave(plain),
		size:    len(data),
	}, nil
}

// Open decrypts the enclave into a locked buffer. The caller must call
// Destroy on the returned buffer.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.empty {
		return memguard.NewBuffer(0), nil
	}
	return s.enclave.Open()
}

// Bytes returns a plain copy of the sealed secret. The copy is owned by the
// caller and is outside memguard's protection.
func (s *SecureBuffer) Bytes() ([]byte, error) {
	locked, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer locked.Destroy()

	out := make([]byte, locked.Size())
	copy(out, locked.Bytes())
	return out, nil
}

// Len reports the size of the sealed secret.
func (s *SecureBuffer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Destroy drops the enclave. It is idempotent; use memguard.Purge at
// process exit to wipe the key material as well.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.size = 0
	s.destroyed = true
}
