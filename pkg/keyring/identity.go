package keyring

import "fmt"

// Identity names a stored secret. It never carries the secret itself and
// is safe to log.
//
// Target is an optional backend-specific attribute (the Windows target
// name, a kernel key description, an extra Secret Service attribute). When
// empty, backends derive their lookup key from Service and User.
type Identity struct {
	Service string
	User    string
	Target  string
}

// NewIdentity returns the identity for service and user.
func NewIdentity(service, user string) Identity {
	return Identity{Service: service, User: user}
}

func (id Identity) String() string {
	if id.Target != "" {
		return fmt.Sprintf("%s@%s [%s]", id.User, id.Service, id.Target)
	}
	return fmt.Sprintf("%s@%s", id.User, id.Service)
}

// RequireNonEmpty rejects identities with an empty service or user. Stores
// that treat empty attributes as wildcards call it from Build.
func (id Identity) RequireNonEmpty() error {
	if id.Service == "" {
		return InvalidError("service", "must not be empty")
	}
	if id.User == "" {
		return InvalidError("user", "must not be empty")
	}
	return nil
}
