package keyring

import "unicode/utf8"

// DecodePassword converts stored secret bytes to a password. Bytes that are
// not valid UTF-8 yield a BadEncoding error; the bytes remain reachable
// through GetSecret.
func DecodePassword(secret []byte) (string, error) {
	if !utf8.Valid(secret) {
		return "", &Error{Kind: BadEncoding, Message: "stored secret is not valid UTF-8"}
	}
	return string(secret), nil
}
