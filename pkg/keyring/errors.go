package keyring

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a credential store can report.
type ErrorKind int

const (
	// PlatformFailure covers underlying platform errors that fit no other
	// kind, and dispatcher configuration mistakes.
	PlatformFailure ErrorKind = iota
	// NoStorageAccess means the store exists but cannot be reached
	// (locked, no session bus, permission denied).
	NoStorageAccess
	// NoEntry means no credential matches the identity.
	NoEntry
	// BadEncoding means a password was requested but the stored bytes are
	// not valid UTF-8.
	BadEncoding
	// TooLong means an attribute or the secret exceeds a store limit.
	TooLong
	// Invalid means an attribute is malformed for this store.
	Invalid
	// Ambiguous means the lookup matched more than one stored item.
	Ambiguous
)

var kindNames = map[ErrorKind]string{
	PlatformFailure: "platform failure",
	NoStorageAccess: "no storage access",
	NoEntry:         "no entry",
	BadEncoding:     "bad encoding",
	TooLong:         "too long",
	Invalid:         "invalid",
	Ambiguous:       "ambiguous",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by entries and stores.
//
// Kind is what callers branch on; Err carries the platform detail and
// Message a human readable diagnostic.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoEntry)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Kind sentinels for use with errors.Is.
var (
	ErrPlatformFailure = &Error{Kind: PlatformFailure}
	ErrNoStorageAccess = &Error{Kind: NoStorageAccess}
	ErrNoEntry         = &Error{Kind: NoEntry}
	ErrBadEncoding     = &Error{Kind: BadEncoding}
	ErrTooLong         = &Error{Kind: TooLong}
	ErrInvalid         = &Error{Kind: Invalid}
	ErrAmbiguous       = &Error{Kind: Ambiguous}
)

// Dispatcher configuration errors. They surface wrapped in a
// PlatformFailure.
var (
	ErrBackendNotRegistered = errors.New("credential store not registered")
	ErrBackendUnsupported   = errors.New("credential store does not support this platform")
)

// NewError builds an error of the given kind.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidError reports a malformed attribute.
func InvalidError(attr, reason string) *Error {
	return &Error{Kind: Invalid, Message: fmt.Sprintf("%s %s", attr, reason)}
}

// TooLongError reports an attribute or secret exceeding limit.
func TooLongError(attr string, limit int) *Error {
	return &Error{Kind: TooLong, Message: fmt.Sprintf("%s exceeds %d", attr, limit)}
}

// AmbiguousError reports a lookup that matched count items.
func AmbiguousError(count int) *Error {
	return &Error{Kind: Ambiguous, Message: fmt.Sprintf("%d credentials match", count)}
}

// NoEntryError reports a missing credential.
func NoEntryError(err error) *Error {
	return &Error{Kind: NoEntry, Err: err}
}

// NoStorageAccessError wraps a failure to reach the store.
func NoStorageAccessError(err error) *Error {
	return &Error{Kind: NoStorageAccess, Err: err}
}

// PlatformError wraps an unclassified platform failure.
func PlatformError(err error) *Error {
	return &Error{Kind: PlatformFailure, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error report
// PlatformFailure. KindOf(nil) is meaningless and also reports
// PlatformFailure.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return PlatformFailure
}

// Wrap normalizes err into an *Error. Existing *Error values pass through;
// anything else becomes a PlatformFailure carrying err.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return PlatformError(err)
}
