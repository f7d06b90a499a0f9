package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/keyring/pkg/keyring"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// KeyringError turns a credential store failure into a UserError naming the
// error kind, the platform detail and a suggestion for the user.
func KeyringError(backend, operation string, err error) error {
	if err == nil {
		return nil
	}

	var kerr *keyring.Error
	if !errors.As(err, &kerr) {
		return UserError{
			Message: fmt.Sprintf("%s: %s failed", backend, operation),
			Details: err.Error(),
			Err:     err,
		}
	}

	msg := fmt.Sprintf("%s: %s failed: %s", backend, operation, kerr.Kind)
	if kerr.Message != "" {
		msg += ": " + kerr.Message
	}

	ue := UserError{
		Message:    msg,
		Suggestion: keyringSuggestion(kerr),
		Err:        err,
	}
	if kerr.Err != nil {
		ue.Details = kerr.Err.Error()
	}
	return ue
}

func keyringSuggestion(err *keyring.Error) string {
	switch err.Kind {
	case keyring.NoEntry:
		return "Store a value first with 'keyring set', or check the service and user names"
	case keyring.Ambiguous:
		return "Several stored items match; pass --target to pick one or remove the duplicates"
	case keyring.BadEncoding:
		return "The secret is binary; read it with 'keyring get --binary'"
	case keyring.TooLong:
		return "Shorten the value or choose a store with larger limits with --backend"
	case keyring.Invalid:
		return "Check the service, user and target values for this store"
	case keyring.NoStorageAccess:
		return "Unlock your keyring or start the credential service, then retry"
	case keyring.PlatformFailure:
		switch {
		case errors.Is(err, keyring.ErrBackendNotRegistered):
			return "Run 'keyring backends' to list the available stores"
		case errors.Is(err, keyring.ErrBackendUnsupported):
			return "This store does not run on this platform; run 'keyring backends'"
		}
	}
	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return err
	}

	errStr := err.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "illegal base64") {
		return UserError{
			Message:    "Value is not valid base64",
			Suggestion: "Encode binary secrets with 'base64' before passing --binary",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
