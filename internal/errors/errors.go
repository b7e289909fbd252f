// Package errors defines the error taxonomy shared by the resolution and
// dispatch layers. Every failure that reaches the user carries a stable Code;
// the top-level command converts it into a localized message and exit status.
package errors

import (
	"errors"
	"fmt"
)

// Code is a stable error code string.
type Code string

const (
	// ERegistry covers network failures and non-success registry responses.
	ERegistry Code = "E_REGISTRY"
	// EInstall covers install capability failures. Never retried.
	EInstall Code = "E_INSTALL"
	// EEntryNotFound means the package has no manifest or no main field.
	EEntryNotFound Code = "E_ENTRY_NOT_FOUND"
	// EUnknownCommand means no package is mapped to the command name.
	EUnknownCommand Code = "E_UNKNOWN_COMMAND"
	// EDispatch means the child process could not be spawned or died abnormally.
	EDispatch Code = "E_DISPATCH"
	// EConfig covers unusable home directories and configuration.
	EConfig Code = "E_CONFIG"
	// EInvalidPackage means a package spec failed validation.
	EInvalidPackage Code = "E_INVALID_PACKAGE"
)

// CLIError is the standard error type for classified failures.
type CLIError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns "CODE: message" followed by the cause, if any.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given code and message.
func New(code Code, msg string) error {
	return &CLIError{Code: code, Msg: msg}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) error {
	return &CLIError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NewWithDetails creates a new CLIError with code, message, and details.
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &CLIError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new CLIError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &CLIError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new CLIError wrapping err with details.
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &CLIError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the outermost error code, or "" if err is not a CLIError.
func GetCode(err error) Code {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var ce *CLIError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Cause
	}
	return false
}

// AsCLIError returns (*CLIError, true) if err is or wraps a CLIError.
func AsCLIError(err error) (*CLIError, bool) {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
