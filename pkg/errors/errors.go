package errors

import "fmt"

// KyaniteError is the interface implemented by all Kyanite errors.
type KyaniteError interface {
	error         // Embed the standard error interface
	Kind() string // e.g., "Registration", "Runtime"
	// Message returns the specific error message without the kind prefix.
	// This might be useful if the caller wants to format the error differently.
	Message() string
	Unwrap() error // For error wrapping support (errors.Is/As)
}

// --- Concrete Error Types ---

// RegistrationError represents a malformed class definition rejected at
// registration time.
type RegistrationError struct {
	ClassName string
	Msg       string
	Cause     error // Underlying cause, if any
}

func (e *RegistrationError) Error() string {
	if e.ClassName == "" {
		return fmt.Sprintf("Registration Error: %s", e.Msg)
	}
	return fmt.Sprintf("Registration Error: class %q: %s", e.ClassName, e.Msg)
}
func (e *RegistrationError) Kind() string    { return "Registration" }
func (e *RegistrationError) Message() string { return e.Msg }
func (e *RegistrationError) Unwrap() error   { return e.Cause }
func (e *RegistrationError) CausedBy(cause error) *RegistrationError {
	e.Cause = cause
	return e
}

// RuntimeError represents an error during engine execution that is not a
// script-level exception (those travel as thrown values instead).
type RuntimeError struct {
	Msg   string
	Cause error // Underlying cause, if any
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("Runtime Error: %s", e.Msg)
}
func (e *RuntimeError) Kind() string    { return "Runtime" }
func (e *RuntimeError) Message() string { return e.Msg }
func (e *RuntimeError) Unwrap() error   { return e.Cause }
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// --- Helper constructors ---

func NewRegistrationError(className, format string, args ...interface{}) *RegistrationError {
	return &RegistrationError{ClassName: className, Msg: fmt.Sprintf(format, args...)}
}

func NewRuntimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}
