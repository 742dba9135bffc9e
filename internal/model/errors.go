package model

import "fmt"

// UnknownOverlayError indicates that a selection or a transitive requirement
// references an overlay ID absent from the registry. It is fatal and raised
// before any merge work starts.
type UnknownOverlayError struct {
	// ID is the overlay ID that could not be found.
	ID string

	// RequiredBy is the overlay whose requires list referenced the missing
	// ID. Empty when the ID came directly from the user's selection.
	RequiredBy string
}

// Error satisfies the error interface.
func (e *UnknownOverlayError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("unknown overlay %q (required by %q)", e.ID, e.RequiredBy)
	}
	return fmt.Sprintf("unknown overlay %q", e.ID)
}

// ConflictError indicates that two overlays in the resolved closure declare
// each other (directly or via a transitive requirement chain) in conflicts.
// Both IDs are named so the caller can present a resolution choice.
type ConflictError struct {
	// A and B are the two conflicting overlay IDs. A is the overlay whose
	// conflicts declaration triggered the failure.
	A string
	B string
}

// Error satisfies the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlays %q and %q conflict and cannot be combined", e.A, e.B)
}

// ExitCode defines the CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUnknownOverlay indicates the selection referenced an overlay ID
	// absent from the registry.
	ExitUnknownOverlay ExitCode = 2

	// ExitConflict indicates two selected (or transitively required)
	// overlays conflict.
	ExitConflict ExitCode = 3

	// ExitOverlayDirInvalid indicates the overlays directory could not be
	// loaded (missing directory, malformed overlay.yml, invalid metadata).
	ExitOverlayDirInvalid ExitCode = 4

	// ExitWriteFailed indicates the composed output could not be written.
	ExitWriteFailed ExitCode = 5
)

// CLIError is a custom error type that carries an exit code, allowing the
// CLI layer to translate domain errors into process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
