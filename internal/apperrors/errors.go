package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the actor is not allowed to perform the requested action.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidTransition indicates that a document state change was requested
// from a state that does not permit it. The document is left unchanged.
var ErrInvalidTransition = errors.New("invalid document state transition")

// ErrTokenUsed indicates that an approval token has already driven a
// transition and can never be actionable again.
var ErrTokenUsed = errors.New("approval token already used")

// ErrConsentRequired signals that the public gateway needs all consent flags
// recorded before the requested action can run. It is a follow-up step, not a
// terminal failure.
var ErrConsentRequired = errors.New("consent acknowledgment required")

// ErrAdmissionRejected indicates that an upload exceeded the configured row or
// byte ceilings and was rejected before any row was processed.
var ErrAdmissionRejected = errors.New("upload rejected by admission control")

// ErrStorageUnavailable indicates the underlying storage failed mid-job; an
// in-flight import is aborted but already committed rows stay committed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrInternal indicates an unexpected internal error.
var ErrInternal = errors.New("internal error")

// AppError carries a status code alongside a message and the underlying
// cause. Repositories use it to surface storage failures with enough context
// for handlers.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
