package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// kinds of failure a sync component may report; match with errors.Is
	ErrStorage    = errors.New("storage error")
	ErrNetwork    = errors.New("network error")
	ErrValidation = errors.New("validation error")
	ErrPermission = errors.New("permission error")
)

// StorageError reports a Durable Store failure (open, transaction, I/O).
// The transaction that produced it has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// NetworkError reports a failed Remote API call. StatusCode is zero when the
// request never produced a response.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// Retryable reports whether the failure is transient: no response at all,
// a server error, a timeout or rate limiting.
func (e *NetworkError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	}
	return false
}

// ValidationError reports malformed input: a missing field, an unknown
// outbox operation or a payload the Remote API rejects.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	msg := "validation"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// PermissionError reports that a capability (background triggers, the
// notification bridge) is unavailable in the current environment.
type PermissionError struct {
	Capability string
	Err        error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("permission: %s unavailable", e.Capability)
	}
	return fmt.Sprintf("permission: %s unavailable: %v", e.Capability, e.Err)
}

func (e *PermissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPermission}
	}
	return []error{ErrPermission, e.Err}
}

// IsRetryable reports whether err is worth retrying on a later pass.
// Only network failures qualify, and only transient ones.
func IsRetryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable()
	}
	return false
}
