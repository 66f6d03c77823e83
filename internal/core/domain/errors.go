// Package domain defines the core domain models for toptube.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is a classified failure carrying a structured error code.
// Codes have the form TT-<AREA>-<NNNN>; the last four digits follow the
// HTTP status family the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "TT-SNAP-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Snapshot resolution errors (SNAP)
// ============================================================================

var (
	// ErrNoLatestPointer indicates the region has no recorded current snapshot.
	ErrNoLatestPointer = NewDomainError("TT-SNAP-4040", "no latest snapshot for region")

	// ErrSnapshotDocumentMissing indicates no document exists for the composite id.
	// After a pointer hit it signals pointer/document skew.
	ErrSnapshotDocumentMissing = NewDomainError("TT-SNAP-4041", "snapshot not found")

	// ErrLatestPointerMissingDate indicates a pointer without a usable date field.
	ErrLatestPointerMissingDate = NewDomainError("TT-SNAP-5001", "latest pointer has no date")

	// ErrSnapshotDocumentMalformed indicates a stored snapshot that cannot be decoded.
	ErrSnapshotDocumentMalformed = NewDomainError("TT-SNAP-5002", "snapshot document malformed")
)

// ============================================================================
// System errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("TT-SYS-5000", "internal server error")

	// ErrStoreUnavailable indicates the snapshot store could not be reached.
	// Callers decide whether to retry.
	ErrStoreUnavailable = NewDomainError("TT-SYS-5030", "snapshot store unavailable")

	// ErrRouteNotFound indicates an unknown API route.
	ErrRouteNotFound = NewDomainError("TT-SYS-4040", "not found")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TT-SYS-4290", "too many requests")
)

// ============================================================================
// Argument errors (ARG)
// ============================================================================

var (
	// ErrInvalidInput indicates an empty or syntactically malformed argument.
	ErrInvalidInput = NewDomainError("TT-ARG-4001", "invalid input")
)
