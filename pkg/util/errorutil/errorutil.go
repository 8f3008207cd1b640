package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the grievance core.
const (
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeMissingAssignment    = "MISSING_ASSIGNMENT"
	CodeAssignmentNotAllowed = "ASSIGNMENT_NOT_ALLOWED"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeTicketClosed         = "TICKET_CLOSED"
	CodeNotFound             = "NOT_FOUND"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors across the service.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidTransition signals a status edge outside the lifecycle table.
// Current and requested status travel in Details so the caller can render a
// precise error.
func NewInvalidTransition(current, requested string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", current, requested),
		http.StatusUnprocessableEntity,
		map[string]any{"current_status": current, "requested_status": requested})
}

// NewMissingAssignment signals a transition to assigned without an officer.
func NewMissingAssignment() error {
	return NewDomainError(CodeMissingAssignment,
		"transition to assigned requires an officer",
		http.StatusUnprocessableEntity, nil)
}

// NewAssignmentNotAllowed signals assignment past the assignable window.
func NewAssignmentNotAllowed(current string) error {
	return NewDomainError(CodeAssignmentNotAllowed,
		fmt.Sprintf("ticket in status %s cannot be assigned", current),
		http.StatusUnprocessableEntity,
		map[string]any{"current_status": current})
}

// NewVersionConflict signals a stale expected version. The caller must
// refetch and retry; the core never retries on its own.
func NewVersionConflict(expected, actual int64) error {
	return NewDomainError(CodeVersionConflict,
		"ticket was modified by another writer",
		http.StatusConflict,
		map[string]any{"expected_version": expected, "actual_version": actual})
}

// NewTicketClosed signals any mutation attempted on a closed ticket.
func NewTicketClosed(ticketID string) error {
	return NewDomainError(CodeTicketClosed,
		"closed tickets accept no further updates",
		http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

// NewNotFound reports a missing resource.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewValidationError reports a malformed request.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewUnauthorized reports a missing or invalid credential.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewForbidden reports an authenticated caller without access.
func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
