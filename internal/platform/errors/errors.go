// Package errors provides structured error handling with context propagation and HTTP status code mapping.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pscheid92/rumorpulse/internal/domain"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates malformed or out-of-range input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeAuthorization indicates an invalid signature or identity mismatch (HTTP 403)
	TypeAuthorization ErrorType = "authorization"
	// TypeNotFound indicates an unknown claim or identity (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates the operation already happened (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeRateLimited indicates the caller is sending too fast (HTTP 429)
	TypeRateLimited ErrorType = "rate_limited"
	// TypeUnavailable indicates a transient store failure (HTTP 503)
	TypeUnavailable ErrorType = "unavailable"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *Error) Retryable() bool {
	return e.Type == TypeUnavailable || e.Type == TypeRateLimited
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// AuthorizationError creates a new authorization error (HTTP 403).
func AuthorizationError(message string) *Error {
	return newError(TypeAuthorization, message, nil)
}

// NotFoundError creates a new not-found error (HTTP 404).
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// RateLimitedError creates a new retryable error (HTTP 429).
func RateLimitedError(message string) *Error {
	return newError(TypeRateLimited, message, nil)
}

// ConflictError creates a new conflict error (HTTP 409).
func ConflictError(message string) *Error {
	return newError(TypeConflict, message, nil)
}

// UnavailableError creates a new retryable error (HTTP 503).
func UnavailableError(message string, cause error) *Error {
	return newError(TypeUnavailable, message, cause)
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithField is an alias for WithContext (chainable).
func (e *Error) WithField(key string, value any) *Error {
	return e.WithContext(key, value)
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Type      ErrorType      `json:"type"`
	Retryable bool           `json:"retryable,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Type:      e.Type,
		Retryable: e.Retryable(),
		Context:   e.Context,
	}
}

// domainTypes maps domain sentinel errors onto the error taxonomy.
var domainTypes = []struct {
	target error
	typ    ErrorType
}{
	{domain.ErrInvalidInput, TypeValidation},
	{domain.ErrInvalidPubKey, TypeValidation},
	{domain.ErrVotingClosed, TypeValidation},
	{domain.ErrInvalidSignature, TypeAuthorization},
	{domain.ErrNotCreator, TypeAuthorization},
	{domain.ErrVoteRequired, TypeAuthorization},
	{domain.ErrIdentityNotFound, TypeNotFound},
	{domain.ErrClaimNotFound, TypeNotFound},
	{domain.ErrIdentityExists, TypeConflict},
	{domain.ErrDuplicateVote, TypeConflict},
	{domain.ErrAlreadyFinalized, TypeConflict},
	{domain.ErrRateLimited, TypeRateLimited},
	{domain.ErrStoreUnavailable, TypeUnavailable},
	{context.DeadlineExceeded, TypeUnavailable},
}

// FromDomain classifies err by the domain sentinel it wraps. The message is
// the sentinel's text so internal detail never reaches clients.
// Unknown errors become internal errors.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	for _, m := range domainTypes {
		if errors.Is(err, m.target) {
			if m.typ == TypeUnavailable {
				return UnavailableError("service temporarily unavailable", err)
			}
			return &Error{Type: m.typ, Message: m.target.Error(), Cause: err, Context: make(map[string]any)}
		}
	}

	return InternalError("internal server error", err)
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Domain errors are classified via FromDomain.
func AsStructuredError(err error) *Error {
	return FromDomain(err)
}
