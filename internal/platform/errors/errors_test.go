package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pscheid92/rumorpulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := ValidationError("invalid input")

	assert.Equal(t, TypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Nil(t, err.Cause)
	assert.NotNil(t, err.Context)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.False(t, err.Retryable())
	assert.Contains(t, err.Error(), "validation")
}

func TestAuthorizationError(t *testing.T) {
	err := AuthorizationError("bad signature")

	assert.Equal(t, TypeAuthorization, err.Type)
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus())
	assert.False(t, err.Retryable())
}

func TestUnavailableError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := UnavailableError("store down", cause)

	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
	assert.True(t, err.Retryable())
	assert.True(t, err.ToResponse().Retryable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRateLimitedError(t *testing.T) {
	err := RateLimitedError("slow down")

	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	assert.True(t, err.Retryable())
}

func TestInternalErrorWithoutCause(t *testing.T) {
	err := InternalError("something went wrong", nil)

	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.NotContains(t, err.Error(), "<nil>")
}

func TestWithContextChaining(t *testing.T) {
	err := NotFoundError("claim not found").
		WithField("claim_id", "abc").
		WithContext("attempt", 2)

	assert.Equal(t, "abc", err.Context["claim_id"])
	assert.Equal(t, 2, err.Context["attempt"])

	resp := err.ToResponse()
	assert.Equal(t, "claim not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Len(t, resp.Context, 2)
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   ErrorType
		status int
	}{
		{"voting closed", domain.ErrVotingClosed, TypeValidation, http.StatusBadRequest},
		{"invalid pubkey", fmt.Errorf("register: %w", domain.ErrInvalidPubKey), TypeValidation, http.StatusBadRequest},
		{"bad signature", domain.ErrInvalidSignature, TypeAuthorization, http.StatusForbidden},
		{"not creator", fmt.Errorf("delete: %w", domain.ErrNotCreator), TypeAuthorization, http.StatusForbidden},
		{"vote to see", domain.ErrVoteRequired, TypeAuthorization, http.StatusForbidden},
		{"claim missing", domain.ErrClaimNotFound, TypeNotFound, http.StatusNotFound},
		{"identity missing", domain.ErrIdentityNotFound, TypeNotFound, http.StatusNotFound},
		{"duplicate vote", fmt.Errorf("vote: %w", domain.ErrDuplicateVote), TypeConflict, http.StatusConflict},
		{"already registered", domain.ErrIdentityExists, TypeConflict, http.StatusConflict},
		{"vote rate", fmt.Errorf("vote: %w", domain.ErrRateLimited), TypeRateLimited, http.StatusTooManyRequests},
		{"store down", fmt.Errorf("query: %w", domain.ErrStoreUnavailable), TypeUnavailable, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, TypeUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), TypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.status, got.HTTPStatus())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromDomain_HidesWrappedDetail(t *testing.T) {
	err := FromDomain(fmt.Errorf("pg: relation votes: %w", domain.ErrDuplicateVote))

	assert.Equal(t, domain.ErrDuplicateVote.Error(), err.Message)
}

func TestFromDomain_PassesStructuredErrorThrough(t *testing.T) {
	original := ValidationError("content too long")
	wrapped := fmt.Errorf("handler: %w", original)

	assert.Same(t, original, FromDomain(wrapped))
	assert.Nil(t, FromDomain(nil))
}
