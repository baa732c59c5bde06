package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tickerbell/ticket-service/pkg/util/errorutil"
)

func TestToDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("%w: bad json", ErrMalformedRequest), "MALFORMED_REQUEST", http.StatusBadRequest},
		{fmt.Errorf("%w: %w", ErrAuthenticationFailed, ErrInvalidCredentials), "AUTHENTICATION_FAILED", http.StatusUnauthorized},
		{ErrLoginThrottled, "TOO_MANY_ATTEMPTS", http.StatusTooManyRequests},
		{fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired), "TOKEN_EXPIRED", http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenTypeMismatch), "TOKEN_TYPE_MISMATCH", http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMalformedToken), "MALFORMED_TOKEN", http.StatusUnauthorized},
		{ErrMissingToken, "MISSING_TOKEN", http.StatusUnauthorized},
		{errors.New("pool exhausted"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var de *apperrors.DomainError
		require.True(t, errors.As(ToDomainError(tc.err), &de), tc.err.Error())
		assert.Equal(t, tc.code, de.Code, tc.err.Error())
		assert.Equal(t, tc.status, de.HTTPStatus, tc.err.Error())
		assert.ErrorIs(t, de, tc.err)
	}
	assert.Nil(t, ToDomainError(nil))
}

func TestToDomainErrorDoesNotLeakCause(t *testing.T) {
	de := apperrors.ToDomainError(ToDomainError(fmt.Errorf("%w: %w", ErrAuthenticationFailed, ErrInvalidCredentials)))
	assert.Equal(t, "invalid username or password", de.Message)
	assert.Equal(t, errAuthenticationFailed.Message, de.Message)
	assert.Nil(t, errAuthenticationFailed.Err)
}
