package auth

import (
	"errors"
	"net/http"

	apperrors "github.com/tickerbell/ticket-service/pkg/util/errorutil"
)

var (
	// ErrMalformedRequest is returned when login or refresh input cannot be parsed.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrInvalidCredentials is returned by the verifier for an unknown
	// username or a wrong password. The two cases are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationFailed terminates a login attempt.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrLoginThrottled is returned while a username is locked after repeated failures.
	ErrLoginThrottled = errors.New("too many failed login attempts")

	ErrMalformedToken    = errors.New("malformed token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
	ErrMissingToken      = errors.New("missing bearer token")
	// ErrUnauthenticated wraps every gate failure; the codec cause stays in the chain.
	ErrUnauthenticated = errors.New("unauthenticated")
)

var (
	errMalformedRequest     = apperrors.NewDomainError("MALFORMED_REQUEST", "request body is malformed", http.StatusBadRequest, nil)
	errAuthenticationFailed = apperrors.NewDomainError("AUTHENTICATION_FAILED", "invalid username or password", http.StatusUnauthorized, nil)
	errLoginThrottled       = apperrors.NewDomainError("TOO_MANY_ATTEMPTS", "too many failed login attempts, try again later", http.StatusTooManyRequests, nil)
	errMalformedToken       = apperrors.NewDomainError("MALFORMED_TOKEN", "token is invalid", http.StatusUnauthorized, nil)
	errTokenExpired         = apperrors.NewDomainError("TOKEN_EXPIRED", "token has expired", http.StatusUnauthorized, nil)
	errTokenTypeMismatch    = apperrors.NewDomainError("TOKEN_TYPE_MISMATCH", "token type is not accepted here", http.StatusUnauthorized, nil)
	errMissingToken         = apperrors.NewDomainError("MISSING_TOKEN", "bearer token required", http.StatusUnauthorized, nil)
)

// ToDomainError maps auth failures to the client-facing error they produce.
// Order matters: the most specific cause wins, so a gate failure that wraps
// ErrTokenExpired is reported as TOKEN_EXPIRED.
func ToDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMalformedRequest):
		return errMalformedRequest.Wrap(err)
	case errors.Is(err, ErrLoginThrottled):
		return errLoginThrottled.Wrap(err)
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrInvalidCredentials):
		return errAuthenticationFailed.Wrap(err)
	case errors.Is(err, ErrTokenExpired):
		return errTokenExpired.Wrap(err)
	case errors.Is(err, ErrTokenTypeMismatch):
		return errTokenTypeMismatch.Wrap(err)
	case errors.Is(err, ErrMissingToken):
		return errMissingToken.Wrap(err)
	case errors.Is(err, ErrMalformedToken):
		return errMalformedToken.Wrap(err)
	case errors.Is(err, ErrUnauthenticated):
		return apperrors.NewUnauthorized("unauthenticated")
	}
	return apperrors.MapError(err)
}
