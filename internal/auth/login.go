package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tickerbell/ticket-service/internal/api/dto"
	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/events"
	"github.com/tickerbell/ticket-service/internal/repository"
)

// LoginState is the position of a login attempt in its state machine.
type LoginState string

const (
	StateAwaitingCredentials LoginState = "AWAITING_CREDENTIALS"
	StateAuthenticated       LoginState = "AUTHENTICATED"
	StateRejected            LoginState = "REJECTED"
)

// Verifier confirms credentials and resolves the member identity.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (domain.Identity, error)
}

// LoginResult is what a login attempt produces. Pair is only set when State
// is StateAuthenticated.
type LoginResult struct {
	State    LoginState
	Username string
	Identity domain.Identity
	Pair     domain.TokenPair
}

// LoginFilter intercepts credential submission on the login path.
type LoginFilter struct {
	path       string
	verifier   Verifier
	codec      *TokenCodec
	attempts   repository.LoginAttemptRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// LoginFilterDependencies bundles collaborators. Attempts and Dispatcher are optional.
type LoginFilterDependencies struct {
	Path       string
	Verifier   Verifier
	Codec      *TokenCodec
	Attempts   repository.LoginAttemptRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewLoginFilter constructs the filter.
func NewLoginFilter(deps LoginFilterDependencies) *LoginFilter {
	if deps.Path == "" {
		deps.Path = "/api/login"
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &LoginFilter{
		path:       deps.Path,
		verifier:   deps.Verifier,
		codec:      deps.Codec,
		attempts:   deps.Attempts,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// Authenticate runs one login attempt from the raw JSON body.
func (f *LoginFilter) Authenticate(ctx context.Context, body []byte) (LoginResult, error) {
	result := LoginResult{State: StateAwaitingCredentials}

	var req dto.LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		result.State = StateRejected
		return result, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	req.Username = strings.TrimSpace(req.Username)
	result.Username = req.Username
	if req.Username == "" || req.Password == "" {
		result.State = StateRejected
		return result, fmt.Errorf("%w: username and password required", ErrMalformedRequest)
	}

	// Attempts are counted before the password check, not after a failure.
	if f.claimAttempt(ctx, req.Username) {
		result.State = StateRejected
		return result, ErrLoginThrottled
	}

	identity, err := f.verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		result.State = StateRejected
		if errors.Is(err, ErrInvalidCredentials) {
			return result, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		f.releaseAttempt(ctx, req.Username)
		return result, err
	}
	f.resetFailures(ctx, req.Username)

	now := f.now()
	access, err := f.codec.Issue(identity, domain.TokenTypeAccess, now)
	if err != nil {
		result.State = StateRejected
		return result, err
	}
	refresh, err := f.codec.Issue(identity, domain.TokenTypeRefresh, now)
	if err != nil {
		result.State = StateRejected
		return result, err
	}

	result.State = StateAuthenticated
	result.Identity = identity
	result.Pair = domain.TokenPair{AccessToken: access, RefreshToken: &refresh}
	return result, nil
}

// Handle is a fiber middleware. It answers POST requests on the login path
// and passes every other request down the chain.
func (f *LoginFilter) Handle(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost || c.Path() != f.path {
		return c.Next()
	}

	result, err := f.Authenticate(c.UserContext(), c.Body())
	if err != nil {
		f.publish(c.UserContext(), events.New(events.EventLoginFailed, result.Username, "",
			events.LoginFailedPayload{Reason: failureReason(err), RemoteIP: c.IP()}))
		return ToDomainError(err)
	}

	f.publish(c.UserContext(), events.New(events.EventLoginSucceeded, result.Identity.Subject, result.Identity.Role,
		events.LoginSucceededPayload{MemberID: result.Identity.ID, RemoteIP: c.IP()}))
	return c.JSON(TokenResponseFromPair(result.Pair))
}

// TokenResponseFromPair serializes a pair for the wire.
func TokenResponseFromPair(pair domain.TokenPair) dto.TokenResponse {
	resp := dto.TokenResponse{AccessToken: pair.AccessToken.Value}
	if pair.RefreshToken != nil {
		resp.RefreshToken = pair.RefreshToken.Value
	}
	return resp
}

// claimAttempt reports whether the username is locked. Throttle errors
// fail open.
func (f *LoginFilter) claimAttempt(ctx context.Context, username string) bool {
	if f.attempts == nil {
		return false
	}
	lockedFor, err := f.attempts.Claim(ctx, username)
	if err != nil {
		f.logger.Warn("login throttle unavailable", zap.Error(err))
		return false
	}
	if lockedFor > 0 {
		f.logger.Info("username locked after failed logins",
			zap.String("username", username), zap.Duration("locked_for", lockedFor))
		return true
	}
	return false
}

func (f *LoginFilter) releaseAttempt(ctx context.Context, username string) {
	if f.attempts == nil {
		return
	}
	if err := f.attempts.Release(ctx, username); err != nil {
		f.logger.Warn("release login attempt", zap.Error(err))
	}
}

func (f *LoginFilter) resetFailures(ctx context.Context, username string) {
	if f.attempts == nil {
		return
	}
	if err := f.attempts.Reset(ctx, username); err != nil {
		f.logger.Warn("reset failed logins", zap.Error(err))
	}
}

func (f *LoginFilter) publish(ctx context.Context, event events.Event) {
	if f.dispatcher == nil {
		return
	}
	if err := f.dispatcher.Publish(ctx, event); err != nil {
		f.logger.Warn("publish auth event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, ErrLoginThrottled):
		return "throttled"
	case errors.Is(err, ErrAuthenticationFailed):
		return "bad_credentials"
	}
	return "internal"
}
