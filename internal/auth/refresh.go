package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tickerbell/ticket-service/internal/api/dto"
	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/events"
)

// RefreshService exchanges a refresh token for a new access token.
//
// With rotation enabled a new refresh token is issued as well, but the
// presented one is not revoked: it stays valid until its own expiry because
// there is no server-side token store.
type RefreshService struct {
	codec      *TokenCodec
	rotate     bool
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// RefreshDependencies bundles collaborators. Dispatcher is optional.
type RefreshDependencies struct {
	Codec      *TokenCodec
	Rotate     bool
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewRefreshService constructs the service.
func NewRefreshService(deps RefreshDependencies) *RefreshService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &RefreshService{
		codec:      deps.Codec,
		rotate:     deps.Rotate,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// Refresh validates refreshToken as a REFRESH token at now and issues a new
// pair. Codec errors are returned unchanged.
func (s *RefreshService) Refresh(_ context.Context, refreshToken string, now time.Time) (domain.TokenPair, domain.Identity, error) {
	identity, err := s.codec.Validate(refreshToken, domain.TokenTypeRefresh, now)
	if err != nil {
		return domain.TokenPair{}, domain.Identity{}, err
	}

	access, err := s.codec.Issue(identity, domain.TokenTypeAccess, now)
	if err != nil {
		return domain.TokenPair{}, domain.Identity{}, err
	}
	pair := domain.TokenPair{AccessToken: access}

	if s.rotate {
		refresh, err := s.codec.Issue(identity, domain.TokenTypeRefresh, now)
		if err != nil {
			return domain.TokenPair{}, domain.Identity{}, err
		}
		pair.RefreshToken = &refresh
	}
	return pair, identity, nil
}

// Handle serves POST /api/refresh.
func (s *RefreshService) Handle(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return ToDomainError(fmt.Errorf("%w: %v", ErrMalformedRequest, err))
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		return ToDomainError(fmt.Errorf("%w: refreshToken required", ErrMalformedRequest))
	}

	pair, identity, err := s.Refresh(c.UserContext(), token, s.now())
	if err != nil {
		return ToDomainError(err)
	}

	if s.dispatcher != nil {
		event := events.New(events.EventTokenRefreshed, identity.Subject, identity.Role,
			events.TokenRefreshedPayload{Rotated: pair.RefreshToken != nil})
		if err := s.dispatcher.Publish(c.UserContext(), event); err != nil {
			s.logger.Warn("publish auth event", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}
	return c.JSON(TokenResponseFromPair(pair))
}
