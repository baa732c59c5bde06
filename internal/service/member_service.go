package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/tickerbell/ticket-service/internal/auth"
	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/events"
	"github.com/tickerbell/ticket-service/internal/repository"
	apperrors "github.com/tickerbell/ticket-service/pkg/util/errorutil"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

// JoinInput carries the fields of a join request.
type JoinInput struct {
	Username string
	Password string
	Phone    string
	Role     string
}

// MemberService coordinates member registration and lookup.
type MemberService struct {
	members    repository.MemberRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// MemberDependencies bundles collaborators for the member service.
type MemberDependencies struct {
	Members    repository.MemberRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// NewMemberService builds the service.
func NewMemberService(deps MemberDependencies) *MemberService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &MemberService{
		members:    deps.Members,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// Join registers a new member with a self-assignable role.
func (s *MemberService) Join(ctx context.Context, in JoinInput) (*domain.Member, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.NewValidationError("username must be 3-32 characters of a-z, 0-9, '_', '.' or '-'",
			map[string]any{"field": "username"})
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordBytes {
		return nil, apperrors.NewValidationError("password must be between 8 and 72 characters",
			map[string]any{"field": "password"})
	}
	role, err := parseJoinRole(in.Role)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	member := &domain.Member{
		Username:     username,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperrors.NewConflict("username already registered", map[string]any{"username": username})
		}
		return nil, err
	}

	s.publish(ctx, events.New(events.EventMemberJoined, member.Username, member.Role,
		events.MemberJoinedPayload{MemberID: member.ID}))
	return member, nil
}

// Me loads the member behind an authenticated identity.
func (s *MemberService) Me(ctx context.Context, identity domain.Identity) (*domain.Member, error) {
	var (
		member *domain.Member
		err    error
	)
	if identity.ID != "" {
		member, err = s.members.GetByID(ctx, identity.ID)
	} else {
		member, err = s.members.GetByUsername(ctx, identity.Subject)
	}
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return nil, apperrors.NewNotFound("member", map[string]any{"username": identity.Subject})
		}
		return nil, err
	}
	return member, nil
}

func parseJoinRole(raw string) (domain.Role, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return domain.RoleUser, nil
	}
	for _, role := range auth.SelfAssignableRoles {
		if string(role) == raw {
			return role, nil
		}
	}
	return "", apperrors.NewValidationError("role cannot be self-assigned", map[string]any{"role": raw})
}

func (s *MemberService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish member event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
