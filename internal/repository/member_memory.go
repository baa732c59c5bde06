package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tickerbell/ticket-service/internal/domain"
)

// memoryMemberRepository keeps members in process memory. It backs local
// runs without POSTGRES_DSN and the HTTP tests.
type memoryMemberRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.Member
	byUsername map[string]string
	now        func() time.Time
}

// NewMemoryMemberRepository returns an empty in-memory member store.
func NewMemoryMemberRepository() MemberRepository {
	return &memoryMemberRepository{
		byID:       make(map[string]*domain.Member),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (r *memoryMemberRepository) Create(_ context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[member.Username]; ok {
		return ErrUsernameTaken
	}
	now := r.now().UTC()
	member.ID = uuid.NewString()
	member.CreatedAt = now
	member.UpdatedAt = now

	stored := *member
	r.byID[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	return nil
}

func (r *memoryMemberRepository) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.byID[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	out := *member
	return &out, nil
}

func (r *memoryMemberRepository) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrMemberNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *memoryMemberRepository) FindCredential(ctx context.Context, username string) (*domain.Credential, error) {
	member, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &domain.Credential{
		ID:           member.ID,
		Username:     member.Username,
		PasswordHash: member.PasswordHash,
		Role:         member.Role,
	}, nil
}
