package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerbell/ticket-service/internal/domain"
)

func TestMemoryMemberRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMemberRepository()

	member := &domain.Member{Username: "alice", PasswordHash: "hash", Role: domain.RoleHost}
	require.NoError(t, repo.Create(ctx, member))
	assert.NotEmpty(t, member.ID)
	assert.False(t, member.CreatedAt.IsZero())

	err := repo.Create(ctx, &domain.Member{Username: "alice", PasswordHash: "other", Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	byID, err := repo.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	cred, err := repo.FindCredential(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, member.ID, cred.ID)
	assert.Equal(t, "hash", cred.PasswordHash)
	assert.Equal(t, domain.RoleHost, cred.Role)

	_, err = repo.FindCredential(ctx, "bob")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemoryMemberRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMemberRepository()

	member := &domain.Member{Username: "alice", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, repo.Create(ctx, member))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	got.Role = domain.RoleAdmin

	again, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, again.Role)
}
