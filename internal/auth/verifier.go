package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/repository"
)

// CredentialStore is the member lookup the verifier needs.
type CredentialStore interface {
	FindCredential(ctx context.Context, username string) (*domain.Credential, error)
}

// CredentialVerifier confirms a username/password pair against stored hashes.
type CredentialVerifier struct {
	store     CredentialStore
	dummyHash string
}

// NewCredentialVerifier constructs a verifier. bcryptCost should match the
// cost used for stored hashes so unknown usernames take as long as wrong passwords.
func NewCredentialVerifier(store CredentialStore, bcryptCost int) (*CredentialVerifier, error) {
	dummy, err := HashPassword("tickerbell-unknown-member", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("credential verifier: %w", err)
	}
	return &CredentialVerifier{store: store, dummyHash: dummy}, nil
}

// Verify returns the identity for a matching username/password pair, or
// ErrInvalidCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (domain.Identity, error) {
	cred, err := v.store.FindCredential(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			_ = ComparePassword(v.dummyHash, password)
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("find credential: %w", err)
	}
	if err := ComparePassword(cred.PasswordHash, password); err != nil {
		return domain.Identity{}, ErrInvalidCredentials
	}
	return domain.Identity{Subject: cred.Username, Role: cred.Role, ID: cred.ID}, nil
}
