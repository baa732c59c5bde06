package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickerbell/ticket-service/internal/domain"
)

var (
	// ErrMemberNotFound is returned when no member has the requested username or id.
	ErrMemberNotFound = errors.New("member not found")
	// ErrUsernameTaken is returned when a join collides with an existing username.
	ErrUsernameTaken = errors.New("username already registered")

	errNoPool = errors.New("postgres pool not configured")
)

const uniqueViolation = "23505"

// MemberRepository defines persistence access for members.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByUsername(ctx context.Context, username string) (*domain.Member, error)
	FindCredential(ctx context.Context, username string) (*domain.Credential, error)
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a Postgres-backed implementation.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	if r.pool == nil {
		return errNoPool
	}
	const query = `
        INSERT INTO members (username, password_hash, phone, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		member.Username,
		member.PasswordHash,
		member.Phone,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	const query = `
        SELECT id, username, password_hash, phone, role, created_at, updated_at
        FROM members WHERE id=$1`
	return r.getOne(ctx, query, id)
}

func (r *memberRepository) GetByUsername(ctx context.Context, username string) (*domain.Member, error) {
	const query = `
        SELECT id, username, password_hash, phone, role, created_at, updated_at
        FROM members WHERE username=$1`
	return r.getOne(ctx, query, username)
}

func (r *memberRepository) FindCredential(ctx context.Context, username string) (*domain.Credential, error) {
	if r.pool == nil {
		return nil, errNoPool
	}
	const query = `
        SELECT id, username, password_hash, role
        FROM members WHERE username=$1`

	var cred domain.Credential
	if err := r.pool.QueryRow(ctx, query, username).Scan(
		&cred.ID,
		&cred.Username,
		&cred.PasswordHash,
		&cred.Role,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *memberRepository) getOne(ctx context.Context, query string, arg any) (*domain.Member, error) {
	if r.pool == nil {
		return nil, errNoPool
	}
	var member domain.Member
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID,
		&member.Username,
		&member.PasswordHash,
		&member.Phone,
		&member.Role,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}
