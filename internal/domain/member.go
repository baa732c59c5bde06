package domain

import "time"

// Role enumerates member roles carried in tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleHost  Role = "HOST"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// Member is an account that can log in: a ticket buyer or an event host.
type Member struct {
	ID           string
	Username     string
	PasswordHash string
	Phone        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credential is the slice of a member needed to verify a login.
type Credential struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
}

// Identity returns the token-facing view of the member.
func (m *Member) Identity() Identity {
	return Identity{Subject: m.Username, Role: m.Role, ID: m.ID}
}
