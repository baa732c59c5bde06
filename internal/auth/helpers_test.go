package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/repository"
	apperrors "github.com/tickerbell/ticket-service/pkg/util/errorutil"
)

type fakeCredentialStore struct {
	mu      sync.Mutex
	members map[string]domain.Credential
	err     error
	lookups int
}

func newFakeCredentialStore(t *testing.T) *fakeCredentialStore {
	t.Helper()
	hash, err := HashPassword("correct-pw", bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeCredentialStore{members: map[string]domain.Credential{
		"alice": {ID: alice.ID, Username: "alice", PasswordHash: hash, Role: domain.RoleUser},
	}}
}

func (s *fakeCredentialStore) FindCredential(_ context.Context, username string) (*domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	cred, ok := s.members[username]
	if !ok {
		return nil, repository.ErrMemberNotFound
	}
	return &cred, nil
}

type fakeLoginAttempts struct {
	mu        sync.Mutex
	lockedFor time.Duration
	err       error
	claims    map[string]int
	releases  map[string]int
	resets    map[string]int
}

func newFakeLoginAttempts() *fakeLoginAttempts {
	return &fakeLoginAttempts{claims: map[string]int{}, releases: map[string]int{}, resets: map[string]int{}}
}

func (f *fakeLoginAttempts) Claim(_ context.Context, username string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.claims[username]++
	return f.lockedFor, nil
}

func (f *fakeLoginAttempts) Release(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases[username]++
	return f.err
}

func (f *fakeLoginAttempts) Reset(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[username]++
	return f.err
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestApp mirrors the production error middleware closely enough for
// status and code assertions.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
		},
	})
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeError(t *testing.T, data []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}
