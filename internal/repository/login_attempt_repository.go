package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginFailurePrefix = "login:fail:"

// claimAttemptLua counts one login attempt and makes sure the counter expires.
// A counter left without a TTL is given one here, so a lost EXPIRE cannot
// lock a username for good.
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
//
// Returns {attempts, ttl_ms}.
var claimAttemptLua = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// releaseAttemptLua takes back one claimed attempt. A missing key stays missing.
// KEYS[1] = counter key
var releaseAttemptLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
end
return n
`)

// LoginAttemptRepository counts login attempts per username within a window.
type LoginAttemptRepository interface {
	// Claim records one attempt before credentials are checked. It returns
	// how long the username stays locked when the attempt is over the limit,
	// or zero when the attempt may proceed.
	Claim(ctx context.Context, username string) (time.Duration, error)
	// Release gives back a claimed attempt that ended without a credential verdict.
	Release(ctx context.Context, username string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, username string) error
}

type loginAttemptRepository struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginAttemptRepository returns a Redis-backed counter. The window is
// both the counting period and the lock duration.
func NewLoginAttemptRepository(client *redis.Client, maxAttempts int, window time.Duration) LoginAttemptRepository {
	return &loginAttemptRepository{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (r *loginAttemptRepository) Claim(ctx context.Context, username string) (time.Duration, error) {
	if r.disabled() {
		return 0, nil
	}
	res, err := claimAttemptLua.Run(ctx, r.client,
		[]string{loginFailureKey(username)},
		r.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, err
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("claim login attempt: unexpected script result %v", res)
	}

	attempts, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if attempts <= r.maxAttempts {
		return 0, nil
	}
	if ttl <= 0 {
		return r.window, nil
	}
	return ttl, nil
}

func (r *loginAttemptRepository) Release(ctx context.Context, username string) error {
	if r.disabled() {
		return nil
	}
	return releaseAttemptLua.Run(ctx, r.client, []string{loginFailureKey(username)}).Err()
}

func (r *loginAttemptRepository) Reset(ctx context.Context, username string) error {
	return r.client.Del(ctx, loginFailureKey(username)).Err()
}

func (r *loginAttemptRepository) disabled() bool {
	return r.maxAttempts <= 0 || r.window <= 0
}

func loginFailureKey(username string) string {
	return loginFailurePrefix + strings.ToLower(strings.TrimSpace(username))
}
