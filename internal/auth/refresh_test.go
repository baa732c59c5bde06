package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerbell/ticket-service/internal/api/dto"
	"github.com/tickerbell/ticket-service/internal/domain"
	"github.com/tickerbell/ticket-service/internal/events"
)

func TestRefreshIssuesLaterAccessToken(t *testing.T) {
	codec := newTestCodec(t)
	svc := NewRefreshService(RefreshDependencies{Codec: codec, Rotate: true})

	oldAccess, err := codec.Issue(alice, domain.TokenTypeAccess, t0)
	require.NoError(t, err)
	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, t0)
	require.NoError(t, err)

	later := t0.Add(20 * time.Minute)
	pair, identity, err := svc.Refresh(context.Background(), refresh.Value, later)
	require.NoError(t, err)

	assert.Equal(t, alice, identity)
	assert.True(t, pair.AccessToken.ExpiresAt.After(oldAccess.ExpiresAt))
	require.NotNil(t, pair.RefreshToken)
	assert.NotEqual(t, refresh.Value, pair.RefreshToken.Value)

	got, err := codec.Validate(pair.AccessToken.Value, domain.TokenTypeAccess, later)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestRefreshWithoutRotationKeepsRefreshToken(t *testing.T) {
	codec := newTestCodec(t)
	svc := NewRefreshService(RefreshDependencies{Codec: codec, Rotate: false})

	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, t0)
	require.NoError(t, err)

	pair, _, err := svc.Refresh(context.Background(), refresh.Value, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, pair.RefreshToken)
	assert.NotEmpty(t, pair.AccessToken.Value)
}

func TestRefreshOldTokenStillValidAfterRotation(t *testing.T) {
	codec := newTestCodec(t)
	svc := NewRefreshService(RefreshDependencies{Codec: codec, Rotate: true})

	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, t0)
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), refresh.Value, t0.Add(time.Minute))
	require.NoError(t, err)

	// No revocation store: the presented token keeps working until it expires.
	_, _, err = svc.Refresh(context.Background(), refresh.Value, t0.Add(2*time.Minute))
	assert.NoError(t, err)
}

func TestRefreshPropagatesCodecErrors(t *testing.T) {
	codec := newTestCodec(t)
	svc := NewRefreshService(RefreshDependencies{Codec: codec, Rotate: true})

	access, err := codec.Issue(alice, domain.TokenTypeAccess, t0)
	require.NoError(t, err)
	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, t0)
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), access.Value, t0)
	assert.ErrorIs(t, err, ErrTokenTypeMismatch)

	_, _, err = svc.Refresh(context.Background(), refresh.Value, refresh.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, _, err = svc.Refresh(context.Background(), "garbage", t0)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestRefreshHTTP(t *testing.T) {
	codec := newTestCodec(t)
	clock := &fixedClock{now: t0}
	dispatcher := events.NewInMemoryDispatcher()
	var refreshed []events.Event
	dispatcher.Subscribe(events.EventTokenRefreshed, func(_ context.Context, e events.Event) error {
		refreshed = append(refreshed, e)
		return nil
	})
	svc := NewRefreshService(RefreshDependencies{Codec: codec, Rotate: true, Dispatcher: dispatcher, Now: clock.Now})

	app := newTestApp()
	app.Post("/api/refresh", svc.Handle)

	access, err := codec.Issue(alice, domain.TokenTypeAccess, t0)
	require.NoError(t, err)
	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, t0)
	require.NoError(t, err)

	t.Run("access token is rejected as wrong type", func(t *testing.T) {
		status, data := doJSON(t, app, http.MethodPost, "/api/refresh", `{"refreshToken":"`+access.Value+`"}`, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_TYPE_MISMATCH", decodeError(t, data).Error.Code)
	})

	t.Run("valid refresh token yields a later access token", func(t *testing.T) {
		clock.Advance(5 * time.Minute)

		status, data := doJSON(t, app, http.MethodPost, "/api/refresh", `{"refreshToken":"`+refresh.Value+`"}`, nil)
		require.Equal(t, http.StatusOK, status, string(data))

		var resp dto.TokenResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		assert.NotEmpty(t, resp.RefreshToken)

		newClaims, err := codec.parse(resp.AccessToken)
		require.NoError(t, err)
		oldClaims, err := codec.parse(access.Value)
		require.NoError(t, err)
		assert.True(t, newClaims.ExpiresAt.Time.After(oldClaims.ExpiresAt.Time))

		require.Len(t, refreshed, 1)
		assert.Equal(t, "alice", refreshed[0].Subject)
	})

	t.Run("missing token is a bad request", func(t *testing.T) {
		status, data := doJSON(t, app, http.MethodPost, "/api/refresh", `{}`, nil)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "MALFORMED_REQUEST", decodeError(t, data).Error.Code)

		status, _ = doJSON(t, app, http.MethodPost, "/api/refresh", `{"refreshToken":`, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		clock.Advance(25 * time.Hour)

		status, data := doJSON(t, app, http.MethodPost, "/api/refresh", `{"refreshToken":"`+refresh.Value+`"}`, nil)
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_EXPIRED", decodeError(t, data).Error.Code)
	})
}

func TestRefreshExpiryHasSecondPrecision(t *testing.T) {
	codec := newTestCodec(t)
	svc := NewRefreshService(RefreshDependencies{Codec: codec})

	loginAt := t0.Add(100 * time.Millisecond)
	access, err := codec.Issue(alice, domain.TokenTypeAccess, loginAt)
	require.NoError(t, err)
	refresh, err := codec.Issue(alice, domain.TokenTypeRefresh, loginAt)
	require.NoError(t, err)

	sameSecond, _, err := svc.Refresh(context.Background(), refresh.Value, t0.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, sameSecond.AccessToken.ExpiresAt.Equal(access.ExpiresAt))

	nextSecond, _, err := svc.Refresh(context.Background(), refresh.Value, t0.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, nextSecond.AccessToken.ExpiresAt.After(access.ExpiresAt))
}
