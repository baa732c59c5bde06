package persistence

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickerbell/ticket-service/internal/config"
)

func TestPendingMigrationsSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_indexes.sql": {Data: []byte("SELECT 1")},
		"001_members.sql": {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("notes")},
		"old/003.sql":     {Data: []byte("SELECT 1")},
	}

	names, err := PendingMigrations(fsys, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_members.sql", "002_indexes.sql"}, names)

	names, err = PendingMigrations(fsys, map[string]bool{"001_members.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_indexes.sql"}, names)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestRedisPing(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()
	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))

	var missing *Redis
	assert.Error(t, missing.Ping(context.Background()))
}
