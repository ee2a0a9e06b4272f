package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisList_RevokeAndExpire(t *testing.T) {
	client, mr := setupTestRedis(t)
	list := NewRedisList(client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("revoked_token:jti-1"))

	mr.FastForward(2 * time.Hour)

	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisList_SkipsExpiredTokens(t *testing.T) {
	client, mr := setupTestRedis(t)
	list := NewRedisList(client)

	require.NoError(t, list.Revoke(context.Background(), "jti-1", -time.Minute))
	assert.False(t, mr.Exists("revoked_token:jti-1"))
}

func TestRedisList_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	list := NewRedisList(client)
	mr.Close()

	_, err := list.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
	assert.Error(t, list.Revoke(context.Background(), "jti-1", time.Hour))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = NewClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var list List = Noop{}
	require.NoError(t, list.Revoke(context.Background(), "jti", time.Hour))
	revoked, err := list.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
