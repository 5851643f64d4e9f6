package database_test

import (
	"context"
	"testing"

	"github.com/pawaaan9/ictb-donations/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_WithToken(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	client, err := database.NewRedisClient(context.Background(), "redis://"+mr.Addr(), "s3cret")
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := database.NewRedisClient(context.Background(), "://nope", "")
	assert.Error(t, err)
}

func TestNewRedisClient_WrongToken(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := database.NewRedisClient(context.Background(), "redis://"+mr.Addr(), "wrong")
	assert.Error(t, err)
}

func TestOpenRedis_NoNetwork(t *testing.T) {
	client, err := database.OpenRedis("redis://127.0.0.1:1/0", "tok")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "tok", client.Options().Password)
}

func TestOpenRedis_RejectsRestURL(t *testing.T) {
	_, err := database.OpenRedis("https://eu1-example.upstash.io", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rediss://")
}
