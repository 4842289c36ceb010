package session

import (
	"context"
	"testing"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMarker(t *testing.T) {
	m := NewMemoryMarker(time.Hour)
	now := time.Now()
	m.now = func() time.Time { return now }
	job := uuid.New()
	ctx := context.Background()

	first, err := m.MarkOnce(ctx, "s1", job)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := m.MarkOnce(ctx, "s1", job)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := m.MarkOnce(ctx, "s2", job)
	require.NoError(t, err)
	assert.True(t, other)

	now = now.Add(2 * time.Hour)
	expired, err := m.MarkOnce(ctx, "s1", job)
	require.NoError(t, err)
	assert.True(t, expired)

	_, err = m.MarkOnce(ctx, " ", job)
	assert.Error(t, err)
}

func TestNewDriver(t *testing.T) {
	m, err := New(&config.SessionConfig{MarkerDriver: "memory", MarkerTTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &MemoryMarker{}, m)

	_, err = New(&config.SessionConfig{MarkerDriver: "etcd"})
	assert.Error(t, err)
}

func TestRedisMarker(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	m := NewRedisMarker(client, time.Minute)
	session := uuid.NewString()
	job := uuid.New()
	t.Cleanup(func() { client.Del(context.Background(), key(session, job)) })

	first, err := m.MarkOnce(ctx, session, job)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := m.MarkOnce(ctx, session, job)
	require.NoError(t, err)
	assert.False(t, again)
}
